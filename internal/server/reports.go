package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/advocase/internal/report/domain"
)

// ReportExportRateLimit applies the shared redis token bucket to report
// downloads. Disabled limiter means every request passes.
func (s *Server) ReportExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.reportLimiter == nil || !s.reportLimiter.Enabled() {
			c.Next()
			return
		}

		orgID, ok := s.orgIDFromGinContext(c)
		if !ok {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		allowed, err := s.reportLimiter.AllowOrg(c.Request.Context(), orgID.String())
		if err != nil {
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if s.httpMetrics != nil {
			s.httpMetrics.RecordRateLimit("reports", allowed)
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

// ReportFilters serves the filter metadata report screens render: the
// org's contact type groups with their types.
func (s *Server) ReportFilters(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	groups, err := s.contactTypeSvc.ListGroups(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contact_type_groups": groups,
		"formats":             []string{reportdomain.FormatCSV, reportdomain.FormatXLSX},
	})
}

func (s *Server) CaseContactsReport(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	filter, err := parseReportFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format := exportFormat(c)

	export, err := s.withReportLock(c, orgID, "case_contacts", func() (*reportdomain.Export, error) {
		return s.reportSvc.CaseContacts(c.Request.Context(), orgID, filter, format)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.streamExport(c, "case_contacts", format, export)
}

func (s *Server) MileageReport(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	export, err := s.withReportLock(c, orgID, "mileage", func() (*reportdomain.Export, error) {
		return s.reportSvc.Mileage(c.Request.Context(), orgID)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.streamExport(c, "mileage", reportdomain.FormatCSV, export)
}

func (s *Server) MissingDataReport(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	export, err := s.withReportLock(c, orgID, "missing_data", func() (*reportdomain.Export, error) {
		return s.reportSvc.MissingData(c.Request.Context(), orgID)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.streamExport(c, "missing_data", reportdomain.FormatCSV, export)
}

func (s *Server) LearningHoursReport(c *gin.Context) {
	orgID, ok := s.orgIDFromGinContext(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	export, err := s.withReportLock(c, orgID, "learning_hours", func() (*reportdomain.Export, error) {
		return s.reportSvc.LearningHours(c.Request.Context(), orgID)
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.streamExport(c, "learning_hours", reportdomain.FormatCSV, export)
}

// withReportLock serializes generation of the same report per org so
// overlapping downloads don't recompute one export concurrently.
func (s *Server) withReportLock(c *gin.Context, orgID snowflake.ID, report string, generate func() (*reportdomain.Export, error)) (*reportdomain.Export, error) {
	if s.reportLimiter == nil || !s.reportLimiter.Enabled() {
		return generate()
	}

	token, ok, err := s.reportLimiter.TryLockReport(c.Request.Context(), orgID.String(), report)
	if err != nil {
		return nil, ErrServiceUnavailable
	}
	if !ok {
		return nil, ErrTooManyRequests
	}
	defer func() {
		_ = s.reportLimiter.ReleaseReport(c.Request.Context(), orgID.String(), report, token)
	}()

	return generate()
}

func (s *Server) streamExport(c *gin.Context, report string, format string, export *reportdomain.Export) {
	c.Set("report_name", report)
	if s.httpMetrics != nil {
		s.httpMetrics.RecordReportExport(report, format)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

func parseReportFilter(c *gin.Context) (reportdomain.Filter, error) {
	var filter reportdomain.Filter

	startDate, err := parseOptionalTime(c.Query("start_date"), false)
	if err != nil {
		return filter, ErrInvalidRequest
	}
	endDate, err := parseOptionalTime(c.Query("end_date"), true)
	if err != nil {
		return filter, ErrInvalidRequest
	}
	typeIDs, err := parseIDList(c.Query("contact_type_ids"))
	if err != nil {
		return filter, ErrInvalidRequest
	}
	groupIDs, err := parseIDList(c.Query("contact_type_group_ids"))
	if err != nil {
		return filter, ErrInvalidRequest
	}

	filter.StartDate = startDate
	filter.EndDate = endDate
	filter.ContactTypeIDs = typeIDs
	filter.ContactTypeGroupIDs = groupIDs
	return filter, nil
}

func exportFormat(c *gin.Context) string {
	format := strings.ToLower(strings.TrimSpace(c.Query("format")))
	if format == reportdomain.FormatXLSX {
		return reportdomain.FormatXLSX
	}
	return reportdomain.FormatCSV
}

// parseIDList splits a comma-separated query value into snowflake IDs.
func parseIDList(raw string) ([]snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	ids := make([]snowflake.ID, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		parsed, err := snowflake.ParseString(value)
		if err != nil || parsed == 0 {
			return nil, ErrInvalidRequest
		}
		ids = append(ids, parsed)
	}
	return ids, nil
}
