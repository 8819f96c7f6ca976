package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/clock"
	"github.com/smallbiznis/advocase/internal/config"
	ctdomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	"github.com/smallbiznis/advocase/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateOnlyLayout = "2006-01-02"

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	Repo         domain.Repository
	ContactTypes ctdomain.Repository
	Reporting    *config.ReportingConfigHolder
}

type Service struct {
	log          *zap.Logger
	clock        clock.Clock
	repo         domain.Repository
	contactTypes ctdomain.Repository
	reporting    *config.ReportingConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		log:          p.Log.Named("report.service"),
		clock:        p.Clock,
		repo:         p.Repo,
		contactTypes: p.ContactTypes,
		reporting:    p.Reporting,
	}
}

func (s *Service) CaseContacts(ctx context.Context, orgID snowflake.ID, filter domain.Filter, format string) (*domain.Export, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	policy := s.reporting.Get()
	from, to, err := s.resolveWindow(filter, policy)
	if err != nil {
		return nil, err
	}

	typeIDs, err := s.expandTypeFilter(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.QueryCaseContacts(ctx, orgID, from, to, typeIDs, filter.CasaCaseID, policy.MaxRows)
	if err != nil {
		return nil, err
	}

	contactIDs := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		contactIDs = append(contactIDs, row.ContactID)
	}
	names, err := s.repo.ContactTypeNames(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ContactTypes = names[rows[i].ContactID]
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, caseContactRecord(row))
	}

	date := s.clock.Now().Format(dateOnlyLayout)
	if format == domain.FormatXLSX {
		data, err := writeXLSX("Case Contacts", domain.CaseContactHeaders, records)
		if err != nil {
			return nil, err
		}
		return &domain.Export{
			Filename:    fmt.Sprintf("case-contacts-%s.xlsx", date),
			ContentType: domain.ContentTypeXLSX,
			Data:        data,
		}, nil
	}

	data, err := writeCSV(domain.CaseContactHeaders, records)
	if err != nil {
		return nil, err
	}
	return &domain.Export{
		Filename:    fmt.Sprintf("case-contacts-%s.csv", date),
		ContentType: domain.ContentTypeCSV,
		Data:        data,
	}, nil
}

func (s *Service) Mileage(ctx context.Context, orgID snowflake.ID) (*domain.Export, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rows, err := s.repo.QueryMileage(ctx, orgID)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.CreatorName,
			row.CreatorEmail,
			strconv.Itoa(row.TotalMiles),
		})
	}

	data, err := writeCSV([]string{"Name", "Email", "Total Miles Driven"}, records)
	if err != nil {
		return nil, err
	}
	return &domain.Export{
		Filename:    fmt.Sprintf("mileage-report-%s.csv", s.clock.Now().Format(dateOnlyLayout)),
		ContentType: domain.ContentTypeCSV,
		Data:        data,
	}, nil
}

func (s *Service) MissingData(ctx context.Context, orgID snowflake.ID) (*domain.Export, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rows, err := s.repo.QueryMissingData(ctx, orgID)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		missing := ""
		for i, field := range row.Missing {
			if i > 0 {
				missing += ", "
			}
			missing += field
		}
		records = append(records, []string{
			row.ContactID.String(),
			row.CaseNumber,
			row.CreatorName,
			row.OccurredAt.Format(dateOnlyLayout),
			missing,
		})
	}

	data, err := writeCSV([]string{"Internal Contact Number", "Casa Case Number", "Creator Name", "Occurred At", "Missing Fields"}, records)
	if err != nil {
		return nil, err
	}
	return &domain.Export{
		Filename:    fmt.Sprintf("missing-data-report-%s.csv", s.clock.Now().Format(dateOnlyLayout)),
		ContentType: domain.ContentTypeCSV,
		Data:        data,
	}, nil
}

func (s *Service) LearningHours(ctx context.Context, orgID snowflake.ID) (*domain.Export, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rows, err := s.repo.QueryLearningHours(ctx, orgID)
	if err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.UserName,
			row.UserEmail,
			row.Title,
			strconv.Itoa(row.DurationMinutes),
			row.OccurredAt.Format(dateOnlyLayout),
		})
	}

	data, err := writeCSV([]string{"Name", "Email", "Title", "Duration Minutes", "Occurred At"}, records)
	if err != nil {
		return nil, err
	}
	return &domain.Export{
		Filename:    fmt.Sprintf("learning-hours-report-%s.csv", s.clock.Now().Format(dateOnlyLayout)),
		ContentType: domain.ContentTypeCSV,
		Data:        data,
	}, nil
}

// resolveWindow applies the policy defaults and clamps oversized ranges.
func (s *Service) resolveWindow(filter domain.Filter, policy config.ReportingConfig) (time.Time, time.Time, error) {
	now := s.clock.Now().UTC()
	to := endOfDay(now)
	if filter.EndDate != nil {
		to = endOfDay(filter.EndDate.UTC())
	}

	from := startOfDay(to.AddDate(0, 0, -policy.DefaultWindowDays))
	if filter.StartDate != nil {
		from = startOfDay(filter.StartDate.UTC())
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	if policy.MaxWindowDays > 0 {
		earliest := startOfDay(to.AddDate(0, 0, -policy.MaxWindowDays))
		if from.Before(earliest) {
			from = earliest
		}
	}
	return from, to, nil
}

func (s *Service) expandTypeFilter(ctx context.Context, orgID snowflake.ID, filter domain.Filter) ([]snowflake.ID, error) {
	if len(filter.ContactTypeIDs) == 0 && len(filter.ContactTypeGroupIDs) == 0 {
		return nil, nil
	}

	seen := make(map[snowflake.ID]bool)
	var ids []snowflake.ID
	for _, id := range filter.ContactTypeIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	fromGroups, err := s.contactTypes.ListTypeIDsByGroupIDs(ctx, orgID, filter.ContactTypeGroupIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range fromGroups {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func caseContactRecord(row domain.CaseContactRow) []string {
	types := ""
	for i, name := range row.ContactTypes {
		if i > 0 {
			types += ", "
		}
		types += name
	}
	return []string{
		row.ContactID.String(),
		strconv.Itoa(row.DurationMinutes),
		types,
		strconv.FormatBool(row.ContactMade),
		row.Medium,
		row.OccurredAt.Format(dateOnlyLayout),
		row.CreatedAt.Format(dateOnlyLayout),
		strconv.Itoa(row.MilesDriven),
		strconv.FormatBool(row.WantDrivingReimbursement),
		row.CaseNumber,
		row.CreatorEmail,
		row.CreatorName,
		row.SupervisorName,
		row.Notes,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}
