package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	"github.com/smallbiznis/advocase/internal/authorization"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	casecontactdomain "github.com/smallbiznis/advocase/internal/casecontact/domain"
	contacttypedomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	reportdomain "github.com/smallbiznis/advocase/internal/report/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ErrorHandlingMiddleware renders the last handler error. Validation
// failures keep the flat message-array body clients of the case forms
// expect; everything else gets a small typed JSON object.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := renderError(lastErr.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func renderError(err error) (int, any) {
	var caseErrs casacasedomain.ValidationErrors
	if errors.As(err, &caseErrs) {
		return http.StatusUnprocessableEntity, []string(caseErrs)
	}
	var contactErrs casecontactdomain.ValidationErrors
	if errors.As(err, &contactErrs) {
		return http.StatusUnprocessableEntity, []string(contactErrs)
	}
	var veto *casacasedomain.TransitionVetoError
	if errors.As(err, &veto) {
		return http.StatusUnprocessableEntity, []string{}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, gin.H{"error": "unauthorized"}
	case errors.Is(err, casacasedomain.ErrNotAuthorized),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, gin.H{"notice": casacasedomain.NoticeNotAuthorized}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, organizationdomain.ErrForbidden):
		return http.StatusForbidden, gin.H{"error": "forbidden"}
	case errors.Is(err, casacasedomain.ErrDuplicateCase):
		return http.StatusUnprocessableEntity, []string{"Case number has already been taken"}
	case errors.Is(err, reportdomain.ErrInvalidDateRange):
		return http.StatusUnprocessableEntity, []string{"Start date must be before end date"}
	case isNotFoundError(err):
		return http.StatusNotFound, gin.H{"error": "not_found"}
	case isValidationError(err):
		return http.StatusBadRequest, gin.H{"error": "invalid_request"}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, gin.H{"error": "too_many_requests"}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal_error"}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, casacasedomain.ErrCaseNotFound),
		errors.Is(err, casecontactdomain.ErrContactNotFound),
		errors.Is(err, contacttypedomain.ErrGroupNotFound),
		errors.Is(err, contacttypedomain.ErrContactTypeNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, casacasedomain.ErrInvalidRequest),
		errors.Is(err, casecontactdomain.ErrInvalidRequest),
		errors.Is(err, contacttypedomain.ErrInvalidName),
		errors.Is(err, organizationdomain.ErrInvalidName),
		errors.Is(err, organizationdomain.ErrInvalidUser),
		errors.Is(err, organizationdomain.ErrInvalidRole),
		errors.Is(err, organizationdomain.ErrNotMember):
		return true
	default:
		return false
	}
}

// classifyErrorForLog buckets handler errors for the request log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, _ := renderError(err)
	switch {
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return "validation", err.Error()
	case status == http.StatusUnauthorized:
		return "unauthorized", err.Error()
	case status == http.StatusForbidden:
		return "forbidden", err.Error()
	case status == http.StatusNotFound:
		return "not_found", err.Error()
	case status == http.StatusTooManyRequests:
		return "rate_limited", err.Error()
	default:
		return "internal", err.Error()
	}
}
