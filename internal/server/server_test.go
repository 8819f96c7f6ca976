package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/advocase/internal/audit/domain"
	auditrepository "github.com/smallbiznis/advocase/internal/audit/repository"
	auditservice "github.com/smallbiznis/advocase/internal/audit/service"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	authrepository "github.com/smallbiznis/advocase/internal/auth/repository"
	authservice "github.com/smallbiznis/advocase/internal/auth/service"
	"github.com/smallbiznis/advocase/internal/auth/session"
	"github.com/smallbiznis/advocase/internal/authorization"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	casacaserepository "github.com/smallbiznis/advocase/internal/casacase/repository"
	casacaseservice "github.com/smallbiznis/advocase/internal/casacase/service"
	casecontactdomain "github.com/smallbiznis/advocase/internal/casecontact/domain"
	casecontactrepository "github.com/smallbiznis/advocase/internal/casecontact/repository"
	casecontactservice "github.com/smallbiznis/advocase/internal/casecontact/service"
	"github.com/smallbiznis/advocase/internal/clock"
	"github.com/smallbiznis/advocase/internal/config"
	contacttypedomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	contacttyperepository "github.com/smallbiznis/advocase/internal/contacttype/repository"
	contacttypeservice "github.com/smallbiznis/advocase/internal/contacttype/service"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	organizationrepository "github.com/smallbiznis/advocase/internal/organization/repository"
	organizationservice "github.com/smallbiznis/advocase/internal/organization/service"
	reportrepository "github.com/smallbiznis/advocase/internal/report/repository"
	reportservice "github.com/smallbiznis/advocase/internal/report/service"
	"github.com/smallbiznis/advocase/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testFixture struct {
	srv   *Server
	db    *gorm.DB
	node  *snowflake.Node
	orgID snowflake.ID
}

func newTestFixture(t *testing.T, guard casacasedomain.TransitionGuard) *testFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&organizationdomain.SupervisorVolunteer{},
		&contacttypedomain.ContactTypeGroup{},
		&contacttypedomain.ContactType{},
		&casacasedomain.CasaCase{},
		&casacasedomain.CaseCourtOrder{},
		&casacasedomain.CasaCaseContactType{},
		&casacasedomain.CaseAssignment{},
		&casecontactdomain.CaseContact{},
		&casecontactdomain.CaseContactContactType{},
		&casecontactdomain.OtherDuty{},
		&casecontactdomain.LearningHour{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	log := zap.NewNop()
	fc := clock.NewFakeClock(testNow)
	cfg := config.Config{HTTPAddr: ":0"}

	userRepo, sessionRepo := authrepository.New(dbConn)
	authSvc := authservice.New(log, userRepo, sessionRepo, node)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    dbConn,
		Log:   log,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	enforcer, err := authorization.NewEnforcer(dbConn)
	require.NoError(t, err)
	authzSvc := authorization.NewService(authorization.Params{
		DB:       dbConn,
		Log:      log,
		Enforcer: enforcer,
		AuditSvc: auditSvc,
	})

	ctRepo := contacttyperepository.NewRepository(dbConn)

	if guard == nil {
		guard = casacaseservice.NewAllowAllGuard()
	}
	casaCaseSvc := casacaseservice.NewService(casacaseservice.Params{
		DB:           dbConn,
		Log:          log,
		GenID:        node,
		Clock:        fc,
		Repo:         casacaserepository.NewRepository(dbConn),
		ContactTypes: ctRepo,
		Guard:        guard,
		AuditSvc:     auditSvc,
	})

	caseContactSvc := casecontactservice.NewService(casecontactservice.Params{
		DB:           dbConn,
		Log:          log,
		GenID:        node,
		Clock:        fc,
		Repo:         casecontactrepository.NewRepository(dbConn),
		ContactTypes: ctRepo,
	})

	reporting, err := config.NewReportingConfigHolder()
	require.NoError(t, err)
	reportSvc := reportservice.NewService(reportservice.Params{
		Log:          log,
		Clock:        fc,
		Repo:         reportrepository.NewRepository(dbConn),
		ContactTypes: ctRepo,
		Reporting:    reporting,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		DB:              dbConn,
		Authsvc:         authSvc,
		Sessions:        session.NewManager(cfg),
		GenID:           node,
		AuthzSvc:        authzSvc,
		AuditSvc:        auditSvc,
		OrganizationSvc: organizationservice.NewService(dbConn, organizationrepository.NewRepository(dbConn), node),
		ContactTypeSvc:  contacttypeservice.NewService(ctRepo, node),
		CasaCaseSvc:     casaCaseSvc,
		CaseContactSvc:  caseContactSvc,
		ReportSvc:       reportSvc,
	})
	registerRoutes(srv)

	f := &testFixture{srv: srv, db: dbConn, node: node, orgID: node.Generate()}

	org := organizationdomain.Organization{
		ID:   f.orgID,
		Name: "Main",
		Slug: "main",
	}
	require.NoError(t, dbConn.Create(&org).Error)
	return f
}

// createMember provisions a user with the given role and returns its
// session cookie.
func (f *testFixture) createMember(t *testing.T, email, role string) (snowflake.ID, *http.Cookie) {
	t.Helper()

	user, err := f.srv.authsvc.CreateUser(context.Background(), authdomain.CreateUserRequest{
		Email:       email,
		Password:    "correct-horse",
		DisplayName: "Test Member",
	})
	require.NoError(t, err)

	member := organizationdomain.OrganizationMember{
		ID:     f.node.Generate(),
		OrgID:  f.orgID,
		UserID: user.ID,
		Role:   role,
	}
	require.NoError(t, f.db.Create(&member).Error)

	body, _ := json.Marshal(gin.H{"email": email, "password": "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName {
			return user.ID, cookie
		}
	}
	t.Fatalf("login response carried no %s cookie", session.DefaultCookieName)
	return 0, nil
}

func (f *testFixture) request(t *testing.T, method, path string, payload any, cookie *http.Cookie, orgID snowflake.ID) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if orgID != 0 {
		req.Header.Set(HeaderOrg, orgID.String())
	}

	w := httptest.NewRecorder()
	f.srv.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestCreateCasaCase(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, "CINA-21-1234", resp.CasaCase.CaseNumber)
	assert.True(t, resp.CasaCase.Active)
}

func TestCreateCasaCaseValidationBody(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{}, cookie, f.orgID)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var msgs []string
	decodeJSON(t, w, &msgs)
	assert.Equal(t, []string{
		"Case number can't be blank",
		"Birth month year youth can't be blank",
	}, msgs)
}

func TestCreateCasaCaseDuplicateNumber(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	payload := gin.H{"case_number": "CINA-21-1234", "birth_month_year_youth": "2012-03"}
	w := f.request(t, http.MethodPost, "/casa_cases", payload, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodPost, "/casa_cases", payload, cookie, f.orgID)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var msgs []string
	decodeJSON(t, w, &msgs)
	assert.Equal(t, []string{"Case number has already been taken"}, msgs)
}

func TestCreateCasaCaseVolunteerGetsNotice(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "volunteer@example.org", organizationdomain.RoleVolunteer)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]string
	decodeJSON(t, w, &resp)
	assert.Equal(t, casacasedomain.NoticeNotAuthorized, resp["notice"])
}

func TestGetCasaCaseCrossOrgNotFound(t *testing.T) {
	f := newTestFixture(t, nil)
	userID, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
	}
	decodeJSON(t, w, &resp)

	otherOrg := organizationdomain.Organization{ID: f.node.Generate(), Name: "Other", Slug: "other"}
	require.NoError(t, f.db.Create(&otherOrg).Error)
	require.NoError(t, f.db.Create(&organizationdomain.OrganizationMember{
		ID:     f.node.Generate(),
		OrgID:  otherOrg.ID,
		UserID: userID,
		Role:   organizationdomain.RoleAdmin,
	}).Error)

	w = f.request(t, http.MethodGet, fmt.Sprintf("/casa_cases/%s", resp.CasaCase.ID), nil, cookie, otherOrg.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeactivateCasaCase(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
	}
	decodeJSON(t, w, &created)

	w = f.request(t, http.MethodPatch, fmt.Sprintf("/casa_cases/%s/deactivate", created.CasaCase.ID), nil, cookie, f.orgID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
		Notice   string                  `json:"notice"`
	}
	decodeJSON(t, w, &resp)
	assert.False(t, resp.CasaCase.Active)
	assert.Equal(t, "Case CINA-21-1234 has been deactivated.", resp.Notice)
}

type holdGuard struct{}

func (holdGuard) Check(ctx context.Context, casaCase *casacasedomain.CasaCase, targetActive bool) error {
	return &casacasedomain.TransitionVetoError{Reason: "case has an open court date"}
}

func TestDeactivateVetoReturnsEmptyArray(t *testing.T) {
	f := newTestFixture(t, holdGuard{})
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
	}
	decodeJSON(t, w, &created)

	w = f.request(t, http.MethodPatch, fmt.Sprintf("/casa_cases/%s/deactivate", created.CasaCase.ID), nil, cookie, f.orgID)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestUpdateCasaCaseNoticeBody(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodPost, "/casa_cases", gin.H{
		"case_number":            "CINA-21-1234",
		"birth_month_year_youth": "2012-03",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		CasaCase casacasedomain.CasaCase `json:"casa_case"`
	}
	decodeJSON(t, w, &created)

	w = f.request(t, http.MethodPatch, fmt.Sprintf("/casa_cases/%s", created.CasaCase.ID), gin.H{
		"case_number": "CINA-21-5678",
	}, cookie, f.orgID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Notice string `json:"notice"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, "CASA case was successfully updated.<ul><li>Changed Case number</li></ul>", resp.Notice)
}

func TestCaseContactsReportDownload(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodGet, "/reports/case_contacts", nil, cookie, f.orgID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="case-contacts-2024-06-15.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

func TestReportsForbiddenForVolunteers(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "volunteer@example.org", organizationdomain.RoleVolunteer)

	w := f.request(t, http.MethodGet, "/reports/case_contacts", nil, cookie, f.orgID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	f := newTestFixture(t, nil)

	w := f.request(t, http.MethodGet, "/casa_cases", nil, nil, f.orgID)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNonMemberOrgForbidden(t *testing.T) {
	f := newTestFixture(t, nil)
	_, cookie := f.createMember(t, "admin@example.org", organizationdomain.RoleAdmin)

	w := f.request(t, http.MethodGet, "/casa_cases", nil, cookie, f.node.Generate())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
