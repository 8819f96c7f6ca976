// Package server wires the HTTP surface: session auth, org scoping,
// case management, contact logging and report downloads.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/advocase/internal/audit"
	auditdomain "github.com/smallbiznis/advocase/internal/audit/domain"
	"github.com/smallbiznis/advocase/internal/auth"
	authdomain "github.com/smallbiznis/advocase/internal/auth/domain"
	"github.com/smallbiznis/advocase/internal/auth/session"
	"github.com/smallbiznis/advocase/internal/authorization"
	"github.com/smallbiznis/advocase/internal/casacase"
	casacasedomain "github.com/smallbiznis/advocase/internal/casacase/domain"
	"github.com/smallbiznis/advocase/internal/casecontact"
	casecontactdomain "github.com/smallbiznis/advocase/internal/casecontact/domain"
	"github.com/smallbiznis/advocase/internal/config"
	"github.com/smallbiznis/advocase/internal/contacttype"
	contacttypedomain "github.com/smallbiznis/advocase/internal/contacttype/domain"
	"github.com/smallbiznis/advocase/internal/observability"
	obsmiddleware "github.com/smallbiznis/advocase/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/advocase/internal/observability/metrics"
	obstracing "github.com/smallbiznis/advocase/internal/observability/tracing"
	"github.com/smallbiznis/advocase/internal/organization"
	organizationdomain "github.com/smallbiznis/advocase/internal/organization/domain"
	"github.com/smallbiznis/advocase/internal/ratelimit"
	"github.com/smallbiznis/advocase/internal/report"
	reportdomain "github.com/smallbiznis/advocase/internal/report/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	organization.Module,
	contacttype.Module,
	casacase.Module,
	casecontact.Module,
	report.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	authsvc         authdomain.Service
	sessions        *session.Manager
	genID           *snowflake.Node
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	organizationSvc organizationdomain.Service
	contactTypeSvc  contacttypedomain.Service
	casaCaseSvc     casacasedomain.Service
	caseContactSvc  casecontactdomain.Service
	reportSvc       reportdomain.Service
	httpMetrics     *obsmetrics.HTTPMetrics
	reportLimiter   *ratelimit.ReportExportLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Authsvc         authdomain.Service
	Sessions        *session.Manager
	GenID           *snowflake.Node
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrganizationSvc organizationdomain.Service
	ContactTypeSvc  contacttypedomain.Service
	CasaCaseSvc     casacasedomain.Service
	CaseContactSvc  casecontactdomain.Service
	ReportSvc       reportdomain.Service
	HTTPMetrics     *obsmetrics.HTTPMetrics       `optional:"true"`
	ReportLimiter   *ratelimit.ReportExportLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		authsvc:         p.Authsvc,
		sessions:        p.Sessions,
		genID:           p.GenID,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		organizationSvc: p.OrganizationSvc,
		contactTypeSvc:  p.ContactTypeSvc,
		casaCaseSvc:     p.CasaCaseSvc,
		caseContactSvc:  p.CaseContactSvc,
		reportSvc:       p.ReportSvc,
		httpMetrics:     p.HTTPMetrics,
		reportLimiter:   p.ReportLimiter,
	}
}

func registerRoutes(s *Server) {
	s.registerAuthRoutes()
	s.registerOrgRoutes()
	s.registerCaseRoutes()
	s.registerReportRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/login", s.Login)
	authGroup.POST("/logout", s.Logout)
	authGroup.GET("/me", s.Me)
	authGroup.POST("/change-password", s.WebAuthRequired(), s.ChangePassword)

	user := authGroup.Group("/user", s.WebAuthRequired())
	{
		user.GET("/orgs", s.ListUserOrgs)
		user.POST("/using/:orgId", s.UseOrg)
	}
}

func (s *Server) registerOrgRoutes() {
	orgs := s.engine.Group("/organizations", s.WebAuthRequired())
	orgs.POST("", s.CreateOrganization)
	orgs.GET("", s.ListOrganizations)

	scoped := s.engine.Group("/", s.WebAuthRequired(), s.OrgContext())
	scoped.POST("/members", s.RequireRole(organizationdomain.RoleAdmin), s.AddMember)
	scoped.POST("/supervisor_volunteers", s.RequireRole(organizationdomain.RoleAdmin, organizationdomain.RoleSupervisor), s.AssignSupervisor)

	scoped.GET("/contact_types", s.ListContactTypeGroups)
	scoped.POST("/contact_type_groups", s.RequireRole(organizationdomain.RoleAdmin), s.CreateContactTypeGroup)
	scoped.POST("/contact_types", s.RequireRole(organizationdomain.RoleAdmin), s.CreateContactType)

	scoped.GET("/audit_logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerCaseRoutes() {
	cases := s.engine.Group("/casa_cases", s.WebAuthRequired(), s.OrgContext())

	cases.GET("", s.ListCasaCases)
	cases.GET("/new", s.NewCasaCase)
	cases.POST("", s.CreateCasaCase)
	cases.GET("/:id", s.GetCasaCase)
	cases.GET("/:id/edit", s.EditCasaCase)
	cases.PATCH("/:id", s.UpdateCasaCase)
	cases.PATCH("/:id/deactivate", s.DeactivateCasaCase)
	cases.PATCH("/:id/reactivate", s.ReactivateCasaCase)
	cases.POST("/:id/assignments", s.RequireRole(organizationdomain.RoleAdmin, organizationdomain.RoleSupervisor), s.AssignVolunteer)

	cases.GET("/:id/case_contacts", s.ListCaseContacts)
	cases.POST("/:id/case_contacts", s.CreateCaseContact)

	duties := s.engine.Group("/other_duties", s.WebAuthRequired(), s.OrgContext())
	duties.GET("", s.ListOtherDuties)
	duties.POST("", s.CreateOtherDuty)

	hours := s.engine.Group("/learning_hours", s.WebAuthRequired(), s.OrgContext())
	hours.POST("", s.CreateLearningHour)
}

func (s *Server) registerReportRoutes() {
	reports := s.engine.Group("/reports", s.WebAuthRequired(), s.OrgContext(),
		s.authorizeOrgAction(authorization.ObjectReport, authorization.ActionReportGenerate))

	reports.GET("", s.ReportFilters)
	reports.GET("/case_contacts", s.ReportExportRateLimit(), s.CaseContactsReport)
	reports.GET("/mileage", s.ReportExportRateLimit(), s.MileageReport)
	reports.GET("/missing_data", s.ReportExportRateLimit(), s.MissingDataReport)
	reports.GET("/learning_hours", s.ReportExportRateLimit(), s.LearningHoursReport)
}
