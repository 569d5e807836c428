package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/statboard/statboard/internal/auth"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
	"github.com/statboard/statboard/internal/authorization"
	"github.com/statboard/statboard/internal/center"
	centerdomain "github.com/statboard/statboard/internal/center/domain"
	"github.com/statboard/statboard/internal/config"
	"github.com/statboard/statboard/internal/district"
	districtdomain "github.com/statboard/statboard/internal/district/domain"
	"github.com/statboard/statboard/internal/evaluationtype"
	evaluationtypedomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	"github.com/statboard/statboard/internal/indicator"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"github.com/statboard/statboard/internal/ingest"
	"github.com/statboard/statboard/internal/major"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	obslogger "github.com/statboard/statboard/internal/observability/logger"
	obsmetrics "github.com/statboard/statboard/internal/observability/metrics"
	"github.com/statboard/statboard/internal/observation"
	observationdomain "github.com/statboard/statboard/internal/observation/domain"
	"github.com/statboard/statboard/internal/offload"
	"github.com/statboard/statboard/internal/rbac"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
	"github.com/statboard/statboard/internal/user"
	userdomain "github.com/statboard/statboard/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Permission codes gating the protected routes. They mirror the seeded
// permission catalog.
const (
	PermIndicatorView   = "indicator:view"
	PermIndicatorAdd    = "indicator:add"
	PermIndicatorEdit   = "indicator:edit"
	PermIndicatorDelete = "indicator:delete"
	PermDataView        = "indicator_data:view"
	PermDataAdd         = "indicator_data:add"
	PermDataEdit        = "indicator_data:edit"
	PermDataDelete      = "indicator_data:delete"
	PermUserManage      = "user:manage"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	user.Module,
	rbac.Module,
	district.Module,
	center.Module,
	major.Module,
	evaluationtype.Module,
	indicator.Module,
	observation.Module,
	ingest.Module,
	offload.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine    *gin.Engine
	cfg       config.Config
	db        *gorm.DB
	genID     *snowflake.Node
	authsvc   authdomain.Service
	authzSvc  authorization.Service
	userSvc   userdomain.Service
	rbacSvc   rbacdomain.Service
	districts districtdomain.Service
	centers   centerdomain.Service
	majors    majordomain.Service
	types     evaluationtypedomain.Service
	inds      indicatordomain.Service
	obs       observationdomain.Service
	ingestor  *ingest.Engine
	exports   *offload.Gate
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	DB        *gorm.DB
	GenID     *snowflake.Node
	Authsvc   authdomain.Service
	AuthzSvc  authorization.Service
	UserSvc   userdomain.Service
	RbacSvc   rbacdomain.Service
	Districts districtdomain.Service
	Centers   centerdomain.Service
	Majors    majordomain.Service
	Types     evaluationtypedomain.Service
	Inds      indicatordomain.Service
	Obs       observationdomain.Service
	Ingestor  *ingest.Engine
	Exports   *offload.Gate
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		db:        p.DB,
		genID:     p.GenID,
		authsvc:   p.Authsvc,
		authzSvc:  p.AuthzSvc,
		userSvc:   p.UserSvc,
		rbacSvc:   p.RbacSvc,
		districts: p.Districts,
		centers:   p.Centers,
		majors:    p.Majors,
		types:     p.Types,
		inds:      p.Inds,
		obs:       p.Obs,
		ingestor:  p.Ingestor,
		exports:   p.Exports,
	}

	svc.registerUserRoutes()
	svc.registerAdminRoutes()
	svc.registerReferenceRoutes()
	svc.registerMetricRoutes()

	if svc.cfg.Environment != "production" {
		svc.engine.POST("/api/v1/test/cleanup", svc.TestCleanup)
	}

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerUserRoutes() {
	users := s.engine.Group("/api/v1/users")

	users.POST("/login", s.Login)
	users.POST("/register", s.Register)

	me := users.Group("/me", s.AuthRequired())
	{
		me.GET("", s.Me)
		me.POST("/password", s.ChangePassword)
		me.PATCH("/profile", s.UpdateProfile)
		me.GET("/permissions", s.MyPermissions)
	}

	// Self-service account access; admins may reach any account.
	users.GET("/:id", s.AuthRequired(), s.SelfOrManage(), s.GetUser)
	users.PATCH("/:id", s.AuthRequired(), s.SelfOrManage(), s.UpdateUser)
	users.DELETE("/:id", s.AuthRequired(), s.SelfOrManage(), s.DeleteUser)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/v1/admin")
	admin.Use(s.AuthRequired())
	admin.Use(s.RequirePermission(PermUserManage))

	admin.GET("/users", s.ListUsers)
	admin.POST("/users", s.CreateUser)
	admin.GET("/users/:id", s.GetUser)
	admin.PATCH("/users/:id", s.UpdateUser)
	admin.DELETE("/users/:id", s.DeleteUser)
	admin.GET("/users/roles", s.ListRoles)

	admin.GET("/permissions", s.ListPermissions)
	admin.POST("/permissions", s.CreatePermission)
	admin.PATCH("/permissions/:id", s.UpdatePermission)
	admin.DELETE("/permissions/:id", s.DeletePermission)

	admin.GET("/permissions/roles", s.ListRoles)
	admin.POST("/permissions/roles", s.CreateRole)
	admin.PATCH("/permissions/roles/:id", s.UpdateRole)
	admin.DELETE("/permissions/roles/:id", s.DeleteRole)

	admin.GET("/permissions/role_permissions/:role_id", s.GetRolePermissions)
	admin.POST("/permissions/role_permissions", s.AssignRolePermissions)
	admin.DELETE("/permissions/role_permissions/:role_id/:permission_id", s.RevokeRolePermission)
}

func (s *Server) registerReferenceRoutes() {
	v1 := s.engine.Group("/api/v1")

	types := v1.Group("/evaluation_types", s.AuthRequired(), s.RequirePermission(PermIndicatorEdit))
	{
		types.GET("", s.ListEvaluationTypes)
		types.POST("", s.CreateEvaluationType)
		types.PATCH("/:id", s.UpdateEvaluationType)
		types.DELETE("/:id", s.DeleteEvaluationType)
	}

	majors := v1.Group("/majors", s.AuthRequired(), s.RequirePermission(PermIndicatorEdit))
	{
		majors.GET("", s.ListMajors)
		majors.POST("", s.CreateMajor)
		majors.GET("/:id", s.GetMajor)
		majors.PATCH("/:id", s.UpdateMajor)
		majors.DELETE("/:id", s.DeleteMajor)
	}
}

func (s *Server) registerMetricRoutes() {
	m := s.engine.Group("/api/v1/metrics")

	// Open reference reads consumed by dashboard dropdowns.
	m.GET("/districts", s.MetricDistricts)
	m.GET("/majors", s.MetricMajors)
	m.GET("/evaluation_types", s.MetricEvaluationTypes)
	m.GET("/circles", s.MetricCircles)
	m.GET("/list", s.MetricIndicatorList)
	m.GET("/indicators_by_type", s.MetricIndicatorsByType)
	m.GET("/indicators/search", s.SearchIndicators)

	m.GET("/centers", s.AuthRequired(), s.RequirePermission(PermDataView), s.MetricCenters)

	view := m.Group("", s.AuthRequired(), s.RequirePermission(PermDataView))
	{
		view.GET("/query", s.QueryData)
		view.GET("/series", s.SeriesData)
		view.GET("/snapshot", s.SnapshotData)
		view.GET("/district", s.DataByDistrict)
		view.GET("/by_name_or_id", s.DataByNameOrID)
		view.GET("/by_majors", s.DataByMajor)
		view.GET("/by-type", s.DataByType)

		view.GET("/center", s.DataByCenter)
		view.GET("/center/query", s.QueryCenterData)
		view.GET("/center/series", s.SeriesCenterData)
		view.GET("/center/by_name_or_id", s.CenterDataByNameOrID)
	}

	m.POST("/data", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.CreateData)
	m.POST("/data/update", s.AuthRequired(), s.RequirePermission(PermDataEdit), s.UpdateData)
	m.DELETE("/data", s.AuthRequired(), s.RequirePermission(PermDataDelete), s.DeleteData)

	m.POST("/center/data", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.CreateCenterData)
	m.POST("/center/data/update", s.AuthRequired(), s.RequirePermission(PermDataEdit), s.UpdateCenterData)
	m.DELETE("/center/data", s.AuthRequired(), s.RequirePermission(PermDataDelete), s.DeleteCenterData)

	m.GET("/upload/template", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.DownloadTemplate)
	m.POST("/upload", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.UploadData)
	m.GET("/center/upload/template", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.DownloadCenterTemplate)
	m.POST("/center/upload", s.AuthRequired(), s.RequirePermission(PermDataAdd), s.UploadCenterData)

	m.GET("/export", s.AuthRequired(), s.RequirePermission(PermDataView), s.ExportData)
	m.GET("/export_v2", s.AuthRequired(), s.RequirePermission(PermDataView), s.ExportPivot)
	m.GET("/center/export", s.AuthRequired(), s.RequirePermission(PermDataView), s.ExportCenterData)
	m.GET("/center/export_v2", s.AuthRequired(), s.RequirePermission(PermDataView), s.ExportCenterPivot)

	inds := m.Group("/indicators")
	{
		inds.GET("", s.AuthRequired(), s.RequirePermission(PermIndicatorView), s.ListIndicators)
		inds.POST("", s.AuthRequired(), s.RequirePermission(PermIndicatorAdd), s.CreateIndicator)
		inds.GET("/:id", s.AuthRequired(), s.RequirePermission(PermIndicatorView), s.GetIndicator)
		inds.PATCH("/:id", s.AuthRequired(), s.RequirePermission(PermIndicatorEdit), s.UpdateIndicator)
		inds.DELETE("/:id", s.AuthRequired(), s.RequirePermission(PermIndicatorDelete), s.DeleteIndicator)

		inds.GET("/upload/template", s.AuthRequired(), s.RequirePermission(PermIndicatorAdd), s.DownloadIndicatorTemplate)
		inds.POST("/upload", s.AuthRequired(), s.RequirePermission(PermIndicatorAdd), s.UploadIndicators)
	}
}
