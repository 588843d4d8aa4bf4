package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/GoSim-25-26J-441/timetrack-backend/internal/api/http"
	attrhttp "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/http"
	attrrepo "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/repository"
	attrsvc "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	authhttp "github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/http"
	authmw "github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/middleware"
	authrepo "github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/repository"
	authsvc "github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	projecthttp "github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/http"
	projectrepo "github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/repository"
	projectsvc "github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	tshttp "github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/http"
	tsrepo "github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/repository"
	tssvc "github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/service"
	userhttp "github.com/GoSim-25-26J-441/timetrack-backend/internal/users/http"
	userrepo "github.com/GoSim-25-26J-441/timetrack-backend/internal/users/repository"
	usersvc "github.com/GoSim-25-26J-441/timetrack-backend/internal/users/service"
)

type V1Deps struct {
	DB          db.Querier
	Redis       redis.UniversalClient
	Cache       *respcache.Cache
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	StrictDates bool
	Debug       bool
	Logger      *zap.Logger
}

// RegisterV1 wires every /api/v1 endpoint. Public auth routes come
// first; everything else runs RequireAuth and then the response cache.
func RegisterV1(r *gin.Engine, dep V1Deps) {
	logger := dep.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	values := eav.NewStore(logger)

	attributeRepo := attrrepo.New(dep.DB)
	attributes := attrsvc.NewAttributeService(attributeRepo, filter.NewAttributeEngine(logger), logger)

	projectRepo := projectrepo.NewProjectRepository(dep.DB, values)
	projects := projectsvc.NewProjectService(projectRepo, attributes, filter.NewProjectEngine(logger, dep.StrictDates), logger)

	timesheets := tssvc.NewTimesheetService(
		tsrepo.NewTimesheetRepository(dep.DB),
		projectRepo,
		attributes,
		filter.NewTimesheetEngine(logger, dep.StrictDates),
		logger,
	)

	userRepo := userrepo.NewUserRepository(dep.DB, values)
	users := usersvc.NewUserService(userRepo, attributes, filter.NewUserEngine(logger, dep.StrictDates), logger)

	authService := authsvc.NewAuthService(
		users,
		userRepo,
		authsvc.NewTokens(dep.JWTSecret, dep.JWTIssuer, dep.TokenTTL),
		authrepo.NewDenylist(dep.Redis, ""),
		logger,
	)

	var invalidator respcache.Invalidator = respcache.NopInvalidator{}
	if dep.Cache != nil {
		invalidator = dep.Cache
	}

	api := r.Group("/api/v1")

	authHandler := authhttp.New(authService, dep.Debug)
	authHandler.Register(api.Group("/auth"))
	authHandler.Register(api)

	protected := api.Group("", authmw.RequireAuth(authService, dep.Debug))
	authHandler.RegisterProtected(protected.Group("/auth"))
	authHandler.RegisterProtected(protected)

	if dep.Cache != nil {
		httpapi.NewCacheHandler(dep.Cache, logger, dep.Debug).Register(protected.Group("/cache"))
		protected.Use(dep.Cache.Middleware(auth.Identity))
	}

	userHandler := userhttp.New(users, invalidator, dep.Debug)
	userHandler.RegisterCurrent(protected)
	userHandler.Register(protected.Group("/users"))

	attrhttp.New(attributes, invalidator, dep.Debug).Register(protected.Group("/attributes"))
	projecthttp.New(projects, invalidator, dep.Debug).Register(protected.Group("/projects"))
	tshttp.New(timesheets, invalidator, dep.Debug).Register(protected.Group("/timesheets"))
}
