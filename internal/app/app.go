package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"techlift_backend/internal/catalog"
	"techlift_backend/internal/config"
	"techlift_backend/internal/controller"
	"techlift_backend/internal/repository"
	"techlift_backend/internal/service"
	"techlift_backend/internal/util"
	"techlift_backend/pkg/configwatcher"
	"techlift_backend/pkg/database"
	"techlift_backend/pkg/logger"
	"techlift_backend/pkg/monitoring"
	"techlift_backend/pkg/security"
	"techlift_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config      *config.Config
	ConfigDir   string
	Router      *gin.Engine
	DB          *gorm.DB
	Redis       *redis.Client
	Catalog     *catalog.Catalog
	RateLimiter *security.RateLimiter

	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	completion *repository.CompletionRepository
	post       *repository.PostRepository
}

type services struct {
	storage   *service.StorageService
	events    *service.EventHub
	progress  *service.ProgressService
	quiz      *service.QuizService
	auth      *service.AuthService
	user      *service.UserService
	community *service.CommunityService
}

type controllers struct {
	auth      *controller.AuthController
	course    *controller.CourseController
	quiz      *controller.QuizController
	progress  *controller.ProgressController
	community *controller.CommunityController
	user      *controller.UserController
	events    *controller.EventsController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		completion: repository.NewCompletionRepository(db),
		post:       repository.NewPostRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	var sessions service.SessionStore
	if cfg.Learning.SessionStore == "redis" && rdb != nil {
		sessions = service.NewRedisSessionStore(rdb, cfg.Learning.SessionTTL())
	} else {
		sessions = service.NewMemorySessionStore(cfg.Learning.SessionTTL())
	}

	s.storage = service.NewStorageService(cfg)
	s.events = service.NewEventHub(rdb)
	go s.events.Run()
	s.progress = service.NewProgressService(a.Catalog, repos.completion, service.NewProgressNotifier(s.events), cfg.Learning.SyncTimeout())
	s.progress.CacheTTL = cfg.Learning.ProgressCacheTTL()
	s.quiz = service.NewQuizService(a.Catalog, sessions, s.progress, repos.completion)
	s.auth = service.NewAuthService(repos.user, s.progress, cfg)
	s.user = service.NewUserService(repos.user, s.storage)
	s.community = service.NewCommunityService(repos.post, repos.user, s.storage)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		course:    controller.NewCourseController(s.progress, s.quiz),
		quiz:      controller.NewQuizController(s.quiz),
		progress:  controller.NewProgressController(s.progress),
		community: controller.NewCommunityController(s.community),
		user:      controller.NewUserController(s.user),
		events:    controller.NewEventsController(s.events),
		health:    controller.NewHealthController(a.DB, a.Redis, a.Catalog),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.RateLimiter.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func loadCatalog(cfg *config.LearningConfig) (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.Load(cfg.CatalogPath)
	}
	return catalog.Default()
}

// NewApp connects the database, loads the catalog and builds the router.
// configDir is the directory holding config.yaml and is watched for changes.
func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	cat, err := loadCatalog(&cfg.Learning)
	if err != nil {
		logger.Log.Fatal("Failed to load course catalog", zap.Error(err))
	}
	app.Catalog = cat
	logger.Log.Info("Course catalog loaded",
		zap.Int("courses", len(cat.Courses())),
		zap.Int("lessons", len(cat.AllLessons())))

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, app.Redis)
	app.services = services
	controllers := app.initControllers(services)

	if err := services.community.SeedSamplePosts(time.Now()); err != nil {
		logger.Log.Warn("Failed to seed sample posts", zap.Error(err))
	}

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("techlift-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.RateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(logger.SetLevel)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.RateLimiter.Update(newCfg.RateLimit.MaxRequests, time.Duration(newCfg.RateLimit.WindowMinutes)*time.Minute)
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	go func() {
		configFile := filepath.Join(a.ConfigDir, "config.yaml")
		if err := configwatcher.WatchConfig(watchCtx, configFile, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close waits for pending progress writes and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.services != nil {
		a.services.progress.Close()
		a.services.events.Stop()
	}
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
