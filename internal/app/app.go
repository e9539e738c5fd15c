package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"survey_backend/internal/config"
	"survey_backend/internal/controller"
	"survey_backend/internal/repository"
	"survey_backend/internal/service"
	"survey_backend/internal/util"
	"survey_backend/pkg/configwatcher"
	"survey_backend/pkg/database"
	"survey_backend/pkg/logger"
	"survey_backend/pkg/monitoring"
	"survey_backend/pkg/security"
	"survey_backend/pkg/tracing"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Services *Services

	origins         *security.Origins
	limiter         *security.Limiter
	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	section  *repository.SectionRepository
	user     *repository.UserRepository
	survey   *repository.SurveyRepository
	question *repository.QuestionRepository
	response *repository.ResponseRepository
}

// Services is exported so the CLI commands in main can reach them.
type Services struct {
	Settings   *service.SurveySettings
	Auth       *service.AuthService
	Storage    *service.StorageService
	Assignment *service.AssignmentService
	Submission *service.SubmissionService
	Survey     *service.SurveyService
	Response   *service.ResponseService
	Summary    *service.SummaryService
	Export     *service.ExportService
}

type controllers struct {
	auth    *controller.AuthController
	section *controller.SectionController
	student *controller.StudentController
	survey  *controller.SurveyController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

func initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		section:  repository.NewSectionRepository(db),
		user:     repository.NewUserRepository(db),
		survey:   repository.NewSurveyRepository(db),
		question: repository.NewQuestionRepository(db),
		response: repository.NewResponseRepository(db),
	}
}

func initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *Services {
	s := &Services{}

	s.Settings = service.NewSurveySettings(cfg.Survey)
	s.Storage = service.NewStorageService(&cfg.Storage)
	s.Auth = service.NewAuthService(repos.user, repos.section, cfg)
	s.Summary = service.NewSummaryService(repos.survey, repos.response, rdb, s.Settings)
	s.Survey = service.NewSurveyService(repos.survey, repos.question, repos.section, repos.user, s.Summary)
	s.Summary.Surveys = s.Survey
	s.Assignment = service.NewAssignmentService(repos.survey, repos.response, repos.user, s.Settings)
	s.Submission = service.NewSubmissionService(repos.survey, repos.response, repos.user, s.Settings, s.Summary)
	s.Response = service.NewResponseService(repos.response, s.Survey, s.Settings)
	s.Export = service.NewExportService(repos.survey, repos.response, s.Survey, s.Storage, s.Settings)

	return s
}

func initControllers(s *Services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.Auth),
		section: controller.NewSectionController(repos.section),
		student: controller.NewStudentController(s.Assignment, s.Submission, s.Response),
		survey:  controller.NewSurveyController(s.Survey, s.Response, s.Summary, s.Export),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(a.origins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.limiter))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New assembles the application on an existing database. Redis may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	util.RegisterBindingRules()
	monitoring.Init()

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		origins: security.NewOrigins(cfg.CORS.AllowedOrigins),
		limiter: security.NewLimiter(cfg.RateLimit.MaxRequests, window),
	}

	repos := initRepositories(db)
	app.Services = initServices(repos, cfg, rdb)
	controllers := initControllers(app.Services, repos, db, rdb)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.Services.Settings.Set(newCfg.Survey)
		app.origins.Set(newCfg.CORS.AllowedOrigins)
	})

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// NewApp connects to the configured stores and builds the application.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// 缓存可选，连接失败时不启用
			logger.Log.Warn("Redis unavailable, summary cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	return app
}

func (a *App) startBackgroundTasks(ctx context.Context, configDir string) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.limiter.Sweep(3 * time.Minute)
			}
		}
	}()

	go func() {
		path := filepath.Join(configDir, "config.yaml")
		if err := configwatcher.Watch(ctx, path, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run(configDir string) {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.startBackgroundTasks(ctx, configDir)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
