package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/oaustech/docportal/internal/app/controllers"
	appMigrations "github.com/oaustech/docportal/internal/app/migrations"
	appRepos "github.com/oaustech/docportal/internal/app/repositories"
	appRoutes "github.com/oaustech/docportal/internal/app/routes"
	appServices "github.com/oaustech/docportal/internal/app/services"
	"github.com/oaustech/docportal/internal/config"
	"github.com/oaustech/docportal/internal/db"
	appMiddleware "github.com/oaustech/docportal/internal/middleware"
	pkgAuth "github.com/oaustech/docportal/internal/pkg/auth"
	"github.com/oaustech/docportal/internal/pkg/email"
	"github.com/oaustech/docportal/internal/pkg/filestorage"
	"github.com/oaustech/docportal/internal/pkg/logger"
	"github.com/oaustech/docportal/internal/pkg/validation"
	"github.com/oaustech/docportal/internal/seed"
	"github.com/oaustech/docportal/internal/workflow"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Database        *db.PostgresDB
	Repos           *appRepos.Repositories
	FileStorage     filestorage.FileStorage
	JWTService      *pkgAuth.JWTService
	Workflow        *workflow.Workflow
	AuthService     *appServices.AuthService
	DocumentService *appServices.DocumentService
	AdminService    *appServices.AdminService

	AuthController     *appControllers.AuthController
	DocumentController *appControllers.DocumentController
	AdminController    *appControllers.AdminController
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := logger.Logger()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL and applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if dir := cfg.Database.MigrationsDir; dir != "" {
		lgr.Info().Str("path", dir).Msg("Running migrations from directory")
		err = migrator.MigrateFromDirectory(ctx, dir)
	} else {
		err = migrator.Migrate(ctx, appMigrations.Embedded())
	}
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupStorage opens the configured blob backend.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.FileStorage, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "minio":
		m := cfg.Storage.Minio
		storage, err := filestorage.NewMinioStorage(filestorage.MinioConfig{
			Endpoint:      m.Endpoint,
			AccessKey:     m.AccessKey,
			SecretKey:     m.SecretKey,
			Bucket:        m.Bucket,
			UseSSL:        m.UseSSL,
			PresignExpiry: cfg.PresignExpiry(),
		})
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %q: %w", m.Bucket, err)
		}
		lgr.Info().Str("endpoint", m.Endpoint).Str("bucket", m.Bucket).Msg("Using MinIO file storage")
		return storage, nil
	default:
		storage, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		lgr.Info().Str("path", cfg.Storage.LocalPath).Msg("Using local file storage")
		return storage, nil
	}
}

// UploadPolicy builds the document upload guard from configuration.
func UploadPolicy(cfg *config.Config) workflow.UploadPolicy {
	return workflow.UploadPolicy{
		MaxSize:      cfg.Upload.MaxBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, storage filestorage.FileStorage, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Database:    database,
		FileStorage: storage,
		Logger:      lgr,
	}

	if err := validation.RegisterGinValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(database.Pool)
	repos := appServices.FromRepositories(deps.Repos)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.From,
		PortalURL: cfg.Server.PublicBaseURL,
	}, logger.Component("email"))
	if !cfg.SMTPEnabled() {
		lgr.Warn().Msg("SMTP not configured, notification emails will only be logged")
	}

	urls := appServices.NewURLResolver(storage, cfg.Server.PublicBaseURL, lgr)
	store := appServices.NewDocumentStore(repos.Documents, storage, urls, lgr)
	deps.Workflow = workflow.New(store, workflow.WithUploadPolicy(UploadPolicy(cfg)))

	tx := appServices.NewPostgresTx(database)
	deps.AuthService = appServices.NewAuthService(repos, tx, storage, urls, deps.JWTService, mailer, lgr)
	deps.DocumentService = appServices.NewDocumentService(deps.Workflow, store, repos.Students, mailer, lgr)
	deps.AdminService = appServices.NewAdminService(deps.Workflow, repos, tx, store, urls, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.AuthController = appControllers.NewAuthController(deps.AuthService, logger.Component("auth_controller"))
	deps.DocumentController = appControllers.NewDocumentController(deps.DocumentService, logger.Component("document_controller"))
	deps.AdminController = appControllers.NewAdminController(deps.AdminService, logger.Component("admin_controller"))

	return deps, nil
}

// SeedDefaults creates the configured admin when none exists yet.
func SeedDefaults(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	admin := seed.AdminSettings{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Email:    cfg.Admin.Email,
	}
	if err := seed.CreateDefaultAdmin(ctx, deps.Repos.UserRepository, deps.AuthService, admin, deps.Logger); err != nil {
		// Startup continues; admins can still be created with portalctl or SQL
		deps.Logger.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	production := strings.ToLower(cfg.Server.Mode) == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Recovery(lgr),
	)

	if !production {
		appRoutes.SetupSwagger(router)
	}

	appRoutes.SetupRouter(router, appRoutes.Handlers{
		Auth:           deps.AuthController,
		Documents:      deps.DocumentController,
		Admin:          deps.AdminController,
		AuthMiddleware: deps.AuthMiddleware,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Ping:           deps.Database.Ping,
	})

	return router
}
