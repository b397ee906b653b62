package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/account"
	accountPostgres "github.com/frahmantamala/user-management/internal/account/postgres"
	"github.com/frahmantamala/user-management/internal/auth"
	authPostgres "github.com/frahmantamala/user-management/internal/auth/postgres"
	"github.com/frahmantamala/user-management/internal/core/events"
	"github.com/frahmantamala/user-management/internal/mailer"
	"github.com/frahmantamala/user-management/internal/permission"
	permissionPostgres "github.com/frahmantamala/user-management/internal/permission/postgres"
	"github.com/frahmantamala/user-management/internal/role"
	rolePostgres "github.com/frahmantamala/user-management/internal/role/postgres"
	"github.com/frahmantamala/user-management/internal/token"
	tokenPostgres "github.com/frahmantamala/user-management/internal/token/postgres"
	"github.com/frahmantamala/user-management/internal/transport/rest"
	"github.com/frahmantamala/user-management/internal/user"
	userPostgres "github.com/frahmantamala/user-management/internal/user/postgres"
	"github.com/frahmantamala/user-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	Mailer   *mailer.Client
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		deps.Mailer.Shutdown()
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	appLogger := logger.LoggerWrapper()
	if appLogger == nil {
		appLogger = slog.Default()
	}

	eventBus := events.NewEventBus(appLogger)
	events.RegisterLoginAuditHandler(eventBus, appLogger)

	mailClient := mailer.NewClient(mailer.Config{
		RelayURL:          config.Mail.RelayURL,
		APIKey:            config.Mail.APIKey,
		FromAddress:       config.Mail.FromAddress,
		ActivationBaseURL: config.Mail.ActivationBaseURL,
		ResetBaseURL:      config.Mail.ResetBaseURL,
		DispatchTimeout:   config.Mail.DispatchTimeout,
		MaxWorkers:        config.Mail.MaxWorkers,
		QueueSize:         config.Mail.QueueSize,
	}, appLogger)

	tokenService := token.NewService(
		tokenPostgres.NewTokenRepository(gormDB),
		config.Security.TokenValidity,
		appLogger,
	)

	authRepo := authPostgres.NewRepository(gormDB)
	guard := auth.NewLoginAttemptGuard(authRepo, config.Security.MaxLoginAttempts, appLogger)
	aggregator := auth.NewPermissionAggregator(authRepo)
	issuer := auth.NewJWTCredentialIssuer(config.Security.JWTSecret)
	authService := auth.NewService(
		authRepo,
		guard,
		aggregator,
		issuer,
		eventBus,
		config.Security.CredentialValidity,
		appLogger,
	)

	accountService := account.NewService(
		accountPostgres.NewAccountRepository(gormDB),
		tokenService,
		mailClient,
		config.Security.BCryptCost,
		appLogger,
	)

	userService := user.NewService(
		userPostgres.NewUserRepository(gormDB),
		config.Security.BCryptCost,
		appLogger,
	)

	roleService := role.NewService(rolePostgres.NewRoleRepository(gormDB), appLogger)
	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(gormDB), appLogger)

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(authService),
		Account:    account.NewHandler(accountService),
		User:       user.NewHandler(userService),
		Role:       role.NewHandler(roleService),
		Permission: permission.NewHandler(permissionService),
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Mailer:   mailClient,
		Logger:   appLogger,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open connection pool so the
// repositories and the health check share one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
}
