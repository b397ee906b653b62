package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/user-management/internal/core/events"
	"github.com/frahmantamala/user-management/internal/mailer"
	"github.com/frahmantamala/user-management/internal/token"
	tokenPostgres "github.com/frahmantamala/user-management/internal/token/postgres"
	"github.com/frahmantamala/user-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for mail dispatch, token housekeeping and the event bus.`,
}

// Mail worker command
var mailWorkerCmd = &cobra.Command{
	Use:   "mail",
	Short: "Start mail dispatch worker pool",
	Long:  `Start the mail dispatch worker pool for activation and password reset messages`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailWorker()
	},
}

// Token sweep command
var tokenWorkerCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Sweep finished account tokens",
	Long:  `Periodically delete consumed, revoked and expired account tokens`,
	Run: func(cmd *cobra.Command, args []string) {
		startTokenSweeper()
	},
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus `,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	relayURL     string
	relayAPIKey  string
	sweepOnce    bool
)

func startMailWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	mailConfig := mailer.Config{
		RelayURL:          getStringFlag(relayURL, config.Mail.RelayURL),
		APIKey:            getStringFlag(relayAPIKey, config.Mail.APIKey),
		FromAddress:       config.Mail.FromAddress,
		ActivationBaseURL: config.Mail.ActivationBaseURL,
		ResetBaseURL:      config.Mail.ResetBaseURL,
		DispatchTimeout:   config.Mail.DispatchTimeout,
		MaxWorkers:        getIntFlag(maxWorkers, config.Mail.MaxWorkers),
		QueueSize:         getIntFlag(jobQueueSize, config.Mail.QueueSize),
	}

	logger.Info("starting mail worker",
		"max_workers", mailConfig.MaxWorkers,
		"queue_size", mailConfig.QueueSize,
		"relay_url", mailConfig.RelayURL)

	client := mailer.NewClient(mailConfig, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("mail worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	logger.Info("received signal, shutting down mail worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("mail worker pool shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func startTokenSweeper() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	db, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	tokenService := token.NewService(tokenPostgres.NewTokenRepository(db), config.Security.TokenValidity, logger)

	sweep := func() {
		removed, err := tokenService.CleanUp()
		if err != nil {
			logger.Error("token sweep failed", "error", err)
			return
		}
		logger.Info("token sweep complete", "removed", removed)
	}

	sweep()
	if sweepOnce {
		return
	}

	interval := config.Security.TokenSweepInterval
	logger.Info("token sweeper is running. Press Ctrl+C to stop.", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			sweep()
		case sig := <-sigChan:
			logger.Info("received signal, shutting down token sweeper", "signal", sig)
			return
		}
	}
}

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)
	events.RegisterLoginAuditHandler(eventBus, logger)

	logger.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("event bus is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	logger.Info("received signal, shutting down event bus", "signal", sig)
	logger.Info("event bus shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	mailWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	mailWorkerCmd.Flags().IntVar(&jobQueueSize, "queue-size", 0, "Job queue buffer size (overrides config)")
	mailWorkerCmd.Flags().StringVar(&relayURL, "relay-url", "", "Mail relay API URL (overrides config)")
	mailWorkerCmd.Flags().StringVar(&relayAPIKey, "api-key", "", "Mail relay API key (overrides config)")
	tokenWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(mailWorkerCmd)
	workerCmd.AddCommand(tokenWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
