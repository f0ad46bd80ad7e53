// Package cli provides the initialization shared by the budgetbuddy
// commands: logging, environment, configuration and the wired ledger.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
)

// ErrShutdownSignal is returned by WaitForSignal when SIGINT or SIGTERM
// arrives.
var ErrShutdownSignal = errors.New("shutdown signal received")

// SetupLogger initializes structured logging at the given level and sets
// it as the default logger. Unknown levels fall back to info.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentCLI, Output: out})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles the wired ledger service with the resources it owns.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Service  *services.LedgerService
	Notifier *amqp.Client

	cleanup backend.CleanupFunc
}

// Open creates the storage backend, the ledger store and, when AMQP_URL is
// set, the change notifier. A broker that cannot be reached only disables
// notifications.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	store := ledger.New(result.Store, ledger.WithKey(cfg.StorageKey), ledger.WithLogger(logger))

	var (
		notifier  *amqp.Client
		publisher services.Publisher
	)
	if cfg.AMQPURL != "" {
		notifier, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications",
				log.FieldError, err.Error())
		} else {
			publisher = notifier
			logger.InfoContext(ctx, "Initialized AMQP client",
				log.FieldExchange, cfg.AMQPExchange,
				log.FieldQueue, cfg.AMQPQueue)
		}
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Service:  services.NewLedgerService(store, publisher, services.WithServiceLogger(logger)),
		Notifier: notifier,
		cleanup:  result.Cleanup,
	}, nil
}

// Close shuts down the service, its publisher and the storage backend.
func (a *App) Close() error {
	var errs []error
	if err := a.Service.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("backend: %w", err))
		}
	}
	return errors.Join(errs...)
}

// WaitForSignal blocks until SIGINT or SIGTERM arrives, returning
// ErrShutdownSignal, or until ctx is done, returning nil.
func WaitForSignal(ctx context.Context, logger *log.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		return ErrShutdownSignal
	case <-ctx.Done():
		return nil
	}
}
