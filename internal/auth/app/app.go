package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/legionkimitri/authd/internal/auth/service"
	"github.com/legionkimitri/authd/internal/auth/store"
	"github.com/legionkimitri/authd/internal/auth/store/drivers/sqlite"
	"github.com/legionkimitri/authd/pkg/cryptox"
	"github.com/legionkimitri/authd/pkg/jwtx"
	"github.com/legionkimitri/authd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the credential core together: store, envelope,
// token issuer, and the session/enrollment services that transports
// (HTTP, gRPC, CLI) consume.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	envelope *cryptox.Envelope

	TokenService   *service.TokenService
	SessionService *service.SessionService
	OTPService     *service.OTPService

	housekeepingService *service.HousekeepingService
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	envelope, err := cryptox.NewEnvelope(cfg.OTPMasterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTP master key: %w", err)
	}
	app.envelope = envelope

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	return app, nil
}

// Run starts the background workers and blocks until shutdown is
// requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authd starting", "version", BuildVersion, "issuer", app.cfg.Issuer)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	app.logger.Info("shutdown signal received", "signal", sig)

	return app.Shutdown()
}

// Shutdown stops the workers and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authd...")

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authd stopped")
	return nil
}

// initDatabase opens the store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.TokenService = &service.TokenService{
		Access:     jwtx.NewHS256([]byte(app.cfg.AccessSecret)),
		Refresh:    jwtx.NewHS256([]byte(app.cfg.RefreshSecret)),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.SessionService = &service.SessionService{
		Store:      app.db,
		Tokens:     app.TokenService,
		Envelope:   app.envelope,
		BcryptCost: app.cfg.BcryptCost,
	}

	app.OTPService = &service.OTPService{
		Store:    app.db,
		Envelope: app.envelope,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}
