// Hearth Core - Smart Home Control Platform
//
// This is the main entry point for the Hearth Core application.
// Hearth Core is the local brain of a smart home:
//   - Role-based access control with JWT sessions
//   - Device registry with typed commands and decorators
//   - Task ledger, scheduler, and automation rules
//   - Offline-first operation (MQTT and InfluxDB are optional)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ashgrove-labs/hearth-core/migrations"

	"github.com/ashgrove-labs/hearth-core/internal/api"
	"github.com/ashgrove-labs/hearth-core/internal/audit"
	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/automation"
	"github.com/ashgrove-labs/hearth-core/internal/device"
	"github.com/ashgrove-labs/hearth-core/internal/hub"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/config"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/database"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/influxdb"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/mqtt"
	"github.com/ashgrove-labs/hearth-core/internal/notify"
	"github.com/ashgrove-labs/hearth-core/internal/schedule"
	"github.com/ashgrove-labs/hearth-core/internal/task"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// resetTokenSweepInterval is how often expired password reset tokens are
// purged from memory.
const resetTokenSweepInterval = time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database (audit trail and notification history)
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Auth: user store, token issuer, facade
	store := auth.NewStore()
	if err := store.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrapping auth store: %w", err)
	}

	seedPassword, err := auth.SeedAdmin(store, log)
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	if seedPassword != "" {
		// Printed once on first boot only; change it immediately.
		fmt.Fprintf(os.Stderr, "Initial admin password: %s\n", seedPassword)
	}

	issuer := auth.NewIssuer(
		cfg.Auth.JWT.AccessSecret,
		cfg.Auth.JWT.RefreshSecret,
		cfg.Auth.AccessTokenTTL(),
		cfg.Auth.RefreshTokenTTL(),
	)

	var mailer auth.Mailer
	if cfg.Notifications.SMTP.Enabled {
		mailer = notify.NewEmailSender(cfg.Notifications.SMTP, log)
		log.Info("SMTP mailer enabled", "host", cfg.Notifications.SMTP.Host)
	} else {
		log.Info("SMTP mailer disabled, reset links are logged only")
	}

	authSvc := auth.NewService(store, issuer, log, auth.ServiceOptions{
		Mailer:        mailer,
		ResetURL:      cfg.Notifications.ResetURL,
		MaxFailed:     cfg.Auth.Lockout.MaxFailedAttempts,
		LockoutWindow: cfg.Auth.LockoutWindow(),
	})

	// Audit trail persists auth events to SQLite.
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log)
	recorder.Attach(authSvc)

	// Notifications
	notifyRepo := notify.NewSQLiteRepository(db.DB)
	notifySvc := notify.NewService(notifyRepo, store, log)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Device registry and hub
	registry := device.NewRegistry()

	// Assign concrete clients only when present; a nil interface field
	// disables that integration inside the hub.
	var hubOpts hub.Options
	hubOpts.Notifier = notifySvc
	if mqttClient != nil {
		hubOpts.MQTT = mqttClient
	}
	if influxClient != nil {
		hubOpts.InfluxDB = influxClient
	}
	deviceHub := hub.New(registry, store, store, log, hubOpts)

	// Domain services
	ledger := task.NewLedger(store, log)
	scheduler := schedule.NewScheduler(store, log)
	rules := automation.NewEngine(registry, store, log)

	// HTTP API
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Auth:      authSvc,
		Tasks:     ledger,
		Scheduler: scheduler,
		Rules:     rules,
		Hub:       deviceHub,
		Notify:    notifySvc,
		Audit:     auditRepo,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
	)

	// Sweep expired password reset tokens in the background.
	go func() {
		ticker := time.NewTicker(resetTokenSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := authSvc.CleanupExpiredTokens(); n > 0 {
					log.Info("expired reset tokens purged", "count", n)
				}
			}
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Hearth Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
