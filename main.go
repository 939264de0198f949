package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/carnego-backend/database"
	"github.com/Ananth-NQI/carnego-backend/internal/config"
	"github.com/Ananth-NQI/carnego-backend/internal/handlers"
	"github.com/Ananth-NQI/carnego-backend/internal/jobs"
	"github.com/Ananth-NQI/carnego-backend/internal/logging"
	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
	"github.com/Ananth-NQI/carnego-backend/internal/routes"
	"github.com/Ananth-NQI/carnego-backend/internal/services"
	"github.com/Ananth-NQI/carnego-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	envFile := ""
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		envFile = config.LoadDotEnv()
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if envFile == "" {
		log.Info("no .env file found, using environment variables")
	} else {
		log.Info("loaded env file", zap.String("path", envFile))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, pinger, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}
	engine, err := negotiation.NewEngine(policy, negotiation.RealClock{}, nil)
	if err != nil {
		return err
	}

	// Initialize all services
	sessionManager := services.NewSessionManager(log.Named("sessions"), cfg.SessionTTL, cfg.SweepInterval)
	defer sessionManager.Stop()
	negotiationService := services.NewNegotiationService(store, sessionManager, engine, log.Named("negotiation"))

	sweeper := jobs.NewSweeperJob(store, cfg.SessionTTL, cfg.SweepInterval, log.Named("sweeper"))
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.PolicyFile != "" {
		go func() {
			err := config.WatchPolicy(ctx, cfg.PolicyFile, log.Named("policy"), func(p negotiation.Policy) {
				if err := negotiationService.UpdatePolicy(p); err != nil {
					log.Warn("policy not applied", zap.Error(err))
				}
			})
			if err != nil {
				log.Warn("policy watcher stopped", zap.Error(err))
			}
		}()
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "CarNego Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Signature",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app,
		handlers.NewNegotiationHandler(negotiationService),
		handlers.NewHealthHandler(version, cfg.StoreBackend, sessionManager, pinger),
		routes.Options{Version: version, SigningSecret: cfg.SigningSecret},
	)

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	log.Info("carnego backend starting",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StoreBackend),
		zap.String("environment", cfg.Environment),
		zap.Bool("request_signing", cfg.SigningSecret != ""),
		zap.String("policy_file", cfg.PolicyFile),
	)

	return app.Listen(":" + cfg.Port)
}

// openStore connects the configured backend. The returned pinger is nil for the memory store.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Store, handlers.Pinger, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		log.Info("connecting to PostgreSQL")
		db, err := database.Connect(cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		store := storage.NewDatabaseStore(db)
		if err := store.Migrate(); err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		return store, sqlDB, func() { _ = sqlDB.Close() }, nil

	case config.BackendMySQL:
		log.Info("connecting to MySQL")
		db, err := database.ConnectMySQL(cfg.MySQL.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		store := storage.NewMySQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return store, db, func() { _ = db.Close() }, nil

	default:
		log.Warn("using in-memory storage (not for production)")
		return storage.NewMemoryStore(), nil, func() {}, nil
	}
}
