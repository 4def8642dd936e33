package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/readbridge-edu/readbridge-progress/config"
	"github.com/readbridge-edu/readbridge-progress/internal/application/command"
	"github.com/readbridge-edu/readbridge-progress/internal/application/query"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/memory"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/postgres"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/redis"
	httpserver "github.com/readbridge-edu/readbridge-progress/internal/interface/http"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the progress API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// healthFunc adapts a closure to the server's HealthChecker interface.
type healthFunc func(ctx context.Context) error

func (f healthFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddCaller: cfg.Logging.AddCaller,
	})
	log.Info("starting service",
		logger.String("name", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	var (
		factory     progression.UnitOfWorkFactory
		definitions assessment.DefinitionSource
		healthPings []func(ctx context.Context) error
	)

	if cfg.Database.Configured() {
		conn, err := connectPostgres(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer conn.Close()

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		factory = postgres.NewTxManager(conn)
		definitions = postgres.NewDefinitionRepository(conn)
		healthPings = append(healthPings, conn.Ping)
		log.Info("using postgres store", logger.Component("postgres"))
	} else {
		store := memory.NewStore()
		store.SeedDefinitions(sampleDefinitions()...)
		store.SeedStudents(demoStudents()...)
		factory = store
		definitions = store
		log.Warn("no database configured, using in-memory store",
			logger.Component("memory"))
	}

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout.Std(),
			ReadTimeout:  cfg.Redis.ReadTimeout.Std(),
			WriteTimeout: cfg.Redis.WriteTimeout.Std(),
		})
		if err != nil {
			// The cache is an optimization. A dead Redis at boot must
			// not keep the scoring engine down.
			log.Warn("redis unavailable, serving definitions uncached",
				logger.Err(err), logger.Component("redis"))
		} else {
			defer func() { _ = cache.Close() }()
			definitions = redis.NewDefinitionCache(cache, definitions)
			healthPings = append(healthPings, cache.Ping)
			log.Info("definition cache enabled", logger.Component("redis"))
		}
	}

	serverCfg := httpserver.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ReadTimeout:        cfg.Server.ReadTimeout.Std(),
		WriteTimeout:       cfg.Server.WriteTimeout.Std(),
		IdleTimeout:        cfg.Server.IdleTimeout.Std(),
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         cfg.Server.EnableCORS,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		StartAssessmentHandler:     command.NewStartAssessmentHandler(factory, definitions, log),
		SubmitAssessmentHandler:    command.NewSubmitAssessmentHandler(factory, definitions, log),
		UpdateReadingLevelHandler:  command.NewUpdateReadingLevelHandler(factory, log),
		GetCategoryProgressHandler: query.NewGetCategoryProgressHandler(factory, log),
		GetProgressionHandler:      query.NewGetProgressionHandler(factory, log),
		Logger:                     log,
		HealthChecker: healthFunc(func(ctx context.Context) error {
			for _, ping := range healthPings {
				if err := ping(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
	})

	errCh := server.StartAsync()
	log.Info("server listening", logger.String("address", server.Address()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout.Std())
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}
	pc := postgres.DefaultConfig()
	pc.Host = cfg.Database.Host
	pc.Port = cfg.Database.Port
	pc.Database = cfg.Database.Name
	pc.User = cfg.Database.User
	pc.Password = cfg.Database.Password
	pc.SSLMode = cfg.Database.SSLMode
	pc.MaxConns = cfg.Database.MaxConns
	pc.MinConns = cfg.Database.MinConns
	pc.MaxConnLifetime = cfg.Database.ConnMaxLifetime.Std()
	pc.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime.Std()
	pc.ConnectTimeout = cfg.Database.ConnectTimeout.Std()
	return postgres.NewConnection(ctx, pc)
}

// demoStudents returns placeholder roster entries for running without a
// database.
func demoStudents() []*student.Student {
	return []*student.Student{
		{
			ID:       "1f8e7a52-0c3d-4a9b-8e21-5b7f9d2c6a01",
			LegacyID: 10001,
			Email:    "demo@example.org",
			FullName: "Demo Student",
			Grade:    "1",
		},
	}
}
