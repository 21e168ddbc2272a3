package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/archive"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/history"
	historypostgres "github.com/askdb/askdb/internal/history/postgres"
	historysqlite "github.com/askdb/askdb/internal/history/sqlite"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	duckdbengine "github.com/askdb/askdb/internal/query/duckdb"
	sqliteengine "github.com/askdb/askdb/internal/query/sqlite"
	"github.com/askdb/askdb/internal/ratelimit"
	"github.com/askdb/askdb/internal/sqlgate"
	s3store "github.com/askdb/askdb/internal/storage/s3"
	"github.com/askdb/askdb/internal/translate"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	var (
		engine   query.Engine
		schemaDB *sql.DB
	)
	switch cfg.Database.Driver {
	case "duckdb":
		duckEngine, err := duckdbengine.NewEngine(context.Background(), cfg.Database.Path)
		if err != nil {
			logger.Error("failed to open duckdb database", slog.Any("error", err))
			os.Exit(1)
		}
		engine = duckEngine
		schemaDB = nil
	default:
		sqliteEngine, err := sqliteengine.NewEngine(context.Background(), cfg.Database.Path)
		if err != nil {
			logger.Error("failed to open sqlite database", slog.Any("error", err))
			os.Exit(1)
		}
		engine = sqliteEngine
		schemaDB = sqliteEngine.DB()
	}
	defer func() { _ = engine.Close() }()

	dialect, err := gateDialect(cfg.Gate.Dialect)
	if err != nil {
		logger.Error("failed to resolve gate dialect", slog.Any("error", err))
		os.Exit(1)
	}
	gate, err := sqlgate.New(dialect, sqlgate.Config{
		Ceiling:              cfg.Gate.RowLimitCeiling,
		RejectOversizedLimit: cfg.Gate.RejectOversizedLimit,
	}, logger)
	if err != nil {
		logger.Error("failed to build statement gate", slog.Any("error", err))
		os.Exit(1)
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, nil)

	var translator translate.Translator
	switch cfg.AI.Provider {
	case "openai":
		translator, err = translate.NewOpenAITranslator(translate.OpenAIConfig{
			BaseURL:         cfg.AI.BaseURL,
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
			Timeout:         cfg.AI.Timeout,
		})
	default:
		translator, err = translate.NewOllamaTranslator(translate.OllamaConfig{
			BaseURL:         cfg.AI.BaseURL,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			MaxOutputTokens: cfg.AI.MaxOutputTokens,
			Timeout:         cfg.AI.Timeout,
		})
	}
	if err != nil {
		logger.Error("failed to initialize translator", slog.Any("error", err))
		os.Exit(1)
	}

	var historyStore history.Store
	switch cfg.History.Backend {
	case "postgres":
		historyDB, err := historypostgres.Open(context.Background(), historypostgres.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
		historyStore = historypostgres.NewStore(historyDB)
	default:
		historyStore, err = historysqlite.Open(context.Background(), cfg.History.Path)
		if err != nil {
			logger.Error("failed to open history db", slog.Any("error", err))
			os.Exit(1)
		}
	}
	defer func() { _ = historyStore.Close() }()

	var archiveRunner api.ArchiveRunner
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiveRunner, err = archive.NewService(archive.Config{
			ServiceName: cfg.Service.Name,
			Prune:       cfg.Archive.Prune,
		}, historyStore, objectStore, logger)
		if err != nil {
			logger.Error("failed to initialize archive service", slog.Any("error", err))
			os.Exit(1)
		}
	}

	deps := api.Dependencies{
		Logger:           logger,
		Gate:             gate,
		Limiter:          limiter,
		Translator:       translator,
		Engine:           engine,
		SchemaDB:         schemaDB,
		SchemaSampleRows: cfg.Schema.SampleRows,
		MaxInputChars:    cfg.Gate.MaxInputChars,
		History:          historyStore,
		HistoryListLimit: cfg.History.ListLimit,
		Archive:          archiveRunner,
		Readiness: api.CombineReadinessChecks(
			api.CheckDatabaseConfig(cfg),
			api.CheckQueryEngine(engine),
			api.CheckHistoryStore(historyStore),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("db_driver", cfg.Database.Driver),
			slog.String("ai_provider", cfg.AI.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

// gateDialect maps the configured dialect name to its parser. Config
// validation already restricts the value, so an unknown name here means the
// two lists drifted apart.
func gateDialect(name string) (sqlgate.Dialect, error) {
	switch name {
	case "sqlite":
		return sqlgate.SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported gate dialect %q", name)
	}
}
