// Package cli provides the initialization shared by cmd/finview and
// cmd/finview-cli: logging, configuration, the transaction source and the
// services built on top of it.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"finview/internal/amqp"
	"finview/internal/cache"
	"finview/internal/config"
	"finview/internal/log"
	"finview/internal/quotes"
	"finview/internal/reports"
	"finview/internal/settings"
	"finview/internal/sources"
	"finview/internal/sources/excel"
	"finview/internal/sources/google"
	"finview/internal/sources/memory"
	"finview/internal/storage"
	"finview/internal/views"
)

// SetupLogger initializes structured logging at level, as JSON when format
// is "json", and sets it as the default logger.
func SetupLogger(level, format string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.JSON = format == "json"
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitLedger opens the sqlite ledger at dbPath.
// Returns the ledger or exits the process on failure.
func InitLedger(logger *log.Logger, dbPath string) *storage.Ledger {
	ledger, err := storage.Open(dbPath, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return ledger
}

// OpenSource builds the loader selected by cfg.DataSource. The returned
// close function releases whatever the loader holds and is never nil.
func OpenSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (sources.Loader, func() error, error) {
	noop := func() error { return nil }
	switch cfg.DataSource {
	case config.SourceExcel, "":
		return excel.NewLoader(cfg.TransactionsFile, "", logger), noop, nil
	case config.SourceSheets:
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("init google sheets source: %w", err)
		}
		return client, noop, nil
	case config.SourceSQLite:
		ledger, err := storage.Open(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("init sqlite source: %w", err)
		}
		return ledger, ledger.Close, nil
	case config.SourceMemory:
		if strings.EqualFold(filepath.Ext(cfg.TransactionsFile), ".json") {
			return memory.NewFromFile(cfg.TransactionsFile), noop, nil
		}
		return memory.New(memory.Sample()...), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// NewQuoteProvider returns the cached quote client described by cfg.
func NewQuoteProvider(cfg *config.Config, logger *log.Logger) *quotes.CachedProvider {
	client := quotes.NewClient(quotes.Config{
		APIKey:      cfg.APIKey,
		CurrencyURL: cfg.APIURL,
		StockURL:    cfg.StockAPIURL,
		Timeout:     cfg.QuoteTimeout,
		StockDelay:  cfg.StockRequestDelay,
	}, logger)
	return quotes.NewCachedProvider(client, cfg.QuoteCacheSize, cfg.QuoteCacheTTL)
}

// ConnectAMQP dials the broker when AMQP_URL is set. It returns nil when
// messaging is disabled or the broker is unreachable; report persistence
// works without it.
func ConnectAMQP(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, report notifications disabled", log.FieldError, err)
		return nil
	}
	return client
}

// App bundles the services a binary needs.
type App struct {
	Config  *config.Config
	Loader  sources.Loader
	Quotes  *quotes.CachedProvider
	Views   *views.Builder
	Reports *reports.Service
	AMQP    *amqp.Client
	Caches  *cache.Manager

	closers []func() error
}

// NewApp wires the transaction source, quotes, settings, report persistence
// and notifications from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	loader, closeLoader, err := OpenSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:  cfg,
		Loader:  loader,
		Quotes:  NewQuoteProvider(cfg, logger),
		Caches:  cache.NewManager(logger),
		closers: []func() error{closeLoader},
	}
	for _, c := range app.Quotes.Caches() {
		app.Caches.Register(c)
	}

	app.Views = views.NewBuilder(app.Quotes, settings.NewStore(cfg.UserSettingsFile, logger), logger)

	var notifier reports.Notifier
	if client := ConnectAMQP(cfg, logger); client != nil {
		app.AMQP = client
		notifier = client
		app.closers = append(app.closers, client.Close)
	}
	app.Reports = reports.NewService(reports.NewSaver(cfg.ReportsDir, notifier, logger), logger)
	return app, nil
}

// Close releases the resources held by the app, newest first.
func (a *App) Close() error {
	a.Caches.Stop()
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}
