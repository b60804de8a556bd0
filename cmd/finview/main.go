package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finview/internal/cli"
	apphttp "finview/internal/http"
	"finview/internal/log"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err,
			log.FieldSource, cfg.DataSource)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	ttl := cfg.DatasetCacheTTL
	if ttl == 0 {
		ttl = -1
	}
	srv := apphttp.NewServer(cfg.Address(), apphttp.Deps{
		Loader:     app.Loader,
		Views:      app.Views,
		Reports:    app.Reports,
		DatasetTTL: ttl,
	}, logger)
	srv.ReadTimeout = 10 * time.Second
	// Page requests wait on quote APIs, so the write timeout leaves room for them.
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	for _, c := range srv.Caches() {
		app.Caches.Register(c)
	}
	app.Caches.StartCleanup(cacheCleanupInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finview server",
			"port", cfg.Port,
			log.FieldSource, cfg.DataSource,
			"amqp_enabled", app.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
