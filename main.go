//go:build !cli

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minhanee-art/kingtire/internal/app"
	conf "github.com/minhanee-art/kingtire/internal/config"
	"github.com/minhanee-art/kingtire/internal/logs"
)

// override with -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kingtire:", err)
		os.Exit(1)
	}
}

func run() error {
	appDir, err := app.DataDir("kingtire")
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		return err
	}

	log, logFile, err := logs.New(filepath.Join(appDir, "app.log"), true, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()
	if firstRun {
		log.Info().Str("path", cfgPath).Msg("default config written")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, appDir, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.Close()

	if cfg.AutoStart {
		if err := a.Syncer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("catalog refresher did not start")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.HTTP().Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Listen).Str("version", ver).Msg("kingtire listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
