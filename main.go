package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/app"
	"github.com/twonumberfortyfives/e-commerce-shop/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the config file (defaults to ./config.toml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	if cfg.App.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Limiter.Run(gctx)
		return nil
	})

	if a.Cleanup != nil {
		g.Go(func() error {
			a.Cleanup.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr), zap.Bool("tls", cfg.Host.SSLEnabled))

		var err error
		if cfg.Host.SSLEnabled {
			err = srv.ListenAndServeTLS(cfg.Host.CertificatePath, cfg.Host.CertificateKeyPath)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server, %w", err)
		}

		if sqlDB, err := a.Deps.DB.DB(); err == nil {
			sqlDB.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("Server terminated", zap.Error(err))
	}
}
