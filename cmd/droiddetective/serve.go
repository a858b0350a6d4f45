package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apk-analysis/droid-detective/internal/api"
	"github.com/apk-analysis/droid-detective/internal/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var withWatcher bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(appOptions{metrics: true, history: true})
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(cmd.Context(), a, withWatcher)
		},
	}

	cmd.Flags().BoolVar(&withWatcher, "watch", false, "also scan packages dropped into watcher.dir")
	return cmd
}

func serve(ctx context.Context, a *app, withWatcher bool) error {
	cfg, logger := a.cfg, a.logger
	api.Version = Version

	// 启动时加载或训练模型，失败时接口仍可用，检测请求会返回 503
	if _, err := a.svc.EnsureModel(ctx); err != nil {
		logger.WithError(err).Warn("Model not ready, scans will fail until a model is trained")
	}

	memMonitor := middleware.NewMemoryMonitor(logger, a.metrics, 30*time.Second)
	memMonitor.Start()
	defer memMonitor.Stop()

	if withWatcher {
		fw, err := startWatcher(ctx, a)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	router := api.SetupRouter(cfg, logger, a.svc, memMonitor, a.metrics)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // 大文件上传
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"version": Version,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}
	return nil
}
