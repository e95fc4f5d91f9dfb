package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/gustalya/gustalya/internal/config"
	"github.com/gustalya/gustalya/internal/extract"
	httpapi "github.com/gustalya/gustalya/internal/http"
	"github.com/gustalya/gustalya/internal/logging"
	"github.com/gustalya/gustalya/internal/notify"
	"github.com/gustalya/gustalya/internal/runner"
	"github.com/gustalya/gustalya/internal/storage"
	"github.com/gustalya/gustalya/internal/timer"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kitchen HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func runServer(cmdCtx context.Context, cfg *config.Config) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	if cfg.Server.LockFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.LockFile), 0o755); err != nil {
			return fmt.Errorf("create lock directory: %w", err)
		}
		lock := flock.New(cfg.Server.LockFile)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("another gustalya server holds %s", cfg.Server.LockFile)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release server lock", slog.Any("error", err))
			}
		}()
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	notifiers := notify.Multi{notify.NewLog(logger)}
	if ntfy := notify.NewNtfy(cfg.Notifications.NtfyTopic, cfg.NtfyTimeout()); ntfy != nil {
		notifiers = append(notifiers, ntfy)
	}

	var extractor httpapi.Extractor
	if cfg.LLM.APIKey != "" {
		extractor = extract.NewClient(extract.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			VisionModel:    cfg.LLM.VisionModel,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			MaxPageBytes:   cfg.LLM.MaxPageBytes,
		})
	} else {
		logger.Info("recipe extraction disabled: no llm api key")
	}

	manager := runner.NewManager(runner.Options{
		Notifier:         timer.Notifier(notifiers),
		History:          repo,
		Logger:           logger,
		IdleTimeout:      cfg.IdleTimeout(),
		CleanupInterval:  cfg.CleanupInterval(),
		SubscriberBuffer: cfg.Kitchen.SubscriberBuffer,
	})
	managerDone := make(chan struct{})
	go func() {
		defer close(managerDone)
		manager.Run(signalCtx)
	}()

	api := httpapi.NewServer(httpapi.Deps{
		Manager:   manager,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger,
		DevUser:   cfg.Server.DevUser,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gustalya server listening", slog.String("bind", cfg.Server.Bind))
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-signalCtx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	// Closing the kitchens first ends the event streams Shutdown would
	// otherwise wait for.
	cancel()
	<-managerDone

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("http shutdown: %w", err)
	}
	return serveErr
}

func openRepository(cfg *config.Config) (storage.Repository, error) {
	repo, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return repo, nil
}
