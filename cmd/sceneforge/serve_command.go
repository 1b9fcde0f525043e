package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"sceneforge/internal/assets"
	"sceneforge/internal/export"
	"sceneforge/internal/jobs"
	"sceneforge/internal/logging"
	"sceneforge/internal/notifications"
	"sceneforge/internal/scenes"
	"sceneforge/internal/server"
	"sceneforge/internal/services/replicate"
	"sceneforge/internal/storyboard"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storyboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.LogDir, "sceneforge.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return errors.New("another sceneforge instance is already running")
			}
			defer lock.Unlock()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := scenes.Open()
			if err != nil {
				return fmt.Errorf("open scene store: %w", err)
			}
			defer store.Close()

			changes, unsubscribe := store.Subscribe()
			defer unsubscribe()
			go func() {
				for change := range changes {
					attrs := []any{logging.String("op", string(change.Op))}
					if change.SceneID != 0 {
						attrs = append(attrs, logging.SceneID(change.SceneID))
					}
					logger.Debug("storyboard changed", attrs...)
				}
			}()

			client := replicate.FromConfig(cfg)
			fetcher := assets.NewFetcher()
			notifier := notifications.NewService(cfg)
			orch := storyboard.New(storyboard.Deps{
				Store:    store,
				Tracker:  jobs.NewTracker(),
				Images:   client,
				Videos:   client,
				Fetcher:  fetcher,
				Notifier: notifier,
				Logger:   logger,
				Params:   storyboard.ParamsFromConfig(cfg),
			})
			exporter := export.New(fetcher, notifier, logger, cfg.Export.Concurrency)

			srv, err := server.New(server.Deps{
				Config:       cfg,
				Logger:       logger,
				Orchestrator: orch,
				Exporter:     exporter,
				Images:       client,
				Videos:       client,
				Fetcher:      fetcher,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sceneforge listening on %s\n", srv.Addr())

			<-ctx.Done()
			srv.Stop()
			logger.Info("server stopped")
			return nil
		},
	}
}
