package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cybercache/internal/adapters/driving/rest"
	"github.com/custodia-labs/cybercache/internal/export"
	"github.com/custodia-labs/cybercache/internal/logger"
	"github.com/custodia-labs/cybercache/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and directory watcher",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(),
			syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if len(a.cfg.WatchedDirs) > 0 {
			w, err := watcher.New(a.catalogue, a.cfg.WatchedDirs)
			if err != nil {
				return err
			}
			defer w.Close()

			if _, err := w.Scan(ctx); err != nil {
				logger.Warn().Err(err).Msg("Startup scan failed")
			}

			go func() {
				if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("Watcher stopped")
				}
			}()
		}

		server := rest.NewServer(
			a.catalogue,
			export.New(a.cfg.Export.FileBaseURL),
			a.cfg.UploadsDir,
			"100M",
			version,
		)
		return server.Start(ctx, a.cfg.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
