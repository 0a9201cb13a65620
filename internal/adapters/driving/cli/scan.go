package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cybercache/internal/watcher"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Import files from the watched directories once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if len(a.cfg.WatchedDirs) == 0 {
			cmd.Println("No watched directories configured.")
			return nil
		}

		w, err := watcher.New(a.catalogue, a.cfg.WatchedDirs)
		if err != nil {
			return err
		}
		defer w.Close()

		imported, err := w.Scan(context.Background())
		if err != nil {
			return err
		}

		cmd.Printf("Imported %d new resources.\n", imported)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
