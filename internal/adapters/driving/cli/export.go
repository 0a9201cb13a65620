package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/export"
)

var (
	exportFormat  string
	exportBrowser string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue as browser bookmarks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch exportBrowser {
		case "chrome", "firefox", "safari", "edge":
		default:
			return fmt.Errorf("unsupported browser %q", exportBrowser)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		resources, err := a.catalogue.List(cmd.Context(), domain.ResourceFilter{})
		if err != nil {
			return err
		}

		exporter := export.New(a.cfg.Export.FileBaseURL)
		out, err := exporter.Export(resources, exportFormat, exportBrowser)
		if err != nil {
			return err
		}

		if exportOutput == "" {
			cmd.Print(out)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(out), 0600); err != nil {
			return err
		}
		cmd.Printf("Wrote %s bookmarks to %s\n", exportBrowser, exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "html", "output format (html or json)")
	exportCmd.Flags().StringVar(&exportBrowser, "browser", "chrome", "target browser (chrome, firefox, safari, edge)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
