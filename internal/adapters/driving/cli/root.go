// Package cli wires the catalogue into a cobra command tree: serve runs the
// HTTP API with the directory watcher, scan does a one-shot import, export
// writes bookmark files.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/cybercache/internal/adapters/driven/classifier/anthropic"
	"github.com/custodia-labs/cybercache/internal/adapters/driven/classifier/keywords"
	"github.com/custodia-labs/cybercache/internal/adapters/driven/classifier/openai"
	"github.com/custodia-labs/cybercache/internal/adapters/driven/extract"
	"github.com/custodia-labs/cybercache/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cybercache/internal/config"
	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
	"github.com/custodia-labs/cybercache/internal/core/services"
	"github.com/custodia-labs/cybercache/internal/logger"
)

var (
	version = "dev"

	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "cybercache",
	Short: "Personal cybersecurity resource catalogue",
	Long: `CyberCache catalogues security resources: uploaded files, external
links and files dropped into watched directories. Resources are classified
into categories, indexed for full-text search and exportable as browser
bookmarks.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if debug {
			logger.SetDebugMode()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.cybercache/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")
}

// Execute runs the command tree.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

// app is the wired service graph shared by the commands.
type app struct {
	cfg       *config.Config
	store     *sqlite.Store
	catalogue *services.CatalogueService
}

// newApp loads configuration and builds the store, classifier chain and
// catalogue service.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	chain := buildChain(cfg)
	catalogue := services.NewCatalogueService(
		store, chain, extract.New(), cfg.UploadsDir, cfg.MaxUploadBytes)

	return &app{cfg: cfg, store: store, catalogue: catalogue}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Closing store failed")
	}
}

// buildChain assembles the classifier fallback chain. AI tiers join only
// when their API key is present; keywords is always the terminal tier.
func buildChain(cfg *config.Config) *services.ClassifierChain {
	var classifiers []driven.Classifier

	timeout := cfg.Classifier.Timeout()

	if cfg.OpenAIKey != "" {
		c, err := openai.New(openai.Config{APIKey: cfg.OpenAIKey, Timeout: timeout})
		if err != nil {
			logger.Warn().Err(err).Msg("OpenAI classifier unavailable")
		} else {
			classifiers = append(classifiers, c)
			logger.Info().Msg("OpenAI classifier enabled")
		}
	}

	if cfg.AnthropicKey != "" {
		c, err := anthropic.New(anthropic.Config{APIKey: cfg.AnthropicKey, Timeout: timeout})
		if err != nil {
			logger.Warn().Err(err).Msg("Anthropic classifier unavailable")
		} else {
			classifiers = append(classifiers, c)
			logger.Info().Msg("Anthropic classifier enabled")
		}
	}

	classifiers = append(classifiers, keywords.New())
	return services.NewClassifierChain(classifiers...)
}
