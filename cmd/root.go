package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	dataDir         string
	artifactBackend string
	logLevel        string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lister",
		Short: "Product photo editing and marketplace listing assistant",
		Long: `Lister turns a product photo into a marketplace-ready listing.

Edit the photo conversationally with Gemini image models, generate styled
variations, then draft, save and score listing copy for Etsy, eBay, Amazon
or Shopify. Everything is stored locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the catalog and images (default $LISTER_DATA_DIR or ~/.lister)")
	cmd.PersistentFlags().StringVar(&opts.artifactBackend, "artifact-backend", "", "Image storage backend: fs or sqlite (default $LISTER_ARTIFACT_BACKEND or fs)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	cmd.AddCommand(newProductCmd(opts))
	cmd.AddCommand(newListingCmd(opts))
	cmd.AddCommand(newSEOCmd(opts))
	cmd.AddCommand(newSettingsCmd(opts))

	return cmd
}

func setupLogging(level string) error {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return nil
}
