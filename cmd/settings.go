package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/productlister/lister/internal/models"
	"github.com/spf13/cobra"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts))
	cmd.AddCommand(newSettingsSetCmd(opts))
	cmd.AddCommand(newSettingsResetCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			printSettings(cmd.OutOrStdout(), a.catalog.Settings())
			return nil
		},
	}
}

func newSettingsSetCmd(opts *rootOptions) *cobra.Command {
	var apiKey, brand, tone string
	var colors []string
	var preferQuality bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Example: `  lister settings set --api-key AIza... --brand "Clay & Co" --tone luxury
  lister settings set --colors "#1f2937,#f59e0b" --prefer-quality`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var update models.SettingsUpdate
			flags := cmd.Flags()
			if flags.Changed("api-key") {
				update.GeminiAPIKey = &apiKey
			}
			if flags.Changed("brand") {
				update.BrandName = &brand
			}
			if flags.Changed("colors") {
				update.BrandColors = &colors
			}
			if flags.Changed("tone") {
				t := models.Tone(tone)
				if !t.Valid() {
					return fmt.Errorf("invalid --tone %q. Must be 'professional', 'casual', 'luxury', or 'edgy'", tone)
				}
				update.DefaultTone = &t
			}
			if flags.Changed("prefer-quality") {
				update.PreferQuality = &preferQuality
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			settings, err := a.catalog.UpdateSettings(update)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key")
	cmd.Flags().StringVar(&brand, "brand", "", "Brand name used in listings")
	cmd.Flags().StringSliceVar(&colors, "colors", nil, "Brand colors")
	cmd.Flags().StringVar(&tone, "tone", "", "Listing tone: professional, casual, luxury, edgy")
	cmd.Flags().BoolVar(&preferQuality, "prefer-quality", false, "Use the quality image model first")

	return cmd
}

func newSettingsResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			settings, err := a.catalog.ResetSettings()
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), settings)
			return nil
		},
	}
}

func printSettings(out io.Writer, s models.Settings) {
	key := "(not set)"
	if s.GeminiAPIKey != "" {
		key = maskKey(s.GeminiAPIKey)
	}
	fmt.Fprintf(out, "API key:        %s\n", key)
	fmt.Fprintf(out, "Brand name:     %s\n", s.BrandName)
	fmt.Fprintf(out, "Brand colors:   %s\n", strings.Join(s.BrandColors, ", "))
	fmt.Fprintf(out, "Default tone:   %s\n", s.DefaultTone)
	fmt.Fprintf(out, "Prefer quality: %t\n", s.PreferQuality)
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
