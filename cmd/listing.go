package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/productlister/lister/internal/listing"
	"github.com/productlister/lister/internal/models"
	"github.com/spf13/cobra"
)

func newListingCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Generate marketplace listings",
	}
	cmd.AddCommand(newListingGenerateCmd(opts))
	return cmd
}

func newListingGenerateCmd(opts *rootOptions) *cobra.Command {
	var save bool
	var platform string
	var titleIndex int

	cmd := &cobra.Command{
		Use:   "generate <product-id>",
		Short: "Draft listing copy from the product's primary image",
		Long: `Drafts three title options, a structured description, tags, a category
and a price range using the brand name and tone from settings.

The draft is only printed unless --save is given. Saving truncates the title
and tags to the platform's limits.`,
		Example: `  # Preview a draft
  lister listing generate 3f6c...

  # Keep the second title and save for eBay
  lister listing generate 3f6c... --save --platform ebay --title 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			p := models.Platform(platform)
			if !p.Valid() {
				return fmt.Errorf("invalid --platform %q. Must be 'etsy', 'ebay', 'amazon', or 'shopify'", platform)
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			svc := a.listings()
			draft, err := svc.GenerateListing(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printListing(cmd.OutOrStdout(), draft)

			if !save {
				return nil
			}
			product, err := svc.SaveListing(args[0], *draft, listing.Selection{TitleIndex: titleIndex, Platform: p})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSaved listing for %s: %s\n", product.ID, product.Title)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the draft to the product")
	cmd.Flags().StringVar(&platform, "platform", string(models.PlatformEtsy), "Target platform: etsy, ebay, amazon, shopify")
	cmd.Flags().IntVar(&titleIndex, "title", 0, "Index of the generated title to keep")

	return cmd
}

func printListing(out io.Writer, l *models.Listing) {
	fmt.Fprintln(out, "Titles:")
	for i, t := range l.Titles {
		fmt.Fprintf(out, "  [%d] %s\n", i, t)
	}
	fmt.Fprintf(out, "\n%s\n\n", listing.FormatDescription(l.Description))
	fmt.Fprintf(out, "Tags: %s\n", strings.Join(l.Tags, ", "))
	fmt.Fprintf(out, "Category: %s\n", l.Category)
	fmt.Fprintf(out, "Price: $%.2f - $%.2f\n", l.PriceRange.Low, l.PriceRange.High)
	if l.TargetAudience != "" {
		fmt.Fprintf(out, "Audience: %s\n", l.TargetAudience)
	}
}
