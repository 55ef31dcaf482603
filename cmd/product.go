package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/productlister/lister/internal/export"
	"github.com/productlister/lister/internal/listing"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newProductCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage saved products",
	}

	cmd.AddCommand(newProductListCmd(opts))
	cmd.AddCommand(newProductShowCmd(opts))
	cmd.AddCommand(newProductCopyCmd(opts))
	cmd.AddCommand(newProductDeleteCmd(opts))
	cmd.AddCommand(newProductPrimaryCmd(opts))
	cmd.AddCommand(newProductExportCmd(opts))

	return cmd
}

func newProductListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPLATFORM\tIMAGES\tSCORE\tUPDATED")
			for _, p := range a.catalog.ListProducts() {
				title := p.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					p.ID, listing.Truncate(title, 40), p.PlatformFormat, len(p.ImagePaths), p.ListingScore,
					p.UpdatedAt.Local().Format(time.DateTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats := a.catalog.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d products, %d images\n", stats.Products, stats.Images)
			return nil
		},
	}
}

func newProductShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Print a product as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			product, ok := a.catalog.GetProduct(args[0])
			if !ok {
				return fmt.Errorf("product %s not found", args[0])
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(product); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newProductCopyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "copy-text <product-id>",
		Short: "Print the listing text ready to paste into a marketplace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			product, ok := a.catalog.GetProduct(args[0])
			if !ok {
				return fmt.Errorf("product %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), listing.CopyText(*product))
			return nil
		},
	}
}

func newProductDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product and its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			if err := a.listings().DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %s\n", args[0])
			return nil
		},
	}
}

func newProductPrimaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "primary <product-id> <image-index>",
		Short: "Choose the image used for listings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid image index %q", args[1])
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			product, err := a.listings().SetPrimaryImage(args[0], index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Primary image: %s\n", product.PrimaryImage())
			return nil
		},
	}
}

func newProductExportCmd(opts *rootOptions) *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to Parquet or YAML",
		Example: `  # Format from the file extension
  lister product export --out catalog.parquet

  # Explicit format
  lister product export --format yaml --out catalog.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format == "" {
				if format, err = export.FormatFromPath(outPath); err != nil {
					return err
				}
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()

			products := a.catalog.ListProducts()
			if err := export.Write(f, format, products); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s\n", len(products), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Export format: parquet or yaml (default from --out extension)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
