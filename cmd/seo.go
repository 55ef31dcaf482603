package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/productlister/lister/internal/models"
	"github.com/spf13/cobra"
)

func newSEOCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seo",
		Short: "Score listings and apply keyword suggestions",
	}
	cmd.AddCommand(newSEOAnalyzeCmd(opts))
	cmd.AddCommand(newSEOAddKeywordCmd(opts))
	return cmd
}

func newSEOAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <product-id>",
		Short: "Score the saved listing and suggest improvements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			analysis, err := a.listings().AnalyzeSEO(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), analysis)
			return nil
		},
	}
}

func newSEOAddKeywordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-keyword <product-id> <keyword>",
		Short: "Add a suggested keyword to the product's tags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			product, err := a.listings().AddKeyword(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tags: %s\n", strings.Join(product.Tags, ", "))
			return nil
		},
	}
}

func printAnalysis(out io.Writer, a *models.SEOAnalysis) {
	fmt.Fprintf(out, "Listing score: %.0f/100\n", a.ListingScore)
	fmt.Fprintf(out, "  Title quality:            %.0f\n", a.ScoreBreakdown.TitleQuality)
	fmt.Fprintf(out, "  Description completeness: %.0f\n", a.ScoreBreakdown.DescriptionCompleteness)
	fmt.Fprintf(out, "  Tag relevance:            %.0f\n", a.ScoreBreakdown.TagRelevance)
	fmt.Fprintf(out, "  Keyword optimization:     %.0f\n", a.ScoreBreakdown.KeywordOptimization)

	if len(a.SuggestedKeywords) > 0 {
		fmt.Fprintln(out, "\nSuggested keywords:")
		for _, k := range a.SuggestedKeywords {
			fmt.Fprintf(out, "  %-24s %-6s %s\n", k.Keyword, k.Relevance, k.Reason)
		}
	}
	if len(a.Improvements) > 0 {
		fmt.Fprintln(out, "\nImprovements:")
		for _, imp := range a.Improvements {
			fmt.Fprintf(out, "  - %s\n", imp)
		}
	}

	ci := a.CompetitorInsights
	fmt.Fprintf(out, "\nTypical price: $%.2f - $%.2f\n", ci.TypicalPriceRange.Low, ci.TypicalPriceRange.High)
	if len(ci.CommonKeywords) > 0 {
		fmt.Fprintf(out, "Common keywords: %s\n", strings.Join(ci.CommonKeywords, ", "))
	}
	if len(ci.Differentiators) > 0 {
		fmt.Fprintf(out, "Differentiators: %s\n", strings.Join(ci.Differentiators, ", "))
	}
}
