package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/productlister/lister/internal/models"
	"github.com/productlister/lister/internal/session"
	"github.com/spf13/cobra"
)

type editOptions struct {
	generate         string
	prompts          []string
	removeBackground bool
	variations       bool
	selectIndex      int
	save             bool
	interactive      bool
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	eo := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit [image path or URL]",
		Short: "Edit a product photo with AI",
		Long: `Starts an editing session on a product photo.

Prompts run in order as one conversation, so each edit builds on the last.
Variations render four preset styles of the current image. Use --save to
add the result to the catalog, or --interactive for a prompt loop.`,
		Example: `  # Brighten a photo, render variations, keep the second, save it
  lister edit ./mug.jpg --prompt "brighter, warmer light" --variations --select 1 --save

  # Start from a text description
  lister edit --generate "a blue ceramic mug on a wooden table" --save

  # Interactive session
  lister edit https://example.com/mug.jpg --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) == 0 && eo.generate == "" {
				return fmt.Errorf("an image path or URL, or --generate, is required")
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			editor := a.editor()
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if len(args) == 1 {
				if err := editor.PickImage(ctx, session.Source{Ref: args[0]}); err != nil {
					return fmt.Errorf("failed to load image: %w", err)
				}
			} else {
				fmt.Fprintln(out, "Generating base image...")
				if err := editor.GenerateImage(ctx, eo.generate); err != nil {
					return fmt.Errorf("failed to generate image: %w", err)
				}
			}
			fmt.Fprintf(out, "Current image: %s\n", editor.Snapshot().CurrentImagePath)

			if err := runEditSteps(ctx, out, editor, eo); err != nil {
				return err
			}

			if eo.interactive {
				return runEditLoop(ctx, cmd.InOrStdin(), out, editor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eo.generate, "generate", "", "Create the base image from a text description instead of a file")
	cmd.Flags().StringArrayVarP(&eo.prompts, "prompt", "p", nil, "Edit instruction (repeatable, runs in order)")
	cmd.Flags().BoolVar(&eo.removeBackground, "remove-background", false, "Replace the background with pure white")
	cmd.Flags().BoolVar(&eo.variations, "variations", false, "Render the four style variations")
	cmd.Flags().IntVar(&eo.selectIndex, "select", -1, "Variation index to use as the current image")
	cmd.Flags().BoolVar(&eo.save, "save", false, "Save the session to the catalog")
	cmd.Flags().BoolVarP(&eo.interactive, "interactive", "i", false, "Read further instructions from stdin")

	return cmd
}

func runEditSteps(ctx context.Context, out io.Writer, editor *session.Editor, eo *editOptions) error {
	for _, prompt := range eo.prompts {
		reply, err := editor.SendMessage(ctx, prompt)
		if err != nil {
			return err
		}
		printReply(out, reply)
	}

	if eo.removeBackground {
		reply, err := editor.RemoveBackground(ctx)
		if err != nil {
			return err
		}
		printReply(out, reply)
	}

	if eo.variations {
		if err := printVariations(ctx, out, editor); err != nil {
			return err
		}
	}

	if eo.selectIndex >= 0 {
		if err := editor.SelectVariation(eo.selectIndex); err != nil {
			return err
		}
		fmt.Fprintf(out, "Current image: %s\n", editor.Snapshot().CurrentImagePath)
	}

	if eo.save {
		product, err := editor.SaveProduct(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved product %s with %d images\n", product.ID, len(product.ImagePaths))
	}
	return nil
}

const editHelp = `Commands:
  <text>          edit instruction
  /bg             remove background
  /variations     render style variations
  /select N       use variation N as the current image
  /save           save to the catalog
  /status         show the session
  /quit           leave`

func runEditLoop(ctx context.Context, in io.Reader, out io.Writer, editor *session.Editor) error {
	fmt.Fprintln(out, editHelp)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nSession interrupted.")
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch fields := strings.Fields(line); fields[0] {
		case "/quit", "/exit":
			return nil
		case "/bg":
			var reply models.ChatMessage
			if reply, err = editor.RemoveBackground(ctx); err == nil {
				printReply(out, reply)
			}
		case "/variations":
			err = printVariations(ctx, out, editor)
		case "/select":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: /select N")
				break
			}
			var index int
			if index, err = strconv.Atoi(fields[1]); err == nil {
				if err = editor.SelectVariation(index); err == nil {
					fmt.Fprintf(out, "Current image: %s\n", editor.Snapshot().CurrentImagePath)
				}
			}
		case "/save":
			var product *models.Product
			if product, err = editor.SaveProduct(ctx); err == nil {
				fmt.Fprintf(out, "Saved product %s with %d images\n", product.ID, len(product.ImagePaths))
			}
		case "/status":
			snap := editor.Snapshot()
			fmt.Fprintf(out, "State: %s\nImage: %s\nVariations: %s\nMessages: %d\n",
				snap.State, snap.CurrentImagePath, strings.Join(snap.Variations, ", "), len(snap.ChatHistory))
		default:
			if strings.HasPrefix(line, "/") {
				fmt.Fprintln(out, editHelp)
				continue
			}
			var reply models.ChatMessage
			if reply, err = editor.SendMessage(ctx, line); err == nil {
				printReply(out, reply)
			}
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func printReply(out io.Writer, reply models.ChatMessage) {
	fmt.Fprintln(out, reply.Text)
	if reply.ImagePath != "" {
		fmt.Fprintf(out, "  -> %s\n", reply.ImagePath)
	}
}

func printVariations(ctx context.Context, out io.Writer, editor *session.Editor) error {
	fmt.Fprintln(out, "Generating variations...")
	report, err := editor.GenerateVariations(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.Notice)
	for i, path := range report.Paths {
		fmt.Fprintf(out, "  [%d] %s\n", i, path)
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(out, "  failed: %s\n", msg)
	}
	return nil
}
