package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"codereviewer/internal/review"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Ask the model to review code",
	Long: `Send code to the configured Ollama model with the prompt
"Review and optimize this <language> code" and print the reply.

Formats: text (default, readable in a terminal), markdown (the raw reply),
html (the rendered dark-theme markup).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("lang", "l", "", "Language: python, c, c++ (default: from file extension)")
	reviewCmd.Flags().StringP("code", "c", "", "Code to review")
	reviewCmd.Flags().StringP("format", "f", "text", "Output format: text, markdown, html")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "markdown", "html":
	default:
		return fmt.Errorf("unknown format %q (expected text, markdown or html)", format)
	}

	source, filename, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	lang, err := resolveLanguage(cmd, filename)
	if err != nil {
		return err
	}

	code := strings.TrimSpace(source)
	if code == "" {
		return fmt.Errorf("no code to analyze")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	resp := a.reviewer.Review(ctx, string(lang), code)
	if resp.Error != "" {
		exitCode = 1
	}

	out := cmd.OutOrStdout()
	switch {
	case format == "html":
		fmt.Fprintln(out, resp.Markup)
	case format == "markdown" && resp.Error == "":
		fmt.Fprintln(out, resp.Markdown)
	default:
		text, err := review.ExtractText(resp.Markup)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
	}
	return nil
}
