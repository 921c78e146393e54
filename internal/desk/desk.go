// Package desk holds the state of an interactive review session: the
// selected language, the editor buffer, the review pane and the output
// pane, plus the analyze, run and clear actions that update them.
package desk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"codereviewer/internal/api"
	"codereviewer/internal/review"
)

const noCodeToExecute = "Error: No code to execute."

var ErrNoSuggestion = errors.New("no code block in the last review")

type Executor interface {
	Run(ctx context.Context, language, source string) string
}

type Reviewer interface {
	Review(ctx context.Context, language, source string) api.ReviewResponse
}

type Desk struct {
	exec   Executor
	review Reviewer

	language       api.Language
	editor         string
	reviewMarkup   string
	reviewMarkdown string
	output         string
}

func New(exec Executor, rev Reviewer) *Desk {
	return &Desk{
		exec:         exec,
		review:       rev,
		language:     api.Python,
		reviewMarkup: review.PlaceholderMarkup,
	}
}

func (d *Desk) Language() api.Language { return d.language }
func (d *Desk) Editor() string         { return d.editor }
func (d *Desk) ReviewMarkup() string   { return d.reviewMarkup }
func (d *Desk) Output() string         { return d.output }

func (d *Desk) SetLanguage(name string) error {
	lang, err := api.ParseLanguage(name)
	if err != nil {
		return err
	}
	d.language = lang
	return nil
}

func (d *Desk) SetEditor(text string) {
	d.editor = text
}

func (d *Desk) AppendLine(line string) {
	d.editor += line + "\n"
}

func (d *Desk) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	d.editor = string(data)
	return nil
}

// Analyze replaces the review pane with a review of the editor contents.
func (d *Desk) Analyze(ctx context.Context) {
	code := strings.TrimSpace(d.editor)
	if code == "" {
		d.reviewMarkup = review.NoCodeMarkup
		d.reviewMarkdown = ""
		return
	}

	resp := d.review.Review(ctx, string(d.language), code)
	d.reviewMarkup = resp.Markup
	d.reviewMarkdown = resp.Markdown
}

// Run replaces the output pane with the result of executing the editor
// contents.
func (d *Desk) Run(ctx context.Context) {
	d.output = ""
	code := strings.TrimSpace(d.editor)
	if code == "" {
		d.output = noCodeToExecute
		return
	}
	d.output = d.exec.Run(ctx, string(d.language), code)
}

func (d *Desk) Clear() {
	d.editor = ""
	d.output = ""
	d.reviewMarkup = review.PlaceholderMarkup
	d.reviewMarkdown = ""
}

// Apply loads the code suggested by the last review into the editor.
func (d *Desk) Apply() error {
	code, ok := review.ExtractCode(d.reviewMarkdown, string(d.language))
	if !ok {
		return ErrNoSuggestion
	}
	d.editor = code + "\n"
	return nil
}
