package desk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"codereviewer/internal/api"
	"codereviewer/internal/review"
)

// ErrInterrupted is returned by a LineReader when the user discards the
// line being typed. Loop prompts again.
var ErrInterrupted = errors.New("interrupted")

type LineReader interface {
	Readline() (string, error)
}

// ActionContext derives the context for a single :run or :analyze. The CLI
// binds it to SIGINT so an interrupt stops that action and not the session.
type ActionContext func(parent context.Context) (context.Context, context.CancelFunc)

func withCancel(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(parent)
}

const helpText = `Type code to append it to the editor. Commands:
  :lang [python|c|c++]  show or change the language
  :analyze              review the editor contents
  :run                  compile/run the editor contents
  :clear                clear editor, review and output
  :load <file>          replace the editor with a file
  :apply                load the code suggested by the last review
  :show                 print the editor
  :help                 show this help
  :quit                 leave
`

// Loop reads lines from in until EOF, :quit or cancellation of ctx and
// dispatches commands to d. Everything else is appended to the editor.
// action may be nil.
func Loop(ctx context.Context, d *Desk, in LineReader, out io.Writer, action ActionContext) error {
	if action == nil {
		action = withCancel
	}
	fmt.Fprint(out, helpText)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := in.Readline()
		if errors.Is(err, ErrInterrupted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !strings.HasPrefix(line, ":") {
			d.AppendLine(line)
			continue
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "help", "h":
			fmt.Fprint(out, helpText)
		case "lang", "l":
			if arg == "" {
				fmt.Fprintf(out, "language: %s (available: %s)\n", d.Language(), languageList())
				continue
			}
			if err := d.SetLanguage(arg); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "language: %s\n", d.Language())
		case "analyze", "review", "a":
			fmt.Fprintln(out, markupText(review.AnalyzingMarkup))
			actx, cancel := action(ctx)
			d.Analyze(actx)
			cancel()
			printReview(out, d.ReviewMarkup())
		case "run", "r":
			actx, cancel := action(ctx)
			d.Run(actx)
			cancel()
			fmt.Fprintln(out, "--- output ---")
			fmt.Fprintln(out, strings.TrimRight(d.Output(), "\n"))
		case "clear", "c":
			d.Clear()
			printReview(out, d.ReviewMarkup())
		case "load":
			if err := d.Load(arg); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		case "apply":
			if err := d.Apply(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprint(out, d.Editor())
		case "show", "s":
			fmt.Fprint(out, d.Editor())
		default:
			fmt.Fprintf(out, "unknown command %q, type :help\n", cmd)
		}
	}
}

func markupText(markup string) string {
	text, err := review.ExtractText(markup)
	if err != nil {
		return markup
	}
	return text
}

func printReview(out io.Writer, markup string) {
	fmt.Fprintln(out, "--- review ---")
	fmt.Fprintln(out, markupText(markup))
}

func languageList() string {
	names := make([]string, len(api.Languages))
	for i, l := range api.Languages {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
