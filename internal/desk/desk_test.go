package desk

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"codereviewer/internal/api"
	"codereviewer/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	calls    int
	language string
	source   string
}

func (s *stubExecutor) Run(_ context.Context, language, source string) string {
	s.calls++
	s.language, s.source = language, source
	return "ran " + language + "\n"
}

type stubReviewer struct {
	calls int
	resp  api.ReviewResponse
}

func (s *stubReviewer) Review(_ context.Context, _, _ string) api.ReviewResponse {
	s.calls++
	return s.resp
}

func TestRunEmptyEditor(t *testing.T) {
	exec := &stubExecutor{}
	d := New(exec, &stubReviewer{})
	d.SetEditor("   \n\t")

	d.Run(context.Background())

	assert.Equal(t, "Error: No code to execute.", d.Output())
	assert.Zero(t, exec.calls)
}

func TestRunTrimsAndDispatches(t *testing.T) {
	exec := &stubExecutor{}
	d := New(exec, &stubReviewer{})
	require.NoError(t, d.SetLanguage("cpp"))
	d.SetEditor("\n int main() {} \n\n")

	d.Run(context.Background())

	assert.Equal(t, "ran c++\n", d.Output())
	assert.Equal(t, "c++", exec.language)
	assert.Equal(t, "int main() {}", exec.source)
}

func TestAnalyzeEmptyEditor(t *testing.T) {
	rev := &stubReviewer{}
	d := New(&stubExecutor{}, rev)

	d.Analyze(context.Background())

	assert.Equal(t, review.NoCodeMarkup, d.ReviewMarkup())
	assert.Contains(t, d.ReviewMarkup(), "No code to analyze.")
	assert.Zero(t, rev.calls)
}

func TestAnalyzeAndApply(t *testing.T) {
	rev := &stubReviewer{resp: api.ReviewResponse{
		Markup:   "<div><p>Use sum.</p></div>",
		Markdown: "Use sum.\n\n```python\nprint(sum(range(10)))\n```\n",
	}}
	d := New(&stubExecutor{}, rev)
	d.SetEditor("t = 0\nfor i in range(10): t += i\nprint(t)")

	d.Analyze(context.Background())
	assert.Equal(t, "<div><p>Use sum.</p></div>", d.ReviewMarkup())

	require.NoError(t, d.Apply())
	assert.Equal(t, "print(sum(range(10)))\n", d.Editor())
}

func TestApplyWithoutReview(t *testing.T) {
	d := New(&stubExecutor{}, &stubReviewer{})
	assert.ErrorIs(t, d.Apply(), ErrNoSuggestion)
}

func TestClear(t *testing.T) {
	rev := &stubReviewer{resp: api.ReviewResponse{Markup: "<p>x</p>", Markdown: "```\nx\n```"}}
	d := New(&stubExecutor{}, rev)
	d.SetEditor("print(1)")
	d.Run(context.Background())
	d.Analyze(context.Background())

	d.Clear()

	assert.Empty(t, d.Editor())
	assert.Empty(t, d.Output())
	assert.Equal(t, review.PlaceholderMarkup, d.ReviewMarkup())
	assert.ErrorIs(t, d.Apply(), ErrNoSuggestion)
}

func TestSetLanguage(t *testing.T) {
	d := New(&stubExecutor{}, &stubReviewer{})
	assert.Equal(t, api.Python, d.Language())

	require.NoError(t, d.SetLanguage("C"))
	assert.Equal(t, api.C, d.Language())

	assert.Error(t, d.SetLanguage("rust"))
	assert.Equal(t, api.C, d.Language())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(path, []byte("int main(void) { return 0; }\n"), 0o644))

	d := New(&stubExecutor{}, &stubReviewer{})
	require.NoError(t, d.Load(path))
	assert.Equal(t, "int main(void) { return 0; }\n", d.Editor())

	assert.Error(t, d.Load(filepath.Join(t.TempDir(), "missing.c")))
}

type scriptReader struct {
	lines []string
}

// interruptLine makes scriptReader report ErrInterrupted, as readline does
// for Ctrl-C at the prompt.
const interruptLine = "\x03"

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == interruptLine {
		return "", ErrInterrupted
	}
	return line, nil
}

// interruptingExecutor cancels the context it runs under, the way SIGINT
// cancels the action context in the CLI.
type interruptingExecutor struct {
	cancel func()
	err    error
}

func (e *interruptingExecutor) Run(ctx context.Context, _, _ string) string {
	e.cancel()
	<-ctx.Done()
	e.err = ctx.Err()
	return "Execution Error: signal: killed"
}

func TestLoop(t *testing.T) {
	exec := &stubExecutor{}
	rev := &stubReviewer{resp: api.ReviewResponse{
		Markup:   "<div><p>Fine.</p></div>",
		Markdown: "Fine.",
	}}
	d := New(exec, rev)

	in := &scriptReader{lines: []string{
		":lang c",
		"#include <stdio.h>",
		"int main(void) { puts(\"hi\"); }",
		":run",
		":analyze",
		":bogus",
		":quit",
		"never read",
	}}
	var out bytes.Buffer

	require.NoError(t, Loop(context.Background(), d, in, &out, nil))

	assert.Equal(t, "c", exec.language)
	assert.Equal(t, "#include <stdio.h>\nint main(void) { puts(\"hi\"); }", exec.source)
	assert.Equal(t, 1, rev.calls)
	assert.Equal(t, []string{"never read"}, in.lines)

	text := out.String()
	assert.Contains(t, text, "language: c\n")
	assert.Contains(t, text, "--- output ---\nran c\n")
	assert.Contains(t, text, "--- review ---\nFine.\n")
	assert.Contains(t, text, `unknown command "bogus"`)
}

func TestLoopClearShowsPlaceholder(t *testing.T) {
	d := New(&stubExecutor{}, &stubReviewer{})
	in := &scriptReader{lines: []string{"x = 1", ":clear", ":show"}}
	var out bytes.Buffer

	require.NoError(t, Loop(context.Background(), d, in, &out, nil))

	assert.Contains(t, out.String(), "LLM response will appear here.")
	assert.Empty(t, d.Editor())
}

func TestLoopSurvivesInterruptedRun(t *testing.T) {
	exec := &interruptingExecutor{}
	d := New(exec, &stubReviewer{})
	in := &scriptReader{lines: []string{"while True: pass", ":run", ":lang c", ":show"}}
	var out bytes.Buffer

	ctx := context.Background()
	action := func(parent context.Context) (context.Context, context.CancelFunc) {
		actx, cancel := context.WithCancel(parent)
		exec.cancel = cancel
		return actx, cancel
	}

	require.NoError(t, Loop(ctx, d, in, &out, action))

	assert.ErrorIs(t, exec.err, context.Canceled)
	assert.NoError(t, ctx.Err())
	assert.Empty(t, in.lines)
	assert.Equal(t, api.C, d.Language())
	assert.Contains(t, out.String(), "--- output ---\nExecution Error: signal: killed\n")
	assert.Contains(t, out.String(), "language: c\nwhile True: pass\n")
}

func TestLoopContinuesAfterPromptInterrupt(t *testing.T) {
	d := New(&stubExecutor{}, &stubReviewer{})
	in := &scriptReader{lines: []string{"x = 1", interruptLine, "y = 2", ":show"}}
	var out bytes.Buffer

	require.NoError(t, Loop(context.Background(), d, in, &out, nil))

	assert.Equal(t, "x = 1\ny = 2\n", d.Editor())
	assert.Empty(t, in.lines)
}

func TestLoopStopsWhenSessionCancelled(t *testing.T) {
	d := New(&stubExecutor{}, &stubReviewer{})
	in := &scriptReader{lines: []string{"x = 1"}}
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, Loop(ctx, d, in, &out, nil))
	assert.Equal(t, []string{"x = 1"}, in.lines)
}
