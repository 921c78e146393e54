package runner

import (
	"context"
	"testing"
	"time"

	"codereviewer/internal/api"
	"codereviewer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	calls   int
	sources []string
	result  api.ExecutionResult
}

func (r *recordingRunner) Run(_ context.Context, source string) api.ExecutionResult {
	r.calls++
	r.sources = append(r.sources, source)
	return r.result
}

func TestDispatcherSelectsRunner(t *testing.T) {
	py := &recordingRunner{result: api.ExecutionResult{Output: "py\n", Outcome: api.OutcomeSuccess}}
	c := &recordingRunner{result: api.ExecutionResult{Output: "c\n", Outcome: api.OutcomeSuccess}}
	cpp := &recordingRunner{result: api.ExecutionResult{Output: "cpp\n", Outcome: api.OutcomeSuccess}}

	d := NewDispatcher(map[api.Language]Runner{api.Python: py, api.C: c, api.CPP: cpp})

	tests := []struct {
		lang string
		want string
	}{
		{"python", "py\n"},
		{"py", "py\n"},
		{"c", "c\n"},
		{"c++", "cpp\n"},
		{"cpp", "cpp\n"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Run(context.Background(), tt.lang, "code"))
		})
	}
	assert.Equal(t, 2, py.calls)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 2, cpp.calls)
}

func TestDispatcherUnsupportedLanguage(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(map[api.Language]Runner{api.Python: r})

	for _, lang := range []string{"rust", "", "c"} {
		res := d.Execute(context.Background(), lang, "fn main() {}")
		assert.Equal(t, "Unsupported language.", res.Output)
		assert.Equal(t, api.OutcomeInternalError, res.Outcome)
	}
	assert.Zero(t, r.calls)
}

func TestDispatcherPassesSourceVerbatim(t *testing.T) {
	r := &recordingRunner{}
	d := NewDispatcher(map[api.Language]Runner{api.Python: r})

	src := "  print('x')  \n\n"
	d.Execute(context.Background(), "python", src)

	require.Len(t, r.sources, 1)
	assert.Equal(t, src, r.sources[0])
}

func TestDispatcherTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	r := RunnerFunc(func(ctx context.Context, _ string) api.ExecutionResult {
		deadline, hasDeadline = ctx.Deadline()
		return api.ExecutionResult{}
	})

	NewDispatcher(map[api.Language]Runner{api.Python: r}).Execute(context.Background(), "python", "x")
	assert.False(t, hasDeadline)

	NewDispatcher(map[api.Language]Runner{api.Python: r}, WithTimeout(time.Minute)).Execute(context.Background(), "python", "x")
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestNewLocalDispatcher(t *testing.T) {
	cfg := config.Default()
	cfg.Python = findTool(t, "python3", "python")

	d, err := New(cfg, nil)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "3\n", d.Run(context.Background(), "python", "print(1 + 2)"))
	assert.NoError(t, d.Cleanup(context.Background()))
}

func TestNewUnknownRuntime(t *testing.T) {
	cfg := config.Default()
	cfg.Runtime = "podman"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
