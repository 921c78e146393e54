package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codereviewer/internal/api"
	"codereviewer/internal/config"
	"codereviewer/internal/metrics"
)

// Dispatcher selects the Runner for a language tag. It holds no state
// between calls.
type Dispatcher struct {
	runners map[api.Language]Runner
	timeout time.Duration
	logger  *slog.Logger
	docker  *Docker
}

type Option func(*Dispatcher)

// WithTimeout bounds every execution. Zero leaves runs unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDispatcher(runners map[api.Language]Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runners: runners,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LocalRunners returns the unsandboxed host runners described by cfg.
func LocalRunners(cfg config.Config) map[api.Language]Runner {
	return map[api.Language]Runner{
		api.Python: Interpreted{Interpreter: cfg.Python},
		api.C:      Compiled{Compiler: cfg.CC, Suffix: ".c", TempDir: cfg.TempDir},
		api.CPP:    Compiled{Compiler: cfg.CXX, Suffix: ".cpp", TempDir: cfg.TempDir},
	}
}

// New builds a Dispatcher for the runtime selected in cfg.
func New(cfg config.Config, logger *slog.Logger) (*Dispatcher, error) {
	opts := []Option{WithTimeout(cfg.ExecTimeout), WithLogger(logger)}

	switch cfg.Runtime {
	case config.RuntimeLocal:
		return NewDispatcher(LocalRunners(cfg), opts...), nil
	case config.RuntimeDocker:
		dk, err := NewDocker(cfg, logger)
		if err != nil {
			return nil, err
		}
		runners := make(map[api.Language]Runner, len(api.Languages))
		for _, lang := range api.Languages {
			runners[lang] = dk.Runner(lang)
		}
		d := NewDispatcher(runners, opts...)
		d.docker = dk
		return d, nil
	default:
		return nil, fmt.Errorf("unknown runtime %q", cfg.Runtime)
	}
}

func (d *Dispatcher) Execute(ctx context.Context, language, source string) api.ExecutionResult {
	lang, err := api.ParseLanguage(language)
	if err != nil {
		d.logger.Debug("unsupported language", "language", language)
		return unsupported()
	}
	r, ok := d.runners[lang]
	if !ok {
		d.logger.Debug("no runner registered", "language", lang)
		return unsupported()
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	result := r.Run(ctx, source)
	metrics.IncrementExecution(result.Outcome)
	d.logger.Debug("execution finished",
		"language", lang,
		"outcome", result.Outcome,
		"exit_code", result.ExitCode,
		"duration", time.Since(start))
	return result
}

// Run returns only the text destined for the output pane.
func (d *Dispatcher) Run(ctx context.Context, language, source string) string {
	return d.Execute(ctx, language, source).Output
}

// Cleanup removes containers left behind by the docker runtime. It is a
// no-op for the local runtime.
func (d *Dispatcher) Cleanup(ctx context.Context) error {
	if d.docker == nil {
		return nil
	}
	return d.docker.CleanupAllContainers(ctx)
}

func (d *Dispatcher) Close() error {
	if d.docker == nil {
		return nil
	}
	return d.docker.Close()
}
