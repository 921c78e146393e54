package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codereviewer/internal/api"
	"codereviewer/internal/config"
	"codereviewer/internal/llm"
	"codereviewer/internal/review"
	"codereviewer/internal/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "codereviewer",
	Short: "Review and run code with a locally hosted model",
	Long: `codereviewer - paste code, get a review from a local Ollama model, run it.

With the default "local" runtime, code is compiled and executed directly on
this machine with your user's privileges. Nothing is sandboxed. Use
--runtime docker to run code in throwaway containers instead.`,
	SilenceUsage: true,
	RunE:         runDesk,
}

// exitCode lets subcommands report failed runs or reviews without cobra
// printing an error.
var exitCode = 0

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().String("runtime", "", "Execution runtime: local, docker")
	rootCmd.PersistentFlags().String("model", "", "Ollama model used for reviews")
	rootCmd.PersistentFlags().String("ollama-host", "", "Ollama address")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codereviewer version %s\n", version)
		},
	})
}

// loadConfig applies persistent flag overrides on top of config.LoadConfig.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("runtime", &cfg.Runtime)
	override("model", &cfg.OLLAMAModel)
	override("ollama-host", &cfg.OLLAMAHost)
	override("log-level", &cfg.LogLevel)

	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		cfg.ExecTimeout, _ = flags.GetDuration("timeout")
	}

	return cfg, cfg.Validate()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

type app struct {
	cfg        config.Config
	logger     *slog.Logger
	llm        *llm.Client
	dispatcher *runner.Dispatcher
	reviewer   *review.Requester
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	client, err := llm.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	dispatcher, err := runner.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Runtime == config.RuntimeLocal {
		logger.Debug("local runtime: code runs unsandboxed on this host")
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		llm:        client,
		dispatcher: dispatcher,
		reviewer:   review.NewRequester(client, logger),
	}, nil
}

func (a *app) Close() error {
	return a.dispatcher.Close()
}

// readSource takes code from --code, a file argument, or piped stdin.
func readSource(cmd *cobra.Command, args []string) (string, string, error) {
	if code, _ := cmd.Flags().GetString("code"); code != "" {
		return code, "", nil
	}
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), args[0], nil
	}
	if in := cmd.InOrStdin(); !isTerminal(in) {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}
	return "", "", fmt.Errorf("no code given: pass a file, --code, or pipe it on stdin")
}

// isTerminal reports whether r is an interactive terminal. Readers that are
// not files, such as a buffer set with SetIn, are never terminals.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveLanguage prefers --lang and falls back to the file extension.
func resolveLanguage(cmd *cobra.Command, filename string) (api.Language, error) {
	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" && filename != "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".py":
			lang = "python"
		case ".c":
			lang = "c"
		case ".cpp", ".cc", ".cxx":
			lang = "c++"
		}
	}
	if lang == "" {
		return "", fmt.Errorf("language required: use --lang python, c or c++")
	}
	return api.ParseLanguage(lang)
}
