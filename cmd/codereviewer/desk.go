package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"codereviewer/internal/desk"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var deskCmd = &cobra.Command{
	Use:   "desk",
	Short: "Interactive review desk (default)",
	Long: `Start an interactive session with an editor buffer, a review pane and an
output pane.

Lines you type are appended to the editor. Commands start with ':' -
:analyze, :run, :clear, :lang, :load, :apply, :show, :help, :quit.`,
	Args: cobra.NoArgs,
	RunE: runDesk,
}

func init() {
	deskCmd.Flags().StringP("lang", "l", "python", "Initial language: python, c, c++")
	deskCmd.Flags().String("history", "", "History file path (default: ~/.codereviewer_history)")
	deskCmd.Flags().Duration("timeout", 0, "Execution timeout (0 = none)")
	rootCmd.AddCommand(deskCmd)
}

type readlineReader struct {
	rl *readline.Instance
	d  *desk.Desk
}

func (r readlineReader) Readline() (string, error) {
	r.rl.SetPrompt("[" + string(r.d.Language()) + "]> ")
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", desk.ErrInterrupted
	}
	return line, err
}

// interruptAction stops the running action on Ctrl-C. Outside actions
// readline holds the terminal in raw mode and reports Ctrl-C itself.
func interruptAction(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

func runDesk(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d := desk.New(a.dispatcher, a.reviewer)
	if f := cmd.Flags().Lookup("lang"); f != nil {
		if err := d.SetLanguage(f.Value.String()); err != nil {
			return err
		}
	}

	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".codereviewer_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, func() { rl.Close() })

	return desk.Loop(ctx, d, readlineReader{rl: rl, d: d}, rl.Stdout(), interruptAction)
}
