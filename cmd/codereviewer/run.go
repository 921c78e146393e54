package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"codereviewer/internal/api"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and run code once",
	Long: `Run Python, C or C++ code and print its output.

Code can be provided via:
  - File argument: codereviewer run main.c
  - Inline flag:   codereviewer run -l python -c 'print(1+1)'
  - Stdin:         cat main.cpp | codereviewer run -l c++

Standard output is printed when the program wrote any; otherwise standard
error is printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("lang", "l", "", "Language: python, c, c++ (default: from file extension)")
	runCmd.Flags().StringP("code", "c", "", "Code to execute")
	runCmd.Flags().Duration("timeout", 0, "Execution timeout (0 = none)")
	runCmd.Flags().Bool("json", false, "Print the full result as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no code to execute")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result := a.dispatcher.Execute(ctx, string(lang), code)
	if result.Outcome != api.OutcomeSuccess {
		exitCode = 1
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprint(out, result.Output)
	if result.Output != "" && !strings.HasSuffix(result.Output, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}
