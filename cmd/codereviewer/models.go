package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List local Ollama models and check the review model",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().Bool("pull", false, "Pull the review model if it is missing")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	names, err := a.llm.ListModels(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}

	ok, err := a.llm.CheckModelExists(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "review model %s is available\n", a.llm.Model())
		return nil
	}

	if pull, _ := cmd.Flags().GetBool("pull"); !pull {
		fmt.Fprintf(out, "review model %s is missing (use --pull)\n", a.llm.Model())
		exitCode = 1
		return nil
	}
	return a.llm.PullModel(ctx)
}
