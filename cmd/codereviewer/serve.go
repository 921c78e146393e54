package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codereviewer/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the execute and review API over HTTP",
	Long: `Start an HTTP server with:
  GET  /ping      health check
  GET  /metrics   request and execution counters
  POST /execute   {"language": "...", "source_code": "..."}
  POST /review    {"language": "...", "source_code": "..."}

The server is meant for local use. With the local runtime anyone who can
reach it can run arbitrary code as your user.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Duration("timeout", 0, "Execution timeout (0 = none)")
	serveCmd.Flags().Bool("wait-ollama", false, "Wait for Ollama to come up before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Addr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if wait, _ := cmd.Flags().GetBool("wait-ollama"); wait {
		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		err := a.llm.WaitForOllama(waitCtx, 2*time.Second)
		cancel()
		if err != nil {
			return err
		}
		if ok, err := a.llm.CheckModelExists(ctx); err == nil && !ok {
			a.logger.Warn("model not pulled yet, reviews will fail", "model", a.llm.Model())
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.dispatcher, a.reviewer, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Server starting", "addr", addr, "runtime", a.cfg.Runtime, "model", a.cfg.OLLAMAModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			a.logger.Warn("Server forced to shutdown", "error", err)
		}
		if cerr := a.dispatcher.Cleanup(shutdownCtx); cerr != nil {
			a.logger.Warn("container cleanup failed", "error", cerr)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server exited")
	return nil
}
