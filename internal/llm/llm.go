package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codereviewer/internal/config"
	"github.com/ollama/ollama/api"
)

var ErrEmptyResponse = errors.New("empty response from model")

type Client struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

func NewClient(cfg config.Config, logger *slog.Logger) (*Client, error) {
	base, err := parseHost(cfg.OLLAMAHost)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		model:  cfg.OLLAMAModel,
		logger: logger,
	}, nil
}

// parseHost accepts the same forms as OLLAMA_HOST, including a bare
// host:port without scheme.
func parseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("empty ollama host")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q", host)
	}
	return u, nil
}

func (c *Client) Model() string {
	return c.model
}

// Chat sends prompt as a single user message and waits for the complete
// reply.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Stream: new(bool),
	}

	var response strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat with %s: %w", c.model, err)
	}
	if strings.TrimSpace(response.String()) == "" {
		return "", ErrEmptyResponse
	}

	return response.String(), nil
}

func (c *Client) WaitForOllama(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		c.logger.Info("Checking Ollama availability...")
		_, err := c.client.List(ctx)
		if err == nil {
			c.logger.Info("Ollama is available")
			return nil
		}
		c.logger.Debug("ollama not ready", "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for Ollama: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) PullModel(ctx context.Context) error {
	c.logger.Info("pulling model", "model", c.model)

	req := &api.PullRequest{
		Model:  c.model,
		Stream: new(bool),
	}

	err := c.client.Pull(ctx, req, func(resp api.ProgressResponse) error {
		c.logger.Info("pulling", "model", c.model, "status", resp.Status)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}

	c.logger.Info("model pulled", "model", c.model)
	return nil
}

// ListModels returns the names of the locally available models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *Client) CheckModelExists(ctx context.Context) (bool, error) {
	names, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}

	want := normalizeModel(c.model)
	for _, name := range names {
		if normalizeModel(name) == want {
			return true, nil
		}
	}
	return false, nil
}

// normalizeModel adds the implicit ":latest" tag.
func normalizeModel(name string) string {
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}
