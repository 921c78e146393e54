// Package review turns source code into a review prompt, relays it to the
// model and renders the reply as HTML for display.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codereviewer/internal/api"
	"codereviewer/internal/metrics"
)

// Chatter sends a single prompt and returns the full reply.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

func BuildPrompt(language, source string) string {
	return fmt.Sprintf("Review and optimize this %s code:\n\n%s", language, source)
}

type Requester struct {
	chat     Chatter
	renderer *Renderer
	logger   *slog.Logger
}

func NewRequester(chat Chatter, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{
		chat:     chat,
		renderer: NewRenderer(),
		logger:   logger,
	}
}

// Review never fails: model and rendering errors come back as error markup
// with Error set.
func (r *Requester) Review(ctx context.Context, language, source string) api.ReviewResponse {
	start := time.Now()

	reply, err := r.chat.Chat(ctx, BuildPrompt(language, source))
	if err != nil {
		r.logger.Warn("review request failed", "language", language, "error", err)
		metrics.IncrementReview(true)
		return api.ReviewResponse{
			Markup: ErrorMarkup("Error during API call:", err.Error()),
			Error:  err.Error(),
		}
	}

	markup, err := r.renderer.Render(reply)
	if err != nil {
		r.logger.Warn("review rendering failed", "error", err)
		metrics.IncrementReview(true)
		return api.ReviewResponse{
			Markup:   ErrorMarkup("Error rendering review:", err.Error()),
			Markdown: reply,
			Error:    err.Error(),
		}
	}

	metrics.IncrementReview(false)
	r.logger.Debug("review finished", "language", language, "duration", time.Since(start))
	return api.ReviewResponse{
		Markup:   markup,
		Markdown: reply,
	}
}
