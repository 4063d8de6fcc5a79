package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v3"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

var _ llm.Generator = (*Client)(nil)

// Available reports whether the configured model answers. Once it has, the
// answer is kept; a failed probe is only trusted for probeRetry so a blip
// does not disable the model for a long batch. A caller whose ctx is
// already done gets false without a probe and without touching the cache.
func (c *Client) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if c.available || (!c.probedAt.IsZero() && c.now().Sub(c.probedAt) < c.probeRetry) {
		return c.available
	}

	// the result outlives this caller, so its cancellation must not decide it
	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
	defer cancel()
	start := time.Now()
	_, err := c.api.Models.Get(probeCtx, c.cfg.Model)
	c.available = err == nil
	c.probedAt = c.now()
	if err != nil {
		c.logger.Warn("llm.probe.unavailable", "req_id", common.RequestIDFromContext(ctx), "model", c.cfg.Model,
			"error", err, "retry_in", c.probeRetry, "elapsed_ms", time.Since(start).Milliseconds())
		return false
	}
	c.logger.Info("llm.probe.ok", "model", c.cfg.Model, "elapsed_ms", time.Since(start).Milliseconds())
	return true
}

// Generate sends one chat completion and returns the first choice's text.
func (c *Client) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = c.cfg.Temperature
	}

	c.logger.Debug("llm.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"max_tokens", maxTokens,
		"temp", temperature,
		"prompt_len", len(prompt),
	)

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if opts.System != "" {
		messages = append(messages, oai.SystemMessage(opts.System))
	}
	messages = append(messages, oai.UserMessage(prompt))

	completion, err := c.api.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:               c.cfg.Model,
		Messages:            messages,
		MaxCompletionTokens: oai.Int(int64(maxTokens)),
		Temperature:         oai.Float(temperature),
	})
	if err != nil {
		c.logger.Error("llm.generate.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeModel, "chat completion failed", err)
	}
	if len(completion.Choices) == 0 {
		c.logger.Error("llm.generate.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeModel, "no choices in response", fmt.Errorf("empty choices"))
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"model", c.cfg.Model,
		"answer_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
