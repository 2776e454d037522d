// Package paraphrase rewrites a finished recommendation into friendlier
// wording through an external language model. The feature is cosmetic only:
// the provider receives a pre-sanitised summary of the deterministic result
// and is instructed never to add medical content, and any failure leaves the
// original recommendation untouched.
package paraphrase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/otc-triage-server/internal/domain"
)

const (
	maxListItems = 6
	maxItemLen   = 240
	maxTitleLen  = 200

	systemPrompt = "You rewrite pharmacy triage summaries in plain, friendly English. " +
		"Keep every fact exactly as given. Do not add medication names, doses, " +
		"warnings or any medical advice that is not in the input. Reply with a " +
		"short paragraph."
)

// Client calls the completion provider behind a circuit breaker so a flapping
// upstream degrades to the deterministic output instead of piling up timeouts.
type Client struct {
	logger  *logrus.Logger
	cfg     domain.ParaphraseConfig
	api     *openai.Client
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a paraphrase client. With an empty API key the client is
// disabled and every call returns a NOT_CONFIGURED error.
func NewClient(logger *logrus.Logger, cfg domain.ParaphraseConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}

	c := &Client{logger: logger, cfg: cfg}
	if cfg.APIKey != "" {
		c.api = openai.NewClient(cfg.APIKey)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ParaphraseProvider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// Rewrite returns a friendlier phrasing of the recommendation. The caller
// must treat any error as "use the original wording".
func (c *Client) Rewrite(ctx context.Context, rec *domain.Recommendation) (string, error) {
	if !c.Enabled() {
		return "", domain.NewTriageError(domain.ErrNotConfigured, "paraphrase provider is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	summary := buildSummary(rec)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.cfg.Model,
			MaxTokens: c.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: summary},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty completion response")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		c.logger.WithError(err).Warn("Paraphrase request failed")
		return "", domain.NewTriageErrorf(domain.ErrProviderError, "paraphrase failed: %v", err)
	}

	text, ok := result.(string)
	if !ok || text == "" {
		return "", domain.NewTriageError(domain.ErrProviderError, "paraphrase returned no text")
	}
	return text, nil
}

// buildSummary flattens the recommendation into a capped, allowlisted plain
// text block. Only the fields listed here ever leave the process.
func buildSummary(rec *domain.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Condition: %s\n", truncate(rec.Title, maxTitleLen))

	names := make([]string, 0, len(rec.Advice))
	for _, opt := range rec.Advice {
		names = append(names, opt.ClassName)
	}
	writeList(&b, "Suggested options", names)
	writeList(&b, "Self care", rec.SelfCare)
	writeList(&b, "Cautions", rec.Cautions)
	writeList(&b, "See a doctor because", rec.Flags)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	if len(items) > maxListItems {
		items = items[:maxListItems]
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", truncate(item, maxItemLen))
	}
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
