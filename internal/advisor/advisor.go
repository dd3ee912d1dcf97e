// Package advisor explains accounting concepts in plain Spanish through a
// text-generation service. Failures never propagate: callers always get a
// displayable string.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"contable/internal/cache"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	DisabledMessage = "La función de consejos de IA está desactivada. Por favor, configure una API_KEY."
	ErrorMessage    = "Hubo un error al generar el consejo. Por favor, inténtalo de nuevo más tarde."
)

const promptTemplate = "Eres un asistente de contabilidad experto. Explica el siguiente concepto contable " +
	"de forma sencilla y amigable para el dueño de una nueva marca de ropa que no tiene experiencia en " +
	"contabilidad. Concéntrate en por qué es importante para su negocio. El concepto es: '%s'. " +
	"Limita la respuesta a dos párrafos cortos y útiles. Usa español. No uses formato markdown."

// Advisor returns a tip for a topic. It never fails.
type Advisor interface {
	GetTip(ctx context.Context, topic string) string
}

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg     Config
	api     *openai.Client
	tips    *cache.LRUCache[string, string]
	flights singleflight.Group
	logger  *slog.Logger
	pending sync.WaitGroup
}

// New builds a client. Without an API key the client stays disabled and
// never touches the network.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}

	c := &Client{
		cfg:    cfg,
		tips:   cache.NewLRUCache[string, string](cfg.CacheSize, cfg.CacheTTL),
		logger: logger,
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		c.api = openai.NewClientWithConfig(oc)
	}
	return c
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// Cache exposes the tip cache so it can be swept.
func (c *Client) Cache() cache.Cleaner {
	return c.tips
}

// Prompt renders the request sent for topic.
func Prompt(topic string) string {
	return fmt.Sprintf(promptTemplate, topic)
}

// GetTip returns a cached or freshly generated explanation of topic.
// Concurrent calls for the same topic share one request.
func (c *Client) GetTip(ctx context.Context, topic string) string {
	topic = strings.TrimSpace(topic)
	if !c.Enabled() {
		return DisabledMessage
	}
	if tip, ok := c.tips.Get(topic); ok {
		return tip
	}

	// The flight is shared by every caller asking for topic, so it must not
	// end when the first caller goes away. generate applies cfg.Timeout.
	v, err, _ := c.flights.Do(topic, func() (any, error) {
		return c.generate(context.WithoutCancel(ctx), topic)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Tip generation failed", "topic", topic, "error", err)
		return ErrorMessage
	}
	tip := v.(string)
	c.tips.Set(topic, tip)
	return tip
}

// Prefetch warms the cache for topic in the background. It is detached
// from the caller's context and bounded by the client timeout.
func (c *Client) Prefetch(topic string) {
	if !c.Enabled() || strings.TrimSpace(topic) == "" {
		return
	}
	if _, ok := c.tips.Get(strings.TrimSpace(topic)); ok {
		return
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		defer cancel()
		c.GetTip(ctx, topic)
	}()
}

// Wait blocks until in-flight prefetches finish.
func (c *Client) Wait() {
	c.pending.Wait()
}

func (c *Client) generate(ctx context.Context, topic string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(topic)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion: empty answer")
	}

	c.logger.InfoContext(ctx, "Tip generated",
		"topic", topic,
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
