package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Roles of a chat message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTimeout bounds a non-streaming request.
const DefaultTimeout = 60 * time.Second

// ErrNoAPIKey is returned when the client has no key configured.
var ErrNoAPIKey = errors.New("chat: api key is not set")

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError is a non-2xx answer from the upstream service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat upstream error: %d - %s", e.Status, e.Body)
}

// Client is an upstream chat completion client.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	referer  string
	title    string
	http     *http.Client
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithReferer sets the HTTP-Referer header.
func WithReferer(r string) Option {
	return func(c *Client) { c.referer = r }
}

// WithTitle sets the X-Title header.
func WithTitle(t string) Option {
	return func(c *Client) { c.title = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for endpoint using model and apiKey.
func New(endpoint, model, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		http:     &http.Client{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type request struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Open sends messages upstream and returns the successful response for the
// caller to read and close. A non-2xx status is returned as *APIError.
func (c *Client) Open(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	return c.send(ctx, request{Model: c.model, Messages: messages, Stream: stream})
}

func (c *Client) send(ctx context.Context, body request) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	c.log.Debug("chat upstream",
		zap.Int("status", resp.StatusCode),
		zap.Bool("stream", body.Stream),
		zap.Int("messages", len(body.Messages)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &APIError{Status: resp.StatusCode, Body: string(text)}
	}
	return resp, nil
}

type completion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a non-streaming request and returns the first choice's
// content, or "" when there is none.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	resp, err := c.Open(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completion
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// Stream sends a streaming request, calls onChunk with every non-empty delta
// and returns the concatenated reply.
func (c *Client) Stream(ctx context.Context, messages []Message, onChunk func(string)) (string, error) {
	resp, err := c.Open(ctx, messages, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return ParseStream(resp.Body, onChunk)
}

// ValidateKey sends a one-token probe and reports whether the upstream
// accepted the key.
func (c *Client) ValidateKey(ctx context.Context) bool {
	resp, err := c.send(ctx, request{
		Model:     c.model,
		Messages:  []Message{{Role: RoleUser, Content: "Hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
