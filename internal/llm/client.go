package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyCompletion is returned when the model answers with only whitespace.
var ErrEmptyCompletion = errors.New("llm: empty completion")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: "system", Content: content} }
func User(content string) Message   { return Message{Role: "user", Content: content} }

// ChatModel is what the pipeline collaborators need from a model backend.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (string, error)
}

type Options struct {
	Temperature float64
	JSON        bool
}

type Option func(*Options)

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

// WithJSON asks the model to answer with a single JSON object.
func WithJSON() Option {
	return func(o *Options) { o.JSON = true }
}

// OllamaClient talks to an Ollama compatible /api/chat endpoint.
type OllamaClient struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
}

var _ ChatModel = (*OllamaClient)(nil)

func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string       `json:"model"`
	Messages []Message    `json:"messages"`
	Stream   bool         `json:"stream"`
	Format   string       `json:"format,omitempty"`
	Options  *chatOptions `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

func (c *OllamaClient) Chat(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	payload := chatRequest{
		Model:    c.Model,
		Messages: messages,
		Stream:   false,
		Options:  &chatOptions{Temperature: options.Temperature},
	}
	if options.JSON {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama chat error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama chat error: %s", out.Error)
	}

	content := strings.TrimSpace(out.Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
