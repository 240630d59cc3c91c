package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragqa/internal/domain"
)

const (
	DefaultModel       = openai.GPT4
	DefaultTemperature = 0.5
	serviceName        = "openai chat"
)

// Config configures the chat completion client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client sends one-message chat completions.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	t := cfg.Timeout
	if t == 0 {
		t = 2 * time.Minute
	}
	oc.HTTPClient = &http.Client{Timeout: t}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	// go-openai omits a zero temperature from the request.
	if cfg.Temperature == 0 {
		cfg.Temperature = math.SmallestNonzeroFloat32
	}
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) Name() string { return "openai/" + c.model }

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &domain.ExternalServiceError{Service: serviceName, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ExternalServiceError{Service: serviceName, Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}
