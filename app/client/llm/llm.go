// Package llm wraps the OpenAI-compatible chat API used as the optional
// generative collaborator. Every caller treats an error from this client
// as a signal to fall back to its deterministic path.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"docsmith/app/config"

	"github.com/samber/oops"
	"github.com/sashabaranov/go-openai"
)

const (
	maxReasonDuration = 30 * time.Second
	defaultMaxTokens  = 4096
)

type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a client for one model config. An empty token yields
// a disabled client whose calls fail immediately, which routes every
// call site onto its deterministic fallback.
func NewClient(cfg config.ModelConfig) *Client {
	if cfg.Token == "" {
		return &Client{}
	}

	clientConfig := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *Client) Enabled() bool {
	return c.client != nil
}

// ChatText returns a trimmed free-text completion.
func (c *Client) ChatText(ctx context.Context, system, user string) (string, error) {
	content, err := c.complete(ctx, system, user, nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

// ChatJSON returns the model output parsed as a JSON object. Fenced or
// prefixed output is cleaned up first; if parsing still fails the raw
// text is returned in a wrapper map instead of an error, so callers can
// decide how much structure they actually need.
func (c *Client) ChatJSON(ctx context.Context, system, user string) (map[string]any, error) {
	content, err := c.complete(ctx, system, user, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return nil, err
	}

	content = strings.Trim(content, "`")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSpace(content)

	var result map[string]any
	if err = json.Unmarshal([]byte(content), &result); err != nil {
		return map[string]any{
			"raw":         content,
			"parse_error": err.Error(),
		}, nil
	}

	return result, nil
}

func (c *Client) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if c.client == nil {
		return "", oops.Errorf("llm client is disabled (no token configured)")
	}

	ctx, cancel := context.WithTimeout(ctx, maxReasonDuration)
	defer cancel()

	response, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
			MaxCompletionTokens: defaultMaxTokens,
			Temperature:         0.2,
			ResponseFormat:      format,
		},
	)
	if err != nil {
		return "", oops.Wrapf(err, "failed to create chat completion")
	}

	if len(response.Choices) == 0 {
		return "", oops.Errorf("no chat completion found")
	}

	return response.Choices[0].Message.Content, nil
}
