package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/ai"
)

const (
	Provider     = "openai"
	defaultModel = openai.GPT4oMini
	schemaName   = "smart_match"
)

var ErrMissingAPIKey = errors.New("openai api key is not configured")

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Policy  ai.CallPolicy
	Logger  *zap.Logger
}

// Generator talks to any OpenAI-compatible chat completion endpoint using a
// strict JSON schema response format.
type Generator struct {
	client chatCompleter
	apiKey string
	model  string
	policy ai.CallPolicy
	logger *zap.Logger
}

var _ ai.Generator = (*Generator)(nil)

func NewGenerator(cfg Config) *Generator {
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
		policy: cfg.Policy,
		logger: logger,
	}
}

func (g *Generator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: matchSchema(),
				Strict: true,
			},
		},
	}

	return g.policy.Do(ctx, g.logger, isTemporary, func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("create chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			g.logger.Debug("openai api returned no choices")
			return "", nil
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func matchSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			ai.FieldBestMatchID: {Type: jsonschema.String, Description: "id of the chosen laborer"},
			ai.FieldReason:      {Type: jsonschema.String, Description: "why this laborer fits the request"},
		},
		Required:             []string{ai.FieldBestMatchID, ai.FieldReason},
		AdditionalProperties: false,
	}
}

func isTemporary(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}
