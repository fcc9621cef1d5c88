package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/laborconnect/internal/ai"
)

const (
	Provider     = "gemini"
	defaultModel = "gemini-3-flash-preview"
)

var ErrMissingAPIKey = errors.New("gemini api key is not configured")

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey string
	Model  string
	Policy ai.CallPolicy
	Logger *zap.Logger
}

// Generator wraps the Google GenAI client. The client is created on first use,
// so a missing key surfaces as a failed call rather than a startup error.
type Generator struct {
	apiKey string
	model  string
	policy ai.CallPolicy
	logger *zap.Logger

	mu      sync.Mutex
	models  contentModels
	connect func(ctx context.Context, apiKey string) (contentModels, error)
}

var _ ai.Generator = (*Generator)(nil)

func NewGenerator(cfg Config) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		policy:  cfg.Policy,
		logger:  logger,
		connect: connect,
	}
}

func connect(ctx context.Context, apiKey string) (contentModels, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client.Models, nil
}

// GenerateJSON asks Gemini for a JSON object matching the smart match schema.
// An empty answer is returned as an empty string so the caller can fall back.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	models, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   matchSchema(),
	}

	return g.policy.Do(ctx, g.logger, isTemporary, func(ctx context.Context) (string, error) {
		resp, err := models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		text := responseText(resp)
		if text == "" {
			g.logger.Debug("gemini api returned empty response")
		}
		return text, nil
	})
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) client(ctx context.Context) (contentModels, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.models != nil {
		return g.models, nil
	}
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	models, err := g.connect(ctx, g.apiKey)
	if err != nil {
		return nil, err
	}
	g.models = models
	return models, nil
}

func matchSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			ai.FieldBestMatchID: {Type: genai.TypeString, Description: "id of the chosen laborer"},
			ai.FieldReason:      {Type: genai.TypeString, Description: "why this laborer fits the request"},
		},
		Required: []string{ai.FieldBestMatchID, ai.FieldReason},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			builder.WriteString(text)
		}
		// the first candidate with text is the answer
		if builder.Len() > 0 {
			break
		}
	}

	return strings.TrimSpace(builder.String())
}

func isTemporary(err error) bool {
	code := 0

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	default:
		return false
	}

	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
