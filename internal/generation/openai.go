package generation

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/prompt"
)

// OpenAIConfig configures the chat-completions generator.
type OpenAIConfig struct {
	// Model is the chat model name (required).
	Model string

	// APIKey authenticates against the API (required).
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a local
	// OpenAI-compatible server. Optional.
	BaseURL string

	// MaxTokens bounds the completion length. Default: 300.
	MaxTokens int

	// Temperature controls sampling. Default: 0.3.
	Temperature float64

	// Seed pins sampling for reproducible output. Zero means unset:
	// output is then non-deterministic run to run.
	Seed int64
}

// ApplyDefaults sets default values for unset fields.
func (c *OpenAIConfig) ApplyDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = 300
	}
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
}

// Validate validates the configuration.
func (c *OpenAIConfig) Validate() error {
	if c.Model == "" {
		return errors.New("generation model is required")
	}
	if c.APIKey == "" {
		return errors.New("generation api key is required")
	}
	return nil
}

// OpenAIGenerator implements Generator over the chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	config OpenAIConfig
	logger *zap.Logger
}

// NewOpenAIGenerator creates a generator from config.
func NewOpenAIGenerator(config OpenAIConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		config: config,
		logger: logger,
	}, nil
}

// Generate sends the assembled prompt as a single user message.
//
// The prompt already carries the brand constraints and grounding directive,
// so no separate system message is needed. Collaborator failures come back
// as ErrTimeout or ErrUnavailable.
func (g *OpenAIGenerator) Generate(ctx context.Context, req prompt.GenerationRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(g.config.MaxTokens)),
		Temperature: openai.Float(g.config.Temperature),
	}
	if g.config.Seed != 0 {
		params.Seed = openai.Int(g.config.Seed)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.logger.Warn("generation call failed",
			zap.String("model", g.config.Model),
			zap.String("client_id", req.ClientID),
			zap.Error(err),
		)
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
