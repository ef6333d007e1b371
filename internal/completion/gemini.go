package completion

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
)

const defaultModel = "gemini-2.0-flash"

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	logger  *slog.Logger
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiClient builds a completion client. An empty model selects the
// default. The limiter is the shared token bucket; nil means unlimited.
func NewGeminiClient(ctx context.Context, apiKey, model string, limiter *rate.Limiter, logger *slog.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key must be set")
	}
	if model == "" {
		model = defaultModel
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		logger:  logger,
		client:  client,
		model:   model,
		limiter: limiter,
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.Temperature != nil {
		config.Temperature = opts.Temperature
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fault.Wrap(fault.KindUpstream, err, "completion request failed")
	}

	text := result.Text()
	if text == "" {
		return "", fault.New(fault.KindUpstream, "completion returned no text")
	}

	c.logger.Debug("completion finished", "model", c.model, "prompt_length", len(prompt), "response_length", len(text))
	return text, nil
}
