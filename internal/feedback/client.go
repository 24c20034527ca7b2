package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/models"
)

// GeminiClient calls the Gemini generateContent endpoint with a JSON response schema
type GeminiClient struct {
	apiKey string
	model  string
	config genai.ClientConfig

	once   sync.Once
	client *genai.Client
	err    error
}

type ClientOption func(*GeminiClient)

// WithBaseURL points the client at another endpoint, e.g. a test server
func WithBaseURL(u string) ClientOption {
	return func(c *GeminiClient) {
		c.config.HTTPOptions.BaseURL = strings.TrimRight(u, "/") + "/"
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *GeminiClient) {
		c.config.HTTPClient = hc
	}
}

// NewGeminiClient creates a client for model; an empty model selects the default
func NewGeminiClient(apiKey, model string, opts ...ClientOption) *GeminiClient {
	if model == "" {
		model = constants.DefaultGeminiModel
	}
	c := &GeminiClient{
		apiKey: apiKey,
		model:  model,
		config: genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: constants.FeedbackTimeout},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		c.client, c.err = genai.NewClient(ctx, &c.config)
	})
	return c.client, c.err
}

// Generate asks the model for feedback on answers
func (c *GeminiClient) Generate(ctx context.Context, answers models.OnboardingAnswers) (models.Feedback, error) {
	if c.apiKey == "" {
		return models.Feedback{}, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := c.sdk(ctx)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(buildPrompt(answers)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	})
	if err != nil {
		return models.Feedback{}, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return models.Feedback{}, fmt.Errorf("gemini returned no candidates")
	}

	var fb models.Feedback
	if err := json.Unmarshal([]byte(resp.Text()), &fb); err != nil {
		return models.Feedback{}, fmt.Errorf("failed to decode feedback payload: %w", err)
	}
	if err := fb.Validate(); err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}
