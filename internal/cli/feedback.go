package cli

import (
	"os"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/feedback"
	"github.com/julianstephens/innerlog/internal/keyring"
	"github.com/julianstephens/innerlog/internal/logger"
)

// ResolveGeminiKey returns apiKey, then GEMINI_API_KEY, then the keyring entry.
// An empty result means feedback falls back to the static response.
func ResolveGeminiKey(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	if env := os.Getenv("GEMINI_API_KEY"); env != "" {
		return env
	}
	key, err := keyring.Get(keyring.GeminiAPIKey)
	if err != nil {
		logger.Debug("No Gemini API key in keyring", "error", err)
		return ""
	}
	return key
}

// NewFeedbackService builds the onboarding feedback service for the resolved key
func NewFeedbackService(apiKey, model string) *feedback.Service {
	key := ResolveGeminiKey(apiKey)
	if key == "" {
		logger.Info("Gemini API key not configured, feedback will use the static fallback")
		return feedback.NewService(nil, constants.FeedbackTimeout)
	}
	if model == "" {
		model = constants.DefaultGeminiModel
	}
	return feedback.NewService(feedback.NewGeminiClient(key, model), constants.FeedbackTimeout)
}
