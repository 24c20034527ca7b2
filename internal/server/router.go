package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig wires the router. Limiter is optional; without it the feedback
// endpoint is not rate limited.
type RouterConfig struct {
	AllowedOrigins    []string
	Tokens            *TokenManager
	Limiter           *RateLimiter
	FeedbackRateLimit int
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(cfg.Tokens))
	{
		api.POST("/users/init", h.InitUser)
		api.GET("/me", h.Me)

		api.POST("/sessions", h.LogSession)
		api.GET("/sessions/:kind", h.RecentSessions)

		api.GET("/streak", h.GetStreak)
		api.POST("/streak/credit", h.CreditStreak)
		api.GET("/onboarding", h.GetOnboarding)
		api.GET("/onboarding/status", h.OnboardingStatus)
		api.POST("/onboarding/start", h.StartOnboarding)
		api.PUT("/onboarding/answers", h.SaveOnboardingAnswers)
		api.POST("/onboarding/complete", h.CompleteOnboarding)
		api.POST("/achievements", h.UnlockAchievement)

		journals := api.Group("/journals")
		{
			journals.POST("", h.CreateJournal)
			journals.GET("", h.ListJournals)
			journals.GET("/search", h.SearchJournals)
			journals.GET("/range", h.JournalsByDateRange)
			journals.GET("/:id", h.GetJournal)
			journals.PUT("/:id/content", h.SaveContent)
			journals.PUT("/:id/autosave", h.AutoSave)
			journals.PATCH("/:id/title", h.UpdateTitle)
			journals.PATCH("/:id/prompt", h.UpdatePrompt)
			journals.PATCH("/:id/tags", h.UpdateTags)
			journals.DELETE("/:id", h.DeleteJournal)
		}

		api.GET("/journey", h.Journey)

		feedbackHandlers := []gin.HandlerFunc{h.Feedback}
		if cfg.Limiter != nil && cfg.FeedbackRateLimit > 0 {
			feedbackHandlers = append([]gin.HandlerFunc{
				cfg.Limiter.Limit("feedback", cfg.FeedbackRateLimit, time.Minute),
			}, feedbackHandlers...)
		}
		api.POST("/feedback", feedbackHandlers...)
	}

	return r
}
