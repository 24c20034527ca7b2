package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/innerlog/internal/constants"
	"github.com/julianstephens/innerlog/internal/feedback"
	"github.com/julianstephens/innerlog/internal/ledger"
	"github.com/julianstephens/innerlog/internal/models"
	"github.com/julianstephens/innerlog/internal/utils"
)

type Handler struct {
	ledger   *ledger.Ledger
	feedback *feedback.Service
}

func NewHandler(l *ledger.Ledger, fb *feedback.Service) *Handler {
	return &Handler{ledger: l, feedback: fb}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, err)
		return 0, false
	}
	return v, true
}

func queryBool(c *gin.Context, name string, def bool) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, name, err)
		return false, false
	}
	return v, true
}

// queryTime accepts RFC3339 or a day key. A day key used as an upper bound
// covers the whole day.
func queryTime(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t, true
	}
	t, err := utils.ParseDayKey(raw)
	if err != nil {
		badRequest(c, name, err)
		return nil, false
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, true
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.ledger.Store().Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": constants.Version})
}

func (h *Handler) InitUser(c *gin.Context) {
	created, err := h.ledger.InitStreak(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created})
}

type logSessionReq struct {
	Kind         constants.ActivityKind `json:"kind" binding:"required"`
	Minutes      float64                `json:"minutes"`
	Date         string                 `json:"date"`
	CreditStreak bool                   `json:"credit_streak"`
}

func (h *Handler) LogSession(c *gin.Context) {
	var req logSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	res, err := h.ledger.LogSession(c.Request.Context(), ledger.Session{
		UserID:       userID(c),
		Kind:         req.Kind,
		Minutes:      req.Minutes,
		Date:         req.Date,
		CreditStreak: req.CreditStreak,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RecentSessions(c *gin.Context) {
	days, ok := queryInt(c, "days")
	if !ok {
		return
	}
	aggs, err := h.ledger.GetRecentAggregates(c.Request.Context(), userID(c), constants.ActivityKind(c.Param("kind")), days)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggs)
}

func (h *Handler) GetStreak(c *gin.Context) {
	rec, err := h.ledger.GetStreak(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) CreditStreak(c *gin.Context) {
	rec, err := h.ledger.CreditActivityForToday(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) CompleteOnboarding(c *gin.Context) {
	rec, err := h.ledger.CompleteOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type achievementReq struct {
	Type        constants.AchievementType `json:"type" binding:"required"`
	Title       string                    `json:"title" binding:"required"`
	Description string                    `json:"description"`
}

func (h *Handler) UnlockAchievement(c *gin.Context) {
	var req achievementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	rec, err := h.ledger.UnlockAchievement(c.Request.Context(), userID(c), models.Achievement{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type createJournalReq struct {
	Title          string `json:"title"`
	Prompt         string `json:"prompt"`
	IsCustomPrompt bool   `json:"is_custom_prompt"`
}

func (h *Handler) CreateJournal(c *gin.Context) {
	var req createJournalReq
	// an empty body creates a journal with defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body", err)
			return
		}
	}
	entry, err := h.ledger.CreateJournal(c.Request.Context(), ledger.NewJournal{
		UserID:         userID(c),
		Title:          req.Title,
		Prompt:         req.Prompt,
		IsCustomPrompt: req.IsCustomPrompt,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ListJournals(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	includeDrafts, ok := queryBool(c, "include_drafts", true)
	if !ok {
		return
	}
	entries, err := h.ledger.ListJournals(c.Request.Context(), userID(c), limit, includeDrafts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) SearchJournals(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	includeDrafts, ok := queryBool(c, "include_drafts", true)
	if !ok {
		return
	}
	start, ok := queryTime(c, "start", false)
	if !ok {
		return
	}
	end, ok := queryTime(c, "end", true)
	if !ok {
		return
	}
	entries, err := h.ledger.SearchJournals(c.Request.Context(), userID(c), ledger.SearchQuery{
		Query:         c.Query("q"),
		Tag:           c.Query("tag"),
		Start:         start,
		End:           end,
		ExcludeDrafts: !includeDrafts,
		Limit:         limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) JournalsByDateRange(c *gin.Context) {
	entries, err := h.ledger.GetJournalsByDateRange(c.Request.Context(), userID(c), c.Query("start"), c.Query("end"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) GetJournal(c *gin.Context) {
	entry, err := h.ledger.GetJournal(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type saveContentReq struct {
	Content   json.RawMessage `json:"content"`
	WordCount int             `json:"word_count"`
	IsDraft   *bool           `json:"is_draft"`
}

func (h *Handler) SaveContent(c *gin.Context) {
	var req saveContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	entry, err := h.ledger.SaveContent(c.Request.Context(), ledger.SaveContent{
		ID:        c.Param("id"),
		UserID:    userID(c),
		Content:   req.Content,
		WordCount: req.WordCount,
		IsDraft:   req.IsDraft,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) AutoSave(c *gin.Context) {
	var req saveContentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	entry, err := h.ledger.AutoSave(c.Request.Context(), c.Param("id"), userID(c), req.Content, req.WordCount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type titleReq struct {
	Title string `json:"title"`
}

func (h *Handler) UpdateTitle(c *gin.Context) {
	var req titleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	entry, err := h.ledger.UpdateTitle(c.Request.Context(), c.Param("id"), userID(c), req.Title)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type promptReq struct {
	Prompt         string `json:"prompt"`
	IsCustomPrompt bool   `json:"is_custom_prompt"`
}

func (h *Handler) UpdatePrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	entry, err := h.ledger.UpdatePrompt(c.Request.Context(), c.Param("id"), userID(c), req.Prompt, req.IsCustomPrompt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type tagsReq struct {
	Tags []string `json:"tags"`
}

func (h *Handler) UpdateTags(c *gin.Context) {
	var req tagsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	entry, err := h.ledger.UpdateTags(c.Request.Context(), c.Param("id"), userID(c), req.Tags)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) DeleteJournal(c *gin.Context) {
	if err := h.ledger.DeleteJournal(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Journey(c *gin.Context) {
	days, ok := queryInt(c, "days")
	if !ok {
		return
	}
	out, err := h.ledger.Journey(c.Request.Context(), userID(c), days)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Feedback(c *gin.Context) {
	var answers models.OnboardingAnswers
	if err := c.ShouldBindJSON(&answers); err != nil {
		badRequest(c, "body", err)
		return
	}
	ctx := c.Request.Context()
	res, err := h.feedback.Feedback(ctx, answers)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if _, err := h.ledger.SaveOnboardingAnswers(ctx, userID(c), answers); err != nil {
		abortWithError(c, err)
		return
	}
	if _, err := h.ledger.SaveReflection(ctx, userID(c), res.Feedback); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	d, err := h.ledger.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) StartOnboarding(c *gin.Context) {
	o, err := h.ledger.StartOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) GetOnboarding(c *gin.Context) {
	o, err := h.ledger.GetOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) OnboardingStatus(c *gin.Context) {
	status, err := h.ledger.NeedsOnboarding(c.Request.Context(), userID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) SaveOnboardingAnswers(c *gin.Context) {
	var answers models.OnboardingAnswers
	if err := c.ShouldBindJSON(&answers); err != nil {
		badRequest(c, "body", err)
		return
	}
	o, err := h.ledger.SaveOnboardingAnswers(c.Request.Context(), userID(c), answers)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
