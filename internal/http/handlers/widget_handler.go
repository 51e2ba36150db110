package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/hotelapi"
	"github.com/moonpalace/concierge/internal/http/middleware"
	"github.com/moonpalace/concierge/internal/utils"
	"github.com/moonpalace/concierge/internal/widget"
)

// Widgets resolves the widget owned by a browser profile.
type Widgets interface {
	Get(ctx context.Context, profileID string) (*widget.Widget, error)
}

// Handler serves the widget endpoints.
type Handler struct {
	widgets  Widgets
	upgrader websocket.Upgrader
}

// New builds a Handler. allowedOrigins restricts WebSocket upgrades; an
// empty list accepts any origin.
func New(widgets Widgets, allowedOrigins []string) *Handler {
	return &Handler{
		widgets:  widgets,
		upgrader: newUpgrader(allowedOrigins),
	}
}

// Register mounts the widget routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	w := g.Group("/widget")
	w.GET("", h.Snapshot)
	w.POST("/open", h.Open)
	w.POST("/close", h.Close)
	w.POST("/messages", h.Send)
	w.POST("/session", h.StartSession)
	w.POST("/reset", h.Reset)
	w.POST("/reset/force", h.ForceReset)
	w.POST("/feedback", h.Feedback)
	w.POST("/feedback/dismiss", h.DismissFeedback)
	w.POST("/handover", h.Handover)
	w.GET("/stream", h.Stream)
}

// SendRequest is the body of POST /widget/messages.
type SendRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendResponse reports how one message was answered. A delivery failure is
// still a 200: the apology is part of the transcript.
type SendResponse struct {
	State     string         `json:"state"`
	Reply     domain.Message `json:"reply"`
	SessionID string         `json:"sessionId,omitempty"`
	Attempts  int            `json:"attempts"`
	Recovered bool           `json:"recovered"`
}

// FeedbackRequest is the body of POST /widget/feedback.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// FeedbackResponse reports the survey outcome and the state after teardown.
type FeedbackResponse struct {
	Result string          `json:"result"`
	Widget widget.Snapshot `json:"widget"`
}

// ResetResponse reports whether the reset button only opened the survey.
type ResetResponse struct {
	FeedbackRequested bool            `json:"feedbackRequested"`
	Widget            widget.Snapshot `json:"widget"`
}

// resolve returns the caller's widget and a context for the widget call.
// The context outlives the request: closing the browser tab must not cancel
// a send that is already in flight.
func (h *Handler) resolve(c *gin.Context) (*widget.Widget, context.Context, bool) {
	profile := middleware.ProfileID(c)
	if profile == "" {
		fail(c, http.StatusBadRequest, ErrCodeNoProfile, "missing browser profile")
		return nil, nil, false
	}

	w, err := h.widgets.Get(c.Request.Context(), profile)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("widget lookup failed")
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "chat is unavailable")
		return nil, nil, false
	}

	id := middleware.IdentityFrom(c)
	w.SetUser(widget.User{ID: id.UserID, Name: id.Name})

	ctx := context.WithoutCancel(c.Request.Context())
	ctx = hotelapi.WithBearer(ctx, id.Token)
	return w, ctx, true
}

// Snapshot handles GET /widget?since=N.
func (h *Handler) Snapshot(c *gin.Context) {
	w, _, found := h.resolve(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, w.Snapshot(utils.Offset(c.Query("since"))))
}

// Open handles POST /widget/open. It restores the persisted conversation
// the first time the widget is shown.
func (h *Handler) Open(c *gin.Context) {
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}
	w.Open(ctx)
	ok(c, http.StatusOK, w.Snapshot(0))
}

// Close handles POST /widget/close.
func (h *Handler) Close(c *gin.Context) {
	w, _, found := h.resolve(c)
	if !found {
		return
	}
	w.Close()
	noContent(c)
}

// Send handles POST /widget/messages.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text is required")
		return
	}
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}

	res, err := w.Send(ctx, req.Text)
	if errors.Is(err, widget.ErrEmptyMessage) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "send failed")
		return
	}
	ok(c, http.StatusOK, SendResponse{
		State:     res.State.String(),
		Reply:     res.Reply,
		SessionID: res.SessionID,
		Attempts:  res.Attempts,
		Recovered: res.Recovered,
	})
}

// StartSession handles POST /widget/session.
func (h *Handler) StartSession(c *gin.Context) {
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}
	if err := w.StartNewSession(ctx); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "could not start a conversation")
		return
	}
	ok(c, http.StatusCreated, w.Snapshot(0))
}

// Reset handles POST /widget/reset, the soft reset that asks for feedback
// first when a conversation is active.
func (h *Handler) Reset(c *gin.Context) {
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}
	gated, err := w.RequestReset(ctx)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "could not start a conversation")
		return
	}
	ok(c, http.StatusOK, ResetResponse{FeedbackRequested: gated, Widget: w.Snapshot(0)})
}

// ForceReset handles POST /widget/reset/force.
func (h *Handler) ForceReset(c *gin.Context) {
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}
	if err := w.ForceReset(ctx); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "could not start a conversation")
		return
	}
	ok(c, http.StatusOK, w.Snapshot(0))
}

// Feedback handles POST /widget/feedback. The response is written after the
// teardown, so it carries the fresh conversation.
func (h *Handler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid feedback body")
		return
	}
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}

	res, err := w.SubmitFeedback(ctx, req.Rating, req.Comment)
	if errors.Is(err, widget.ErrInvalidRating) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "feedback failed")
		return
	}
	ok(c, http.StatusOK, FeedbackResponse{Result: res.String(), Widget: w.Snapshot(0)})
}

// DismissFeedback handles POST /widget/feedback/dismiss.
func (h *Handler) DismissFeedback(c *gin.Context) {
	w, _, found := h.resolve(c)
	if !found {
		return
	}
	w.DismissFeedback()
	noContent(c)
}

// Handover handles POST /widget/handover.
func (h *Handler) Handover(c *gin.Context) {
	w, ctx, found := h.resolve(c)
	if !found {
		return
	}
	switch err := w.RequestHuman(ctx); {
	case errors.Is(err, widget.ErrNoSession):
		fail(c, http.StatusConflict, ErrCodeNoSession, err.Error())
	case err != nil:
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "handover failed")
	default:
		ok(c, http.StatusOK, w.Snapshot(0))
	}
}
