package widget

import (
	"context"
	"strconv"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/events"
)

// FeedbackResult reports what SubmitFeedback did.
type FeedbackResult int

const (
	// FeedbackSkipped: no session or no rating; nothing was sent or reset.
	FeedbackSkipped FeedbackResult = iota
	// FeedbackSent: the survey was accepted, then the session was reset.
	FeedbackSent
	// FeedbackFailed: the survey was rejected, then the session was reset anyway.
	FeedbackFailed
)

func (r FeedbackResult) String() string {
	switch r {
	case FeedbackSent:
		return "sent"
	case FeedbackFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// RequestReset is the reset button. With an active session and the survey
// hidden it only shows the survey and returns true. Otherwise it performs
// ForceReset and returns false.
func (w *Widget) RequestReset(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.sessionID != "" && !w.feedbackOpen {
		w.feedbackOpen = true
		w.changedLocked()
		w.mu.Unlock()
		return true, nil
	}
	w.mu.Unlock()
	return false, w.ForceReset(ctx)
}

// DismissFeedback hides the survey without resetting.
func (w *Widget) DismissFeedback() {
	w.mu.Lock()
	w.feedbackOpen = false
	w.feedbackSent = false
	w.changedLocked()
	w.mu.Unlock()
}

// ForceReset ends the current session server-side (failures are only
// logged), forgets it, clears the transcript and survey, and starts a fresh
// session with a greeting. The returned error is the fresh start's.
func (w *Widget) ForceReset(ctx context.Context) error {
	w.mu.Lock()
	sid := w.sessionID
	w.mu.Unlock()

	if sid != "" {
		if err := w.assistant.EndSession(ctx, sid); err != nil {
			w.log.Warn().Err(err).Str("session_id", sid).Msg("end session failed")
		}
		w.publish(ctx, events.New(events.SessionEnded, w.profileID, sid))
	}
	w.clearStore(ctx)

	w.mu.Lock()
	w.sessionID = ""
	w.transcript = nil
	w.epoch++
	w.feedbackOpen = false
	w.feedbackSent = false
	w.changedLocked()
	w.mu.Unlock()

	return w.StartNewSession(ctx)
}

// SubmitFeedback sends the survey for the active session, waits the feedback
// delay and resets, whether or not the survey was accepted. A zero rating or
// a missing session does nothing.
func (w *Widget) SubmitFeedback(ctx context.Context, rating int, comment string) (FeedbackResult, error) {
	if rating == 0 {
		return FeedbackSkipped, nil
	}
	if rating < 1 || rating > 5 {
		return FeedbackSkipped, ErrInvalidRating
	}
	sid := w.SessionID()
	if sid == "" {
		return FeedbackSkipped, nil
	}

	result := FeedbackSent
	if err := w.assistant.SubmitFeedback(ctx, domain.NewFeedback(sid, rating, comment)); err != nil {
		result = FeedbackFailed
		w.log.Warn().Err(err).Str("session_id", sid).Msg("feedback submit failed")
	} else {
		w.mu.Lock()
		w.feedbackSent = true
		w.changedLocked()
		w.mu.Unlock()
		w.publish(ctx, events.New(events.FeedbackSubmitted, w.profileID, sid).With("rating", strconv.Itoa(rating)))
	}

	w.sleep(w.feedbackDelay)
	if err := w.ForceReset(ctx); err != nil {
		w.log.Warn().Err(err).Msg("restart after feedback failed")
	}
	return result, nil
}

// RequestHuman asks the assistant service to hand the session to staff and
// appends a confirmation.
func (w *Widget) RequestHuman(ctx context.Context) error {
	sid := w.SessionID()
	if sid == "" {
		return ErrNoSession
	}
	if err := w.assistant.TransferToHuman(ctx, sid); err != nil {
		w.log.Warn().Err(err).Str("session_id", sid).Msg("handover failed")
		return err
	}
	w.appendMessage(domain.BotText(HandoverText))
	w.publish(ctx, events.New(events.HandoverRequested, w.profileID, sid))
	return nil
}
