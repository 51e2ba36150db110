package widget

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/events"
	"github.com/moonpalace/concierge/internal/hotelapi"
)

// State is a step of the dispatch state machine run by Send.
type State int

const (
	StateIdle State = iota
	StateSending
	StateRecovering
	StateFailed
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateRecovering:
		return "recovering"
	case StateFailed:
		return "failed"
	case StateDelivered:
		return "delivered"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Result describes how one Send ended.
type Result struct {
	// State is StateDelivered or StateFailed.
	State State
	// Reply is the BOT message appended for this send.
	Reply domain.Message
	// SessionID is the session the reply belongs to; empty when none could
	// be created.
	SessionID string
	// Attempts counts remote send calls, at most 2.
	Attempts int
	// Recovered is set when the session was re-created during this send.
	Recovered bool
}

// Send appends text as a USER message, then answers it.
//
// Without a session one is created first. The remote send runs alongside
// the local room lookup; remote cards come first in the reply, local cards
// after. If the assistant rejects the session, the session is replaced and
// the text is sent once more. Any other failure, or a second failure,
// appends SendFailureText. Only blank text returns an error; delivery
// failures are reported through Result.
func (w *Widget) Send(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}

	ctx, span := otel.Tracer("widget").Start(ctx, "Send")
	defer span.End()

	w.appendMessage(domain.UserText(text))
	w.setComposing(1)
	defer w.setComposing(-1)

	res := Result{State: StateSending, SessionID: w.SessionID()}
	if res.SessionID == "" {
		sid, err := w.openSession(ctx)
		if err != nil {
			res.State = StateFailed
			res.Reply = domain.BotText(StartFailureText)
			w.appendMessage(res.Reply)
			dispatchTotal.WithLabelValues(outcomeStartFailed).Inc()
			span.SetStatus(codes.Error, err.Error())
			return res, nil
		}
		res.SessionID = sid
	}

	var lastErr error
	for res.State != StateDelivered && res.State != StateFailed {
		switch res.State {
		case StateSending:
			res.Attempts++
			reply, err := w.dispatch(ctx, res.SessionID, text)
			switch {
			case err == nil:
				res.Reply = reply
				res.State = StateDelivered
			case !res.Recovered && w.isInvalid(err):
				w.log.Info().Err(err).Str("session_id", res.SessionID).Msg("session rejected; recovering")
				res.State = StateRecovering
			default:
				lastErr = err
				res.State = StateFailed
			}

		case StateRecovering:
			res.Recovered = true
			sid, err := w.recoverSession(ctx, res.SessionID)
			if err != nil {
				lastErr = err
				res.State = StateFailed
				break
			}
			res.SessionID = sid
			res.State = StateSending
		}
	}

	span.SetAttributes(
		attribute.Int("attempts", res.Attempts),
		attribute.Bool("recovered", res.Recovered),
	)

	if res.State == StateFailed {
		res.Reply = domain.BotText(SendFailureText)
		w.appendMessage(res.Reply)
		dispatchTotal.WithLabelValues(outcomeFailed).Inc()
		w.log.Warn().Err(lastErr).Int("attempts", res.Attempts).Msg("message not delivered")
		w.publish(ctx, events.New(events.DispatchFailed, w.profileID, res.SessionID).With("attempts", strconv.Itoa(res.Attempts)))
		if lastErr != nil {
			span.SetStatus(codes.Error, lastErr.Error())
		}
		return res, nil
	}

	w.appendMessage(res.Reply)
	dispatchTotal.WithLabelValues(outcomeDelivered).Inc()
	w.publish(ctx, events.New(events.MessageDelivered, w.profileID, res.SessionID))
	return res, nil
}

// dispatch gathers the local lookup and the remote send for one attempt.
// A lookup failure contributes no cards; a remote failure fails the attempt.
func (w *Widget) dispatch(ctx context.Context, sid, text string) (domain.Message, error) {
	var (
		g     errgroup.Group
		local []domain.Card
		reply *hotelapi.ChatReply
	)

	if w.suggester != nil {
		g.Go(func() error {
			cards, err := w.suggester.Suggest(ctx, text)
			if err != nil {
				suggestionFailures.Inc()
				w.log.Warn().Err(err).Msg("local room suggestions failed")
				return nil
			}
			local = cards
			return nil
		})
	}
	g.Go(func() error {
		r, err := w.assistant.SendMessage(ctx, hotelapi.ChatRequest{
			Message:   text,
			SessionID: sid,
			UserID:    w.currentUser().ID,
		})
		reply = r
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Message{}, err
	}

	msg := reply.BotMessage()
	cards := make([]domain.Card, 0, len(msg.Cards)+len(local))
	cards = append(cards, msg.Cards...)
	cards = append(cards, local...)
	if len(cards) == 0 {
		cards = nil
	}
	msg.Cards = cards
	return msg, nil
}

// StartNewSession creates a session and greets the guest. On failure it
// appends StartFailureText and keeps no session id.
func (w *Widget) StartNewSession(ctx context.Context) error {
	w.setComposing(1)
	defer w.setComposing(-1)

	if _, err := w.openSession(ctx); err != nil {
		w.appendMessage(domain.BotText(StartFailureText))
		return err
	}
	w.appendMessage(Greeting(w.currentUser().Name))
	return nil
}

// openSession asks the assistant for a session and persists it.
func (w *Widget) openSession(ctx context.Context) (string, error) {
	u := w.currentUser()
	sid, err := w.assistant.StartSession(ctx, u.ID, u.Name)
	if err != nil {
		w.log.Warn().Err(err).Msg("start session failed")
		return "", err
	}

	w.mu.Lock()
	w.sessionID = sid
	w.changedLocked()
	w.mu.Unlock()

	if err := w.store.Save(ctx, sid); err != nil {
		w.log.Warn().Err(err).Str("session_id", sid).Msg("session store save failed")
	}
	w.publish(ctx, events.New(events.SessionStarted, w.profileID, sid))
	return sid, nil
}

// recoverSession replaces the rejected session. If a concurrent send has
// already replaced it, the newer session is reused instead of opening a
// third.
func (w *Widget) recoverSession(ctx context.Context, rejected string) (string, error) {
	w.mu.Lock()
	cur := w.sessionID
	if cur == rejected {
		w.sessionID = ""
		w.changedLocked()
	}
	w.mu.Unlock()

	if cur != "" && cur != rejected {
		return cur, nil
	}

	w.clearStore(ctx)
	recoveriesTotal.Inc()
	sid, err := w.openSession(ctx)
	if err != nil {
		return "", err
	}
	w.publish(ctx, events.New(events.SessionRecovered, w.profileID, sid).With("rejected", rejected))
	return sid, nil
}
