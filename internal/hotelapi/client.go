// Package hotelapi is the HTTP client for the hotel's remote assistant and
// room services.
//
// Every endpoint answers with a {status, message, data} envelope. A transport
// failure, a non-2xx status, or an envelope whose status is not "success" is
// returned as an error; remote rejections are *APIError values carrying the
// HTTP status so callers can classify them with IsSessionInvalid.
//
// All methods are OpenTelemetry-instrumented with one client span per call.
package hotelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/moonpalace/concierge/internal/domain"
)

// DefaultTimeout bounds every remote call when no client is supplied.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 8 * 1024

// Client talks to the remote API rooted at BaseURL (e.g. https://host/api).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client with its own http.Client. A non-positive timeout uses
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// StartSession opens a conversation for the (optional) signed-in user and
// returns the new session id.
func (c *Client) StartSession(ctx context.Context, userID, userName string) (string, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	if userName != "" {
		q.Set("userName", userName)
	}
	var out startData
	if err := c.do(ctx, "StartSession", http.MethodPost, "/chatbot/start", q, nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", ErrNoSessionID
	}
	return out.SessionID, nil
}

// SendMessage delivers one utterance to the assistant.
func (c *Client) SendMessage(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	var out ChatReply
	if err := c.do(ctx, "SendMessage", http.MethodPost, "/chatbot/chat", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the raw conversation records of a session in server order.
func (c *Client) History(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	var out historyData
	if err := c.do(ctx, "History", http.MethodGet, "/chatbot/conversation/"+url.PathEscape(sessionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// EndSession closes a conversation server-side.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, "EndSession", http.MethodPost, "/chatbot/end/"+url.PathEscape(sessionID), nil, nil, nil)
}

// TransferToHuman asks for the session to be handed to hotel staff.
func (c *Client) TransferToHuman(ctx context.Context, sessionID string) error {
	return c.do(ctx, "TransferToHuman", http.MethodPost, "/chatbot/transfer/"+url.PathEscape(sessionID), nil, nil, nil)
}

// SubmitFeedback records the satisfaction survey of a session.
func (c *Client) SubmitFeedback(ctx context.Context, fb domain.Feedback) error {
	return c.do(ctx, "SubmitFeedback", http.MethodPost, "/chatbot/feedback", nil, fb, nil)
}

// RoomsByType lists the rooms of one category in catalog order.
func (c *Client) RoomsByType(ctx context.Context, t domain.RoomType) ([]domain.Room, error) {
	var out []domain.Room
	if err := c.do(ctx, "RoomsByType", http.MethodGet, "/rooms/type/"+url.PathEscape(string(t)), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do performs one request and decodes the envelope's data into out (when
// out is non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body, out any) (err error) {
	if c == nil || c.HTTP == nil {
		return ErrNilClient
	}

	ctx, span := otel.Tracer("hotelapi").Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	target := c.BaseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := bearerFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("hotelapi %s: %w", op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("hotelapi %s: decode envelope: %w", op, err)
	}
	if env.Status != statusSuccess {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("hotelapi %s: decode data: %w", op, err)
	}
	return nil
}

func errorMessage(raw []byte, status int) string {
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		return env.Message
	}
	return http.StatusText(status)
}
