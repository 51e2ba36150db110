package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/moonpalace/concierge/internal/hotelapi"
	"github.com/moonpalace/concierge/internal/http/middleware"
	"github.com/moonpalace/concierge/internal/sessionstore"
	"github.com/moonpalace/concierge/internal/widget"
)

const (
	testProfile = "3f2b6c1e-8a4d-4c3e-9b7a-1d2e3f4a5b6c"
	sessionKey  = "chatbot_session_id"
)

func init() { gin.SetMode(gin.TestMode) }

// hotelStub is a minimal stand-in for the hotel assistant API.
type hotelStub struct {
	mu        sync.Mutex
	next      int
	expired   map[string]bool
	history   map[string][]map[string]any
	ended     []string
	transfers []string
	feedback  []map[string]any
	bearers   []string
}

func newHotelStub() *hotelStub {
	return &hotelStub{
		expired: map[string]bool{},
		history: map[string][]map[string]any{},
	}
}

func reply(w http.ResponseWriter, code int, status, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "message": msg, "data": data})
}

func (h *hotelStub) handler() http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) {
		h.bearers = append(h.bearers, r.Header.Get("Authorization"))
	}

	mux.HandleFunc("POST /chatbot/start", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		record(r)
		h.next++
		reply(w, 200, "success", "", map[string]string{"sessionId": fmt.Sprintf("s-%d", h.next)})
	})
	mux.HandleFunc("POST /chatbot/chat", func(w http.ResponseWriter, r *http.Request) {
		var req hotelapi.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		h.mu.Lock()
		defer h.mu.Unlock()
		record(r)
		if h.expired[req.SessionID] {
			reply(w, 404, "error", "Session not found", nil)
			return
		}
		reply(w, 200, "success", "", map[string]any{
			"sessionId":   req.SessionID,
			"message":     "echo: " + req.Message,
			"messageType": "TEXT",
		})
	})
	mux.HandleFunc("GET /chatbot/conversation/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		msgs, ok := h.history[r.PathValue("id")]
		if !ok {
			reply(w, 404, "error", "Session not found", nil)
			return
		}
		reply(w, 200, "success", "", map[string]any{"messages": msgs})
	})
	mux.HandleFunc("POST /chatbot/end/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.ended = append(h.ended, r.PathValue("id"))
		reply(w, 200, "success", "", nil)
	})
	mux.HandleFunc("POST /chatbot/transfer/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.transfers = append(h.transfers, r.PathValue("id"))
		reply(w, 200, "success", "", nil)
	})
	mux.HandleFunc("POST /chatbot/feedback", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		h.mu.Lock()
		defer h.mu.Unlock()
		h.feedback = append(h.feedback, body)
		reply(w, 200, "success", "", nil)
	})
	return mux
}

// hotelCalls is a copy of what the stub has received so far.
type hotelCalls struct {
	ended     []string
	transfers []string
	feedback  []map[string]any
	bearers   []string
}

func (h *hotelStub) snapshot() hotelCalls {
	h.mu.Lock()
	defer h.mu.Unlock()
	return hotelCalls{
		ended:     append([]string(nil), h.ended...),
		transfers: append([]string(nil), h.transfers...),
		feedback:  append([]map[string]any(nil), h.feedback...),
		bearers:   append([]string(nil), h.bearers...),
	}
}

type fixture struct {
	engine  *gin.Engine
	hotel   *hotelStub
	backend *sessionstore.MemoryBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hotel := newHotelStub()
	srv := httptest.NewServer(hotel.handler())
	t.Cleanup(srv.Close)

	client := hotelapi.New(srv.URL, time.Second)
	backend := sessionstore.NewMemoryBackend()
	reg := widget.NewRegistry(time.Hour, func(ctx context.Context, profileID string) (*widget.Widget, error) {
		return widget.New(ctx, widget.Options{
			Store:         sessionstore.New(backend, sessionstore.Key(sessionKey, profileID), zerolog.Nop()),
			Assistant:     client,
			Logger:        zerolog.Nop(),
			ProfileID:     profileID,
			FeedbackDelay: time.Millisecond,
		}), nil
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Profile(false), middleware.Authenticate(""))
	New(reg, nil).Register(r.Group("/api/v1"))

	return &fixture{engine: r, hotel: hotel, backend: backend}
}

// seed stores a session id as if a previous page load had saved it.
func (f *fixture) seed(t *testing.T, id string) {
	t.Helper()
	if err := f.backend.Set(context.Background(), sessionstore.Key(sessionKey, testProfile), id); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *fixture) stored(t *testing.T) string {
	t.Helper()
	v, err := f.backend.Get(context.Background(), sessionstore.Key(sessionKey, testProfile))
	if err != nil {
		return ""
	}
	return v
}

func (f *fixture) do(t *testing.T, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ProfileHeader, testProfile)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// unsignedToken returns a JWT whose claims are read without verification
// when the server runs without JWT_SECRET.
func unsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("storefront"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func serveRaw(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}
