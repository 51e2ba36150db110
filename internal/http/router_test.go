package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/moonpalace/concierge/internal/config"
	"github.com/moonpalace/concierge/internal/hotelapi"
	"github.com/moonpalace/concierge/internal/http/handlers"
	"github.com/moonpalace/concierge/internal/http/middleware"
	"github.com/moonpalace/concierge/internal/sessionstore"
	"github.com/moonpalace/concierge/internal/widget"
)

const profile = "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"

func init() { gin.SetMode(gin.TestMode) }

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   100,
		OTEL:        config.OTELConfig{ServiceName: "concierge-test"},
	}
}

// hotelServer answers session starts and chat turns like the hotel API.
func hotelServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chatbot/start", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]string{"sessionId": "s-1"}})
	})
	mux.HandleFunc("POST /chatbot/chat", func(w http.ResponseWriter, r *http.Request) {
		var req hotelapi.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{
			"sessionId": req.SessionID, "message": "ok: " + req.Message,
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	client := hotelapi.New(hotelServer(t).URL, time.Second)
	backend := sessionstore.NewMemoryBackend()
	reg := widget.NewRegistry(time.Hour, func(ctx context.Context, id string) (*widget.Widget, error) {
		return widget.New(ctx, widget.Options{
			Store:     sessionstore.New(backend, sessionstore.Key("chatbot_session_id", id), zerolog.Nop()),
			Assistant: client,
			Logger:    zerolog.Nop(),
			ProfileID: id,
		}), nil
	})
	r := gin.New()
	RegisterRoutes(r, reg, cfg)
	return r
}

func serve(r http.Handler, method, path string, body io.Reader, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	if w := serve(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/metrics", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "concierge_http_requests_total") {
		t.Fatalf("GET /metrics: %d", w.Code)
	}

	w := serve(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("NoRoute = %d", w.Code)
	}
	var er handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != handlers.ErrCodeNotFound || er.RequestID == "" {
		t.Fatalf("NoRoute body: %s", w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/widget/open", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("NoMethod = %d", w.Code)
	}
}

func TestRegisterRoutes_IssuesProfileAndHeaders(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/widget", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), middleware.ProfileCookie+"=") {
		t.Fatalf("profile cookie not issued: %v", w.Header())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Fatalf("Cache-Control = %q", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff")
	}
}

func TestRegisterRoutes_SendPipeline(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/widget/messages", strings.NewReader(`{"text":"phòng tổng thống"}`),
		"Content-Type", "application/json", middleware.ProfileHeader, profile)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res handlers.SendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.State != "delivered" || res.SessionID != "s-1" || res.Reply.Content != "ok: phòng tổng thống" {
		t.Fatalf("unexpected: %+v", res)
	}
}

func TestRegisterRoutes_CORS(t *testing.T) {
	r := newRouter(t, testConfig())
	w := serve(r, http.MethodGet, "/api/v1/widget", nil, "Origin", "https://any.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all ACAO = %q", got)
	}

	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://moonpalace.vn"}
	r = newRouter(t, cfg)

	w = serve(r, http.MethodGet, "/api/v1/widget", nil, "Origin", "https://moonpalace.vn")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://moonpalace.vn" {
		t.Fatalf("allowlisted ACAO = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials should be allowed for allowlisted origins")
	}

	w = serve(r, http.MethodGet, "/api/v1/widget", nil, "Origin", "https://evil.example")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status = %d", w.Code)
	}
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/api/v1/widget", nil, middleware.ProfileHeader, profile); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/v1/widget", nil, middleware.ProfileHeader, profile)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d", w.Code)
	}
}

func TestRegisterRoutes_RejectsBadBearerWithSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "s3cret"
	r := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/api/v1/widget", nil, "Authorization", "Bearer not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/widget", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous status = %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(t, testConfig())
	w := serve(r, http.MethodGet, "/api/v1/widget", nil, "Accept-Encoding", "gzip")
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers: %v", w.Header())
	}
}

func TestLimitBody(t *testing.T) {
	r := gin.New()
	r.Use(limitBody(8))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := serve(r, http.MethodPost, "/echo", strings.NewReader("small")); w.Code != http.StatusOK {
		t.Fatalf("small body = %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/echo", strings.NewReader("far too large")); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body = %d", w.Code)
	}
}

func TestGroupWithPrefixAndJoinPath(t *testing.T) {
	r := gin.New()
	for _, p := range []string{"", "/"} {
		if got := groupWithPrefix(r, p).BasePath(); got != "/" {
			t.Fatalf("groupWithPrefix(%q) = %q", p, got)
		}
	}
	if got := groupWithPrefix(r, "/api/v1").BasePath(); got != "/api/v1" {
		t.Fatalf("BasePath = %q", got)
	}
	if got := joinPath("/api/v1/", "/widget/stream"); got != "/api/v1/widget/stream" {
		t.Fatalf("joinPath = %q", got)
	}
}
