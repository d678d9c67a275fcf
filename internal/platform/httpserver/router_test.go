package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/comment-widget/internal/platform/api"
)

func newTestRouter(cfg ...RouterConfig) chi.Router {
	r := chi.NewRouter()
	SetupRouter(r, cfg...)
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestProbes(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		ready  func() error
		status int
	}{
		{"healthz", "/healthz", nil, http.StatusOK},
		{"healthz ignores readiness", "/healthz", func() error { return errors.New("down") }, http.StatusOK},
		{"readyz without func", "/readyz", nil, http.StatusOK},
		{"readyz ok", "/readyz", func() error { return nil }, http.StatusOK},
		{"readyz failing", "/readyz", func() error { return errors.New("breaker open") }, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := get(newTestRouter(RouterConfig{ReadyFunc: tc.ready}), tc.path, nil)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestReadyz_ErrorEnvelopeCarriesRequestID(t *testing.T) {
	r := newTestRouter(RouterConfig{ReadyFunc: func() error { return errors.New("breaker open") }})
	rr := get(r, "/readyz", map[string]string{"X-Request-Id": "probe-7"})

	var resp api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "NOT_READY" || resp.Error.RequestID != "probe-7" || resp.Error.Message != "breaker open" {
		t.Fatalf("unexpected envelope %+v", resp.Error)
	}
}

func TestPanicRecovery(t *testing.T) {
	r := newTestRouter()
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("test panic") })

	if rr := get(r, "/boom", nil); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on panic, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	ping := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	r := newTestRouter()
	r.Get("/ping", ping)
	if got := get(r, "/ping", map[string]string{"Origin": "https://blog.example.com"}).Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatal("expected wildcard CORS by default")
	}

	r = newTestRouter(RouterConfig{AllowedOrigins: []string{"https://widget.example.com"}})
	r.Get("/ping", ping)
	if got := get(r, "/ping", map[string]string{"Origin": "https://evil.example.com"}).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected foreign origin to be refused, got %q", got)
	}
	if got := get(r, "/ping", map[string]string{"Origin": "https://widget.example.com"}).Header().Get("Access-Control-Allow-Origin"); got != "https://widget.example.com" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestParseCORSOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{" , ", []string{"*"}},
		{"https://a.example.com", []string{"https://a.example.com"}},
		{"https://a.example.com , https://b.example.com,", []string{"https://a.example.com", "https://b.example.com"}},
	}
	for _, tc := range cases {
		got := parseCORSOrigins(tc.in)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter()
	var seen string
	r.Get("/id", func(w http.ResponseWriter, r *http.Request) {
		seen = api.RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := get(r, "/id", nil)
	if seen == "" || rr.Header().Get("X-Request-Id") != seen {
		t.Fatalf("expected minted id in context and header, got ctx=%q header=%q", seen, rr.Header().Get("X-Request-Id"))
	}

	rr = get(r, "/id", map[string]string{"X-Request-Id": "abc-123"})
	if seen != "abc-123" || rr.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", seen)
	}

	get(r, "/id", map[string]string{"X-Request-Id": strings.Repeat("x", maxRequestIDLen+1)})
	if len(seen) > maxRequestIDLen {
		t.Fatalf("expected oversized id to be replaced, got %d bytes", len(seen))
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newTestRouter(RouterConfig{Logger: zap.New(core)})
	r.Get("/teapot", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	get(r, "/teapot", map[string]string{"X-Request-Id": "tea-1"})

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["request_id"] != "tea-1" {
		t.Fatalf("unexpected access log fields %v", fields)
	}
}
