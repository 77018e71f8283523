package httpapp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/swaggo/swag"

	"github.com/alphabot-ai/noticeboard/internal/auth"
	"github.com/alphabot-ai/noticeboard/internal/config"
	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store/sqlite"
)

type allowAllLimiter struct{}

func (a allowAllLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	return true, 0
}

func newTestServer(t *testing.T, dsn string) (*Server, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.Open("file:" + dsn + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{HashSecret: "test-hash", AdminSecret: "admin"}
	authSvc := auth.NewService(st, cfg.HashSecret, time.Hour, time.Minute)
	return NewServer(st, authSvc, allowAllLimiter{}, cfg, BuildInfo{}, nil), st
}

// ghostToken issues a valid token for a username that has no member row.
func ghostToken(t *testing.T, st *sqlite.Store) string {
	t.Helper()
	exp := time.Now().Add(time.Hour)
	record := model.Token{ID: "ghost-jti", MemberID: 77, Username: "ghost", KeyID: 1, ExpiresAt: exp}
	if err := st.CreateToken(context.Background(), record); err != nil {
		t.Fatalf("create token: %v", err)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        record.ID,
		Subject:   record.Username,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-hash"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestUnknownMemberIsPlainFault(t *testing.T) {
	server, st := newTestServer(t, "http_ghost")
	token := ghostToken(t, st)

	req := httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(`{"subject":"s","content":"c"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	server.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.Code, resp.Body.String())
	}
	if strings.TrimSpace(resp.Body.String()) != "internal server error" {
		t.Fatalf("expected plain body, got %q", resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "ghost") {
		t.Fatalf("fault leaked details: %q", resp.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := newTestServer(t, "http_request_id")

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp = httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestEnvelopeContentType(t *testing.T) {
	server, _ := newTestServer(t, "http_content_type")

	req := httptest.NewRequest(http.MethodGet, "/api/articles/5", nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(resp.Body.String(), `"code":"F404"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{59 * time.Second, 59},
	}
	for _, tt := range cases {
		if got := retryAfterSeconds(tt.in); got != tt.want {
			t.Fatalf("retryAfterSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

var routerAnnotation = regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)

func TestOpenAPIMatchesAnnotations(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	annotated := map[string]bool{}
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			annotated[strings.ToLower(m[2])+" "+m[1]] = true
		}
	}
	if len(annotated) == 0 {
		t.Fatalf("no @Router annotations found")
	}

	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[method+" "+path] = true
		}
	}

	for route := range annotated {
		if !documented[route] {
			t.Errorf("annotated route %q missing from docs", route)
		}
	}
	for route := range documented {
		if !annotated[route] {
			t.Errorf("documented route %q has no handler annotation", route)
		}
	}
}
