package httpapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/alphabot-ai/noticeboard/internal/auth"
	"github.com/alphabot-ai/noticeboard/internal/board"
	"github.com/alphabot-ai/noticeboard/internal/config"
	"github.com/alphabot-ai/noticeboard/internal/rate"
	"github.com/alphabot-ai/noticeboard/internal/result"
	"github.com/alphabot-ai/noticeboard/internal/store"

	_ "github.com/alphabot-ai/noticeboard/docs" // swagger docs
)

// BuildInfo is reported by /api/version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type Server struct {
	store   store.Store
	auth    *auth.Service
	board   *board.Service
	limiter rate.Limiter
	cfg     config.Config
	build   BuildInfo
	logger  *slog.Logger
	handler http.Handler
}

func NewServer(st store.Store, authSvc *auth.Service, limiter rate.Limiter, cfg config.Config, build BuildInfo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:   st,
		auth:    authSvc,
		board:   board.NewService(board.NewRepository(st, logger), board.NewMembers(st), logger),
		limiter: limiter,
		cfg:     cfg,
		build:   build,
		logger:  logger,
	}
	s.handler = otelhttp.NewHandler(s.logRequests(s.routes()), "noticeboard",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	r.HandleFunc("/api/articles", s.handleListArticles).Methods(http.MethodGet)
	r.HandleFunc("/api/articles", s.handleWriteArticle).Methods(http.MethodPost)
	r.HandleFunc("/api/articles/{id}", s.handleFindArticle).Methods(http.MethodGet)
	r.HandleFunc("/api/articles/{id}", s.handleModifyArticle).Methods(http.MethodPatch)
	r.HandleFunc("/api/articles/{id}", s.handleRemoveArticle).Methods(http.MethodDelete)

	r.HandleFunc("/api/auth/challenge", s.handleAuthChallenge).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", s.handleAuthVerify).Methods(http.MethodPost)
	r.HandleFunc("/api/members", s.handleRegisterMember).Methods(http.MethodPost)
	r.HandleFunc("/api/members/{id}", s.handleGetMember).Methods(http.MethodGet)
	r.HandleFunc("/api/members/me/keys/{id}", s.handleRevokeKey).Methods(http.MethodDelete)
	r.HandleFunc("/api/admin/delete-member", s.handleAdminDeleteMember).Methods(http.MethodPost)

	r.HandleFunc("/api/stats", s.handleGetStats).Methods(http.MethodGet)
	r.HandleFunc("/api/version", s.handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/api/openapi.json", s.serveOpenAPIJSON).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

// principal authenticates the request. On failure it writes an F401
// envelope and returns false.
func (s *Server) principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeResult(w, result.Fail[result.Empty](result.Unauthorized, "missing bearer token"))
		return auth.Principal{}, false
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	p, err := s.auth.Authenticate(r.Context(), bearer)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidToken) {
			s.logger.ErrorContext(r.Context(), "authenticate", "error", err)
		}
		writeResult(w, result.Fail[result.Empty](result.Unauthorized, "invalid or expired token"))
		return auth.Principal{}, false
	}
	return p, true
}

// allowRateLimit applies limit per client IP and per member. On rejection it
// writes an F429 envelope with Retry-After.
func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action string, memberID int64, limit int) bool {
	keys := []string{
		fmt.Sprintf("%s:ip:%s", action, clientIP(r)),
		fmt.Sprintf("%s:member:%d", action, memberID),
	}
	for _, key := range keys {
		if ok, retry := s.limiter.Allow(key, limit, time.Minute); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retry)))
			writeResult(w, result.Fail[result.Empty](result.TooManyRequests, "rate limit exceeded"))
			return false
		}
	}
	return true
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// fault answers an unrecoverable error with a bare 500.
func (s *Server) fault(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeResult writes an envelope with the status its code carries.
func writeResult[T any](w http.ResponseWriter, res result.Result[T]) {
	writeJSON(w, res.Code().Status(), res)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
