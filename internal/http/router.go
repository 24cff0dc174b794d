package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavithraa18/typeidmain1/internal/domain"
	"github.com/pavithraa18/typeidmain1/internal/keystroke"
	"github.com/pavithraa18/typeidmain1/internal/service/auth"
	"github.com/pavithraa18/typeidmain1/internal/service/dashboard"
	"github.com/pavithraa18/typeidmain1/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	auth      auth.Service
	dashboard dashboard.Service
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	dbHealth  func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	loginAttempts      *prometheus.CounterVec
}

const healthCheckTimeout = 2 * time.Second

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, dashboardSvc dashboard.Service, hub *ws.Hub, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		logger:    logger,
		auth:      authSvc,
		dashboard: dashboardSvc,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dbHealth: dbHealth,
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/register", r.audit("/register", r.handleRegister))
	r.mux.HandleFunc("/login", r.audit("/login", r.handleLogin))
	r.mux.HandleFunc("/dashboard/users", r.audit("/dashboard/users", r.handleDashboardUsers))
	r.mux.HandleFunc("/dashboard/sessions", r.audit("/dashboard/sessions", r.handleDashboardSessions))
	r.mux.HandleFunc("/ws/sessions", r.audit("/ws/sessions", r.handleSessionsWS))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name      string    `json:"name"`
		Password  string    `json:"password"`
		Keystroke []float64 `json:"keystroke"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := r.auth.Register(req.Context(), payload.Name, payload.Password, payload.Keystroke)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			r.internalError(w, req, "registration failed", err)
		}
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"user_id":    user.ID,
		"name":       user.Name,
		"created_at": user.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Name      string    `json:"name"`
		Password  string    `json:"password"`
		Keystroke []float64 `json:"keystroke"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.Keystroke) == 0 {
		writeError(w, http.StatusBadRequest, "keystroke sample is required")
		return
	}
	result, err := r.auth.Login(req.Context(), payload.Name, payload.Password, payload.Keystroke)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			r.recordLoginAttempt(domain.MethodPassword, domain.SessionDenied)
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, auth.ErrAccessDenied):
			r.recordLoginAttempt("keystroke", domain.SessionDenied)
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, keystroke.ErrDimensionMismatch):
			r.recordLoginAttempt("keystroke", domain.SessionDenied)
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			r.internalError(w, req, "login failed", err)
		}
		return
	}
	r.recordLoginAttempt(result.Method, domain.SessionGranted)
	writeSuccess(w, http.StatusOK, map[string]any{
		"user_id": result.User.ID,
		"name":    result.User.Name,
		"method":  result.Method,
		"score":   result.Score,
	})
}

func (r *Router) handleDashboardUsers(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	stats, err := r.dashboard.UserStats(req.Context())
	if err != nil {
		r.internalError(w, req, "user dashboard query failed", err)
		return
	}
	users := make([]map[string]any, 0, len(stats.Users))
	for _, activity := range stats.Users {
		entry := map[string]any{
			"user_id":      activity.UserID,
			"name":         activity.Name,
			"sample_count": activity.SampleCount,
			"enrolling":    activity.Enrolling,
		}
		if activity.LastLogin != nil {
			entry["last_login"] = activity.LastLogin.Format(time.RFC3339Nano)
		}
		users = append(users, entry)
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"total_users":   stats.TotalUsers,
		"total_samples": stats.TotalSamples,
		"model_users":   stats.ModelCoverage,
		"users":         users,
	})
}

func (r *Router) handleDashboardSessions(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	stats, err := r.dashboard.SessionStats(req.Context(), limit)
	if err != nil {
		r.internalError(w, req, "session dashboard query failed", err)
		return
	}
	recent := make([]map[string]any, 0, len(stats.Recent))
	for _, session := range stats.Recent {
		recent = append(recent, map[string]any{
			"id":         session.ID,
			"user_id":    session.UserID,
			"name":       session.UserName,
			"status":     session.Status,
			"method":     session.Method,
			"score":      session.Score,
			"created_at": session.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"total":     stats.Total,
		"by_status": stats.ByStatus,
		"by_method": stats.ByMethod,
		"last_24h":  stats.Last24h,
		"recent":    recent,
	})
}

func (r *Router) handleSessionsWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	topic := strings.ToLower(strings.TrimSpace(req.URL.Query().Get("user")))
	if topic == "" {
		topic = ws.TopicAll
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(topic, client)
	go func() {
		defer func() {
			r.hub.Unregister(topic, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// internalError hides failure details from the client and logs them.
func (r *Router) internalError(w http.ResponseWriter, req *http.Request, msg string, err error) {
	r.logger.Error(msg, "path", req.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
