// Package restapi is the HTTP collaborator layer around session.Manager
// and sandbox.Sandbox: it is not part of the core, and imports only
// their public API.
package restapi

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asbx/agent-sandbox/sandbox"
	"github.com/asbx/agent-sandbox/session"
)

// Server wires a session.Manager behind the REST surface described in
// spec.md §6, under the path prefix /api/sandbox.
type Server struct {
	echo    *echo.Echo
	manager *session.Manager

	// jwtSecret, if non-empty, requires a valid bearer JWT on every
	// /api/sandbox route.
	jwtSecret []byte

	// metricsEnabled exposes the process-global Prometheus collectors
	// registered by observers.Metrics on GET /metrics.
	metricsEnabled bool

	// log handles structured, out-of-band diagnostics (unrecoverable
	// handler errors); HTTP access logging stays on echo's own
	// middleware.Logger, which already produces one line per request.
	log *slog.Logger

	snapshots *snapshotStore
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithJWTSecret enables bearer-token authentication using secret to
// validate tokens signed with HS256.
func WithJWTSecret(secret []byte) Option {
	return func(s *Server) {
		s.jwtSecret = secret
	}
}

// WithMetrics exposes GET /metrics via promhttp.Handler, scraping the
// process-global collectors observers.Metrics increments. Only useful
// alongside a Manager whose sandboxes actually subscribe an
// observers.Metrics instance (see session.NewManagerWithObservers).
func WithMetrics() Option {
	return func(s *Server) {
		s.metricsEnabled = true
	}
}

// NewServer constructs a Server with every /api/sandbox route
// registered.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		manager:   manager,
		snapshots: newSnapshotStore(),
		log:       slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	group := e.Group("/api/sandbox")

	if len(s.jwtSecret) > 0 {
		group.Use(s.bearerAuth)
	}

	group.POST("", s.createSandbox)
	group.GET("", s.listSandboxes)
	group.GET("/:id", s.getSandbox)
	group.DELETE("/:id", s.deleteSandbox)
	group.POST("/:id/exec", s.execCommand)
	group.GET("/:id/history", s.getHistory)
	group.GET("/:id/fs", s.readFile)
	group.PUT("/:id/fs", s.writeFile)
	group.GET("/:id/ls", s.listDirectory)
	group.POST("/:id/snapshot", s.createSnapshot)
	group.POST("/:id/restore", s.restoreSnapshot)
	group.GET("/:id/stats", s.getStats)
	group.GET("/:id/events", s.streamEvents)

	return s
}

// Handler returns the server's http.Handler, for http.Server or
// httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// errEnvelope is the REST surface's uniform error body: {error,
// statusCode}.
type errEnvelope struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// errorHandler maps the core's error kinds to HTTP status codes per
// spec.md §7: NotFound→404, QuotaExceeded/InvalidArgument→400,
// Conflict→409, Disposed→410, everything else→500.
func (s *Server) errorHandler(err error, c echo.Context) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, sandbox.ErrDisposed):
		status = http.StatusGone
	case errors.Is(err, sandbox.ErrQuotaExceeded):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrConflict):
		status = http.StatusConflict
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
	}

	if c.Response().Committed {
		return
	}

	if jsonErr := c.JSON(status, errEnvelope{Error: err.Error(), StatusCode: status}); jsonErr != nil {
		s.log.Error("failed to write error response", "error", jsonErr, "status", status)
	}
}
