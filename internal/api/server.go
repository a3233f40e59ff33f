package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/audit"
	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/automation"
	"github.com/ashgrove-labs/hearth-core/internal/hub"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/config"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
	"github.com/ashgrove-labs/hearth-core/internal/notify"
	"github.com/ashgrove-labs/hearth-core/internal/schedule"
	"github.com/ashgrove-labs/hearth-core/internal/task"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Auth      *auth.Service
	Tasks     *task.Ledger
	Scheduler *schedule.Scheduler
	Rules     *automation.Engine
	Hub       *hub.Hub
	Notify    *notify.Service
	Audit     audit.Repository
	Version   string
}

// Server is the HTTP API server for Hearth Core.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket event
// hub. The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	auth      *auth.Service
	tasks     *task.Ledger
	scheduler *schedule.Scheduler
	rules     *automation.Engine
	hub       *hub.Hub
	notify    *notify.Service
	audit     audit.Repository
	version   string

	server  *http.Server
	events  *EventHub
	tickets *ticketStore
	cancel  context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("device hub is required")
	}
	if deps.Tasks == nil {
		return nil, fmt.Errorf("task ledger is required")
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if deps.Rules == nil {
		return nil, fmt.Errorf("automation engine is required")
	}
	// Notify and Audit are optional; the corresponding endpoints return 404
	// unless wired.

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		auth:      deps.Auth,
		tasks:     deps.Tasks,
		scheduler: deps.Scheduler,
		rules:     deps.Rules,
		hub:       deps.Hub,
		notify:    deps.Notify,
		audit:     deps.Audit,
		version:   deps.Version,
		tickets:   newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket event hub, subscribes the hub to
// auth events for real-time broadcast, and launches the HTTP listener in a
// background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.events = NewEventHub(s.wsCfg, s.logger)
	go s.events.Run(srvCtx)

	// Expired WebSocket tickets are swept periodically.
	go s.tickets.cleanLoop(srvCtx)

	// Relay auth events (logins, lockouts, role changes) to WebSocket clients.
	s.auth.Subscribe(func(ev auth.Event) {
		s.events.Broadcast("auth."+string(ev.Kind), map[string]any{
			"username": ev.Username,
			"details":  ev.Details,
			"at":       ev.At.UTC().Format(time.RFC3339),
		})
	})

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop background goroutines (event hub, ticket sweep).
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
