package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/reset/initiate", s.handleResetInitiate)
		r.Post("/auth/reset/complete", s.handleResetComplete)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Session and profile
			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/change-password", s.handleChangePassword)
			r.Post("/auth/mfa", s.handleEnableMFA)
			r.Post("/auth/register", s.handleRegister)
			r.Get("/auth/roles", s.handleListRoles)
			r.Post("/auth/roles", s.handleCreateRole)
			r.Post("/auth/roles/assign", s.handleAssignRole)
			r.Post("/auth/roles/remove", s.handleRemoveRole)

			// WS ticket requires authentication - user must be logged in
			// to request a ticket.
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Post("/on", s.handleDeviceOn)
					r.Post("/off", s.handleDeviceOff)
					r.Post("/brightness", s.handleSetBrightness)
					r.Post("/temperature", s.handleSetTemperature)
					r.Post("/lock", s.handleLockDevice)
					r.Post("/unlock", s.handleUnlockDevice)
				})
			})

			// Task endpoints
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.handleListTasks)
				r.Post("/", s.handleCreateTask)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetTask)
					r.Patch("/", s.handleEditTask)
					r.Delete("/", s.handleDeleteTask)
					r.Post("/complete", s.handleCompleteTask)
				})
			})

			// Schedule endpoints
			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", s.handleListSchedules)
				r.Post("/", s.handleCreateSchedule)
				r.Post("/run-due", s.handleRunDueSchedules)
				r.Delete("/", s.handleClearSchedules)
				r.Delete("/{id}", s.handleDeleteSchedule)
			})

			// Automation rule endpoints
			r.Route("/rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)
				r.Post("/", s.handleCreateRule)
				r.Delete("/", s.handleClearRules)
				r.Post("/sweep", s.handleSweepRules)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRule)
					r.Patch("/enabled", s.handleSetRuleEnabled)
					r.Delete("/", s.handleDeleteRule)
				})
			})

			// Notification endpoints
			r.Get("/notifications", s.handleListNotifications)
			r.Post("/notifications", s.handleSendNotification)

			// Audit trail
			r.Get("/audit", s.handleListAudit)

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
