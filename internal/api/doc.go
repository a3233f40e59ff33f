// Package api implements the HTTP REST API and WebSocket server for Hearth Core.
//
// This package provides:
//   - REST endpoints for auth, devices, tasks, schedules, rules, and notifications
//   - WebSocket hub for real-time auth and device event broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Architecture
//
// The server is a thin translation layer: handlers decode JSON, resolve the
// caller from verified token claims, and delegate to the domain services
// (auth.Service, task.Ledger, schedule.Scheduler, automation.Engine,
// hub.Hub). Permission checks live in the domain layer; handlers only map
// sentinel errors onto HTTP status codes.
//
// # Security
//
// Protected routes require a bearer access token minted by auth.Issuer.
// WebSocket connections use single-use tickets to prevent token leakage in
// URLs.
//
// # Graceful Degradation
//
// Notification and audit endpoints return 404 when their backing stores are
// not wired; everything else keeps working.
package api
