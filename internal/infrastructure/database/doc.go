// Package database manages the SQLite connection for Hearth Core.
//
// The database holds the audit trail and notification history. Core
// state (users, tasks, schedules, rules, devices) is deliberately
// in-memory for the process lifetime; see the hub package.
//
// Lifecycle:
//
//	db, err := database.Open(database.Config{Path: "./data/hearth.db"})
//	err = db.Migrate(ctx)
//	defer db.Close()
//
// Migrations are embedded via the migrations package and applied in
// version order, each in its own transaction.
package database
