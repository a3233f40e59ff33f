// Package task manages per-user task ledgers.
//
// Every task occupies a half-open time window [start, end). The ledger
// rejects any task whose window overlaps an existing one for the same
// user, on creation and on edit alike. All reads return defensive copies.
package task
