// Package command wraps device operations as reversible units.
//
// Each command captures enough prior state during Execute to restore it
// on Undo. Undo before Execute is a no-op.
package command
