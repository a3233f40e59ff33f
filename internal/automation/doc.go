// Package automation evaluates device-state rules and fires their
// actions.
//
// A rule binds a condition on one device's state to a list of commands.
// Rules are evaluated in the order they were added; one rule's failure
// never stops the sweep.
package automation
