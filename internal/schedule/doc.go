// Package schedule runs deferred actions at their due time.
//
// Each user owns a queue kept sorted by execution time. Draining a queue
// executes every entry due at or before the current instant, in ascending
// order, and leaves future entries untouched.
package schedule
