// Package device models the controllable endpoints of a home: lights,
// thermostats, door locks, and adapted third-party appliances.
//
// Every endpoint implements the Device interface. Concrete types guard
// their state with a mutex so commands and state reads may come from any
// goroutine. The Registry is the single source of truth for which devices
// exist.
package device
