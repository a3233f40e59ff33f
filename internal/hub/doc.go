// Package hub is the orchestration layer over the device registry.
//
// All device manipulation flows through the hub: it enforces permissions,
// turns failures into notifications instead of crashes, and publishes
// state snapshots to MQTT and InfluxDB when those integrations are
// configured. Both publishers are optional; a nil client disables that
// path.
package hub
