// Package influxdb records device state history in InfluxDB v2.
//
// Writes are non-blocking and batched by the underlying client; async
// write errors surface through SetOnError. The integration is optional
// and Connect refuses to run when disabled in config.
package influxdb
