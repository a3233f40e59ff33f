package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceState records a device state snapshot. Boolean properties are
// written as 0/1 so they graph alongside numeric ones; non-numeric values
// are dropped.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteDeviceState(deviceID, deviceType string, state map[string]any) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]any, len(state))
	for k, v := range state {
		switch val := v.(type) {
		case bool:
			if val {
				fields[k] = 1.0
			} else {
				fields[k] = 0.0
			}
		case int:
			fields[k] = float64(val)
		case float64:
			fields[k] = val
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id":   deviceID,
			"device_type": deviceType,
		},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom measurement with full control over tags and
// fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
