package mqtt

import "fmt"

// topicPrefix roots every topic the client emits.
const topicPrefix = "hearth"

// Topics builds the topic strings used across the system. Methods on the
// zero value keep call sites short: mqtt.Topics{}.DeviceState(id).
type Topics struct{}

// SystemStatus is the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// DeviceState carries a device's state snapshot after each command.
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", topicPrefix, deviceID)
}

// DeviceEvent carries device lifecycle events (added, removed).
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/event", topicPrefix, deviceID)
}
