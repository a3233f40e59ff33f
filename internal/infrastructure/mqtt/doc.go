// Package mqtt wraps paho.mqtt.golang for publishing device state to an
// optional broker.
//
// The client auto-reconnects with exponential backoff and announces its
// online/offline status on hearth/system/status, with a Last Will message
// covering unexpected disconnects. All methods are safe for concurrent
// use.
package mqtt
