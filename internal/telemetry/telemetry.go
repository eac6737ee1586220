// Package telemetry publishes console state changes to an MQTT broker.
package telemetry

import (
	"encoding/json"
	"time"

	"tdeckvt/console"
)

// DefaultTopic is the MQTT topic for console events.
const DefaultTopic = "tdeck/console/events"

// Publisher sends console events to a broker.
type Publisher interface {
	// Publish sends one event. Failures are reported, never fatal.
	Publish(ev console.Event) error
	// Close disconnects from the broker.
	Close() error
}

// Payload is the JSON message body.
type Payload struct {
	Console ConsolePayload `json:"console"`
}

// ConsolePayload carries one event. Battery is omitted when the device has
// no battery.
type ConsolePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Battery   *int   `json:"battery,omitempty"`
	Ctrl      bool   `json:"ctrl"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(ev console.Event) ([]byte, error) {
	p := Payload{
		Console: ConsolePayload{
			Timestamp: ev.Time.UTC().Format(time.RFC3339),
			Event:     ev.Kind.String(),
			Ctrl:      ev.Modifier,
		},
	}
	if ev.Battery >= 0 {
		b := ev.Battery
		p.Console.Battery = &b
	}
	return json.Marshal(p)
}
