package pipeline

import (
	"github.com/NMBawiskar/ros-data-publisher/pkg/timestamp"
	"github.com/NMBawiskar/ros-data-publisher/rosmsg"
)

// Event is one emission of a topic stream. Exactly one of Data and Error
// is set: producer failures are delivered as events too, never as silent
// stream termination, so clients can tell "no data yet" from "producer
// failed".
type Event struct {
	Topic     string        `json:"topic"`
	Timestamp string        `json:"timestamp"`
	Data      rosmsg.Record `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// dataEvent stamps a record emission with the current wall-clock time.
func dataEvent(topic string, rec rosmsg.Record) Event {
	return Event{
		Topic:     topic,
		Timestamp: timestamp.NowClock(),
		Data:      rec,
	}
}

// errorEvent stamps a failure report with the current wall-clock time.
func errorEvent(topic, message string) Event {
	return Event{
		Topic:     topic,
		Timestamp: timestamp.NowClock(),
		Error:     message,
	}
}
