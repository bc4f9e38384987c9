// Package event carries run lifecycle notifications from the service to
// its websocket subscribers.
package event

import (
	"time"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/procflow/engine/pkg/api"
)

type (
	// Type identifies a run lifecycle event
	Type string

	// RunEvent is the envelope published for each run state change
	RunEvent struct {
		Time   time.Time         `json:"time"`
		Type   Type              `json:"type"`
		RunID  string            `json:"run_id,omitempty"`
		Status api.ContextStatus `json:"status,omitempty"`
		Error  string            `json:"error,omitempty"`
	}

	// Bus fans run events out to any number of consumers
	Bus struct {
		topic topic.Topic[*RunEvent]
		prod  topic.Producer[*RunEvent]
	}
)

const (
	TypeRunStarted   Type = "run_started"
	TypeRunCompleted Type = "run_completed"
	TypeRunFailed    Type = "run_failed"
)

// NewBus creates an empty run event bus
func NewBus() *Bus {
	t := caravan.NewTopic[*RunEvent]()
	return &Bus{
		topic: t,
		prod:  t.NewProducer(),
	}
}

// Publish sends an event to all current subscribers
func (b *Bus) Publish(ev *RunEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	message.Send(b.prod, ev)
}

// Subscribe registers a new consumer. The caller owns the consumer and
// must close it when done.
func (b *Bus) Subscribe() topic.Consumer[*RunEvent] {
	return b.topic.NewConsumer()
}

// Close stops the producer side of the bus
func (b *Bus) Close() {
	b.prod.Close()
}

// Started builds a run-started event
func Started() *RunEvent {
	return &RunEvent{Type: TypeRunStarted, Time: time.Now()}
}

// Completed builds a run-completed event from a report
func Completed(report *api.RunReport) *RunEvent {
	return &RunEvent{
		Time:   time.Now(),
		Type:   TypeRunCompleted,
		RunID:  report.RunID,
		Status: report.Status,
	}
}

// Failed builds a run-failed event. The report may be nil when the
// declaration never reached the engine.
func Failed(report *api.RunReport, err error) *RunEvent {
	ev := &RunEvent{
		Time:   time.Now(),
		Type:   TypeRunFailed,
		Status: api.StatusFailed,
	}
	if report != nil {
		ev.RunID = report.RunID
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
