package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topic names match what the dashboard transport layer consumes.
type Topic string

const (
	TopicStatus         Topic = "status"
	TopicPositions      Topic = "positions"
	TopicTrades         Topic = "trades"
	TopicTrending       Topic = "trending"
	TopicNarratives     Topic = "narratives"
	TopicPumpAnalyses   Topic = "pumpAnalyses"
	TopicClaudeAnalysis Topic = "claudeAnalysis"
	TopicActivity       Topic = "activity"
)

// Event is one state delta emitted by the engine.
type Event struct {
	EventID   string    `json:"event_id"`
	Topic     Topic     `json:"topic"`
	Timestamp time.Time `json:"ts"`
	Producer  string    `json:"producer"`
	Payload   any       `json:"payload"`
}

// NewEvent creates an Event with a generated ID.
func NewEvent(producer string, topic Topic, payload any) Event {
	return Event{
		EventID:   uuid.New().String(),
		Topic:     topic,
		Timestamp: time.Now(),
		Producer:  producer,
		Payload:   payload,
	}
}

// Activity is the payload for TopicActivity: a human-readable log line
// with a priority tag for the dashboard feed.
type Activity struct {
	Priority string `json:"priority"` // low|medium|high|critical
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Publisher delivers events to consumers (dashboard hub, Kafka export,
// notifiers). Implementations must not block the engine's loops.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
