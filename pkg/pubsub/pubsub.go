// Package pubsub streams extraction progress to web clients.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the pipeline
const (
	TopicStatus  = "extraction_status"
	TopicConcept = "concept"
)

// Event is one published message
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "extraction_status"
	Type    string          `json:"type"`    // e.g. "loading", "extracting", "ready"
	Data    json.RawMessage `json:"data"`    // payload
	Version int             `json:"version"` // per topic, increasing
}

// Subscription receives the events of one topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RunStatus is the payload of TopicStatus events
type RunStatus struct {
	State   string `json:"state"`   // loading, attaching, checking, exporting, extracting, ready, error
	Message string `json:"message"` // human-readable
	Step    int    `json:"step"`    // 1-based
	Total   int    `json:"total"`
	Reason  string `json:"reason,omitempty"` // what triggered the run
}

// ConceptUpdate is the payload of TopicConcept events
type ConceptUpdate struct {
	ConceptID   string `json:"conceptId"`
	Designation string `json:"designation"`
	Qualifiers  int    `json:"qualifiers"`
	Warnings    int    `json:"warnings"`
}
