package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/cmap-bc/pkg/logging"
)

// ErrClosed is returned after the publisher has been closed
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer is the channel size of a subscription
const subscriberBuffer = 64

// TopicConfig configures buffering of a topic
type TopicConfig struct {
	BufferSize int  // events kept for late subscribers, 0 keeps none
	ReplayAll  bool // replay the whole buffer instead of the last event
}

// SSEPublisher implements Publisher for server-sent events
type SSEPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*sseSubscription]struct{}
	version       map[string]int
	eventBuffer   map[string][]Event
	topicConfig   map[string]TopicConfig
	closed        bool
	log           *logging.Logger
}

// NewSSEPublisher creates a publisher with the status topic replaying its
// whole run and the concept topic replaying the latest BC
func NewSSEPublisher() *SSEPublisher {
	p := &SSEPublisher{
		subscriptions: make(map[string]map[*sseSubscription]struct{}),
		version:       make(map[string]int),
		eventBuffer:   make(map[string][]Event),
		topicConfig:   make(map[string]TopicConfig),
		log:           logging.New("pubsub"),
	}
	p.topicConfig[TopicStatus] = TopicConfig{BufferSize: 10, ReplayAll: true}
	p.topicConfig[TopicConcept] = TopicConfig{BufferSize: 1}
	return p
}

// ConfigureTopic sets the buffering of a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = config
}

// Subscribe implements Publisher
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	if p.subscriptions[topic] == nil {
		p.subscriptions[topic] = make(map[*sseSubscription]struct{})
	}
	p.subscriptions[topic][sub] = struct{}{}

	replay := p.eventBuffer[topic]
	if !p.topicConfig[topic].ReplayAll && len(replay) > 0 {
		replay = replay[len(replay)-1:]
	}
	// Sending under the lock keeps replayed events ahead of new ones
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			p.log.Warn("could not replay event", "topic", topic, "version", event.Version)
		}
	}
	p.mu.Unlock()

	if len(replay) > 0 {
		p.log.Debug("replayed events", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish implements Publisher
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: p.version[topic],
	}

	if size := p.topicConfig[topic].BufferSize; size > 0 {
		buffer := append(p.eventBuffer[topic], event)
		if len(buffer) > size {
			buffer = buffer[len(buffer)-size:]
		}
		p.eventBuffer[topic] = buffer
	}

	for sub := range p.subscriptions[topic] {
		select {
		case sub.events <- event:
		default:
			p.log.Warn("subscription channel full, dropping event", "topic", topic, "type", eventType)
		}
	}
	return nil
}

// ResetTopic drops the buffered events of a topic, e.g. when a new run starts
func (p *SSEPublisher) ResetTopic(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.eventBuffer, topic)
}

// Close implements Publisher
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subscriptions {
		for sub := range subs {
			sub.markClosed()
			close(sub.events)
		}
	}
	p.subscriptions = make(map[string]map[*sseSubscription]struct{})
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subscriptions[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subscriptions, sub.topic)
		}
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	closed    bool
	mu        sync.Mutex
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.publisher.unsubscribe(s)
	return nil
}

func (s *sseSubscription) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// WriteSSE writes an event in server-sent events framing
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Version, event.Topic, jsonData)
	return err
}
