// Package memory contains an in-memory publisher for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Message is one recorded publish.
type Message struct {
	ID      string
	Topic   string
	Payload any
}

// Publisher keeps every notification in publish order.
type Publisher struct {
	mu   sync.Mutex
	log  []Message
	fail error
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish appends the payload to the log and returns its sequence id.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, p.fail)
	}
	id := fmt.Sprintf("%s/%d", topic, len(p.log)+1)
	p.log = append(p.log, Message{ID: id, Topic: topic, Payload: payload})
	return id, nil
}

// FailWith makes following publishes fail with err. Nil restores success.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err
}

// Messages returns a copy of the log, optionally filtered to one topic.
func (p *Publisher) Messages(topic string) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Message
	for _, m := range p.log {
		if topic == "" || m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
