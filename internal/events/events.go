// Package events announces domain changes on Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"applicant-api-io/api/pkg/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var CHANNEL_APPLICANT_EVENTS = "APPLICANT_EVENTS"

type EventType string

const (
	ApplicationSubmitted EventType = "application.submitted"
	ApplicationReviewed  EventType = "application.reviewed"
	ApplicationCancelled EventType = "application.cancelled"
	ApplicationInReview  EventType = "application.under_review"
	ProfileDeleted       EventType = "profile.deleted"
)

type Message struct {
	Type      EventType `json:"type"`
	Payload   string    `json:"payload"`
	Timestamp int64     `json:"timestamp"`
}

// Publisher announces events. Publishing never fails the caller's
// operation; errors are logged.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, payload string)
}

type redisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client, channel: CHANNEL_APPLICANT_EVENTS}
}

// Publish sends the event to the channel as JSON.
func (p *redisPublisher) Publish(ctx context.Context, eventType EventType, payload string) {
	message := Message{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		util.LogError("failed to marshal event", err, zap.String("type", string(eventType)))
		return
	}

	if err := p.client.Publish(ctx, p.channel, messageJSON).Err(); err != nil {
		util.LogError("failed to publish event", err, zap.String("type", string(eventType)))
		return
	}
	util.Log.Debug("published event", zap.ByteString("message", messageJSON))
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(_ context.Context, eventType EventType, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Type: eventType, Payload: payload, Timestamp: time.Now().Unix()})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Types returns the types of the recorded events in order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.messages))
	for i, m := range r.messages {
		types[i] = m.Type
	}
	return types
}
