package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventsChannel is the pub/sub channel the worker uses to reach connected clients
const EventsChannel = "smartcrop:events"

// Event types
const (
	EventTypeAlertRaised      = "alert.raised"
	EventTypeAdviceGenerated  = "advice.generated"
	EventTypeSessionCompleted = "session.completed"
	EventTypeReportReady      = "report.ready"
	EventTypeHeartbeat        = "heartbeat"
)

// RealtimeEvent represents an event to be sent to clients
type RealtimeEvent struct {
	Type      string    `json:"type"`
	UserID    uuid.UUID `json:"userId"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscriber represents a connected client
type Subscriber struct {
	ID      string
	UserID  uuid.UUID
	Channel chan *RealtimeEvent
	Done    chan struct{}
}

// EventPublisher delivers user events; the server publishes in process and
// the worker through Redis
type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, eventType string, data any)
}

// RealtimeService fans user events out to SSE subscribers
type RealtimeService struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

var _ EventPublisher = (*RealtimeService)(nil)

// NewRealtimeService creates a new realtime service
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe creates a new subscription for a user
func (s *RealtimeService) Subscribe(ctx context.Context, userID uuid.UUID) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscriber{
		ID:      uuid.New().String(),
		UserID:  userID,
		Channel: make(chan *RealtimeEvent, 100),
		Done:    make(chan struct{}),
	}
	s.subscribers[sub.ID] = sub

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe(sub.ID)
		case <-sub.Done:
		}
	}()

	return sub
}

// Unsubscribe removes a subscription
func (s *RealtimeService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Channel)
		delete(s.subscribers, id)
	}
}

// Publish sends an event to all subscribers of a user
func (s *RealtimeService) Publish(_ context.Context, userID uuid.UUID, eventType string, data any) {
	s.dispatch(&RealtimeEvent{
		Type:      eventType,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func (s *RealtimeService) dispatch(event *RealtimeEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if sub.UserID != event.UserID {
			continue
		}
		select {
		case sub.Channel <- event:
		default:
			// slow client, drop
		}
	}
}

// Relay forwards events published by other processes to local subscribers
// until the source channel closes
func (s *RealtimeService) Relay(source <-chan []byte, log *zap.Logger) {
	for payload := range source {
		var event RealtimeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Warn("discarding malformed event", zap.Error(err))
			continue
		}
		s.dispatch(&event)
	}
}

// SubscriberCount returns the number of open streams of a user
func (s *RealtimeService) SubscriberCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subscribers {
		if sub.UserID == userID {
			count++
		}
	}
	return count
}

// Broadcaster is the subset of Redis used to publish events across processes
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisEventPublisher publishes events on EventsChannel for the API servers
// to relay
type RedisEventPublisher struct {
	bus Broadcaster
	log *zap.Logger
}

var _ EventPublisher = (*RedisEventPublisher)(nil)

// NewRedisEventPublisher creates a cross-process publisher
func NewRedisEventPublisher(bus Broadcaster, log *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{bus: bus, log: log}
}

// Publish encodes and broadcasts the event; failures are logged
func (p *RedisEventPublisher) Publish(ctx context.Context, userID uuid.UUID, eventType string, data any) {
	payload, err := json.Marshal(&RealtimeEvent{
		Type:      eventType,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		p.log.Warn("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := p.bus.Publish(ctx, EventsChannel, payload); err != nil {
		p.log.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// FormatSSE formats an event for SSE
func FormatSSE(event *RealtimeEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(event.Type)+len(data)+16)
	out = append(out, "event: "...)
	out = append(out, event.Type...)
	out = append(out, "\ndata: "...)
	out = append(out, data...)
	return append(out, '\n', '\n'), nil
}
