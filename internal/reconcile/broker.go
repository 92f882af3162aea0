package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paatshala-go-api/internal/observability"
)

const eventBufferSize = 16

// RefreshEvent announces that one dataset of one course was re-fetched and
// its cached value replaced.
type RefreshEvent struct {
	JobID       string    `json:"job_id"`
	CourseID    int       `json:"course_id"`
	Dataset     string    `json:"dataset"`
	Rows        int       `json:"rows"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// refreshEnvelope wraps events on the cross-node channels so every node can
// skip the messages it published itself.
type refreshEnvelope struct {
	Source string       `json:"source"`
	Event  RefreshEvent `json:"event"`
	SentAt time.Time    `json:"sent_at"`
}

// Broker fans refresh events out to in-process subscribers and, when redis
// or NATS is configured, to the other nodes serving the same LMS.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int]map[chan RefreshEvent]struct{}

	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewBroker builds the event broker. redisClient and natsConn may be nil;
// channelBase names the shared pub/sub namespace, empty disables fan-out.
func NewBroker(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *Broker {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":refresh"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".refresh"
	}

	return &Broker{
		subscribers:  make(map[int]map[chan RefreshEvent]struct{}),
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "refresh_broker").Logger(),
	}
}

// Start consumes cross-node events until ctx is cancelled. Without redis and
// NATS it does nothing; local delivery needs no consumer.
func (b *Broker) Start(ctx context.Context) {
	if b.redis != nil && b.redisChannel != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.natsSubject != "" {
		go b.consumeNATS(ctx)
	}
}

// Subscribe registers for the refresh events of one course. The returned
// cleanup must be called exactly once; it closes the channel.
func (b *Broker) Subscribe(courseID int) (<-chan RefreshEvent, func()) {
	channel := make(chan RefreshEvent, eventBufferSize)

	b.mu.Lock()
	if _, exists := b.subscribers[courseID]; !exists {
		b.subscribers[courseID] = make(map[chan RefreshEvent]struct{})
	}
	b.subscribers[courseID][channel] = struct{}{}
	b.mu.Unlock()

	observability.EventClients().Inc()

	cleanup := func() {
		b.unsubscribe(courseID, channel)
		observability.EventClients().Dec()
	}
	return channel, cleanup
}

// Publish delivers the event to local subscribers and fans it out to the
// other nodes. Fan-out failures are logged, never surfaced; local delivery
// already happened.
func (b *Broker) Publish(ctx context.Context, event RefreshEvent) {
	b.broadcast(event)
	if err := b.fanOut(ctx, event); err != nil {
		b.logger.Warn().Err(err).Int("course_id", event.CourseID).Msg("cross-node refresh fan-out failed")
	}
}

func (b *Broker) broadcast(event RefreshEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Slow subscribers lose events instead of stalling the refresher.
	for ch := range b.subscribers[event.CourseID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Broker) unsubscribe(courseID int, ch chan RefreshEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[courseID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, courseID)
		}
	}
}

func (b *Broker) fanOut(ctx context.Context, event RefreshEvent) error {
	if (b.redis == nil || b.redisChannel == "") && (b.nats == nil || b.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(refreshEnvelope{
		Source: b.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			return err
		}
	}
	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broker) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error().Err(err).Msg("refresh redis subscription closed")
			return
		}
		b.handleRemote([]byte(msg.Payload))
	}
}

func (b *Broker) consumeNATS(ctx context.Context) {
	sub, err := b.nats.QueueSubscribe(b.natsSubject, "paatshala-refresh", func(msg *nats.Msg) {
		b.handleRemote(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats refresh subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain refresh nats subscription")
		}
	}()
}

func (b *Broker) handleRemote(payload []byte) {
	var envelope refreshEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		b.logger.Warn().Err(err).Msg("invalid refresh event payload")
		return
	}
	if envelope.Source == b.nodeID {
		return
	}
	b.broadcast(envelope.Event)
}
