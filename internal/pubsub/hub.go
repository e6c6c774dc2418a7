package pubsub

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rateshub/rates-data/internal/model"
)

// DefaultQueueSize is the per-subscriber queue capacity used when the
// configured value is missing or invalid.
const DefaultQueueSize = 100

// Subscription is one subscriber's bounded delivery queue within a channel.
type Subscription struct {
	id      uuid.UUID
	channel string
	points  chan model.HistoryPoint
}

// ID returns the unique handle id of this subscription.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Channel returns the channel name this subscription belongs to.
func (s *Subscription) Channel() string { return s.channel }

// Points returns the receive side of the subscription queue.
// The channel is never closed; consumers stop via their own cancellation.
func (s *Subscription) Points() <-chan model.HistoryPoint { return s.points }

// Hub maps channel names to live subscriber sets and fans out points.
type Hub struct {
	logger    *slog.Logger
	queueSize int

	mu       sync.RWMutex
	channels map[string]map[*Subscription]struct{}

	published atomic.Int64
	dropped   atomic.Int64
}

// Stats contains hub runtime counters.
type Stats struct {
	Channels    int   // Channels with at least one subscriber
	Subscribers int   // Total live subscriptions
	Published   int64 // Points delivered to a subscriber queue
	Dropped     int64 // Points dropped because a queue was full
}

// NewHub creates a Hub with the given per-subscriber queue capacity.
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:    logger,
		queueSize: queueSize,
		channels:  make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new bounded queue on the named channel and returns
// its handle. The channel entry is created on first subscribe.
func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		id:      uuid.New(),
		channel: channel,
		points:  make(chan model.HistoryPoint, h.queueSize),
	}

	h.mu.Lock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.channels[channel] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("subscribed", "channel", channel, "subscription", sub.id)
	return sub
}

// Unsubscribe removes the subscription from its channel. When the last
// subscriber leaves, the channel entry itself is removed. Safe to call
// more than once for the same handle.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if set, ok := h.channels[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.channels, sub.channel)
		}
	}
	h.mu.Unlock()

	h.logger.Debug("unsubscribed", "channel", sub.channel, "subscription", sub.id)
}

// Publish delivers point to every current subscriber of the named channel.
// Never blocks: a full subscriber queue drops the point for that subscriber
// only. Publishing to a channel with no subscribers is a no-op.
func (h *Hub) Publish(channel string, point model.HistoryPoint) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.channels[channel] {
		select {
		case sub.points <- point:
			h.published.Add(1)
		default:
			h.dropped.Add(1)
			h.logger.Debug("subscriber queue full, point dropped",
				"channel", channel,
				"subscription", sub.id,
			)
		}
	}
}

// Stats returns current hub counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := 0
	for _, set := range h.channels {
		subscribers += len(set)
	}

	return Stats{
		Channels:    len(h.channels),
		Subscribers: subscribers,
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
	}
}
