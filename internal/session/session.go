package session

import (
	"context"
	"log/slog"

	"github.com/rateshub/rates-data/internal/model"
	"github.com/rateshub/rates-data/internal/pubsub"
)

// Transport is one bidirectional message stream to a client. Receive
// blocks until the next inbound frame; Send must be safe to call from the
// receive loop and the forwarding task concurrently.
type Transport interface {
	Receive() ([]byte, error)
	Send(data []byte) error
}

// Store is the slice of the persistence port a session needs.
type Store interface {
	ListAssets(ctx context.Context) ([]model.Asset, error)
	GetAsset(ctx context.Context, id int64) (model.Asset, bool, error)
	GetHistory(ctx context.Context, asset model.Asset) ([]model.HistoryPoint, error)
}

// Hub is the slice of the fan-out hub a session needs.
type Hub interface {
	Subscribe(channel string) *pubsub.Subscription
	Unsubscribe(sub *pubsub.Subscription)
}

// Session handles one client connection.
type Session struct {
	store     Store
	hub       Hub
	transport Transport
	logger    *slog.Logger

	// Active forwarding task, nil when not subscribed. Only the receive
	// loop goroutine touches this.
	fwd *forwarder
}

// New creates a Session bound to one transport.
func New(store Store, hub Hub, transport Transport, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:     store,
		hub:       hub,
		transport: transport,
		logger:    logger,
	}
}

// Run reads and dispatches requests until the transport fails or ctx is
// cancelled. Any active forwarding task is stopped before Run returns.
func (s *Session) Run(ctx context.Context) {
	s.logger.Debug("session opened")
	defer func() {
		if s.fwd != nil {
			s.fwd.stop()
			s.fwd = nil
		}
		s.logger.Debug("session closed")
	}()

	for {
		data, err := s.transport.Receive()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		req, ok := decodeRequest(data)
		if !ok {
			s.logger.Debug("discarding invalid frame")
			continue
		}

		switch req.Action {
		case ActionAssets:
			s.handleAssets(ctx)
		case ActionSubscribe:
			s.handleSubscribe(ctx, req.AssetID)
		}
	}
}

// handleAssets replies with the full asset list. Store failures drop the
// request without closing the connection.
func (s *Session) handleAssets(ctx context.Context) {
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		s.logger.Error("list assets failed", "error", err)
		return
	}

	reply, err := encodeAssets(assets)
	if err != nil {
		s.logger.Error("encode assets failed", "error", err)
		return
	}
	if err := s.transport.Send(reply); err != nil {
		s.logger.Debug("send assets failed", "error", err)
	}
}

// handleSubscribe switches the session's live subscription to the given
// asset. Unknown ids are ignored without a reply.
func (s *Session) handleSubscribe(ctx context.Context, assetID int64) {
	asset, ok, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		s.logger.Error("asset lookup failed", "error", err, "asset_id", assetID)
		return
	}
	if !ok {
		s.logger.Debug("subscribe for unknown asset ignored", "asset_id", assetID)
		return
	}

	// Tear down the previous forwarding task completely before starting
	// the next one, so two tasks never write to the transport at once.
	if s.fwd != nil {
		s.fwd.stop()
		s.fwd = nil
	}

	history, err := s.store.GetHistory(ctx, asset)
	if err != nil {
		s.logger.Error("history lookup failed", "error", err, "symbol", asset.Symbol)
		return
	}

	reply, err := encodeHistory(history)
	if err != nil {
		s.logger.Error("encode history failed", "error", err)
		return
	}
	if err := s.transport.Send(reply); err != nil {
		s.logger.Debug("send history failed", "error", err)
		return
	}

	sub := s.hub.Subscribe(asset.Symbol)
	s.fwd = startForwarder(ctx, sub, s.hub, s.transport, s.logger)

	s.logger.Debug("subscribed to live updates", "symbol", asset.Symbol)
}
