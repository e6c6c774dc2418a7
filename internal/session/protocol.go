package session

import (
	"encoding/json"

	"github.com/rateshub/rates-data/internal/model"
)

// Wire actions.
const (
	ActionAssets    = "assets"
	ActionSubscribe = "subscribe"
	ActionHistory   = "asset_history"
	ActionPoint     = "point"
)

// Request is a validated inbound message.
type Request struct {
	Action string

	// AssetID is set for subscribe requests. A non-integer or missing
	// assetId leaves it zero, which resolves to no asset downstream.
	AssetID int64
}

// envelope is the raw inbound frame shape.
type envelope struct {
	Action  string          `json:"action"`
	Message json.RawMessage `json:"message"`
}

// decodeRequest validates a raw frame. It returns ok=false for anything
// that is not an object with a known action and an object message field;
// such frames are silently discarded by the caller.
func decodeRequest(data []byte) (Request, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Request{}, false
	}
	if env.Action != ActionAssets && env.Action != ActionSubscribe {
		return Request{}, false
	}

	var message map[string]json.RawMessage
	if err := json.Unmarshal(env.Message, &message); err != nil || message == nil {
		return Request{}, false
	}

	req := Request{Action: env.Action}

	if env.Action == ActionSubscribe {
		var id json.Number
		if raw, ok := message["assetId"]; ok {
			if err := json.Unmarshal(raw, &id); err == nil {
				if v, err := id.Int64(); err == nil {
					req.AssetID = v
				}
			}
		}
	}

	return req, true
}

// Outbound wire shapes.

type outbound struct {
	Action  string `json:"action"`
	Message any    `json:"message"`
}

type wireAsset struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wirePoint struct {
	AssetID   int64       `json:"assetId"`
	AssetName string      `json:"assetName"`
	Time      int64       `json:"time"`
	Value     json.Number `json:"value"`
}

func toWirePoint(p model.HistoryPoint) wirePoint {
	return wirePoint{
		AssetID:   p.Asset.ID,
		AssetName: p.Asset.Symbol,
		Time:      p.Timestamp,
		Value:     json.Number(p.Value.String()),
	}
}

// encodeAssets builds the reply to an "assets" request.
func encodeAssets(assets []model.Asset) ([]byte, error) {
	wire := make([]wireAsset, 0, len(assets))
	for _, a := range assets {
		wire = append(wire, wireAsset{ID: a.ID, Name: a.Symbol})
	}
	return json.Marshal(outbound{
		Action:  ActionAssets,
		Message: map[string]any{"assets": wire},
	})
}

// encodeHistory builds the first reply to a "subscribe" request.
func encodeHistory(points []model.HistoryPoint) ([]byte, error) {
	wire := make([]wirePoint, 0, len(points))
	for _, p := range points {
		wire = append(wire, toWirePoint(p))
	}
	return json.Marshal(outbound{
		Action:  ActionHistory,
		Message: map[string]any{"points": wire},
	})
}

// encodePoint builds a live update notification.
func encodePoint(p model.HistoryPoint) ([]byte, error) {
	return json.Marshal(outbound{
		Action:  ActionPoint,
		Message: toWirePoint(p),
	})
}
