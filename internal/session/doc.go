// Package session implements the per-connection protocol state machine.
//
// A Session:
//   - Reads typed requests ("assets", "subscribe") from one transport
//   - Silently discards frames that fail validation
//   - Answers "assets" with the full asset list
//   - Answers "subscribe" with the asset's bounded history, then starts a
//     forwarding task that pumps live points onto the transport
//   - Keeps at most one forwarding task alive: a new subscribe cancels the
//     previous one and waits for it to stop before proceeding
package session
