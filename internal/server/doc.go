// Package server exposes the websocket endpoint. Each accepted
// connection gets its own session, and shutdown closes every open
// connection before returning.
package server
