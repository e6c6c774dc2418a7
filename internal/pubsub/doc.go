// Package pubsub implements the in-process fan-out hub.
//
// The Hub:
//   - Maps channel names (asset symbols) to sets of live subscriber queues
//   - Creates a channel entry on first subscribe, removes it on last unsubscribe
//   - Delivers published points to every subscriber without ever blocking
//     the publisher: a full queue drops the point for that subscriber only
//   - Can be fed by an external upstream source (e.g. a database NOTIFY
//     listener) in addition to in-process publishes
package pubsub
