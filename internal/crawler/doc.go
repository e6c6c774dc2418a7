// Package crawler implements the rate source polling loop.
//
// The crawler:
//   - Fetches the raw payload once per period over HTTP GET
//   - Parses rate records into history points for known assets only
//   - Appends points to the store, which fans them out to subscribers
//   - Locks the cadence to wall-clock ticks: each sleep is corrected by
//     the tick's processing time, so the schedule does not drift
//
// Fetch, parse and store errors are logged and the loop continues; only
// explicit cancellation stops it.
package crawler
