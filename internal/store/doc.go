// Package store implements asset and history persistence.
//
// Backends:
//   - memory: seeded assets, per-asset ring bounded by point count
//   - postgres: pgx-backed tables, history bounded by a time horizon,
//     appends broadcast via NOTIFY for cross-process fan-in
//   - redis: ZSET per asset scored by timestamp, horizon retention
//
// All backends return history newest-first. Appending a point publishes it
// to the fan-out hub keyed by asset symbol.
package store
