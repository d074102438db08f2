// Package testutil holds shared test doubles and fixtures: an in-memory NATS
// client and KV store matching the methods components use, and a recorded game
// session as node batches.
package testutil
