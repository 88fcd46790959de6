// Package registry implements the server-side connection registry: an
// in-memory store of live document-store connections, each reachable by
// an opaque id.
//
// The package focuses on:
//   - Connection lifecycle (create, lookup, health ping, close)
//   - Exactly-once release of driver handles
//   - Safe concurrent access from many request handler goroutines
//
// Key Components:
//
//   - Registry: The shared connection table. Structural mutation
//     (insert/remove, capacity accounting) is serialized through a
//     single mutex, per-connection state changes serialize on the
//     connection itself, reads go through a concurrent map and never
//     observe half-constructed entries.
//
//   - Connection: One logical connection. Owns its driver handle
//     exclusively; the status transition Active -> Closed is monotonic
//     and releases the handle exactly once.
//
// Connections are created only through the registry. Ids are UUIDs and
// never reused; closing an id removes it permanently.
package registry
