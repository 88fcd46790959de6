// Package client implements the application-facing handle to a bridge
// server. A Client connects a transport, dispatches requests through a
// worker pool with retry and backoff, and buffers completions until the
// caller drains them.
//
// The split between synchronous and asynchronous operations is thin:
// both run through the same dispatcher, a synchronous call simply
// blocks on the task's terminal transition. Asynchronous callbacks are
// never invoked from a dispatcher worker. They fire exclusively from
// ProcessCompletions, so a caller with a single-threaded event loop can
// treat its own state as unsynchronized.
//
// Connection lifecycle operations (create, close, ping, stats) are
// never retried. Document operations follow the configured retry
// policy and only retry failure classes that are safe to repeat,
// timeouts and transport errors.
//
// Usage:
//
//	c, err := client.NewClient(*config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
//	if err != nil {
//		return err
//	}
//
//	users := c.Collection(connID, "app", "users")
//	id, err := users.InsertOne([]byte(`{"name":"ada"}`))
package client
