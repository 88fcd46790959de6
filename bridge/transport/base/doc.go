// Package base provides the protocol-agnostic core of the socket based
// transports. It implements connection pooling, frame based messaging and
// request/response correlation independent of the concrete network protocol,
// which is supplied by a connector (see the tcp package).
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - clientTransport: Core client implementation that manages multiple
//     connections with round-robin load balancing. Supports multiple
//     connections per endpoint for improved throughput.
//
//   - serverTransport: Core server implementation that accepts connections
//     and routes requests to the handler based on the frame's route.
//
// The client transport performs exactly one attempt per Send call. Retry
// decisions belong to the caller, which knows whether a failure class is
// safe to retry. A Send that fails on the wire reports a transport error so
// the caller can apply its own policy.
//
// Performance Optimizations:
//
//   - Connection Pooling: Multiple connections per endpoint improve
//     throughput for high-load scenarios. For small messages a single
//     connection per endpoint may perform better due to reduced overhead.
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse buffers,
//     reducing GC pressure and memory allocations.
//
//   - Asynchronous Processing: The client sends requests and correlates
//     responses asynchronously using unique request IDs.
//
//   - Frame Batching: The transport uses net.Buffers to reduce syscalls
//     when writing frames.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic
//	operations and mutexes to ensure concurrent access safety, while the
//	server creates a dedicated goroutine for each connection.
package base
