// Package transport defines the interfaces for communication between
// the bridge client and the bridge server. It provides a common
// contract that all transport implementations must fulfill, enabling
// protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Route based request dispatch
//   - Enabling multiple transport implementations (HTTP, framed TCP)
//
// Key Components:
//
//   - IClientTransport: Interface for client-side transports. A
//     transport owns a pool of reusable handles per endpoint; Send
//     performs exactly one attempt, retry policy belongs to the
//     dispatcher.
//
//   - IServerTransport: Interface for server-side transports that
//     receive requests and pass them to the registered handler.
//
//   - HandleFunc: Function type for request handling callbacks.
package transport
