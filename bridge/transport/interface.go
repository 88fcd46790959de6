package transport

import (
	"docbridge/bridge/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// HandleFunc is a function type that handles incoming requests.
// It is called by a server transport when a request is received and
// returns the serialized response.
type HandleFunc func(route string, req []byte) (resp []byte)

// IServerTransport is the interface for the server-side transport layer
type IServerTransport interface {
	// RegisterHandler registers the handler called for every request
	RegisterHandler(handler HandleFunc)
	// Listen starts the transport and blocks serving requests
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client-side transport.
// Send performs exactly one attempt; classification of failures and
// retries are the dispatcher's job.
type IClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends one request to a server and returns the response.
	// Headers carry per-request metadata; transports without a native
	// metadata channel may ignore them.
	Send(route string, req []byte, headers map[string]string) (resp []byte, err error)
	// Close closes all pooled transport handles
	Close() error
}
