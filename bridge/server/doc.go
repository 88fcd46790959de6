// Package server implements the bridge server. It owns the connection
// registry and exposes its operations over a pluggable transport and
// serializer.
//
// A request travels: transport -> serializer -> adapter -> registry ->
// driver. The adapter is a pure translation layer from protocol messages
// to registry calls, it holds no state of its own. Errors never cross
// the wire as Go values, they are flattened into the response message
// together with their classification so the client can rebuild them.
//
// On SIGINT/SIGTERM the server closes every registered connection before
// exiting so driver handles are released cleanly.
package server
