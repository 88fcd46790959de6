// Package http implements an HTTP based transport for the document store
// bridge. Requests are sent as POST bodies to /{route} on one of the
// configured endpoints, responses are returned in the HTTP response body.
//
// The client keeps a pool of idle connections per endpoint so repeated
// requests reuse established transports instead of dialing fresh ones.
// Endpoints are balanced round-robin. Each Send call performs exactly one
// attempt, a 5xx status or a network failure is reported as a transport
// error so the caller can decide whether to retry.
//
// The server additionally exposes GET /metrics in Prometheus text format.
package http
