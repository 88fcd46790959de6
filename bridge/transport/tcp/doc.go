// Package tcp implements the TCP socket based transport for the document
// store bridge. It provides concrete implementations of the base package's
// connector interfaces optimized for TCP connections.
//
// This package builds on the base package's transport functionality,
// inheriting its connection pooling, buffer reuse and request correlation.
// See the base package documentation for details on the underlying transport
// mechanisms.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// The default server buffer size is 512 KB, which works well for typical
// document payloads.
package tcp
