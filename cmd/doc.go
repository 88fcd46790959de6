// Package cmd implements the command-line interface for the docbridge
// document store bridge. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - conn: Commands for connection lifecycle operations (create, close, ping, stats)
//   - docs: Commands for document operations (insert, find, update, delete, count)
//   - serve: Commands for starting and configuring the bridge server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See docbridge -help for a list of all commands.
package cmd
