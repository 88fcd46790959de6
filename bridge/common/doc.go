// Package common provides the core data structures shared across the
// document-store bridge. It defines the wire protocol, configuration
// structures, the error taxonomy and the logging setup used by every
// other bridge package.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for the bridge server and client
//   - A closed error taxonomy with retryability classification
//   - Custom logging implementation with per-package named loggers
//
// Key Components:
//
//   - Message: Core data structure for all bridge communication, with a
//     flexible field set that adapts to the different operation types.
//     Includes factory methods for creating request and response messages.
//
//   - MessageType: Enumeration defining all supported operations,
//     categorized into connection lifecycle and document operations.
//
//   - Error / Kind: Typed errors carrying a classification from the
//     bridge error taxonomy. The kind decides whether the dispatcher may
//     retry a failed attempt or must fail the task terminally.
//
//   - ServerConfig / ClientConfig: Configuration for the two halves of
//     the bridge, controlling endpoints, timeouts, retry policy and
//     registry limits.
package common
