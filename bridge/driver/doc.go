// Package driver defines the boundary between the bridge and the
// document store. The registry never talks to a database directly, it
// only materializes handles through an IDriverFactory and executes
// operations through the resulting IDriver.
//
// The package focuses on:
//   - A narrow driver interface (ping, close, document operations)
//   - A factory abstraction so the registry can be tested without a
//     running database
//   - Validation of the driver-tunable connection options
//
// Key Components:
//
//   - IDriver: One live database client. Safe for concurrent use, the
//     bridge dispatches multiple in-flight operations through a single
//     handle. Released exactly once via Close.
//
//   - IDriverFactory: Materializes a driver handle for a target address
//     within a bounded establish timeout.
//
//   - Options: The recognized connection options. Unrecognized keys and
//     out-of-range values are rejected at parse time, before any dial.
//
// Implementations:
//
//	The mongodb sub-package implements the interfaces on top of the
//	official MongoDB driver. The drivertest sub-package provides a
//	counting fake used by registry and server tests.
package driver
