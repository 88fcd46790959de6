// Package dispatch implements the asynchronous request dispatcher: a
// bounded pool of worker goroutines that execute request tasks against
// a client transport, apply timeout and retry policy, and hand finished
// tasks to the delivery queue.
//
// The package focuses on:
//   - The request task model and its state machine
//   - Retry with non-decreasing, capped backoff for transport failures
//   - Cooperative cancellation checked at every retry boundary
//   - Exactly-once completion delivery and aggregate statistics
//
// Key Components:
//
//   - Task: One unit of remote work. Owned by the dispatcher from
//     submission to terminal transition; callers interact with it only
//     through its id and the completion they receive.
//
//   - Dispatcher: Accepts tasks via Submit (non-blocking) or SubmitSync
//     (blocks until terminal), executes them on the worker pool and
//     records statistics exactly once per terminal transition.
//
//   - Completion: The terminal outcome pushed through the delivery
//     queue. Exactly one completion exists per submitted task, for
//     success, failure and cancellation alike.
package dispatch
