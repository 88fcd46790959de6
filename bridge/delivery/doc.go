// Package delivery provides the completion hand-off between the
// dispatcher's worker goroutines and the caller's own execution context.
//
// The dispatcher pushes finished tasks from many workers concurrently;
// the caller consumes them from a single goroutine (typically its main
// loop tick), so caller-owned state is never touched from a worker.
//
// Features and Guarantees:
//
//   - Lock-free writes: atomic operations keep Push cheap under contention
//   - Unbounded size: completions are never dropped because of a full buffer
//   - Thread-safe writes: any number of goroutines may Push concurrently
//   - Single consumer: one goroutine consumes via the Recv channel
//   - Exactly-once: every pushed item is delivered exactly once; after
//     Close the already queued items are still delivered (or handed to
//     an explicit Drain), never silently discarded
package delivery
