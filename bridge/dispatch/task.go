package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Task State
// --------------------------------------------------------------------------

// State is the lifecycle state of a task. Pending -> InFlight on
// dispatch start, InFlight -> Succeeded/Failed on the terminal outcome.
// A retryable failure loops back to Pending until the retry budget is
// spent.
type State int32

const (
	StatePending State = iota
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Request Task
// --------------------------------------------------------------------------

// UseConfigRetries makes a task inherit the dispatcher's retry budget
const UseConfigRetries = -1

// Task describes one in-flight remote call. After Submit the dispatcher
// owns the task exclusively; callers keep only the id (for Cancel) and
// observe the outcome through the completion.
type Task struct {
	// Immutable after creation
	id      string
	ConnID  string // target connection, empty for registry-global ops
	Route   string // transport route
	Method  string // operation name, used for logging and metrics
	Payload []byte
	Headers map[string]string // per-request transport metadata

	// MaxRetries overrides the dispatcher's retry budget when >= 0.
	// Registry lifecycle operations set 0: they are never retried.
	MaxRetries int

	// Callback is carried through to the completion and invoked by the
	// delivery consumer, never by a dispatcher worker
	Callback func(result []byte, err error)

	// Mutated by the owning worker only
	attempt    int
	startedAt  time.Time
	finishedAt time.Time
	result     []byte
	err        error

	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{} // closed on terminal transition
}

// NewTask creates a task for the given route and payload
func NewTask(connID, route, method string, payload []byte) *Task {
	t := &Task{
		id:         uuid.NewString(),
		ConnID:     connID,
		Route:      route,
		Method:     method,
		Payload:    payload,
		MaxRetries: UseConfigRetries,
		done:       make(chan struct{}),
	}
	t.state.Store(int32(StatePending))
	return t
}

// ID returns the opaque task id
func (t *Task) ID() string { return t.id }

// State returns the current lifecycle state
func (t *Task) State() State { return State(t.state.Load()) }

// Attempt returns the number of execution attempts so far
func (t *Task) Attempt() int { return t.attempt }

// Duration returns the total time from first dispatch to terminal
// transition. Zero while the task is not terminal.
func (t *Task) Duration() time.Duration {
	if t.finishedAt.IsZero() {
		return 0
	}
	return t.finishedAt.Sub(t.startedAt)
}

// Done returns a channel closed once the task is terminal
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel marks the task cancelled. Cancellation is cooperative: the
// worker checks the flag at every retry boundary, a running attempt is
// not interrupted.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether the task was marked cancelled
func (t *Task) Cancelled() bool { return t.cancelled.Load() }

// terminal reports whether the task reached a final state
func (t *Task) terminal() bool {
	s := t.State()
	return s == StateSucceeded || s == StateFailed
}

// --------------------------------------------------------------------------
// Completion
// --------------------------------------------------------------------------

// Completion is the terminal outcome of a task, pushed through the
// delivery queue. Exactly one of Result and Err is set.
type Completion struct {
	Task   *Task
	Result []byte
	Err    error
}

// Invoke runs the task's callback, if any. Called by the delivery
// consumer on the caller's own execution context.
func (c *Completion) Invoke() {
	if c.Task.Callback != nil {
		c.Task.Callback(c.Result, c.Err)
	}
}
