package dispatch

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"

	"docbridge/bridge/common"
	"docbridge/bridge/delivery"
	"docbridge/bridge/transport"
)

var Logger = logger.GetLogger("dispatch")

// ActiveChecker reports whether the target connection of a task is
// still usable. Tasks against a connection the checker rejects fail
// terminally with ConnectionUnavailable; they are never rerouted.
type ActiveChecker func(connID string) bool

// Stats is a snapshot of the dispatcher's aggregate counters
type Stats struct {
	Total      uint64
	Succeeded  uint64
	Failed     uint64
	Retried    uint64
	AvgLatency time.Duration
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// Dispatcher executes request tasks on a bounded worker pool. Submitted
// tasks are owned by the dispatcher until their terminal transition,
// which is delivered exactly once through the delivery queue.
type Dispatcher struct {
	config    common.ClientConfig
	transport transport.IClientTransport
	queue     *delivery.Queue[Completion]
	checker   ActiveChecker

	tasks    *xsync.MapOf[string, *Task] // live tasks, for Cancel
	submitCh chan *Task
	wg       sync.WaitGroup
	stopMu   sync.RWMutex // guards submitCh against close during Submit
	stopping atomic.Bool

	// Aggregate statistics, updated exactly once per terminal transition
	total     atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	latency   gometrics.Timer

	// Prometheus export
	vmTotal     *vmetrics.Counter
	vmSucceeded *vmetrics.Counter
	vmFailed    *vmetrics.Counter
	vmRetried   *vmetrics.Counter
}

// NewDispatcher creates a dispatcher and starts its worker pool.
// The checker may be nil, in which case no connection state check
// happens before an attempt.
func NewDispatcher(
	config common.ClientConfig,
	t transport.IClientTransport,
	queue *delivery.Queue[Completion],
	checker ActiveChecker,
) *Dispatcher {
	workers := config.Workers
	if workers < 1 {
		workers = 4
	}

	d := &Dispatcher{
		config:      config,
		transport:   t,
		queue:       queue,
		checker:     checker,
		tasks:       xsync.NewMapOf[string, *Task](),
		submitCh:    make(chan *Task, workers*64),
		latency:     gometrics.NewTimer(),
		vmTotal:     vmetrics.GetOrCreateCounter("docbridge_tasks_total"),
		vmSucceeded: vmetrics.GetOrCreateCounter("docbridge_tasks_succeeded_total"),
		vmFailed:    vmetrics.GetOrCreateCounter("docbridge_tasks_failed_total"),
		vmRetried:   vmetrics.GetOrCreateCounter("docbridge_task_retries_total"),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	Logger.Infof("Started dispatcher with %d workers", workers)
	return d
}

// Submit hands a task to the worker pool and returns immediately. The
// completion notifier is invoked by the delivery consumer, never from a
// worker goroutine.
func (d *Dispatcher) Submit(task *Task, onComplete func(result []byte, err error)) error {
	if onComplete != nil {
		task.Callback = onComplete
	}

	d.stopMu.RLock()
	defer d.stopMu.RUnlock()

	if d.stopping.Load() {
		return common.NewError(common.KindRequestRejected, "dispatcher is shutting down")
	}

	d.tasks.Store(task.id, task)

	select {
	case d.submitCh <- task:
		return nil
	default:
		d.tasks.Delete(task.id)
		return common.NewError(common.KindRequestRejected, "dispatcher queue is full")
	}
}

// SubmitSync submits the task and blocks the calling goroutine until it
// is terminal. Implemented on top of Submit, the execution path is
// identical to asynchronous tasks.
func (d *Dispatcher) SubmitSync(task *Task) ([]byte, error) {
	if err := d.Submit(task, nil); err != nil {
		return nil, err
	}

	<-task.Done()
	return task.result, task.err
}

// Cancel marks the task with the given id cancelled. Returns false if
// the task is unknown or already terminal. Cancellation is cooperative:
// a running attempt finishes, no further attempt starts.
func (d *Dispatcher) Cancel(taskID string) bool {
	task, ok := d.tasks.Load(taskID)
	if !ok {
		return false
	}
	task.Cancel()
	return true
}

// Stats returns a snapshot of the aggregate counters
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Total:      d.total.Load(),
		Succeeded:  d.succeeded.Load(),
		Failed:     d.failed.Load(),
		Retried:    d.retried.Load(),
		AvgLatency: time.Duration(d.latency.Mean()),
	}
}

// Stop drains the worker pool: no new submissions are accepted, tasks
// already submitted run to their terminal transition.
func (d *Dispatcher) Stop() {
	d.stopMu.Lock()
	if d.stopping.Swap(true) {
		d.stopMu.Unlock()
		return
	}
	close(d.submitCh)
	d.stopMu.Unlock()

	d.wg.Wait()
	Logger.Infof("Dispatcher stopped")
}

// --------------------------------------------------------------------------
// Worker Pool
// --------------------------------------------------------------------------

// worker executes tasks from the submit channel until it is closed
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for task := range d.submitCh {
		d.run(task)
	}
}

// run drives one task through the attempt/retry loop to its terminal
// transition
func (d *Dispatcher) run(t *Task) {
	maxRetries := d.config.MaxRetries
	if t.MaxRetries >= 0 {
		maxRetries = t.MaxRetries
	}

	for {
		// Retry boundary: cancellation is checked before every attempt
		if t.Cancelled() {
			d.finish(t, nil, common.NewError(common.KindCancelled, "task %s cancelled", t.id))
			return
		}

		// A task targeting a dead connection fails terminally, it is
		// never silently retried against a different connection
		if d.checker != nil && t.ConnID != "" && !d.checker(t.ConnID) {
			d.finish(t, nil, common.NewError(common.KindConnectionUnavailable,
				"connection %s is not active", t.ConnID))
			return
		}

		t.attempt++
		if t.attempt == 1 {
			t.startedAt = time.Now()
		}
		t.state.Store(int32(StateInFlight))

		result, err := d.execute(t)
		if err == nil {
			d.finish(t, result, nil)
			return
		}

		kind := common.KindOf(err)
		if kind == common.KindUnknown {
			// Unclassified errors from the transport count as transport
			// failures and stay retryable
			kind = common.KindTransportError
			err = common.WrapError(kind, err, "attempt %d failed", t.attempt)
		}

		if !kind.Retryable() {
			d.finish(t, nil, err)
			return
		}

		// Cancellation after a failed attempt wins over the retry budget
		if t.Cancelled() {
			d.finish(t, nil, common.NewError(common.KindCancelled, "task %s cancelled", t.id))
			return
		}

		if t.attempt > maxRetries {
			d.finish(t, nil, err)
			return
		}

		d.retried.Add(1)
		d.vmRetried.Inc()
		t.state.Store(int32(StatePending))

		delay := d.backoff(t.attempt)
		Logger.Debugf("Task %s attempt %d failed (%v), retrying in %s", t.id, t.attempt, err, delay)
		time.Sleep(delay)
	}
}

// sendResult carries the outcome of one transport attempt
type sendResult struct {
	data []byte
	err  error
}

// execute performs a single attempt with a bounded timeout
func (d *Dispatcher) execute(t *Task) ([]byte, error) {
	ch := make(chan sendResult, 1)
	go func() {
		data, err := d.transport.Send(t.Route, t.Payload, t.Headers)
		ch <- sendResult{data, err}
	}()

	var timeoutCh <-chan time.Time
	if d.config.AttemptTimeoutMs > 0 {
		timeoutCh = time.After(time.Duration(d.config.AttemptTimeoutMs) * time.Millisecond)
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-timeoutCh:
		return nil, common.NewError(common.KindTimeout,
			"attempt %d timed out after %d ms", t.attempt, d.config.AttemptTimeoutMs)
	}
}

// finish performs the terminal transition: state, timestamps, stats and
// the exactly-once completion delivery
func (d *Dispatcher) finish(t *Task, result []byte, err error) {
	t.finishedAt = time.Now()
	if t.startedAt.IsZero() {
		// Cancelled before the first attempt
		t.startedAt = t.finishedAt
	}

	if err == nil {
		t.result = result
		t.state.Store(int32(StateSucceeded))
		d.succeeded.Add(1)
		d.vmSucceeded.Inc()
	} else {
		t.err = err
		t.state.Store(int32(StateFailed))
		d.failed.Add(1)
		d.vmFailed.Inc()
	}

	d.total.Add(1)
	d.vmTotal.Inc()
	d.latency.Update(t.finishedAt.Sub(t.startedAt))

	d.tasks.Delete(t.id)

	if !d.queue.Push(&Completion{Task: t, Result: result, Err: err}) {
		Logger.Warningf("Completion for task %s dropped, delivery queue is closed", t.id)
	}

	close(t.done)
}

// backoff computes the delay before the next attempt. The delay doubles
// per attempt starting at the configured base, gets up to 10% of upward
// jitter and never exceeds the cap, so consecutive delays are
// non-decreasing.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	baseMs := d.config.BackoffBaseMs
	if baseMs <= 0 {
		baseMs = 50
	}
	capMs := d.config.BackoffMaxMs
	if capMs < baseMs {
		capMs = baseMs
	}

	delayMs := capMs
	if shift := attempt - 1; shift < 20 {
		delayMs = baseMs << shift
		if delayMs > capMs {
			delayMs = capMs
		}
	}

	delayMs += rand.Intn(delayMs/10 + 1)
	if delayMs > capMs {
		delayMs = capMs
	}

	return time.Duration(delayMs) * time.Millisecond
}
