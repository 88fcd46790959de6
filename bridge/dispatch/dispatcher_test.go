package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docbridge/bridge/common"
	"docbridge/bridge/delivery"
)

// fakeTransport is a scriptable client transport. The reply function is
// called once per attempt with the attempt counter across all tasks.
type fakeTransport struct {
	attempts atomic.Int64
	reply    func(attempt int64, route string, req []byte) ([]byte, error)
}

func (f *fakeTransport) Connect(config common.ClientConfig) error { return nil }

func (f *fakeTransport) Send(route string, req []byte, _ map[string]string) ([]byte, error) {
	n := f.attempts.Add(1)
	return f.reply(n, route, req)
}

func (f *fakeTransport) Close() error { return nil }

func testClientConfig() common.ClientConfig {
	return common.ClientConfig{
		AttemptTimeoutMs: 200,
		MaxRetries:       2,
		BackoffBaseMs:    1,
		BackoffMaxMs:     5,
		Workers:          4,
	}
}

// newTestDispatcher wires a dispatcher to a fresh delivery queue
func newTestDispatcher(t *testing.T, cfg common.ClientConfig, ft *fakeTransport, checker ActiveChecker) (*Dispatcher, *delivery.Queue[Completion]) {
	t.Helper()
	queue := delivery.NewQueue[Completion]()
	d := NewDispatcher(cfg, ft, queue, checker)
	t.Cleanup(func() {
		d.Stop()
		queue.Drain(nil)
	})
	return d, queue
}

func TestSubmitSyncSuccess(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, route string, req []byte) ([]byte, error) {
		return []byte("response:" + route), nil
	}}
	d, _ := newTestDispatcher(t, testClientConfig(), ft, nil)

	task := NewTask("conn-1", "doc.findOne", "FindOne", []byte("payload"))
	result, err := d.SubmitSync(task)
	if err != nil {
		t.Fatalf("SubmitSync failed: %v", err)
	}
	if string(result) != "response:doc.findOne" {
		t.Errorf("unexpected result %q", result)
	}
	if task.State() != StateSucceeded {
		t.Errorf("expected %s, got %s", StateSucceeded, task.State())
	}
	if !task.terminal() {
		t.Error("task should be terminal")
	}
	if ft.attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", ft.attempts.Load())
	}
}

func TestExactlyOneCompletionPerTask(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, req []byte) ([]byte, error) {
		return req, nil
	}}
	d, queue := newTestDispatcher(t, testClientConfig(), ft, nil)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := NewTask("conn-1", "doc.count", "Count", []byte("x"))
			if err := d.Submit(task, nil); err != nil {
				t.Errorf("Submit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every task must produce exactly one completion
	seen := map[string]int{}
	for i := 0; i < n; i++ {
		select {
		case c := <-queue.Recv():
			seen[c.Task.ID()]++
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d completions", i)
		}
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("task %s delivered %d times", id, count)
		}
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct tasks, got %d", n, len(seen))
	}
}

func TestRetryBudgetExhausted(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
		return nil, common.NewError(common.KindTransportError, "boom")
	}}
	cfg := testClientConfig()
	cfg.MaxRetries = 3
	d, _ := newTestDispatcher(t, cfg, ft, nil)

	task := NewTask("conn-1", "doc.insertOne", "InsertOne", nil)
	_, err := d.SubmitSync(task)
	if !common.IsKind(err, common.KindTransportError) {
		t.Fatalf("expected %s, got %v", common.KindTransportError, err)
	}

	// maxRetries=3 means 1 initial attempt + 3 retries
	if got := ft.attempts.Load(); got != 4 {
		t.Errorf("expected 4 attempts, got %d", got)
	}
	if task.State() != StateFailed {
		t.Errorf("expected %s, got %s", StateFailed, task.State())
	}
}

func TestZeroRetriesSingleAttempt(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
		return nil, common.NewError(common.KindTimeout, "slow")
	}}
	d, _ := newTestDispatcher(t, testClientConfig(), ft, nil)

	task := NewTask("", "conn.create", "CreateConnection", nil)
	task.MaxRetries = 0
	_, err := d.SubmitSync(task)
	if !common.IsKind(err, common.KindTimeout) {
		t.Fatalf("expected %s, got %v", common.KindTimeout, err)
	}
	if got := ft.attempts.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt for a no-retry task, got %d", got)
	}
}

func TestTerminalErrorNotRetried(t *testing.T) {
	for _, kind := range []common.Kind{
		common.KindNotFound,
		common.KindInvalidTarget,
		common.KindRequestRejected,
		common.KindConnectionUnavailable,
	} {
		ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
			return nil, common.NewError(kind, "terminal")
		}}
		cfg := testClientConfig()
		cfg.MaxRetries = 5
		d, _ := newTestDispatcher(t, cfg, ft, nil)

		task := NewTask("conn-1", "doc.findOne", "FindOne", nil)
		_, err := d.SubmitSync(task)
		if !common.IsKind(err, kind) {
			t.Errorf("kind %s: got %v", kind, err)
		}
		if got := ft.attempts.Load(); got != 1 {
			t.Errorf("kind %s: expected 1 attempt, got %d", kind, got)
		}
	}
}

func TestRetryThenSucceed(t *testing.T) {
	ft := &fakeTransport{reply: func(attempt int64, _ string, _ []byte) ([]byte, error) {
		if attempt < 3 {
			return nil, common.NewError(common.KindTransportError, "flaky")
		}
		return []byte("ok"), nil
	}}
	cfg := testClientConfig()
	cfg.MaxRetries = 5
	d, _ := newTestDispatcher(t, cfg, ft, nil)

	task := NewTask("conn-1", "doc.findOne", "FindOne", nil)
	result, err := d.SubmitSync(task)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if string(result) != "ok" {
		t.Errorf("unexpected result %q", result)
	}
	if task.Attempt() != 3 {
		t.Errorf("expected 3 attempts, got %d", task.Attempt())
	}
}

func TestInactiveConnectionFailsTerminally(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
		return []byte("ok"), nil
	}}
	checker := func(connID string) bool { return connID == "alive" }
	cfg := testClientConfig()
	cfg.MaxRetries = 5
	d, _ := newTestDispatcher(t, cfg, ft, checker)

	task := NewTask("dead", "doc.findOne", "FindOne", nil)
	_, err := d.SubmitSync(task)
	if !common.IsKind(err, common.KindConnectionUnavailable) {
		t.Fatalf("expected %s, got %v", common.KindConnectionUnavailable, err)
	}
	// The attempt must not even reach the transport
	if got := ft.attempts.Load(); got != 0 {
		t.Errorf("expected 0 transport attempts, got %d", got)
	}

	// A task against a live connection still works
	task = NewTask("alive", "doc.findOne", "FindOne", nil)
	if _, err := d.SubmitSync(task); err != nil {
		t.Errorf("task on live connection failed: %v", err)
	}
}

func TestCancelBetweenAttempts(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	ft := &fakeTransport{reply: func(attempt int64, _ string, _ []byte) ([]byte, error) {
		if attempt == 1 {
			// Cancellation lands while the first attempt runs
			close(started)
			<-release
		}
		return nil, common.NewError(common.KindTransportError, "flaky")
	}}
	cfg := testClientConfig()
	cfg.MaxRetries = 10
	d, _ := newTestDispatcher(t, cfg, ft, nil)

	task := NewTask("conn-1", "doc.findOne", "FindOne", nil)
	if err := d.Submit(task, nil); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	<-started
	if !d.Cancel(task.ID()) {
		t.Fatal("Cancel returned false for a live task")
	}
	close(release)

	<-task.Done()
	if !common.IsKind(task.err, common.KindCancelled) {
		t.Fatalf("expected %s, got %v", common.KindCancelled, task.err)
	}
	// The running attempt finished, no further attempt started
	if got := ft.attempts.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}

	// Cancel of an unknown or finished task reports false
	if d.Cancel(task.ID()) {
		t.Error("Cancel of a finished task should return false")
	}
	if d.Cancel("no-such-task") {
		t.Error("Cancel of an unknown task should return false")
	}
}

func TestAttemptTimeout(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
		time.Sleep(time.Second)
		return []byte("late"), nil
	}}
	cfg := testClientConfig()
	cfg.AttemptTimeoutMs = 20
	cfg.MaxRetries = 0
	d, _ := newTestDispatcher(t, cfg, ft, nil)

	task := NewTask("conn-1", "doc.findOne", "FindOne", nil)
	start := time.Now()
	_, err := d.SubmitSync(task)
	if !common.IsKind(err, common.KindTimeout) {
		t.Fatalf("expected %s, got %v", common.KindTimeout, err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestBackoffNonDecreasingAndCapped(t *testing.T) {
	cfg := testClientConfig()
	cfg.BackoffBaseMs = 50
	cfg.BackoffMaxMs = 400
	d := &Dispatcher{config: cfg}

	capDelay := time.Duration(cfg.BackoffMaxMs) * time.Millisecond
	for round := 0; round < 50; round++ {
		prevMin := time.Duration(0)
		for attempt := 1; attempt <= 10; attempt++ {
			delay := d.backoff(attempt)
			if delay > capDelay {
				t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, delay, capDelay)
			}
			// The attempt's minimum possible delay never decreases, so
			// any observed delay is >= the previous attempt's minimum
			minDelay := time.Duration(cfg.BackoffBaseMs<<(attempt-1)) * time.Millisecond
			if minDelay > capDelay {
				minDelay = capDelay
			}
			if delay < minDelay {
				t.Fatalf("attempt %d: delay %v below minimum %v", attempt, delay, minDelay)
			}
			if minDelay < prevMin {
				t.Fatalf("attempt %d: minimum delay decreased", attempt)
			}
			prevMin = minDelay
		}
	}
}

func TestStats(t *testing.T) {
	ft := &fakeTransport{reply: func(attempt int64, route string, _ []byte) ([]byte, error) {
		if route == "fail" {
			return nil, common.NewError(common.KindRequestRejected, "nope")
		}
		return []byte("ok"), nil
	}}
	d, _ := newTestDispatcher(t, testClientConfig(), ft, nil)

	for i := 0; i < 3; i++ {
		d.SubmitSync(NewTask("conn-1", "ok", "Op", nil))
	}
	d.SubmitSync(NewTask("conn-1", "fail", "Op", nil))

	stats := d.Stats()
	if stats.Total != 4 {
		t.Errorf("expected 4 total, got %d", stats.Total)
	}
	if stats.Succeeded != 3 {
		t.Errorf("expected 3 succeeded, got %d", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}
}

func TestSubmitAfterStopRejected(t *testing.T) {
	ft := &fakeTransport{reply: func(_ int64, _ string, _ []byte) ([]byte, error) {
		return []byte("ok"), nil
	}}
	queue := delivery.NewQueue[Completion]()
	defer queue.Drain(nil)
	d := NewDispatcher(testClientConfig(), ft, queue, nil)
	d.Stop()

	err := d.Submit(NewTask("conn-1", "doc.findOne", "FindOne", nil), nil)
	if !common.IsKind(err, common.KindRequestRejected) {
		t.Fatalf("expected %s, got %v", common.KindRequestRejected, err)
	}
}
