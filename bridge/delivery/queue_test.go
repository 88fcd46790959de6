package delivery

import (
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and consume functionality
func TestBasicOperations(t *testing.T) {
	q := NewQueue[int]()
	defer q.Close()

	values := make([]int, 10)
	for i := 0; i < 10; i++ {
		values[i] = i
		if !q.Push(&values[i]) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if *val != i {
				t.Errorf("Expected %d, got %v", i, *val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	// Make sure queue is empty
	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
		// Expected timeout, queue is empty
	}
}

// TestPushAfterClose verifies a closed queue rejects new items
func TestPushAfterClose(t *testing.T) {
	q := NewQueue[int]()
	q.Close()

	v := 1
	if q.Push(&v) {
		t.Errorf("Push on a closed queue should return false")
	}
	if !q.IsClosed() {
		t.Errorf("IsClosed should report true after Close")
	}
}

// TestConcurrentProducers verifies the queue works correctly with multiple producers
func TestConcurrentProducers(t *testing.T) {
	q := NewQueue[int]()

	const numProducers = 8
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	// Consumer goroutine counts everything it receives
	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range q.Recv() {
			received++
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < numProducers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				v := i
				if !q.Push(&v) {
					t.Errorf("Push failed with open queue")
					return
				}
			}
		}()
	}

	wg.Wait()
	q.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	if received != totalItems {
		t.Errorf("Expected %d items, received %d", totalItems, received)
	}
}

// TestDrainDeliversQueuedItems verifies Close + Drain never discards
// completions that were pushed while the queue was live
func TestDrainDeliversQueuedItems(t *testing.T) {
	q := NewQueue[int]()

	const n = 100
	values := make([]int, n)
	for i := 0; i < n; i++ {
		values[i] = i
		if !q.Push(&values[i]) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	drained := 0
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		q.Drain(func(*int) { drained++ })
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for drain")
	}

	if drained != n {
		t.Errorf("Expected %d drained items, got %d", n, drained)
	}
}
