package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3, 0)

	var done int32
	for i := 0; i < 10; i++ {
		pool.Submit(func() { atomic.AddInt32(&done, 1) })
	}
	pool.Wait()

	if done != 10 {
		t.Errorf("expected 10 completed jobs, got %d", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)

	var active, peak int32
	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("concurrency exceeded the bound: peak %d", peak)
	}
}

func TestVisitedSet(t *testing.T) {
	s := NewVisitedSet()

	if !s.Add("https://example.com/loupan/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://example.com/loupan/1") {
		t.Error("second Add of the same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("Size: got %d, want 1", s.Size())
	}
}
