package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("IsRunning() = false after creation")
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

func TestWorkerPool_SubmitWait(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var counter atomic.Int64
	results := make([]int, 100)
	for i := range results {
		pool.Submit(func() {
			results[i] = i * i
			counter.Add(1)
		})
	}
	pool.Wait()

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
	for i, r := range results {
		if r != i*i {
			t.Errorf("results[%d] = %d, want %d", i, r, i*i)
		}
	}
}

func TestWorkerPool_SubmitNil(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	pool.Submit(nil)
	pool.Wait()
}

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(2)

	var counter atomic.Int64
	for range 10 {
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Close()
	pool.Close()

	if counter.Load() != 10 {
		t.Errorf("counter after Close = %d, want 10", counter.Load())
	}
	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}

	pool.Submit(func() { counter.Add(1) })
	if counter.Load() != 11 {
		t.Errorf("Submit after Close did not run inline: counter = %d", counter.Load())
	}
}
