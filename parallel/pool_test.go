package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	for _, workers := range []int{1, 4, 16} {
		pool := Start(workers)

		var count atomic.Int64
		for i := 0; i < 100; i++ {
			pool.Do(func() error {
				count.Add(1)
				return nil
			})
		}

		if err := pool.Wait(true); err != nil {
			t.Fatalf("workers=%d: Wait returned %v", workers, err)
		}
		if count.Load() != 100 {
			t.Fatalf("workers=%d: ran %d tasks, want 100", workers, count.Load())
		}
	}
}

// A failing task must not stop its siblings; the error surfaces from Wait
// once everything has drained.
func TestPoolCollectsFirstError(t *testing.T) {
	boom := errors.New("boom")

	for _, workers := range []int{1, 4} {
		pool := Start(workers)

		var count atomic.Int64
		for i := 0; i < 50; i++ {
			pool.Do(func(fail bool) TaskFunc {
				return func() error {
					count.Add(1)
					if fail {
						return boom
					}
					return nil
				}
			}(i%10 == 3))
		}

		err := pool.Wait(true)
		if !errors.Is(err, boom) {
			t.Fatalf("workers=%d: Wait returned %v, want boom", workers, err)
		}
		if count.Load() != 50 {
			t.Fatalf("workers=%d: only %d tasks ran, failures must not cancel siblings", workers, count.Load())
		}
	}
}

func TestPoolDefaultWorkerCount(t *testing.T) {
	pool := Start(0)

	var count atomic.Int64
	for i := 0; i < 10; i++ {
		pool.Do(func() error {
			count.Add(1)
			return nil
		})
	}
	if err := pool.Wait(true); err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if count.Load() != 10 {
		t.Fatalf("ran %d tasks, want 10", count.Load())
	}
}
