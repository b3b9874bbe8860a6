package parallel

import (
	"runtime"
	"sync"
)

type (
	TaskFunc   func() error
	WorkerFunc func(TaskFunc)
	WaitFunc   func(done bool) error
	CancelFunc func()
)

// Pool runs tasks on a fixed number of workers. A task failure does not
// stop the other workers; the first error is kept and returned from Wait
// after all in-flight tasks drain.
type Pool struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	err    error
	Do     WorkerFunc
	Wait   WaitFunc
	Cancel CancelFunc
}

func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{}
	pool.Do = func(f TaskFunc) {
		pool.record(f())
	}
	pool.Wait = func(bool) error {
		return pool.firstErr()
	}
	pool.Cancel = func() {}

	if numWorkers > 1 {
		workChan := make(chan TaskFunc, numWorkers)

		for i := 0; i < numWorkers; i++ {
			pool.wg.Add(1)
			go func() {
				defer pool.wg.Done()
				for {
					f, ok := <-workChan
					if !ok {
						return
					}
					pool.record(f())
				}
			}()
		}

		pool.Do = func(f TaskFunc) {
			workChan <- f
		}

		pool.Wait = func(done bool) error {
			if done {
				pool.Cancel()
			}
			pool.wg.Wait()
			return pool.firstErr()
		}
		pool.Cancel = sync.OnceFunc(func() { close(workChan) })
	}

	return pool
}

func (p *Pool) record(err error) {
	if err == nil {
		return
	}
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *Pool) firstErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
