// pool.go - worker pool and quiescence detector
//
// (c) 2024- Jorn I. Viken <jornv@1337.no>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package walker

import (
	"sync"

	"github.com/jornv/chowntree/internal/queue"
)

// Pool is a fixed-size worker pool draining a directory queue. It
// implements the termination protocol: a single mutex and condition variable guard (queue, the
// count of sleeping workers, a shutdown flag), replacing the
// original implementation's semaphore-plus-flag dance. Because it's
// a condition variable rather than a bounded semaphore, there is no
// wake-count to saturate; the "coalesced extra wakes" concern from
// the source this was ported from doesn't apply here.
type Pool struct {
	q *Walker // holds the actual queue + processes tasks

	mu       sync.Mutex
	cond     *sync.Cond
	sleeping int
	total    int
	shutdown bool

	wg sync.WaitGroup
}

// newPool builds a pool of nworkers goroutines that will drive w's
// queue until quiescence. nworkers <= 0 is invalid; callers clamp
// this at config time.
func newPool(w *Walker, nworkers int) *Pool {
	p := &Pool{
		q:     w,
		total: nworkers,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// push adds a task to the queue and wakes one sleeping worker, if
// any. Safe to call from any worker (a directory discovering
// subdirectories) or from the seeding step before Run.
func (p *Pool) push(t *Task) {
	p.q.q.Push(t)
	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}

// queueLen reports the current queue depth.
func (p *Pool) queueLen() int {
	return p.q.q.Len()
}

// singleWorker reports whether the pool has exactly one worker, in
// which case the inline threshold is treated as infinite (§4.4).
func (p *Pool) singleWorker() bool {
	return p.total == 1
}

// Run starts nworkers goroutines and blocks until every worker has
// observed quiescence and exited.
func (p *Pool) Run() {
	p.wg.Add(p.total)
	for i := 0; i < p.total; i++ {
		go func() {
			defer p.wg.Done()
			p.workerLoop()
		}()
	}
	p.wg.Wait()
}

func (p *Pool) workerLoop() {
	for {
		if t, ok := p.q.q.Pop(); ok {
			p.q.process(t, p)
			continue
		}

		p.mu.Lock()
		p.sleeping++
		if p.sleeping == p.total && p.q.q.Len() == 0 {
			// Every worker is idle and the queue is empty: no
			// worker is mid-directory, so no new task can appear.
			// This is quiescence; broadcast shutdown.
			p.shutdown = true
			p.cond.Broadcast()
		}

		for p.q.q.Len() == 0 && !p.shutdown {
			p.cond.Wait()
		}

		exit := p.shutdown && p.q.q.Len() == 0
		p.sleeping--
		p.mu.Unlock()

		if exit {
			return
		}
		// else: either real work arrived, or this worker woke
		// spuriously with the queue still non-empty; loop back
		// to Pop().
	}
}
