package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/danyaljj/nlpstack/nlpstack-golib/errors"
)

// Job is a unit of work run by the Pool
type Job func() error

// Pool runs jobs on at most a fixed number of goroutines. Workers are started
// on demand by Add and exit once the queue drains, so an idle Pool holds no
// goroutines.
type Pool struct {
	ctx  context.Context
	size int

	m       sync.Mutex
	queue   []Job
	running int
	stopped bool
	err     errors.Errors

	wg sync.WaitGroup
}

// New returns a Pool that runs at most size jobs concurrently
func New(size int) *Pool {
	return NewWithCtx(context.Background(), size)
}

// NewWithCtx is like New, but queued jobs are dropped once ctx is done
func NewWithCtx(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		ctx:  ctx,
		size: size,
	}
}

// Add queues jobs for execution. Jobs added after Stop are ignored.
func (p *Pool) Add(jobs []Job) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.stopped {
		return
	}
	p.queue = append(p.queue, jobs...)
	for p.running < p.size && p.running < len(p.queue) {
		p.running++
		p.wg.Add(1)
		go p.work()
	}
}

// Stop removes any jobs that have not started yet. Jobs already running are
// not interrupted; use Wait to block until they are done.
func (p *Pool) Stop() {
	p.m.Lock()
	defer p.m.Unlock()
	p.stopped = true
	p.queue = nil
}

// Wait blocks until every started job has returned and the queue is empty,
// then returns the combined errors of all failed jobs.
func (p *Pool) Wait() error {
	p.wg.Wait()
	return p.Err()
}

// Err returns the errors collected so far, or nil
func (p *Pool) Err() error {
	p.m.Lock()
	defer p.m.Unlock()
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		if err := run(job); err != nil {
			p.m.Lock()
			p.err = errors.Append(p.err, err)
			p.m.Unlock()
		}
	}
}

func (p *Pool) next() (Job, bool) {
	p.m.Lock()
	defer p.m.Unlock()
	if !p.stopped {
		if err := p.ctx.Err(); err != nil {
			p.err = errors.Append(p.err, errors.Wrapf(err, "%d queued jobs dropped", len(p.queue)))
			p.stopped = true
			p.queue = nil
		}
	}
	if p.stopped || len(p.queue) == 0 {
		p.running--
		return nil, false
	}
	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return job, true
}

func run(job Job) (err error) {
	defer func() {
		if ex := recover(); ex != nil {
			err = fmt.Errorf("job panicked: %v\n%s", ex, debug.Stack())
		}
	}()
	return job()
}
