package worker

import (
	"context"
	"sync"
)

// Task is one unit of work; it must honour ctx and always return a value
type Task[T any] func(ctx context.Context) T

// Pool runs tasks on a fixed number of goroutines and gathers their outputs.
// Outputs arrive in completion order, not submission order.
type Pool[T any] struct {
	workers int
	tasks   chan Task[T]
	outputs chan T

	collected chan struct{}
	gathered  []T

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool bound to ctx. Fewer than one worker means one.
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[T]{
		workers:   workers,
		tasks:     make(chan Task[T], workers*2),
		outputs:   make(chan T, workers*2),
		collected: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers and the collector
func (p *Pool[T]) Start() {
	go func() {
		defer close(p.collected)
		for out := range p.outputs {
			p.gathered = append(p.gathered, out)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool[T]) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.outputs <- task(p.ctx)
		}
	}
}

// Submit queues a task, blocking while the queue is full.
// It returns false once the pool has been cancelled.
func (p *Pool[T]) Submit(task Task[T]) bool {
	if p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- task:
		return true
	}
}

// Wait closes the queue, waits for queued tasks and returns every output
func (p *Pool[T]) Wait() []T {
	close(p.tasks)
	p.wg.Wait()
	p.closeOutputs()
	<-p.collected
	p.cancel()
	return p.gathered
}

// Shutdown cancels the pool without draining the queue
func (p *Pool[T]) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeOutputs()
	<-p.collected
}

func (p *Pool[T]) closeOutputs() {
	p.closeOnce.Do(func() {
		close(p.outputs)
	})
}
