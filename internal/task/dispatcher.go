package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kenyilewis/imgtask/internal/platform/logger"
)

// ErrDispatcherStopped is returned by Dispatch once Stop has been called.
var ErrDispatcherStopped = errors.New("dispatcher is stopped")

// Dispatcher launches each job in its own goroutine without waiting for it.
// There is no queue and no bound on concurrent jobs; failed jobs are not
// retried.
type Dispatcher struct {
	logger *slog.Logger

	mu         sync.RWMutex
	stopped    bool
	errHandler func(job Job, err error)

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewDispatcher creates a Dispatcher whose default error handler logs.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "dispatcher"))

	return &Dispatcher{
		logger: log,
		errHandler: func(job Job, err error) {
			// Default error handler just logs the error
			log.Error("job execution failed",
				"job_id", job.ID(),
				"job_type", job.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (d *Dispatcher) SetErrorHandler(handler func(job Job, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errHandler = handler
}

// Dispatch starts job in the background and returns immediately. The job
// context keeps the values of ctx, including its logger, but is never
// cancelled with it.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) error {
	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		return ErrDispatcherStopped
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	jobCtx := context.WithoutCancel(ctx)
	d.inFlight.Add(1)
	go d.run(jobCtx, job)

	return nil
}

// InFlight returns the number of jobs currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Stop rejects new jobs and waits for running ones to finish or for ctx to
// be done, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d jobs: %w", d.InFlight(), ctx.Err())
	}
}

// run executes a single job and reports its failure.
func (d *Dispatcher) run(ctx context.Context, job Job) {
	defer d.wg.Done()
	defer d.inFlight.Add(-1)

	log := logger.FromContextOrDefault(ctx, d.logger).With(
		"job_id", job.ID(),
		"job_type", job.Type(),
	)

	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", "panic", p)
			d.handleError(job, fmt.Errorf("job panicked: %v", p))
		}
	}()

	log.Debug("job started")

	if err := job.Execute(ctx); err != nil {
		d.handleError(job, err)
		return
	}

	log.Debug("job finished")
}

func (d *Dispatcher) handleError(job Job, err error) {
	d.mu.RLock()
	handler := d.errHandler
	d.mu.RUnlock()

	if handler != nil {
		handler(job, err)
	}
}
