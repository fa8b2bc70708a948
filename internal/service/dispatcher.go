package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// dispatcher runs detached background jobs. Callers never wait on a job;
// the semaphore bounds how many run at once and each job gets its own
// deadline, independent of the request that spawned it. The deadline starts
// once the job holds a slot, so queueing does not eat into it.
type dispatcher struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *zap.Logger
}

func newDispatcher(concurrency int, timeout time.Duration, logger *zap.Logger) *dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &dispatcher{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		logger:  logger,
	}
}

// Go starts job in the background and returns immediately.
func (d *dispatcher) Go(name string, job func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			d.logger.Warn("dispatch slot not acquired", zap.String("job", name), zap.Error(err))
			return
		}
		defer d.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch job panicked", zap.String("job", name), zap.Any("panic", r))
			}
		}()

		job(ctx)
	}()
}

// Drain waits for in-flight jobs until ctx is done.
func (d *dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
