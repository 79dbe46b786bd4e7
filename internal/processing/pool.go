// Package processing runs long video analyses on a bounded pool, off the request path.
package processing

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"
)

var ErrPoolClosed = errors.New("processing pool is shut down")

type Runner interface {
	Run(ctx context.Context, process func(ctx context.Context) error) error
}

// Pool bounds concurrent runs and gives each one a deadline. Run blocks the caller until
// its process finishes or the caller's context ends; in the latter case the process is
// cancelled and releases its slot when it returns.
type Pool struct {
	wg      sizedwaitgroup.SizedWaitGroup
	timeout time.Duration
	closed  atomic.Bool
}

func NewPool(maxConcurrent int, timeout time.Duration) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{
		wg:      sizedwaitgroup.New(maxConcurrent),
		timeout: timeout,
	}
}

func (p *Pool) Run(ctx context.Context, process func(ctx context.Context) error) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.wg.AddWithContext(ctx); err != nil {
		return err
	}
	// Shutdown may have started while this caller queued for a slot.
	if p.closed.Load() {
		p.wg.Done()
		return ErrPoolClosed
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	done := make(chan error, 1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		done <- p.safeRun(runCtx, process)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("processing timed out after %v: %w", p.timeout, err)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) safeRun(ctx context.Context, process func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered panic in processing run: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("processing panicked: %v", r)
		}
	}()
	return process(ctx)
}

// Shutdown stops accepting runs and waits for in-flight ones until ctx ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.closed.Store(true)

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Info("Processing pool drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("processing pool did not drain: %w", ctx.Err())
	}
}
