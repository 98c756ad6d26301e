// Package worker provides goroutine pool management.
//
// All request-handling and consumer-loop concurrency goes through a Pool
// rather than naked goroutines, so panics are recovered centrally and
// shutdown can wait for in-flight work to drain.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/makkalot/eskit/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection shared by the gateway.
type Pools struct {
	// Gateway bounds concurrent execution of inbound RPC handlers
	// (spec §5: a pool of worker threads, one request per worker).
	Gateway *Pool

	// serviceCtx is the service lifecycle context for detached tasks.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	GatewayPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{GatewayPoolSize: 100}
}

func panicHandler(p interface{}) {
	logger.Error("worker panic recovered",
		zap.Any("panic", p),
		zap.Stack("stack"),
	)
}

// NewPools creates the gateway worker pool collection.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	gatewayAnts, err := ants.NewPool(cfg.GatewayPoolSize,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	return &Pools{
		Gateway:       &Pool{pool: gatewayAnts, name: "gateway"},
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// NewSingle creates a single-capacity pool, used by
// internal/consumer's ApplicationLogConsumer.ConsumeAsync — the Go
// analogue of the original's ThreadPoolExecutor(max_workers=1).
func NewSingle(name string) (*Pool, error) {
	p, err := ants.NewPool(1, ants.WithPanicHandler(panicHandler), ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p, name: name}, nil
}

// Submit submits a context-aware task.
// The task receives the caller's context and should check ctx.Done() at
// blocking points. If the context is already cancelled, Submit returns
// ctx.Err() immediately without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			logger.Debug("task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
}

// Running returns the number of currently running goroutines in the pool.
func (p *Pool) Running() int { return p.pool.Running() }

// Free returns the number of available goroutine slots.
func (p *Pool) Free() int { return p.pool.Free() }

// Cap returns the pool's capacity.
func (p *Pool) Cap() int { return p.pool.Cap() }

// Release releases a standalone pool (e.g. one created with NewSingle)
// without waiting for running tasks to finish.
func (p *Pool) Release() {
	p.pool.Release()
}

// ReleaseTimeout releases a standalone pool, waiting up to timeout for
// running tasks to finish.
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}

// SubmitDetached submits a detached background task bound to the service
// lifecycle context instead of a request context. Use this for
// long-running background work that should survive request cancellation
// but still respect graceful shutdown.
func (p *Pools) SubmitDetached(task Task) error {
	return p.Gateway.pool.Submit(func() {
		select {
		case <-p.serviceCtx.Done():
			logger.Debug("detached task skipped: service shutting down")
			return
		default:
		}
		task(p.serviceCtx)
	})
}

// Shutdown gracefully shuts down the gateway pool with a timeout.
// Cancels the service context first, then waits for running tasks
// (max 30s).
func (p *Pools) Shutdown() {
	p.serviceCancel()

	const shutdownTimeout = 30 * time.Second
	if err := p.Gateway.pool.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("gateway pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns pool metrics for observability.
func (p *Pools) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"gateway": map[string]int{
			"running": p.Gateway.pool.Running(),
			"free":    p.Gateway.pool.Free(),
			"cap":     p.Gateway.pool.Cap(),
		},
	}
}
