package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"trello-project/microservices/assignment-service/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// step is one secondary write of a cascade. A nil breaker means the
// runner's default breaker.
type step struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	run     func(ctx context.Context) error
}

// cascade is one operation's queued steps.
type cascade struct {
	id        string
	operation string
	ctx       context.Context
	steps     []step
}

// cascadeRunner applies best-effort cascades in the order they were
// issued, on a single worker goroutine that lives while the queue is
// non-empty. Failures are logged and never reported back to the caller.
type cascadeRunner struct {
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *logrus.Logger

	mu      sync.Mutex
	queue   []cascade
	running bool
	wg      sync.WaitGroup
}

func newBreaker(name string, timeout time.Duration, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// A record that vanished under a concurrent delete says nothing
		// about the health of the store.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, repositories.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func newCascadeRunner(timeout time.Duration, logger *logrus.Logger) *cascadeRunner {
	return &cascadeRunner{
		breaker: newBreaker("cascade-cb", 5*time.Second, logger),
		timeout: timeout,
		logger:  logger,
	}
}

// Go queues the steps behind every cascade issued before it and returns
// without waiting. The steps run detached from the cancellation of ctx. A
// failing step does not stop the ones after it.
func (r *cascadeRunner) Go(ctx context.Context, operation string, steps ...step) {
	if len(steps) == 0 {
		return
	}

	c := cascade{
		id:        uuid.NewString(),
		operation: operation,
		ctx:       context.WithoutCancel(ctx),
		steps:     steps,
	}

	r.wg.Add(1)
	r.mu.Lock()
	r.queue = append(r.queue, c)
	if !r.running {
		r.running = true
		go r.drain()
	}
	r.mu.Unlock()
}

func (r *cascadeRunner) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.running = false
			r.mu.Unlock()
			return
		}
		c := r.queue[0]
		r.queue[0] = cascade{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.run(c)
		r.wg.Done()
	}
}

func (r *cascadeRunner) run(c cascade) {
	ctx, cancel := context.WithTimeout(c.ctx, r.timeout)
	defer cancel()

	for _, s := range c.steps {
		r.execute(ctx, c.id, c.operation, s)
	}
}

func (r *cascadeRunner) execute(ctx context.Context, cascadeID, operation string, s step) {
	breaker := s.breaker
	if breaker == nil {
		breaker = r.breaker
	}

	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, s.run(ctx)
	})

	entry := r.logger.WithFields(logrus.Fields{
		"cascade":   cascadeID,
		"operation": operation,
		"step":      s.name,
	})
	switch {
	case err == nil:
		entry.Debug("Event ID: CASCADE_STEP_DONE, Description: cascade step applied")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		entry.Warnf("Event ID: CASCADE_STEP_SKIPPED, Description: circuit breaker '%s' rejected step: %v", breaker.Name(), err)
	default:
		entry.Errorf("Event ID: CASCADE_STEP_FAILED, Description: cascade step failed and will not be retried: %v", err)
	}
}

// Wait blocks until the queue is empty and the last cascade has finished.
func (r *cascadeRunner) Wait() {
	r.wg.Wait()
}
