package sim

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/aristath/colonyq/internal/config"
	"github.com/aristath/colonyq/internal/queue"
)

// BreakerRegistry manages per-task-type circuit breakers. A task type whose
// actions keep failing (a broken target, an unreachable room) trips its
// breaker, and further attempts of that type fail fast instead of burning the
// retry budget every tick.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates a new breaker registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given task type.
// Creates a new one if it doesn't exist.
func (r *BreakerRegistry) Get(taskType string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[taskType]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        taskType,
		MaxRequests: 3,                // Allow 3 test requests in half-open state
		Interval:    0,                // Don't clear counts automatically
		Timeout:     10 * time.Second, // Stay open before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Multi-tick work and cancellation are not action failures.
			if errors.Is(err, ErrStillWorking) {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	r.breakers[taskType] = cb
	return cb
}

// performWithRetry runs a creep action with exponential backoff retry and
// circuit breaker protection. ErrStillWorking is not retried: it is the
// action's way of yielding until the next tick.
func performWithRetry(ctx context.Context, action Action, creepID string, task *queue.Task, cb *gobreaker.CircuitBreaker, retryCfg config.RetryConfig) error {
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		_, err := cb.Execute(func() (interface{}, error) {
			return nil, action.Perform(ctx, creepID, task)
		})
		if err == nil {
			return nil
		}

		// Circuit is open - fail fast, no retries this tick.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrStillWorking) {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryCfg.InitialInterval()
	policy.MaxInterval = retryCfg.MaxInterval()
	policy.MaxElapsedTime = retryCfg.MaxElapsed()
	policy.Multiplier = retryCfg.Multiplier

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
