package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker guards an external dependency: after failureThreshold
// consecutive failures the circuit opens and calls are rejected until
// resetTimeout elapses, then a single probe call is allowed through.
type CircuitBreaker struct {
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	nextRetryTime    time.Time
	logger           *zap.Logger
	mu               sync.Mutex
}

func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		logger:           logger,
	}
}

// Allow reports whether a call may proceed, transitioning OPEN to
// HALF_OPEN once the reset timeout has passed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitStateClosed:
		return true
	case CircuitStateHalfOpen:
		return true
	case CircuitStateOpen:
		if time.Now().After(cb.nextRetryTime) {
			cb.transitionTo(CircuitStateHalfOpen)
			return true
		}
		return false
	}
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state != CircuitStateClosed {
		cb.transitionTo(CircuitStateClosed)
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateHalfOpen {
		cb.open()
		return
	}

	cb.failureCount++
	if cb.failureCount >= cb.failureThreshold {
		cb.open()
	}
}

func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) open() {
	cb.nextRetryTime = time.Now().Add(cb.resetTimeout)
	cb.failureCount = 0
	cb.transitionTo(CircuitStateOpen)
}

func (cb *CircuitBreaker) transitionTo(state CircuitState) {
	if cb.state == state {
		return
	}

	cb.logger.Info("Circuit state changed",
		zap.String("from", cb.state.String()),
		zap.String("to", state.String()),
	)
	cb.state = state
}
