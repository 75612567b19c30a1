// Package sagas runs multi-stage workflows whose stages talk to external
// collaborators. A failing stage stops the run, and the stages that already
// completed are compensated in reverse order.
package sagas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single stage of a saga. Execute receives the output of the
// previous step. Compensate, when set, undoes the step's effect and receives
// the step's own output.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
	// Retryable decides whether a failed attempt may be repeated. Nil means
	// every error except context cancellation is retried.
	Retryable func(err error) bool
}

// State represents the current state of a saga execution
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// StepError reports which step failed
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Saga orchestrates a series of steps with compensation logic. A Saga is
// single use and not safe for concurrent Execute calls.
type Saga struct {
	id            string
	name          string
	steps         []Step
	compensations []func(ctx context.Context) error
	state         State
	currentStep   int
	logger        *zap.Logger
}

// New creates a new saga instance
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{
		id:     uuid.NewString(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Step appends a step without compensation or retries
func (s *Saga) Step(name string, execute func(context.Context, interface{}) (interface{}, error)) *Saga {
	return s.AddStep(Step{Name: name, Execute: execute})
}

// Execute runs every step in order and returns the last step's output. On
// failure the returned error is a *StepError.
func (s *Saga) Execute(ctx context.Context, input interface{}) (interface{}, error) {
	s.state = StateRunning
	s.logger.Debug("Starting saga execution",
		zap.String("saga_id", s.id),
		zap.String("saga_name", s.name),
		zap.Int("total_steps", len(s.steps)),
	)

	data := input
	for i, step := range s.steps {
		s.currentStep = i
		start := time.Now()

		result, err := s.executeWithRetry(ctx, step, data)
		if err != nil {
			s.logger.Warn("Saga step failed",
				zap.String("saga_id", s.id),
				zap.String("saga_name", s.name),
				zap.String("step_name", step.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			s.state = StateFailed
			// Compensation must run even when the caller has gone away
			s.compensate(context.WithoutCancel(ctx))
			return nil, &StepError{Step: step.Name, Err: err}
		}

		if step.Compensate != nil {
			step, output := step, result
			s.compensations = append(s.compensations, func(ctx context.Context) error {
				return step.Compensate(ctx, output)
			})
		}

		s.logger.Debug("Saga step completed",
			zap.String("saga_id", s.id),
			zap.String("step_name", step.Name),
			zap.Duration("elapsed", time.Since(start)),
		)
		data = result
	}

	s.state = StateCompleted
	return data, nil
}

func (s *Saga) executeWithRetry(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	retryable := step.Retryable
	if retryable == nil {
		retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay * time.Duration(1<<(attempt-1))):
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

// compensate runs compensations in reverse order. A failing compensation is
// logged and the remaining ones still run.
func (s *Saga) compensate(ctx context.Context) {
	if len(s.compensations) == 0 {
		return
	}
	s.state = StateCompensating
	for i := len(s.compensations) - 1; i >= 0; i-- {
		if err := s.compensations[i](ctx); err != nil {
			s.logger.Error("Compensation failed",
				zap.String("saga_id", s.id),
				zap.Int("step_number", i+1),
				zap.Error(err),
			)
		}
	}
	s.state = StateCompensated
}

// State returns the current state of the saga
func (s *Saga) State() State {
	return s.state
}

// ID returns the saga ID
func (s *Saga) ID() string {
	return s.id
}

// CurrentStep returns the index of the step running or last run
func (s *Saga) CurrentStep() int {
	return s.currentStep
}
