package sagas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaga_PassesOutputsAlong(t *testing.T) {
	saga := New("resume", zap.NewNop()).
		Step("double", func(ctx context.Context, data interface{}) (interface{}, error) {
			return data.(int) * 2, nil
		}).
		Step("increment", func(ctx context.Context, data interface{}) (interface{}, error) {
			return data.(int) + 1, nil
		})

	result, err := saga.Execute(context.Background(), 20)

	require.NoError(t, err)
	assert.Equal(t, 41, result)
	assert.Equal(t, StateCompleted, saga.State())
	assert.Equal(t, 1, saga.CurrentStep())
	assert.NotEmpty(t, saga.ID())
}

func TestSaga_CompensatesCompletedStepsInReverse(t *testing.T) {
	var undone []string
	upstream := errors.New("model unavailable")

	saga := New("resume", zap.NewNop()).
		AddStep(Step{
			Name:    "upload",
			Execute: func(ctx context.Context, data interface{}) (interface{}, error) { return "ref-1", nil },
			Compensate: func(ctx context.Context, data interface{}) error {
				undone = append(undone, "upload:"+data.(string))
				return nil
			},
		}).
		AddStep(Step{
			Name:    "index",
			Execute: func(ctx context.Context, data interface{}) (interface{}, error) { return "idx-1", nil },
			Compensate: func(ctx context.Context, data interface{}) error {
				undone = append(undone, "index:"+data.(string))
				return errors.New("compensation failures are logged")
			},
		}).
		Step("transform", func(ctx context.Context, data interface{}) (interface{}, error) {
			return nil, upstream
		})

	_, err := saga.Execute(context.Background(), nil)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "transform", stepErr.Step)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, []string{"index:idx-1", "upload:ref-1"}, undone)
	assert.Equal(t, StateCompensated, saga.State())
}

func TestSaga_Retries(t *testing.T) {
	transient := errors.New("timeout")
	permanent := errors.New("bad input")

	tests := []struct {
		name      string
		failures  []error
		retryable func(error) bool
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds after transient failures", failures: []error{transient, transient}, wantCalls: 3},
		{name: "gives up after max retries", failures: []error{transient, transient, transient, transient}, wantCalls: 3, wantErr: transient},
		{
			name:      "permanent errors are not retried",
			failures:  []error{permanent},
			retryable: func(err error) bool { return !errors.Is(err, permanent) },
			wantCalls: 1,
			wantErr:   permanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			saga := New("retry", zap.NewNop()).AddStep(Step{
				Name:       "download",
				MaxRetries: 3,
				RetryDelay: time.Millisecond,
				Retryable:  tt.retryable,
				Execute: func(ctx context.Context, data interface{}) (interface{}, error) {
					calls++
					if calls <= len(tt.failures) {
						return nil, tt.failures[calls-1]
					}
					return "ok", nil
				},
			})

			result, err := saga.Execute(context.Background(), nil)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, StateFailed, saga.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", result)
		})
	}
}

func TestSaga_StopsRetryingWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	saga := New("cancel", zap.NewNop()).AddStep(Step{
		Name:       "download",
		MaxRetries: 5,
		RetryDelay: time.Hour,
		Execute: func(ctx context.Context, data interface{}) (interface{}, error) {
			calls++
			cancel()
			return nil, errors.New("timeout")
		},
	})

	_, err := saga.Execute(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
