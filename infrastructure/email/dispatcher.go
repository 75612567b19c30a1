package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"hirenest/application/ports"
	pkgerrors "hirenest/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DispatcherConfig tunes the background email dispatcher
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Outcome counts sent and dropped emails; observability.Collector satisfies it.
type Outcome interface {
	EmailSent(category string, err error)
	EmailDropped()
}

// Dispatcher delivers emails on background workers so that request
// handlers never wait on, or fail because of, email delivery. The result
// of every send is logged.
type Dispatcher struct {
	mailer  ports.Mailer
	breaker *gobreaker.CircuitBreaker
	cfg     DispatcherConfig
	logger  *zap.Logger
	outcome Outcome

	queue     chan ports.Email
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher starts cfg.Workers workers draining a queue of cfg.QueueSize
func NewDispatcher(mailer ports.Mailer, cfg DispatcherConfig, logger *zap.Logger, outcome Outcome) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		mailer:  mailer,
		breaker: newBreaker("email", logger),
		cfg:     cfg,
		logger:  logger,
		outcome: outcome,
		queue:   make(chan ports.Email, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

var _ ports.EmailQueue = (*Dispatcher)(nil)

// Enqueue schedules email for delivery. It never blocks; false means the
// queue was full or the dispatcher is closed and the email was dropped.
func (d *Dispatcher) Enqueue(email ports.Email) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Email dropped, dispatcher closed", zap.String("category", email.Category))
		return false
	}

	select {
	case d.queue <- email:
		return true
	default:
		d.logger.Warn("Email dropped, queue full",
			zap.String("category", email.Category),
			zap.Int("queueSize", d.cfg.QueueSize),
		)
		if d.outcome != nil {
			d.outcome.EmailDropped()
		}
		return false
	}
}

// Close stops accepting emails and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

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

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for email := range d.queue {
		d.deliver(email)
	}
}

func (d *Dispatcher) deliver(email ports.Email) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.mailer.Send(ctx, email)
	})
	if d.outcome != nil {
		d.outcome.EmailSent(email.Category, err)
	}

	if err != nil {
		fields := []zap.Field{
			zap.String("category", email.Category),
			zap.String("to", email.To),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.logger.Warn("Email skipped, circuit open", fields...)
			return
		}
		d.logger.Error("Email delivery failed", fields...)
		return
	}

	d.logger.Info("Email delivered",
		zap.String("category", email.Category),
		zap.String("to", email.To),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		// A malformed message says nothing about the health of the provider
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsValidation(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
