// Package booking implements exam schedule reservations: the reservation
// state machine, the capacity guard that owns schedule counters, and the
// booking window policy.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/exam-reservation/internal/logging"
)

// Actor is the authenticated identity a request runs as.
type Actor struct {
	UserID    uint64
	Superuser bool
}

// Service exposes the booking operations.
type Service struct {
	store     Store
	policy    Policy
	guard     guard
	audit     Auditor
	logger    *slog.Logger
	now       func() time.Time
	txTimeout time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for booking window tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTxTimeout bounds every transaction the service opens.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) { s.txTimeout = d }
}

func NewService(store Store, policy Policy, opts ...Option) *Service {
	s := &Service{
		store:     store,
		policy:    policy,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		txTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = guard{now: s.now}
	return s
}

func (s *Service) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	pairs := append([]any{"service", "booking", "operation", operation}, attrs...)
	return logging.Or(ctx, s.logger).With(pairs...)
}

func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	return s.store.WithinTx(ctx, fn)
}

// logResult records the outcome of an operation. Business failures are
// expected traffic and logged at info.
func logResult(ctx context.Context, log *slog.Logger, err error) {
	if err == nil {
		return
	}
	if KindOf(err) == KindUnknown {
		log.ErrorContext(ctx, "operation failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	log.InfoContext(ctx, "operation rejected", "error", err, "error_kind", ErrorKind(err))
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, ev AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.ReservationChanged(context.WithoutCancel(ctx), ev); err != nil {
		log.WarnContext(ctx, "audit publish failed", "error", err, "reservation_id", ev.ReservationID)
	}
}
