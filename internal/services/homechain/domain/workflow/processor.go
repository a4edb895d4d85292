package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/homechain/internal/platform/id"
	"github.com/louisbranch/homechain/internal/platform/logging"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/command"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/louisbranch/homechain/workflow"

// Outcome labels a processed transaction for metrics.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Observer records processed transactions by type and outcome.
type Observer interface {
	ObserveTransaction(transactionType, outcome string, elapsed time.Duration)
}

// Result is what a committed transaction produced.
type Result struct {
	Events []event.Event
}

// Processor validates, decides, persists, and publishes transactions.
type Processor struct {
	registries Registries
	store      storage.Store
	bus        event.Bus
	observer   Observer
	logger     *zap.Logger
	tracer     trace.Tracer
	clock      func() time.Time
	newID      func() (string, error)
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(observer Observer) Option {
	return func(p *Processor) {
		p.observer = observer
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewProcessor builds a processor over store and bus.
func NewProcessor(store storage.Store, bus event.Bus, opts ...Option) (*Processor, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	registries, err := BuildRegistries()
	if err != nil {
		return nil, err
	}
	p := &Processor{
		registries: registries,
		store:      store,
		bus:        bus,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		clock:      time.Now,
		newID:      id.NewID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Registries exposes the command and event registries.
func (p *Processor) Registries() Registries {
	return p.registries
}

// Submit wraps tx in a command envelope and processes it.
func (p *Processor) Submit(ctx context.Context, tx Transaction, actorType command.ActorType, actorID string) (Result, error) {
	cmd, err := NewCommand(tx, actorType, actorID)
	if err != nil {
		return Result{}, err
	}
	return p.Process(ctx, cmd)
}

// Process runs one transaction as a single unit of work. Either the entity
// updates and journal entries all commit or nothing does. Events are
// published only after the commit; a publish failure leaves them in the
// journal for the outbox relay and does not fail the transaction.
func (p *Processor) Process(ctx context.Context, cmd command.Command) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := p.clock()
	ctx, span := p.tracer.Start(ctx, "workflow.Process", trace.WithAttributes(
		attribute.String("homechain.transaction.type", string(cmd.Type)),
		attribute.String("homechain.actor.type", string(cmd.ActorType)),
	))
	defer span.End()

	result, err := p.process(ctx, cmd, start)
	outcome := outcomeOf(err)
	elapsed := p.clock().Sub(start)
	if p.observer != nil {
		p.observer.ObserveTransaction(string(cmd.Type), string(outcome), elapsed)
	}

	logger := logging.WithTrace(ctx, p.logger).With(
		zap.String("type", string(cmd.Type)),
		zap.String("actor_type", string(cmd.ActorType)),
		zap.String("actor_id", cmd.ActorID),
		zap.String("request_id", cmd.RequestID),
		zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", elapsed),
	)
	span.SetAttributes(attribute.String("homechain.transaction.outcome", string(outcome)))
	if err != nil {
		if outcome == OutcomeFailed {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("transaction failed", zap.Error(err))
		} else {
			logger.Info("transaction declined", zap.String("reason", err.Error()))
		}
		return Result{}, err
	}
	logger.Info("transaction processed", zap.Int("events", len(result.Events)))
	return result, nil
}

func (p *Processor) process(ctx context.Context, cmd command.Command, now time.Time) (Result, error) {
	validated, err := p.registries.Commands.ValidateForDecision(cmd)
	if err != nil {
		return Result{}, err
	}
	tx, err := Decode(validated)
	if err != nil {
		return Result{}, err
	}

	var committed []event.Event
	err = p.store.Transact(ctx, func(ctx context.Context, regs storage.Registries) error {
		s, decision, err := resolve(ctx, regs, validated, tx, now)
		if err != nil {
			return err
		}
		if decision.Rejected() {
			r := decision.Rejections[0]
			return &PreconditionError{Code: r.Code, Reason: r.Message, Metadata: r.Metadata}
		}
		if len(decision.Events) == 0 {
			return fmt.Errorf("%w: %s emitted no events", ErrInternal, validated.Type)
		}

		events := make([]event.Event, 0, len(decision.Events))
		for _, decided := range decision.Events {
			evt, err := p.registries.Events.ValidateForAppend(decided)
			if err != nil {
				return fmt.Errorf("%w: validate %s: %w", ErrInternal, decided.Type, err)
			}
			if err := s.fold(evt); err != nil {
				return fmt.Errorf("%w: %w", ErrInternal, err)
			}
			if evt.ID, err = p.newID(); err != nil {
				return err
			}
			events = append(events, evt)
		}
		if err := s.persist(ctx, regs); err != nil {
			return err
		}
		appended, err := regs.AppendEvents(ctx, events...)
		if err != nil {
			return &StoreError{Op: "append events", Err: err}
		}
		committed = appended
		return nil
	})
	if err != nil {
		if known(err) {
			return Result{}, err
		}
		return Result{}, &StoreError{Op: "transact", Err: err}
	}

	p.publish(ctx, committed)
	return Result{Events: committed}, nil
}

func (p *Processor) publish(ctx context.Context, events []event.Event) {
	if len(events) == 0 {
		return
	}
	logger := logging.WithTrace(ctx, p.logger)
	if err := p.bus.Publish(ctx, events...); err != nil {
		logger.Warn("publish deferred to outbox", zap.Error(err), zap.Int("events", len(events)))
		return
	}
	seqs := make([]uint64, 0, len(events))
	for _, evt := range events {
		seqs = append(seqs, evt.Seq)
	}
	if err := p.store.MarkPublished(ctx, p.clock().UTC(), seqs...); err != nil {
		logger.Warn("mark published", zap.Error(err))
	}
}

// known reports whether err already carries a workflow classification.
func known(err error) bool {
	var storeErr *StoreError
	return IsNonRetryable(err) || errors.As(err, &storeErr)
}

func outcomeOf(err error) Outcome {
	var notFound *NotFoundError
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, ErrPreconditionViolation):
		return OutcomeRejected
	case errors.As(err, &notFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInternal):
		return OutcomeFailed
	case IsNonRetryable(err):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
