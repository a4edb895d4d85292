package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/homechain/internal/platform/timeouts"
	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrPublishNacked indicates the broker refused a message.
	ErrPublishNacked = errors.New("broker nacked publish")
	// ErrConfirmTimeout indicates the broker did not confirm in time.
	ErrConfirmTimeout = errors.New("publish confirmation timed out")
	// ErrPublisherClosed indicates the channel is gone.
	ErrPublisherClosed = errors.New("publisher closed")
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPConfig configures the RabbitMQ publisher.
type AMQPConfig struct {
	URL            string        `env:"URL"`
	Exchange       string        `env:"EXCHANGE" envDefault:"homechain.events"`
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"5s"`
	// BreakerFailures consecutive failures open the circuit for BreakerTimeout.
	BreakerFailures uint32        `env:"BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`
}

// AMQPPublisher publishes events to a topic exchange. The routing key is the
// event type, so consumers can bind on "property.*" or "mortgage.#".
type AMQPPublisher struct {
	exchange       string
	confirmTimeout time.Duration
	breaker        *gobreaker.CircuitBreaker
	logger         *zap.Logger

	// publishMu keeps confirms in publish order.
	publishMu   sync.Mutex
	ch          Channel
	confirms    chan amqp.Confirmation
	conn        *amqp.Connection
	openChannel func() (Channel, error)
	closed      bool
}

var _ event.Bus = (*AMQPPublisher)(nil)

// DialAMQP connects to the broker and returns a confirming publisher.
func DialAMQP(cfg AMQPConfig, logger *zap.Logger) (*AMQPPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("amqp url is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	pub, err := NewAMQPPublisher(ch, cfg, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	pub.conn = conn
	pub.openChannel = func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return pub, nil
}

// NewAMQPPublisher declares the exchange on ch and enables confirm mode.
func NewAMQPPublisher(ch Channel, cfg AMQPConfig, logger *zap.Logger) (*AMQPPublisher, error) {
	if ch == nil {
		return nil, errors.New("amqp channel is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		return nil, errors.New("amqp exchange is required")
	}
	confirms, err := prepareChannel(ch, exchange)
	if err != nil {
		return nil, err
	}
	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = timeouts.Publish
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	pub := &AMQPPublisher{
		exchange:       exchange,
		confirmTimeout: confirmTimeout,
		logger:         logger,
		ch:             ch,
		confirms:       confirms,
	}
	pub.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "amqp:" + exchange,
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("event bus circuit changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return pub, nil
}

// prepareChannel declares the exchange on ch and switches it to confirm mode.
func prepareChannel(ch Channel, exchange string) (chan amqp.Confirmation, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	return ch.NotifyPublish(make(chan amqp.Confirmation, 64)), nil
}

// Publish sends events in order, stopping at the first failure. Once the
// breaker opens, calls fail fast with gobreaker.ErrOpenState.
func (p *AMQPPublisher) Publish(ctx context.Context, events ...event.Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, evt := range events {
		if _, err := p.breaker.Execute(func() (any, error) {
			return nil, p.publishOne(ctx, evt)
		}); err != nil {
			return fmt.Errorf("publish %s seq=%d: %w", evt.Type, evt.Seq, err)
		}
	}
	return nil
}

// State reports the breaker state for health checks.
func (p *AMQPPublisher) State() gobreaker.State {
	return p.breaker.State()
}

func (p *AMQPPublisher) publishOne(ctx context.Context, evt event.Event) error {
	body, err := json.Marshal(NewMessage(evt))
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     evt.ID,
		CorrelationId: evt.CorrelationID,
		Timestamp:     evt.Timestamp.UTC(),
		Type:          string(evt.Type),
		Headers: amqp.Table{
			"entity_type": evt.EntityType,
			"entity_id":   evt.EntityID,
			"seq":         int64(evt.Seq),
		},
		Body: body,
	}

	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, string(evt.Type), false, false, msg); err != nil {
		return err
	}

	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()
	select {
	case confirmed, ok := <-p.confirms:
		if !ok {
			return ErrPublisherClosed
		}
		if !confirmed.Ack {
			return fmt.Errorf("%w: delivery_tag=%d", ErrPublishNacked, confirmed.DeliveryTag)
		}
		return nil
	case <-timer.C:
		p.invalidateChannel()
		return ErrConfirmTimeout
	case <-ctx.Done():
		p.invalidateChannel()
		return ctx.Err()
	}
}

// ensureChannel reopens a channel dropped by invalidateChannel. Callers hold
// publishMu.
func (p *AMQPPublisher) ensureChannel() error {
	if p.ch != nil {
		return nil
	}
	if p.closed || p.openChannel == nil {
		return ErrPublisherClosed
	}
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("reopen amqp channel: %w", err)
	}
	confirms, err := prepareChannel(ch, p.exchange)
	if err != nil {
		_ = ch.Close()
		return err
	}
	p.ch, p.confirms = ch, confirms
	return nil
}

// invalidateChannel drops a channel whose confirm stream still owes an
// answer for an abandoned publish. A late confirm would otherwise be read as
// the answer to the next message. Callers hold publishMu.
func (p *AMQPPublisher) invalidateChannel() {
	if p.ch == nil {
		return
	}
	if err := p.ch.Close(); err != nil {
		p.logger.Warn("close amqp channel", zap.Error(err))
	}
	p.ch, p.confirms = nil, nil
}

// Close closes the channel and, when dialed, the connection.
func (p *AMQPPublisher) Close() error {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	p.closed = true
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
