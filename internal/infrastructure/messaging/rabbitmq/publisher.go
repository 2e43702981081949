package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/authlane/auth-server/internal/application/auth"
)

const (
	DefaultExchange = "auth.events"

	RoutingUserRegistered = "auth.user.registered"
	RoutingUserLoggedIn   = "auth.user.logged_in"
	RoutingUserLoggedOut  = "auth.user.logged_out"

	// Upper bound on waiting for a broker confirm.
	publishWait = 2 * time.Second

	defaultDialTimeout  = 5 * time.Second
	defaultRetryBackoff = 5 * time.Second
	defaultQueueSize    = 256
)

var (
	ErrQueueFull       = errors.New("rabbitmq: publish queue full, event dropped")
	ErrPublisherClosed = errors.New("rabbitmq: publisher closed")
	errBrokerBackoff   = errors.New("rabbitmq: broker unavailable, waiting before redial")
)

type outbound struct {
	key string
	msg amqp.Publishing
}

// Publisher sends auth lifecycle events to a durable topic exchange with
// publisher confirms. Events carry no secrets.
//
// Publish calls only enqueue. A single background worker owns the
// connection, so a slow or silent broker never holds up a request.
type Publisher struct {
	url      string
	exchange string
	log      zerolog.Logger

	dialTimeout  time.Duration
	retryBackoff time.Duration

	mu     sync.RWMutex // guards closed against sends on queue
	closed bool
	queue  chan outbound
	done   chan struct{}

	// owned by the worker once run starts
	conn      *amqp.Connection
	ch        *amqp.Channel
	confirmCh <-chan amqp.Confirmation
	retryAt   time.Time
}

func newPublisher(url, exchange string, lg zerolog.Logger, queueSize int) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Publisher{
		url:          url,
		exchange:     exchange,
		log:          lg.With().Str("component", "rabbitmq_publisher").Logger(),
		dialTimeout:  defaultDialTimeout,
		retryBackoff: defaultRetryBackoff,
		queue:        make(chan outbound, queueSize),
		done:         make(chan struct{}),
	}
}

// NewPublisher dials the broker once (bounded by a dial timeout) so a bad
// RABBIT_URL fails startup, then starts the delivery worker.
func NewPublisher(url, exchange string, lg zerolog.Logger) (*Publisher, error) {
	p := newPublisher(url, exchange, lg, defaultQueueSize)

	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	p.start()
	return p, nil
}

func (p *Publisher) start() {
	go p.run()
}

// Close stops accepting events, lets the worker drain what is queued and
// closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return nil
}

// ---- auth.EventPublisher ----

func (p *Publisher) PublishUserRegistered(ctx context.Context, evt auth.UserRegisteredEvent) error {
	return p.publishJSON(ctx, RoutingUserRegistered, evt)
}

func (p *Publisher) PublishUserLoggedIn(ctx context.Context, evt auth.UserLoggedInEvent) error {
	return p.publishJSON(ctx, RoutingUserLoggedIn, evt)
}

func (p *Publisher) PublishUserLoggedOut(ctx context.Context, evt auth.UserLoggedOutEvent) error {
	return p.publishJSON(ctx, RoutingUserLoggedOut, evt)
}

// ---- internal ----

func buildPublishing(payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payload: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildPublishing(payload, time.Now().UTC())
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- outbound{key: routingKey, msg: msg}:
		return nil
	default:
		return fmt.Errorf("%w: key=%s", ErrQueueFull, routingKey)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	defer p.resetConn()

	for m := range p.queue {
		if err := p.deliver(m); err != nil {
			p.log.Warn().Err(err).Str("routing_key", m.key).Msg("event delivery failed")
		}
	}
}

func (p *Publisher) deliver(m outbound) error {
	if err := p.ensureConnected(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishWait)
	defer cancel()

	// Drain any stale confirms to avoid mixing results.
drain:
	for {
		select {
		case <-p.confirmCh:
		default:
			break drain
		}
	}

	// Not mandatory: events with no bound consumer are dropped by the broker.
	if err := p.ch.PublishWithContext(ctx, p.exchange, m.key, false, false, m.msg); err != nil {
		p.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	select {
	case conf, ok := <-p.confirmCh:
		if !ok {
			p.resetConn()
			return fmt.Errorf("rabbitmq channel closed: key=%s", m.key)
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", m.key, conf.DeliveryTag)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rabbitmq publish timeout: key=%s: %w", m.key, ctx.Err())
	}
}

// ensureConnected redials at most once per retryBackoff.
func (p *Publisher) ensureConnected() error {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil {
		return nil
	}
	p.resetConn()

	if time.Now().Before(p.retryAt) {
		return errBrokerBackoff
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	if err := p.connect(ctx); err != nil {
		p.retryAt = time.Now().Add(p.retryBackoff)
		return err
	}
	return nil
}

// dialContext bounds both the TCP connect and the AMQP handshake by ctx.
// amqp091 clears the conn deadline once the connection is open.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}

func (p *Publisher) connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      dialContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	// Declare topic exchange (idempotent).
	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
