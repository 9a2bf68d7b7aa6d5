// Package amqp publishes and consumes expense change events over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *slog.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

// NewClient dials url and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       slog.Default().With("component", "amqp"),
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// ensureChannel returns the open channel, reconnecting when the previous
// connection was lost.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch, c.exchangeName, c.queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn, c.channel = conn, ch
	return ch, nil
}

func declare(ch *amqp091.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// direct exchange: the queue name doubles as routing key
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishExpenseEvent sends ev as a persistent JSON message. It fails fast
// while the circuit breaker is open.
func (c *Client) PublishExpenseEvent(ctx context.Context, ev ExpenseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, dropping %s for expense %d", ev.Type, ev.ExpenseID)
	}

	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    ev.ID.String(),
		Type:         string(ev.Type),
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish event: %w", err)
	}
	c.recordSuccess()

	c.log().DebugContext(ctx, "Published expense event",
		"event_id", ev.ID,
		"type", ev.Type,
		"expense_id", ev.ExpenseID)
	return nil
}

// ConsumeExpenseEvents delivers events to handler until ctx is done.
// Malformed bodies are dropped; handler errors requeue the message. Lost
// connections are re-established with exponential backoff.
func (c *Client) ConsumeExpenseEvents(ctx context.Context, handler func(context.Context, ExpenseEvent) error) error {
	for attempt := 0; ; attempt++ {
		err := c.consumeOnce(ctx, handler, func() { attempt = -1 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) && !errors.Is(err, errDeliveriesClosed) {
			return err
		}

		wait := exponentialBackoff(attempt)
		c.log().WarnContext(ctx, "AMQP consumer disconnected, retrying", "error", err, "backoff", wait)
		c.reset()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

var errDeliveriesClosed = errors.New("delivery channel closed")

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, ExpenseEvent) error, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()
	c.log().InfoContext(ctx, "Consuming expense events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			process(ctx, c.log(), d.Body, d.Redelivered, d, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process requeues a failed event once. A redelivered failure is dropped
// so a persistent error cannot spin the consumer.
func process(ctx context.Context, logger *slog.Logger, body []byte, redelivered bool, ack acknowledger, handler func(context.Context, ExpenseEvent) error) {
	ev, err := ExpenseEventFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Dropping malformed event", "error", err)
		ack.Nack(false, false)
		return
	}
	if err := handler(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to handle event",
			"error", err,
			"event_id", ev.ID,
			"type", ev.Type,
			"expense_id", ev.ExpenseID,
			"requeue", !redelivered)
		ack.Nack(false, !redelivered)
		return
	}
	ack.Ack(false)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()

	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.log().Warn("AMQP circuit breaker opened", "failures", n)
		}
	}
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
