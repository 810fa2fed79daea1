// Package queue contains the background consumer that listens to the
// reservation lifecycle queues and appends one line per event to
// <dir>/booking.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditLog appends reservation events to a plain text file.
type AuditLog struct {
	mu   sync.Mutex
	path string
}

// NewAuditLog returns an AuditLog writing to dir/booking.log.
func NewAuditLog(dir string) *AuditLog {
	if dir == "" {
		dir = "logs"
	}
	return &AuditLog{path: filepath.Join(dir, "booking.log")}
}

// Path returns the file the log writes to.
func (a *AuditLog) Path() string { return a.path }

// Append decodes a JSON ReservationEvent and writes it as a single line.
func (a *AuditLog) Append(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one human-friendly log line ending in '\n'.
func FormatLine(ev ReservationEvent) string {
	what := "Reservation confirmed"
	if ev.Type == EventReservationCancelled {
		what = "Reservation cancelled"
	}
	return fmt.Sprintf("[%s] %s | reservation_id=%d | user_id=%d | room_id=%d | room=%q | check_in=%s | check_out=%s | guests=%d | nights=%d | total=%d cents\n",
		ev.OccurredAt, what, ev.ReservationID, ev.UserID, ev.RoomID, ev.RoomName,
		ev.CheckIn, ev.CheckOut, ev.Guests, ev.Nights, ev.TotalAmountCents)
}

// Consumer drains the reservation queues into an AuditLog.
type Consumer struct {
	url   string
	audit *AuditLog
	log   *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url string, audit *AuditLog, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, audit: audit, log: log}
}

// Run connects to RabbitMQ, declares the reservation queues (durable) and
// consumes messages until ctx is cancelled.  It reconnects with
// exponential backoff when the broker is unreachable or the connection
// drops.  Messages that cannot be processed are rejected without requeue
// so the consumer keeps running.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}

	merged := make(chan amqp.Delivery)
	var wg sync.WaitGroup
	for _, name := range []EventType{EventReservationConfirmed, EventReservationCancelled} {
		if _, err := ch.QueueDeclare(string(name), true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(string(name), "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- d:
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-merged:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.audit.Append(d.Body); err != nil {
				c.log.Error("booking-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
