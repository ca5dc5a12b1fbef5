package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBackoff = 30 * time.Second

// StartAuditConsumer consumes ReservationQueue and appends one line per
// event to logPath. It reconnects with exponential backoff and returns
// when ctx is cancelled.
func StartAuditConsumer(ctx context.Context, url, logPath string, logger *slog.Logger) {
	log := logger.With("component", "audit-consumer", "queue", ReservationQueue)
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WarnContext(ctx, "dial broker failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.WarnContext(ctx, "consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WarnContext(ctx, "set qos failed", "error", err)
	}
	if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ReservationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.InfoContext(ctx, "audit consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendEvent(logPath, d.Body); err != nil {
				log.ErrorContext(ctx, "handle message failed", "error", err)
				// rejected without requeue so a poison message cannot loop
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendEvent(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	return writeEvent(f, body)
}

// writeEvent renders one event as a single line.
func writeEvent(w io.Writer, body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Action == "" || ev.ReservationID == 0 {
		return errors.New("incomplete audit event")
	}
	from := ev.FromStatus
	if from == "" {
		from = "-"
	}
	_, err := fmt.Fprintf(w, "[%s] %s | reservation_id=%d | user_id=%d | exam_schedule_id=%d | %s -> %s | actor_id=%d\n",
		ev.OccurredAt, ev.Action, ev.ReservationID, ev.UserID, ev.ExamScheduleID, from, ev.ToStatus, ev.ActorID)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
