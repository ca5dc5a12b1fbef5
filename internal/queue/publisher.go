package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/exam-reservation/internal/booking"
)

// Publisher sends audit events to ReservationQueue. It dials per event;
// audit traffic is one message per reservation change.
type Publisher struct {
	url     string
	timeout time.Duration
}

var _ booking.Auditor = (*Publisher)(nil)

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, timeout: 3 * time.Second}
}

// ReservationChanged publishes ev as a persistent JSON message.
func (p *Publisher) ReservationChanged(ctx context.Context, ev booking.AuditEvent) error {
	body, err := json.Marshal(eventFrom(ev))
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", ReservationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Action,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
