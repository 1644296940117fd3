// Package service holds adapters from the engine to outside systems.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/queue"
)

// Publisher sends cancellation notices to RabbitMQ, dialing per publish.
type Publisher struct {
	URL string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishReservationCancelled publishes ev to the reservation.cancelled
// queue as a persistent JSON message.
func (p *Publisher) PublishReservationCancelled(ctx context.Context, ev queue.CancellationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn().Err(err).Str("component", "publisher").Msg("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.CancellationQueue, true, false, false, false, nil); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReservationID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.CancellationQueue, false, false, pub); err != nil {
		log.Warn().Err(err).Str("component", "publisher").Str("reservation_id", ev.ReservationID).Msg("publish failed")
		return err
	}
	return nil
}
