package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitMQEventPublisher publishes events as JSON to a durable fanout exchange.
// The connection is owned by the caller.
type RabbitMQEventPublisher struct {
	ch       *amqp091.Channel
	exchange string
	log      zerolog.Logger
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)

// NewRabbitMQEventPublisher opens a channel and declares the exchange.
func NewRabbitMQEventPublisher(conn *amqp091.Connection, exchange string, log zerolog.Logger) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("exchange", exchange).Msg("Failed to declare exchange")
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("Loop events exchange declared")
	return &RabbitMQEventPublisher{ch: ch, exchange: exchange, log: log}, nil
}

func (p *RabbitMQEventPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(event.Type), // ignored by fanout, useful to consumers
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Type:         string(event.Type),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.log.Error().Err(err).Str("type", string(event.Type)).Str("playerID", event.PlayerID.String()).Msg("Failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.log.Debug().Str("type", string(event.Type)).Str("playerID", event.PlayerID.String()).Msg("Event published")
	return nil
}

// Close closes the channel, not the connection.
func (p *RabbitMQEventPublisher) Close() error {
	return p.ch.Close()
}
