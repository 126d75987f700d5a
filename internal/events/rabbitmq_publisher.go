package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// TransferCompletedEventType is the eventType of every message this publisher emits.
const TransferCompletedEventType = "transfer.completed"

// TransferCompletedEvent is the message body published after a transfer commits.
type TransferCompletedEvent struct {
	EventID           string    `json:"eventId"`
	EventType         string    `json:"eventType"`
	TransferID        string    `json:"transferId"`
	FromAccountNumber string    `json:"fromAccountNumber"`
	ToAccountNumber   string    `json:"toAccountNumber"`
	Amount            int64     `json:"amount"`
	CurrencyCode      string    `json:"currencyCode"`
	ToBIC             string    `json:"toBIC"`
	Reference         string    `json:"reference"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewTransferCompletedEvent builds the event for a recorded transfer.
// The event ID equals the transfer ID so consumers can deduplicate redeliveries.
func NewTransferCompletedEvent(t *domain.Transfer) TransferCompletedEvent {
	return TransferCompletedEvent{
		EventID:           t.ID.String(),
		EventType:         TransferCompletedEventType,
		TransferID:        t.ID.String(),
		FromAccountNumber: t.FromAccountNumber,
		ToAccountNumber:   t.ToAccountNumber,
		Amount:            t.Amount,
		CurrencyCode:      t.CurrencyCode,
		ToBIC:             t.ToBIC,
		Reference:         t.Reference,
		Timestamp:         t.CreatedAt,
	}
}

// RabbitMQPublisher implements domain.EventPublisher on a durable topic exchange.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the exchange.
func NewRabbitMQPublisher(url, exchange, routingKey string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange (topic exchange for routing)
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// PublishTransferCompleted publishes a persistent transfer.completed message.
func (p *RabbitMQPublisher) PublishTransferCompleted(ctx context.Context, transfer *domain.Transfer) error {
	body, err := json.Marshal(NewTransferCompletedEvent(transfer))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    transfer.ID.String(),
			Timestamp:    transfer.CreatedAt,
			Type:         TransferCompletedEventType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
