package events_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/events"
)

// startRabbitMQContainer starts a RabbitMQ testcontainer and returns the AMQP URL.
func startRabbitMQContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "guest",
			"RABBITMQ_DEFAULT_PASS": "guest",
		},
		WaitingFor: wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())
}

// consume binds an exclusive queue to the exchange and returns its deliveries.
func consume(t *testing.T, rabbitURL, exchange, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(rabbitURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)

	require.NoError(t, ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, exchange, false, nil))

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	require.NoError(t, err)
	return msgs
}

func TestRabbitMQPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rabbitURL := startRabbitMQContainer(t, ctx)

	exchange := "ledger.operations"
	routingKey := "ledger.operations.transfer.completed"

	publisher, err := events.NewRabbitMQPublisher(rabbitURL, exchange, routingKey)
	require.NoError(t, err)
	defer publisher.Close()

	msgs := consume(t, rabbitURL, exchange, routingKey)

	transfer := &domain.Transfer{
		ID:                uuid.New(),
		FromAccountNumber: "DE00000000000000000001",
		ToAccountNumber:   "DE00000000000000000002",
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
		Amount:            100000,
		CurrencyCode:      "EUR",
		ToBIC:             "DEUTDEFFXXX",
		Reference:         "rent",
	}
	require.NoError(t, publisher.PublishTransferCompleted(ctx, transfer))

	select {
	case msg := <-msgs:
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, transfer.ID.String(), msg.MessageId)

		var event events.TransferCompletedEvent
		require.NoError(t, json.Unmarshal(msg.Body, &event))
		assert.Equal(t, events.TransferCompletedEventType, event.EventType)
		assert.Equal(t, transfer.ID.String(), event.TransferID)
		assert.Equal(t, transfer.FromAccountNumber, event.FromAccountNumber)
		assert.Equal(t, transfer.ToAccountNumber, event.ToAccountNumber)
		assert.Equal(t, transfer.Amount, event.Amount)
		assert.Equal(t, "EUR", event.CurrencyCode)
		assert.True(t, transfer.CreatedAt.Equal(event.Timestamp))
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event to be published")
	}
}
