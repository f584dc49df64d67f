package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_tracker/internal/sales"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func decodeSaleRecorded(data []byte) (*SaleRecordedMessage, error) {
	var msg SaleRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func testSale() sales.Sale {
	return sales.Sale{
		ID:       "sale-1",
		Product:  "Laptop",
		Customer: "Acme Corp",
		Amount:   1200,
		Date:     time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestAMQPPublisher_SaleRecorded(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "sales", queue: "sale_recorded", logger: zaptest.NewLogger(t)}

	require.NoError(t, p.SaleRecorded(context.Background(), testSale()))

	assert.Equal(t, "sales", ch.exchange)
	assert.Equal(t, "sale_recorded", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "sale-1", ch.msg.MessageId)

	msg, err := decodeSaleRecorded(ch.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", msg.Product)
	assert.Equal(t, "Acme Corp", msg.Customer)
	assert.Equal(t, 1200.0, msg.Amount)
	assert.True(t, testSale().Date.Equal(msg.Date))
	assert.False(t, msg.Timestamp.IsZero())
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &AMQPPublisher{channel: ch, exchange: "sales", queue: "sale_recorded"}

	err := p.SaleRecorded(context.Background(), testSale())
	assert.ErrorContains(t, err, "publish sale sale-1")
}

func TestAMQPPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch}

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
