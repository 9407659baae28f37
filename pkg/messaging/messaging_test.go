package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/chemtrack/chemtrack-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, ExchangeStockEvents, "stock-service", logger.Nop())
	ctx := WithCorrelationID(context.Background(), "corr-1")

	err := p.Publish(ctx, EventProductDeleted, ProductDeletedEvent{ProductID: "p1", BatchIDs: []string{"b1"}})
	require.NoError(t, err)

	assert.Equal(t, ExchangeStockEvents, ch.exchange)
	assert.Equal(t, EventProductDeleted, ch.key)
	assert.Equal(t, "corr-1", ch.msg.CorrelationId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var event Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	assert.Equal(t, EventProductDeleted, event.Type)
	assert.Equal(t, "stock-service", event.Source)
	assert.Equal(t, ch.msg.MessageId, event.ID)

	var data ProductDeletedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "p1", data.ProductID)
	assert.Equal(t, []string{"b1"}, data.BatchIDs)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	p := newPublisher(ch, ExchangeStockEvents, "stock-service", logger.Nop())

	err := p.Publish(context.Background(), EventBatchExpiring, BatchExpiringEvent{})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.rejected = true
	f.requeue = requeue
	return nil
}

func delivery(t *testing.T, ack *fakeAcknowledger, eventType string, redelivered bool) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "inventory-service", "corr-9", TransactionRecordedEvent{ProductID: "p1"})
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func TestConsumer_HandleMessage(t *testing.T) {
	c := newConsumer("stock-service.transactions", 3, logger.Nop())

	var gotCorrelation string
	var gotProduct string
	c.RegisterHandler(EventTransactionRecorded, func(ctx context.Context, event *Event) error {
		gotCorrelation = GetCorrelationID(ctx)
		var data TransactionRecordedEvent
		if err := event.UnmarshalData(&data); err != nil {
			return err
		}
		gotProduct = data.ProductID
		return nil
	})

	ack := &fakeAcknowledger{}
	result := c.handleMessage(context.Background(), delivery(t, ack, EventTransactionRecorded, false))

	assert.Equal(t, outcomeAck, result)
	assert.True(t, ack.acked)
	assert.Equal(t, "corr-9", gotCorrelation)
	assert.Equal(t, "p1", gotProduct)
}

func TestConsumer_UnknownTypeIsAcked(t *testing.T) {
	c := newConsumer("q", 3, logger.Nop())

	ack := &fakeAcknowledger{}
	result := c.handleMessage(context.Background(), delivery(t, ack, "inventory.something.else", false))

	assert.Equal(t, outcomeAck, result)
	assert.True(t, ack.acked)
}

func TestConsumer_MalformedIsDeadLettered(t *testing.T) {
	c := newConsumer("q", 3, logger.Nop())

	ack := &fakeAcknowledger{}
	result := c.handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

	assert.Equal(t, outcomeDeadLetter, result)
	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestConsumer_FailureRetriesOnceThenDeadLetters(t *testing.T) {
	c := newConsumer("q", 3, logger.Nop())
	c.RegisterHandler(EventTransactionRecorded, func(ctx context.Context, event *Event) error {
		return fmt.Errorf("database unavailable")
	})

	first := &fakeAcknowledger{}
	assert.Equal(t, outcomeRequeue, c.handleMessage(context.Background(), delivery(t, first, EventTransactionRecorded, false)))
	assert.True(t, first.nacked)
	assert.True(t, first.requeue)

	second := &fakeAcknowledger{}
	assert.Equal(t, outcomeDeadLetter, c.handleMessage(context.Background(), delivery(t, second, EventTransactionRecorded, true)))
	assert.True(t, second.rejected)
}

func TestGetRetryCount(t *testing.T) {
	msg := amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{
			amqp.Table{"count": int64(2)},
			amqp.Table{"count": int64(1)},
		},
	}}
	assert.Equal(t, 3, getRetryCount(msg))
	assert.Equal(t, 0, getRetryCount(amqp.Delivery{}))
}
