package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/aws/awstest"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

func TestNotifyRoundTrip(t *testing.T) {
	q := &awstest.FakeSQS{}
	n := NewSQSNotifier(aws.NewPublisher(q, "https://sqs.local/orders"))

	ev := lifecycle.StatusChanged{
		OrderID:   "o-1",
		From:      orders.StatusPending,
		To:        orders.StatusFulfilled,
		Total:     money.New(33740),
		ChangedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		Stock:     []lifecycle.StockLevel{{ProductID: "p-1", ProductName: "Mango", Sold: 10, Stock: 90}},
	}
	require.NoError(t, n.Notify(context.Background(), ev))
	require.Len(t, q.Messages, 1)

	msg := q.Messages[0]
	assert.Equal(t, "https://sqs.local/orders", *msg.QueueUrl)
	assert.Equal(t, EventTypeStatusChanged, *msg.MessageAttributes["event_type"].StringValue)
	assert.Equal(t, "o-1", *msg.MessageAttributes["order_id"].StringValue)

	got, err := Decode(q.Bodies()[0])
	require.NoError(t, err)
	assert.Equal(t, ev.OrderID, got.OrderID)
	assert.Equal(t, ev.To, got.To)
	assert.True(t, got.Total.Equal(ev.Total))
	assert.True(t, got.ChangedAt.Equal(ev.ChangedAt))
	assert.Equal(t, ev.Stock, got.Stock)
	assert.True(t, got.Fulfilled())
}

func TestNotifyPropagatesQueueErrors(t *testing.T) {
	q := &awstest.FakeSQS{Err: errors.New("access denied")}
	n := NewSQSNotifier(aws.NewPublisher(q, "q"))
	err := n.Notify(context.Background(), lifecycle.StatusChanged{OrderID: "o-1"})
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not json")
	assert.Error(t, err)
	_, err = Decode(`{"to":"FULFILLED"}`)
	assert.Error(t, err)
}
