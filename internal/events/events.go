// Package events carries committed order status changes to the worker queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
)

// EventTypeStatusChanged is the event_type message attribute of every message
// published by SQSNotifier.
const EventTypeStatusChanged = "order.status_changed"

// SQSNotifier publishes lifecycle.StatusChanged events as JSON SQS messages.
type SQSNotifier struct {
	publisher *aws.Publisher
}

// NewSQSNotifier wraps a publisher.
func NewSQSNotifier(publisher *aws.Publisher) *SQSNotifier {
	return &SQSNotifier{publisher: publisher}
}

// Notify implements lifecycle.Notifier.
func (n *SQSNotifier) Notify(ctx context.Context, ev lifecycle.StatusChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.publisher.Send(ctx, string(body), map[string]string{
		"event_type": EventTypeStatusChanged,
		"order_id":   ev.OrderID,
	})
}

// Decode parses a message body published by SQSNotifier.
func Decode(body string) (lifecycle.StatusChanged, error) {
	var ev lifecycle.StatusChanged
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return ev, fmt.Errorf("decode status change: %w", err)
	}
	if ev.OrderID == "" {
		return ev, fmt.Errorf("decode status change: missing order_id")
	}
	return ev, nil
}
