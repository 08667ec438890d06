package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	fruverevents "github.com/ukegedo/fruver-orderflow/internal/events"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
)

// StatusRecorder records metrics for a committed status change.
type StatusRecorder interface {
	RecordStatusChange(ctx context.Context, ev lifecycle.StatusChanged) error
}

// LowStockAlert is raised for every product left at or below the threshold
// by a fulfillment.
type LowStockAlert struct {
	OrderID     string
	ProductID   string
	ProductName string
	Stock       int
	Threshold   int
}

// Processor consumes status change events from SQS.
type Processor struct {
	recorder  StatusRecorder
	threshold int
	alert     func(LowStockAlert)
}

// NewProcessor returns a Processor that logs low stock alerts.
func NewProcessor(recorder StatusRecorder, lowStockThreshold int) *Processor {
	return &Processor{
		recorder:  recorder,
		threshold: lowStockThreshold,
		alert:     logAlert,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	log.Printf("[worker] received %d SQS messages", len(ev.Records))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("[worker] error message=%s: %v", rec.MessageId, err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	ev, err := fruverevents.Decode(rec.Body)
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log.Printf("[worker] order=%s status %s -> %s", ev.OrderID, ev.From, ev.To)
	for _, w := range ev.Warnings {
		if w.Kind == lifecycle.WarningStockClamped {
			log.Printf("[worker] order=%s shipped short on %s: requested=%d available=%d",
				ev.OrderID, w.ProductName, w.Requested, w.Available)
		}
	}

	if ev.Fulfilled() {
		for _, s := range ev.Stock {
			if s.Stock <= p.threshold {
				p.alert(LowStockAlert{
					OrderID:     ev.OrderID,
					ProductID:   s.ProductID,
					ProductName: s.ProductName,
					Stock:       s.Stock,
					Threshold:   p.threshold,
				})
			}
		}
	}

	if err := p.recorder.RecordStatusChange(ctx, ev); err != nil {
		return fmt.Errorf("record metrics for order=%s: %w", ev.OrderID, err)
	}
	return nil
}

func logAlert(a LowStockAlert) {
	log.Printf("[worker] LOW STOCK product=%s (%s) stock=%d threshold=%d order=%s",
		a.ProductName, a.ProductID, a.Stock, a.Threshold, a.OrderID)
}
