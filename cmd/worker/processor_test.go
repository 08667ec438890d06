package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/ukegedo/fruver-orderflow/internal/aws/awstest"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/metrics"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

func sqsEvent(t *testing.T, evs ...lifecycle.StatusChanged) events.SQSEvent {
	t.Helper()
	var out events.SQSEvent
	for _, ev := range evs {
		body, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out.Records = append(out.Records, events.SQSMessage{MessageId: ev.OrderID, Body: string(body)})
	}
	return out
}

func TestWorkerProcess_Fulfillment(t *testing.T) {
	cw := &awstest.FakeCloudWatch{}
	p := NewProcessor(metrics.NewRecorder(cw, "Test"), 10)
	var alerts []LowStockAlert
	p.alert = func(a LowStockAlert) { alerts = append(alerts, a) }

	ev := sqsEvent(t,
		lifecycle.StatusChanged{
			OrderID: "o1", From: orders.StatusPending, To: orders.StatusFulfilled,
			Stock: []lifecycle.StockLevel{
				{ProductID: "p1", ProductName: "Mango", Sold: 10, Stock: 90},
				{ProductID: "p2", ProductName: "Fresa", Sold: 5, Stock: 0},
			},
			Warnings: []lifecycle.Warning{{Kind: lifecycle.WarningStockClamped, ProductID: "p2", ProductName: "Fresa", Requested: 10, Available: 5}},
		},
		lifecycle.StatusChanged{OrderID: "o2", From: orders.StatusPending, To: orders.StatusCancelled},
	)

	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if cw.Calls != 2 {
		t.Fatalf("expected 2 PutMetricData calls, got %d", cw.Calls)
	}
	if got := cw.Sum(metrics.MetricUnitsSold); got != 15 {
		t.Fatalf("units sold = %v", got)
	}
	if len(alerts) != 1 || alerts[0].ProductID != "p2" || alerts[0].Stock != 0 {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestWorkerProcess_NoAlertsOutsideFulfillment(t *testing.T) {
	cw := &awstest.FakeCloudWatch{}
	p := NewProcessor(metrics.NewRecorder(cw, "Test"), 10)
	var alerts []LowStockAlert
	p.alert = func(a LowStockAlert) { alerts = append(alerts, a) }

	ev := sqsEvent(t, lifecycle.StatusChanged{
		OrderID: "o1", From: orders.StatusFulfilled, To: orders.StatusFulfilled,
		Stock:   []lifecycle.StockLevel{{ProductID: "p1", Stock: 1}},
	})
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", alerts)
	}
}

func TestWorkerProcess_Errors(t *testing.T) {
	cw := &awstest.FakeCloudWatch{}
	p := NewProcessor(metrics.NewRecorder(cw, "Test"), 10)

	bad := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "m1", Body: "{not json"}}}
	if err := p.Handle(context.Background(), bad); err == nil {
		t.Fatal("expected error for malformed body")
	}

	cw.Err = errors.New("throttled")
	ev := sqsEvent(t, lifecycle.StatusChanged{OrderID: "o1", From: orders.StatusPending, To: orders.StatusInProcess})
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error when metrics cannot be recorded")
	}
}
