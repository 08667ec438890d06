package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
)

// CloudWatch metric names.
const (
	MetricStatusTransitions  = "StatusTransitions"
	MetricOrdersFulfilled    = "OrdersFulfilled"
	MetricUnitsSold          = "UnitsSold"
	MetricStockClampWarnings = "StockClampWarnings"
	MetricStockLevel         = "StockLevel"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "Fruver/Orders"

// Recorder publishes order lifecycle metrics to CloudWatch.
type Recorder struct {
	cw        aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

func NewRecorder(cw aws.CloudWatchAPI, namespace string) *Recorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Recorder{cw: cw, namespace: namespace, nowFunc: time.Now}
}

// RecordStatusChange sends every datum derived from one event in a single
// PutMetricData call.
func (r *Recorder) RecordStatusChange(ctx context.Context, ev lifecycle.StatusChanged) error {
	ts := ev.ChangedAt
	if ts.IsZero() {
		ts = r.nowFunc()
	}
	from := string(ev.From)
	if from == "" {
		from = "NEW"
	}

	data := []cwtypes.MetricDatum{
		datum(MetricStatusTransitions, 1, cwtypes.StandardUnitCount, ts,
			dim("From", from), dim("To", string(ev.To))),
	}
	if ev.Fulfilled() {
		units, clamped := 0, 0
		for _, s := range ev.Stock {
			units += s.Sold
			data = append(data, datum(MetricStockLevel, float64(s.Stock), cwtypes.StandardUnitCount, ts,
				dim("Product", s.ProductName)))
		}
		for _, w := range ev.Warnings {
			if w.Kind == lifecycle.WarningStockClamped {
				clamped++
			}
		}
		data = append(data,
			datum(MetricOrdersFulfilled, 1, cwtypes.StandardUnitCount, ts),
			datum(MetricUnitsSold, float64(units), cwtypes.StandardUnitCount, ts),
			datum(MetricStockClampWarnings, float64(clamped), cwtypes.StandardUnitCount, ts),
		)
	}

	_, err := r.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func datum(name string, value float64, unit cwtypes.StandardUnit, ts time.Time, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	v := value
	t := ts
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      &v,
		Unit:       unit,
		Timestamp:  &t,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
