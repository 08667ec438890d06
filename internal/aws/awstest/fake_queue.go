package awstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// FakeSQS records every message it is asked to send.
type FakeSQS struct {
	mu       sync.Mutex
	Messages []*sqs.SendMessageInput
	Err      error
}

func (f *FakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Messages = append(f.Messages, in)
	return &sqs.SendMessageOutput{MessageId: strPtr(fmt.Sprintf("msg-%d", len(f.Messages)))}, nil
}

// Bodies returns the bodies of the recorded messages.
func (f *FakeSQS) Bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Messages))
	for _, m := range f.Messages {
		if m.MessageBody != nil {
			out = append(out, *m.MessageBody)
		}
	}
	return out
}

// FakeCloudWatch records every datum it receives.
type FakeCloudWatch struct {
	mu    sync.Mutex
	Data  []cwtypes.MetricDatum
	Calls int
	Err   error
}

func (f *FakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	f.Data = append(f.Data, in.MetricData...)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

// Sum adds up the values recorded under a metric name.
func (f *FakeCloudWatch) Sum(name string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, d := range f.Data {
		if d.MetricName != nil && *d.MetricName == name && d.Value != nil {
			total += *d.Value
		}
	}
	return total
}
