package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client the publisher uses.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// maxDatumsPerCall is the PutMetricData request limit.
const maxDatumsPerCall = 1000

// CloudWatchPublisher buffers search metrics and ships them in batches.
// A nil client turns it into a no-op, which is what local runs get.
type CloudWatchPublisher struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

// NewCloudWatchPublisher creates a publisher writing to namespace.
func NewCloudWatchPublisher(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchPublisher{namespace: namespace, client: client, logger: logger}
}

func (p *CloudWatchPublisher) ObserveSearch(operation string, elapsed time.Duration, found, _ int, err error) {
	if p.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	dims := []types.Dimension{
		{Name: aws.String("Operation"), Value: aws.String(operation)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}
	now := aws.Time(time.Now())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = append(p.buffer,
		types.MetricDatum{
			MetricName: aws.String("SearchLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(elapsed.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  now,
		},
		types.MetricDatum{
			MetricName: aws.String("JourneysFound"),
			Dimensions: dims,
			Value:      aws.Float64(float64(found)),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
	)
}

// Pending reports how many data points wait for the next flush.
func (p *CloudWatchPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Flush sends everything buffered so far. Failed batches are dropped and logged.
func (p *CloudWatchPublisher) Flush(ctx context.Context) {
	if p.client == nil {
		return
	}

	p.mu.Lock()
	pending := p.buffer
	p.buffer = nil
	p.mu.Unlock()

	for len(pending) > 0 {
		n := min(len(pending), maxDatumsPerCall)
		batch := pending[:n]
		pending = pending[n:]

		if _, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: batch,
		}); err != nil {
			p.logger.Warn("Failed to send metrics", zap.Int("datums", len(batch)), zap.Error(err))
		}
	}
}

// Run flushes every interval until ctx is done, then flushes once more.
func (p *CloudWatchPublisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}
