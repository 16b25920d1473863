package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, in)
	return &cloudwatch.PutMetricDataOutput{}, args.Error(0)
}

func TestCloudWatchPublisher_FlushBatches(t *testing.T) {
	client := new(mockCloudWatch)
	p := NewCloudWatchPublisher("Degrees/test", client, zap.NewNop())

	for range 600 {
		p.ObserveSearch("discover", time.Millisecond, 1, 10, nil)
	}
	assert.Equal(t, 1200, p.Pending())

	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return len(in.MetricData) == 1000
	})).Return(nil).Once()
	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return len(in.MetricData) == 200
	})).Return(errors.New("throttled")).Once()

	p.Flush(context.Background())

	assert.Zero(t, p.Pending())
	client.AssertExpectations(t)
}

func TestCloudWatchPublisher_NilClient(t *testing.T) {
	p := NewCloudWatchPublisher("Degrees/test", nil, nil)
	p.ObserveSearch("path", time.Millisecond, 0, 10, nil)
	p.Flush(context.Background())
	assert.Zero(t, p.Pending())
}
