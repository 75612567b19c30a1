package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsPublisher is the subset of the CloudWatch API used for metrics
type MetricsPublisher interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics sends command and business metrics to CloudWatch. A nil client
// turns every call into a no-op.
type Metrics struct {
	namespace string
	client    MetricsPublisher
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client MetricsPublisher, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommandExecution records metrics for command execution
func (m *Metrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, err error) {
	if m == nil || m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	dimensions := []types.Dimension{
		{Name: aws.String("CommandName"), Value: aws.String(commandName)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}
	now := time.Now()

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("CommandExecution"),
			Dimensions: dimensions,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dimensions,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
	})
}

// RecordBusinessMetric records a counter such as PostsCreated or
// ConnectionsAccepted.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricName string, value float64, dimensions map[string]string) {
	if m == nil || m.client == nil {
		return
	}

	var cwDimensions []types.Dimension
	for name, val := range dimensions {
		cwDimensions = append(cwDimensions, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(val),
		})
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String(metricName),
			Dimensions: cwDimensions,
			Value:      aws.Float64(value),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	if err != nil {
		// Metrics never fail the operation being measured
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}
