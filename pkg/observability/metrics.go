package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes application metrics to CloudWatch.
// Publishing is best-effort: a metrics failure never fails the request.
type Metrics struct {
	client    *cloudwatch.Client
	namespace string
	enabled   bool
	logger    *zap.Logger
}

// NewMetrics creates a metrics publisher
func NewMetrics(client *cloudwatch.Client, namespace string, enabled bool, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		enabled:   enabled,
		logger:    logger,
	}
}

// RecordReviewLatency records how long a review submission took
func (m *Metrics) RecordReviewLatency(ctx context.Context, d time.Duration) {
	m.put(ctx, "ReviewLatencyMs", float64(d.Milliseconds()), types.StandardUnitMilliseconds)
}

// RecordPropagationFanout records how many nodes one review updated
func (m *Metrics) RecordPropagationFanout(ctx context.Context, nodes int) {
	m.put(ctx, "PropagationFanout", float64(nodes), types.StandardUnitCount)
}

// RecordBulkCompletion records per-batch success/failure counts
func (m *Metrics) RecordBulkCompletion(ctx context.Context, succeeded, failed int) {
	m.put(ctx, "BulkCompletionSucceeded", float64(succeeded), types.StandardUnitCount)
	m.put(ctx, "BulkCompletionFailed", float64(failed), types.StandardUnitCount)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit) {
	if !m.enabled || m.client == nil {
		return
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
			},
		},
	})
	if err != nil {
		m.logger.Warn("failed to publish metric",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
}
