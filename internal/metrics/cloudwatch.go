package metrics

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	// DefaultNamespace is used when no namespace is configured
	DefaultNamespace         = "MAGDA/Jam"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// metricPutter is the part of the CloudWatch API the client uses
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      metricPutter
	enabled     bool
	environment string
	namespace   string
}

// NewClient creates a new CloudWatch metrics client. It is only enabled in production.
func NewClient(ctx context.Context, environment, namespace string) (*Client, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
			namespace:   namespace,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false, namespace: namespace}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newClient(cloudwatch.NewFromConfig(cfg), environment, namespace), nil
}

func newClient(putter metricPutter, environment, namespace string) *Client {
	return &Client{
		client:      putter,
		enabled:     true,
		environment: environment,
		namespace:   namespace,
	}
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions("Endpoint", endpoint)
		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordTokenUsage records interpreter token usage
func (m *Client) RecordTokenUsage(provider, model string, usage llm.Usage) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := append(m.dimensions("Model", model), types.Dimension{
			Name:  aws.String("Provider"),
			Value: aws.String(provider),
		})

		for name, value := range map[string]int64{
			"LLMTokens/Total":  usage.TotalTokens,
			"LLMTokens/Input":  usage.InputTokens,
			"LLMTokens/Output": usage.OutputTokens,
		} {
			if err := m.putMetric(ctx, name, float64(value), types.StandardUnitCount, dimensions); err != nil {
				log.Printf("Failed to record %s metric: %v", name, err)
			}
		}
	}()
}

// RecordInterpretation records interpretation duration
func (m *Client) RecordInterpretation(provider string, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := append(m.dimensions("Provider", provider), types.Dimension{
			Name:  aws.String("Success"),
			Value: aws.String(boolToString(success)),
		})

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "InterpretationDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record InterpretationDuration metric: %v", err)
		}
	}()
}

// RecordSessionEvent counts playback session events by name
func (m *Client) RecordSessionEvent(event string) {
	if !m.enabled {
		return
	}

	go func() {
		if err := m.putMetric(context.Background(), "SessionEvents", 1, types.StandardUnitCount, m.dimensions("Event", event)); err != nil {
			log.Printf("Failed to record SessionEvents metric: %v", err)
		}
	}()
}

// RecordProxySession records a proxied WebSocket session
func (m *Client) RecordProxySession(duration time.Duration, frames int64, failed bool) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := m.dimensions("Success", boolToString(!failed))
		if err := m.putMetric(ctx, "ProxySessionDuration", duration.Seconds(), types.StandardUnitSeconds, dimensions); err != nil {
			log.Printf("Failed to record ProxySessionDuration metric: %v", err)
		}
		if err := m.putMetric(ctx, "ProxyFrames", float64(frames), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record ProxyFrames metric: %v", err)
		}
	}()
}

func (m *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{
			Name:  aws.String(name),
			Value: aws.String(value),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
