package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Scoring Domain Metrics
	AnalysisDuration       metric.Float64Histogram
	AnalysesPerSecond      metric.Float64ObservableGauge
	AnalysisCounter        metric.Int64Counter
	FraudVerdictCounter    metric.Int64Counter
	RiskScoreDistribution  metric.Int64Histogram
	RiskFactorCounter      metric.Int64Counter
	ActiveScorers          metric.Int64ObservableGauge
	PersistenceFailCounter metric.Int64Counter

	// System Metrics
	DatabaseConnectionPool metric.Int64ObservableGauge
	APIRequestDuration     metric.Float64Histogram
	APIRequestCounter      metric.Int64Counter

	// State for observable metrics
	mu                sync.RWMutex
	activeScorers     int64
	dbPoolSize        int64
	analysesProcessed int64
	lastAnalysisCount int64
	lastAnalysisTime  time.Time
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{
		meter:            otel.Meter(meterName),
		lastAnalysisTime: time.Now(),
	}

	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSystemMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initScoringMetrics() error {
	var err error

	r.AnalysisDuration, err = r.meter.Float64Histogram(
		"cardguard.scoring.analysis_duration",
		metric.WithDescription("Duration of a full transaction analysis in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100),
	)
	if err != nil {
		return err
	}

	r.AnalysesPerSecond, err = r.meter.Float64ObservableGauge(
		"cardguard.scoring.throughput_per_second",
		metric.WithDescription("Current analysis throughput per second"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			r.mu.Lock()
			defer r.mu.Unlock()

			now := time.Now()
			elapsed := now.Sub(r.lastAnalysisTime).Seconds()
			if elapsed > 0 {
				rate := float64(r.analysesProcessed-r.lastAnalysisCount) / elapsed
				o.Observe(rate)
				r.lastAnalysisCount = r.analysesProcessed
				r.lastAnalysisTime = now
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}

	r.AnalysisCounter, err = r.meter.Int64Counter(
		"cardguard.scoring.analysis_total",
		metric.WithDescription("Total number of completed analyses"),
	)
	if err != nil {
		return err
	}

	r.FraudVerdictCounter, err = r.meter.Int64Counter(
		"cardguard.scoring.fraud_verdict_total",
		metric.WithDescription("Total number of analyses flagged as fraudulent"),
	)
	if err != nil {
		return err
	}

	r.RiskScoreDistribution, err = r.meter.Int64Histogram(
		"cardguard.scoring.risk_score",
		metric.WithDescription("Distribution of aggregate risk scores"),
		metric.WithExplicitBucketBoundaries(0, 10, 20, 35, 50, 60, 80, 90, 100),
	)
	if err != nil {
		return err
	}

	r.RiskFactorCounter, err = r.meter.Int64Counter(
		"cardguard.scoring.risk_factor_total",
		metric.WithDescription("Total risk factors emitted, by factor name"),
	)
	if err != nil {
		return err
	}

	r.ActiveScorers, err = r.meter.Int64ObservableGauge(
		"cardguard.scoring.active_scorers",
		metric.WithDescription("Number of callers with a live scoring history"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeScorers)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	r.PersistenceFailCounter, err = r.meter.Int64Counter(
		"cardguard.scoring.persistence_failure_total",
		metric.WithDescription("Total analyses whose persistence failed"),
	)

	return err
}

func (r *Registry) initSystemMetrics() error {
	var err error

	r.DatabaseConnectionPool, err = r.meter.Int64ObservableGauge(
		"cardguard.system.db_connection_pool_size",
		metric.WithDescription("Current database connection pool size"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbPoolSize)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"cardguard.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.APIRequestCounter, err = r.meter.Int64Counter(
		"cardguard.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)

	return err
}

// SetActiveScorers sets the live scorer count
func (r *Registry) SetActiveScorers(count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeScorers = count
}

// SetDBPoolSize sets the database connection pool size
func (r *Registry) SetDBPoolSize(size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbPoolSize = size
}

// RecordAnalysis records the outcome of one completed analysis.
func (r *Registry) RecordAnalysis(ctx context.Context, durationMS float64, riskScore int, riskLevel string, fraudulent bool) {
	attrs := []attribute.KeyValue{
		attribute.String("risk_level", riskLevel),
		attribute.Bool("fraudulent", fraudulent),
	}

	r.AnalysisDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.AnalysisCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.RiskScoreDistribution.Record(ctx, int64(riskScore), metric.WithAttributes(attrs...))

	if fraudulent {
		r.FraudVerdictCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	r.mu.Lock()
	r.analysesProcessed++
	r.mu.Unlock()
}

// RecordRiskFactor counts an emitted factor by name and severity.
func (r *Registry) RecordRiskFactor(ctx context.Context, name, severity string) {
	r.RiskFactorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("factor", name),
		attribute.String("severity", severity),
	))
}

// RecordPersistenceFailure counts a failed analysis save.
func (r *Registry) RecordPersistenceFailure(ctx context.Context) {
	r.PersistenceFailCounter.Add(ctx, 1)
}

// RecordAPIRequest records API request metrics
func (r *Registry) RecordAPIRequest(ctx context.Context, duration float64, method, path string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	r.APIRequestDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	r.APIRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
