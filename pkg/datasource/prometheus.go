package datasource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

const (
	cpuUsageQuery    = `sum by (namespace, pod) (rate(container_cpu_usage_seconds_total{container!="",container!="POD"}[5m]))`
	memoryUsageQuery = `sum by (namespace, pod) (container_memory_working_set_bytes{container!="",container!="POD"})`
)

type PrometheusSource struct {
	client  v1.API
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

func NewPrometheusSource(cfg Config, logger *zap.Logger) (*PrometheusSource, error) {
	client, err := api.NewClient(api.Config{
		Address: cfg.PrometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PrometheusSource{
		client:  v1.NewAPI(client),
		url:     cfg.PrometheusURL,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// UsageByWorkload returns current CPU and working-set memory per pod
func (p *PrometheusSource) UsageByWorkload(ctx context.Context) (map[string]Usage, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cpu, err := p.queryVector(ctx, cpuUsageQuery)
	if err != nil {
		return nil, fmt.Errorf("CPU query failed: %w", err)
	}
	mem, err := p.queryVector(ctx, memoryUsageQuery)
	if err != nil {
		return nil, fmt.Errorf("memory query failed: %w", err)
	}

	usage := make(map[string]Usage, len(cpu))
	for id, cores := range byWorkload(cpu) {
		u := usage[id]
		u.CPU = int64(math.Round(cores * 1000))
		usage[id] = u
	}
	for id, bytes := range byWorkload(mem) {
		u := usage[id]
		u.Memory = int64(bytes)
		usage[id] = u
	}
	return usage, nil
}

func (p *PrometheusSource) queryVector(ctx context.Context, query string) (model.Vector, error) {
	result, warnings, err := p.client.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if len(warnings) > 0 {
		p.logger.Warn("prometheus query warnings", zap.String("query", query), zap.Strings("warnings", warnings))
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s for query: %s", result.Type(), query)
	}
	return vector, nil
}

// byWorkload keys samples by namespace/pod, summing duplicates
func byWorkload(vector model.Vector) map[string]float64 {
	out := make(map[string]float64, len(vector))
	for _, sample := range vector {
		ns := string(sample.Metric["namespace"])
		pod := string(sample.Metric["pod"])
		if ns == "" || pod == "" {
			continue
		}
		v := float64(sample.Value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[models.WorkloadID(ns, pod)] += v
	}
	return out
}

func (p *PrometheusSource) IsAvailable(ctx context.Context) bool {
	_, _, err := p.client.Query(ctx, "up", time.Now())
	return err == nil
}

func (p *PrometheusSource) Name() string {
	return "Prometheus"
}
