package datasource

import (
	"context"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

// Usage is the observed consumption of one workload
type Usage struct {
	CPU    int64 // millicores
	Memory int64 // bytes
}

// UsageSource supplies observed workload usage keyed by workload ID
type UsageSource interface {
	UsageByWorkload(ctx context.Context) (map[string]Usage, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

type Config struct {
	PrometheusURL string
	Timeout       time.Duration
}

// Overlay fills absent workload usage from the source data and recomputes node
// usage sums for nodes the backend reported no usage for. It returns the number
// of workloads filled.
func Overlay(state *models.SimulationState, usage map[string]Usage) int {
	if state == nil || len(usage) == 0 {
		return 0
	}

	filled := 0
	touched := make(map[string]bool)
	for node, pods := range state.PodsByNode {
		for i := range pods {
			u, ok := usage[pods[i].ID]
			if !ok {
				continue
			}
			if pods[i].UsedCPU == nil {
				cpu := u.CPU
				pods[i].UsedCPU = &cpu
				touched[node] = true
				filled++
			}
			if pods[i].UsedMemory == nil {
				mem := u.Memory
				pods[i].UsedMemory = &mem
				touched[node] = true
			}
		}
	}

	for i := range state.Nodes {
		n := &state.Nodes[i]
		if !touched[n.Name] {
			continue
		}
		var cpu, mem int64
		for _, p := range state.PodsByNode[n.Name] {
			if p.UsedCPU != nil {
				cpu += *p.UsedCPU
			}
			if p.UsedMemory != nil {
				mem += *p.UsedMemory
			}
		}
		if n.UsedCPU == 0 {
			n.UsedCPU = cpu
		}
		if n.UsedMemory == 0 {
			n.UsedMemory = mem
		}
	}
	return filled
}
