package sorting

import (
	"cmp"
	"slices"
	"strings"

	"github.com/opscart/k8s-capacity-console/pkg/format"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine orders the node and workload tables
type Engine struct {
	locale language.Tag
	marker string
}

// NewEngine creates a sort engine. Pools whose name contains marker
// (case-insensitive) are listed first under the default node order.
func NewEngine(locale language.Tag, marker string) *Engine {
	return &Engine{
		locale: locale,
		marker: strings.ToLower(marker),
	}
}

func (e *Engine) isAutoscalerPool(pool string) bool {
	return e.marker != "" && strings.Contains(strings.ToLower(pool), e.marker)
}

// OrderNodes returns a sorted copy of nodes. Virtual nodes always come first.
func (e *Engine) OrderNodes(nodes []models.NodeView, s NodeSort) []models.NodeView {
	// collators keep scratch buffers, one per call
	col := collate.New(e.locale)
	sign := 1
	if s.Dir == Desc {
		sign = -1
	}

	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b models.NodeView) int {
		if a.IsVirtual != b.IsVirtual {
			if a.IsVirtual {
				return -1
			}
			return 1
		}
		if c := e.compareNodes(col, a, b, s) * sign; c != 0 {
			return c
		}
		return col.CompareString(a.Name, b.Name)
	})
	return out
}

func (e *Engine) compareNodes(col *collate.Collator, a, b models.NodeView, s NodeSort) int {
	switch s.Key {
	case NodeKeyName:
		return col.CompareString(a.Name, b.Name)
	case NodeKeyPool:
		return col.CompareString(a.Pool, b.Pool)
	case NodeKeyCost:
		return cmp.Compare(a.CostDaily, b.CostDaily)
	case NodeKeyCPU:
		return cmp.Compare(cpuLoad(a, s.Mode), cpuLoad(b, s.Mode))
	case NodeKeyRAM:
		return cmp.Compare(memoryLoad(a, s.Mode), memoryLoad(b, s.Mode))
	default:
		am, bm := e.isAutoscalerPool(a.Pool), e.isAutoscalerPool(b.Pool)
		if am != bm {
			if am {
				return -1
			}
			return 1
		}
		return col.CompareString(a.Name, b.Name)
	}
}

func cpuLoad(n models.NodeView, mode Mode) float64 {
	if mode == Used {
		return format.Ratio(n.UsedCPU, n.AllocCPU)
	}
	return format.Ratio(n.RequestedCPU, n.AllocCPU)
}

func memoryLoad(n models.NodeView, mode Mode) float64 {
	if mode == Used {
		return format.Ratio(n.UsedMemory, n.AllocMemory)
	}
	return format.Ratio(n.RequestedMemory, n.AllocMemory)
}

// OrderWorkloads returns a sorted copy of the workloads of one node
func (e *Engine) OrderWorkloads(pods []models.WorkloadView, s WorkloadSort) []models.WorkloadView {
	col := collate.New(e.locale)
	out := slices.Clone(pods)

	if s.Key == WorkloadKeyDefault {
		// daemons last, the rest by descending CPU request; direction does not apply
		slices.SortStableFunc(out, func(a, b models.WorkloadView) int {
			if a.IsDaemon != b.IsDaemon {
				if a.IsDaemon {
					return 1
				}
				return -1
			}
			if c := cmp.Compare(b.RequestedCPU, a.RequestedCPU); c != 0 {
				return c
			}
			return col.CompareString(a.ID, b.ID)
		})
		return out
	}

	sign := 1
	if s.Dir == Desc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b models.WorkloadView) int {
		if c := compareWorkloads(col, a, b, s.Key) * sign; c != 0 {
			return c
		}
		return col.CompareString(a.ID, b.ID)
	})
	return out
}

func compareWorkloads(col *collate.Collator, a, b models.WorkloadView, key string) int {
	switch key {
	case WorkloadKeyNamespace:
		return col.CompareString(a.Namespace, b.Namespace)
	case WorkloadKeyName:
		return col.CompareString(a.Name, b.Name)
	case WorkloadKeyActiveRatio:
		return cmp.Compare(a.ActiveRatio, b.ActiveRatio)
	case WorkloadKeyType:
		return col.CompareString(a.Category(), b.Category())
	case WorkloadKeyCPU:
		return cmp.Compare(a.RequestedCPU, b.RequestedCPU)
	case WorkloadKeyMemory:
		return cmp.Compare(a.RequestedMemory, b.RequestedMemory)
	default:
		return 0
	}
}
