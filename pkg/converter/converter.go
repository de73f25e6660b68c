package converter

import (
	"math"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/backend"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	corev1 "k8s.io/api/core/v1"
)

// ToState converts a /simulate response into the view model
func ToState(resp *backend.SimulateResponse) *models.SimulationState {
	state := &models.SimulationState{
		Nodes:      make([]models.NodeView, 0, len(resp.Nodes)),
		PodsByNode: make(map[string][]models.WorkloadView, len(resp.PodsByNode)),
		Summary:    ToSummary(resp.Summary),
		Violations: resp.Violations,
	}

	for _, n := range resp.Nodes {
		state.Nodes = append(state.Nodes, ToNode(n))
	}
	for node, pods := range resp.PodsByNode {
		views := make([]models.WorkloadView, 0, len(pods))
		for _, p := range pods {
			views = append(views, ToWorkload(p))
		}
		state.PodsByNode[node] = views
	}
	for _, l := range resp.Logs {
		state.Logs = append(state.Logs, ToLogEntry(l))
	}
	return state
}

// ToNode converts one node row
func ToNode(n backend.Node) models.NodeView {
	return models.NodeView{
		Name:            n.Node,
		Pool:            n.Nodepool,
		Instance:        n.Instance,
		AllocCPU:        n.AllocCPU,
		RequestedCPU:    n.SumReqCPU,
		UsedCPU:         n.SumUsageCPU,
		AllocMemory:     n.AllocMem,
		RequestedMemory: n.SumReqMem,
		UsedMemory:      n.SumUsageMem,
		Parts: models.NodeParts{
			PrimaryCPU:    n.Parts.GFWCPU,
			DaemonCPU:     n.Parts.DSCPU,
			OtherCPU:      n.Parts.OtherCPU,
			PrimaryMemory: n.Parts.GFWMem,
			DaemonMemory:  n.Parts.DSMem,
			OtherMemory:   n.Parts.OtherMem,
		},
		CostDaily:    n.CostDailyUSD,
		IsVirtual:    n.IsVirtual,
		PriceMissing: n.PriceMissing,
	}
}

// ToWorkload converts one pod row. A missing id is rebuilt from namespace
// and name, a missing active ratio means always running.
func ToWorkload(p backend.Pod) models.WorkloadView {
	id := p.PodID
	if id == "" {
		id = models.WorkloadID(p.Namespace, p.Name)
	}

	ratio := 1.0
	if p.ActiveRatio != nil && !math.IsNaN(*p.ActiveRatio) {
		ratio = math.Min(1, math.Max(0, *p.ActiveRatio))
	}

	return models.WorkloadView{
		ID:              id,
		Namespace:       p.Namespace,
		Name:            p.Name,
		OwnerKind:       p.OwnerKind,
		OwnerName:       p.OwnerName,
		RequestedCPU:    p.ReqCPU,
		RequestedMemory: p.ReqMem,
		UsedCPU:         p.UsageCPU,
		UsedMemory:      p.UsageMem,
		ActiveRatio:     ratio,
		IsPrimary:       p.IsGFW,
		IsSystem:        p.IsSystem,
		IsDaemon:        p.IsDaemon,
	}
}

// ToSummary converts the pool statistics
func ToSummary(s backend.Summary) models.Summary {
	return models.Summary{
		Pools:              toPoolStats(s.PoolStats),
		ProjectedPools:     toPoolStats(s.ProjectedPoolStats),
		TotalCostDaily:     s.TotalCostDailyUSD,
		ProjectedTotalCost: s.ProjectedTotalCostUSD,
	}
}

func toPoolStats(in map[string]backend.PoolStat) map[string]models.PoolStat {
	out := make(map[string]models.PoolStat, len(in))
	for pool, s := range in {
		if pool == "" {
			pool = models.DefaultPool
		}
		stat := out[pool]
		stat.Count += s.NodeCount
		stat.Cost += s.Cost
		out[pool] = stat
	}
	return out
}

// ToLogEntry converts a change-log line; ts is unix seconds with fraction
func ToLogEntry(l backend.LogEntry) models.LogEntry {
	var ts time.Time
	if l.TS > 0 {
		sec, frac := math.Modf(l.TS)
		ts = time.Unix(int64(sec), int64(frac*1e9))
	}
	return models.LogEntry{
		Timestamp: ts,
		Message:   l.Message,
		Details:   l.Details,
	}
}

// ToPlanRequest converts a plan request to its wire form
func ToPlanRequest(r models.PlanRequest) backend.PlanMoveRequest {
	return backend.PlanMoveRequest{
		PodID:      r.PodID,
		TargetNode: r.TargetNode,
		TargetPool: r.TargetPool,
	}
}

// ToPlan converts a plan response
func ToPlan(p *backend.PlanMoveResponse) *models.MovePlan {
	if p == nil {
		return nil
	}
	return &models.MovePlan{
		TargetNode:      p.TargetNode,
		TargetPool:      p.TargetPool,
		RequestedCPU:    p.ReqCPU,
		RequestedMemory: p.ReqMem,
		Tolerations:     ToTolerations(p.Tolerations),
		NodeSelector:    p.NodeSelector,
		OwnerKind:       p.OwnerKind,
		OwnerName:       p.OwnerName,
	}
}

// ToTolerations converts wire tolerations into typed ones
func ToTolerations(in []backend.Toleration) []corev1.Toleration {
	if in == nil {
		return nil
	}
	out := make([]corev1.Toleration, 0, len(in))
	for _, t := range in {
		out = append(out, corev1.Toleration{
			Key:               t.Key,
			Operator:          corev1.TolerationOperator(t.Operator),
			Value:             t.Value,
			Effect:            corev1.TaintEffect(t.Effect),
			TolerationSeconds: t.TolerationSeconds,
		})
	}
	return out
}

// FromTolerations converts typed tolerations to the wire form
func FromTolerations(in []corev1.Toleration) []backend.Toleration {
	if in == nil {
		return nil
	}
	out := make([]backend.Toleration, 0, len(in))
	for _, t := range in {
		out = append(out, backend.Toleration{
			Key:               t.Key,
			Operator:          string(t.Operator),
			Value:             t.Value,
			Effect:            string(t.Effect),
			TolerationSeconds: t.TolerationSeconds,
		})
	}
	return out
}

// ToOperation converts a mutation to its wire form
func ToOperation(op models.Operation) backend.Operation {
	out := backend.Operation{Op: string(op.Kind)}

	switch op.Kind {
	case models.OpMoveWorkloadToNode:
		out.PodIDs = op.PodIDs
		out.NodeName = op.NodeName
		if o := op.Overrides; o != nil {
			out.ReqCPU = &o.RequestedCPU
			out.ReqMem = &o.RequestedMemory
			out.Tolerations = FromTolerations(o.Tolerations)
			out.NodeSelector = o.NodeSelector
		}
	case models.OpMoveOwnerToPool:
		out.Namespace = op.Namespace
		out.OwnerKind = op.OwnerKind
		out.OwnerName = op.OwnerName
		out.TargetPool = op.TargetPool
		if o := op.Overrides; o != nil {
			out.Overrides = &backend.Overrides{
				ReqCPU:       &o.RequestedCPU,
				ReqMem:       &o.RequestedMemory,
				Tolerations:  FromTolerations(o.Tolerations),
				NodeSelector: o.NodeSelector,
			}
		}
		out.IncludeSystem = op.IncludeSystem
		out.IncludeDaemonSets = op.IncludeDaemonSets
	case models.OpMoveNamespaceToPool, models.OpDeleteNamespace:
		out.Namespace = op.Namespace
		out.TargetPool = op.TargetPool
		out.IncludeSystem = op.IncludeSystem
		out.IncludeDaemonSets = op.IncludeDaemonSets
	case models.OpMoveNodeToPool:
		out.NodeName = op.NodeName
		out.TargetPool = op.TargetPool
		out.IncludeSystem = op.IncludeSystem
		out.IncludeDaemonSets = op.IncludeDaemonSets
	case models.OpMovePodsToPool, models.OpDeletePods:
		out.PodIDs = op.PodIDs
		out.TargetPool = op.TargetPool
	case models.OpDeleteOwner:
		out.Namespace = op.Namespace
		out.OwnerKind = op.OwnerKind
		out.OwnerName = op.OwnerName
		out.IncludeSystem = op.IncludeSystem
		out.IncludeDaemonSets = op.IncludeDaemonSets
	}
	return out
}

// ToOperations converts a batch
func ToOperations(ops []models.Operation) []backend.Operation {
	out := make([]backend.Operation, 0, len(ops))
	for _, op := range ops {
		out = append(out, ToOperation(op))
	}
	return out
}

// ToSnapshots converts the snapshot listing
func ToSnapshots(in []backend.Snapshot) []models.SnapshotInfo {
	out := make([]models.SnapshotInfo, 0, len(in))
	for _, s := range in {
		out = append(out, models.SnapshotInfo{
			ID:        s.ID,
			NodeCount: s.NodesCount,
			PodCount:  s.PodsCount,
			Active:    s.IsActive,
		})
	}
	return out
}

// ToPriceRefresh converts a pricing refresh result
func ToPriceRefresh(r *backend.RefreshPricesResponse) models.PriceRefresh {
	return models.PriceRefresh{
		Region:        r.Region,
		InstanceTypes: r.InstanceTypes,
		HourlyPrices:  r.HourlyPrices,
	}
}
