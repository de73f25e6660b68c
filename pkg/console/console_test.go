package console

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/opscart/k8s-capacity-console/pkg/backend"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/observability"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/storage"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu sync.Mutex

	state      *backend.SimulateResponse
	plan       *backend.PlanMoveResponse
	planErr    error
	mutateErr  error
	mutations  [][]backend.Operation
	planCalls  int
	simulates  int
	activated  string
	afterMoves *backend.SimulateResponse

	// when set, Mutate signals mutating and waits for release
	mutating chan struct{}
	release  chan struct{}
}

func (f *fakeBackend) Simulate(context.Context) (*backend.SimulateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulates++
	return f.state, nil
}

func (f *fakeBackend) PlanMove(context.Context, backend.PlanMoveRequest) (*backend.PlanMoveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.planCalls++
	return f.plan, f.planErr
}

func (f *fakeBackend) Mutate(_ context.Context, ops []backend.Operation) error {
	if f.mutating != nil {
		f.mutating <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, ops)
	if f.mutateErr == nil && f.afterMoves != nil {
		f.state = f.afterMoves
	}
	return f.mutateErr
}

func (f *fakeBackend) ListSnapshots(context.Context) ([]backend.Snapshot, error) {
	return []backend.Snapshot{{ID: "baseline", IsActive: true}}, nil
}

func (f *fakeBackend) ActivateSnapshot(_ context.Context, id string) error {
	f.activated = id
	return nil
}

func (f *fakeBackend) CaptureSnapshot(context.Context) (*backend.CaptureResponse, error) {
	return &backend.CaptureResponse{ID: "k8s-1"}, nil
}

func (f *fakeBackend) RefreshPrices(context.Context) (*backend.RefreshPricesResponse, error) {
	return &backend.RefreshPricesResponse{
		OK:            true,
		Region:        "eu-west-1",
		InstanceTypes: []string{"m5.large"},
		HourlyPrices:  map[string]float64{"m5.large": 0.1},
	}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.planCalls + len(f.mutations)
}

type memoryStore struct {
	records []*models.MoveRecord
	pingErr error
}

func (m *memoryStore) SaveMove(_ context.Context, rec *models.MoveRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryStore) GetMove(_ context.Context, id string) (*models.MoveRecord, error) {
	return nil, storage.ErrNotFound
}

func (m *memoryStore) ListMoves(context.Context, storage.MoveFilter) ([]*models.MoveRecord, error) {
	return m.records, nil
}

func (m *memoryStore) Ping(context.Context) error { return m.pingErr }
func (m *memoryStore) Close() error               { return nil }

func clusterState(appNode string) *backend.SimulateResponse {
	return &backend.SimulateResponse{
		Nodes: []backend.Node{
			{Node: "node-a", Nodepool: "pool-x", AllocCPU: 4000, SumReqCPU: 1000, CostDailyUSD: 10},
			{Node: "node-b", Nodepool: "pool-x", AllocCPU: 4000, SumReqCPU: 500, CostDailyUSD: 10},
			{Node: "node-c", Nodepool: "keda-spot", AllocCPU: 2000, CostDailyUSD: 4},
		},
		PodsByNode: map[string][]backend.Pod{
			appNode: {{PodID: "ns/app-1", Namespace: "ns", Name: "app-1", ReqCPU: 250, ReqMem: 1 << 20}},
		},
		Summary: backend.Summary{
			PoolStats:             map[string]backend.PoolStat{"pool-x": {Cost: 20, NodeCount: 2}, "keda-spot": {Cost: 4, NodeCount: 1}},
			ProjectedPoolStats:    map[string]backend.PoolStat{"pool-x": {Cost: 20, NodeCount: 2}, "keda-spot": {Cost: 4, NodeCount: 1}},
			TotalCostDailyUSD:     24,
			ProjectedTotalCostUSD: 24,
		},
	}
}

func newTestConsole(t *testing.T, fb *fakeBackend, store storage.Store) *Console {
	t.Helper()
	c := New(Options{
		Backend:  fb,
		Store:    store,
		Recorder: observability.NewRecorder(prometheus.NewRegistry()),
		Logger:   zap.NewNop(),
	})
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}
	return c
}

func TestRefreshBuildsView(t *testing.T) {
	fb := &fakeBackend{state: clusterState("node-a")}
	c := newTestConsole(t, fb, nil)

	view := c.View()
	if view.SelectedNode != "node-a" {
		t.Errorf("Expected node-a selected, got %q", view.SelectedNode)
	}
	// default order puts the autoscaler pool first
	if view.Nodes[0].Name != "node-c" {
		t.Errorf("Expected node-c first, got %s", view.Nodes[0].Name)
	}
	if len(view.Workloads) != 1 || view.Workloads[0].ID != "ns/app-1" {
		t.Errorf("Unexpected workloads: %+v", view.Workloads)
	}
	if len(view.Pools.Pools) != 2 || view.Pools.Pools[0].Pool != "pool-x" {
		t.Errorf("Unexpected pools: %+v", view.Pools.Pools)
	}
	if view.Phase != workflow.PhaseIdle {
		t.Errorf("Expected idle, got %s", view.Phase)
	}
}

func TestInstanceMoveHighlightsNewNode(t *testing.T) {
	fb := &fakeBackend{
		state:      clusterState("node-a"),
		afterMoves: clusterState("node-b"),
		plan:       &backend.PlanMoveResponse{TargetNode: "node-b", ReqCPU: 250, ReqMem: 1 << 20},
	}
	store := &memoryStore{}
	c := newTestConsole(t, fb, store)
	ctx := context.Background()

	pending, err := c.Drop(ctx, "ns/app-1", workflow.Target{Node: "node-a"})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if err := c.Confirm(ctx, pending.Edits); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	if len(fb.mutations) != 1 || len(fb.mutations[0]) != 1 {
		t.Fatalf("Expected exactly one operation, got %+v", fb.mutations)
	}
	op := fb.mutations[0][0]
	if op.Op != string(models.OpMoveWorkloadToNode) || op.NodeName != "node-b" || len(op.PodIDs) != 1 || op.PodIDs[0] != "ns/app-1" {
		t.Errorf("Unexpected operation: %+v", op)
	}

	view := c.View()
	if len(view.Highlighted) != 1 || view.Highlighted[0] != "node-b" {
		t.Errorf("Expected only node-b highlighted, got %v", view.Highlighted)
	}
	if view.Phase != workflow.PhaseIdle || view.Pending != nil {
		t.Errorf("Expected idle with no pending move, got %s %+v", view.Phase, view.Pending)
	}

	if len(store.records) != 1 || store.records[0].Status != models.MoveSucceeded || store.records[0].Namespace != "ns" {
		t.Errorf("Unexpected journal: %+v", store.records)
	}
}

func TestRefreshDuringCommitKeepsMarker(t *testing.T) {
	fb := &fakeBackend{
		state:      clusterState("node-a"),
		afterMoves: clusterState("node-b"),
		plan:       &backend.PlanMoveResponse{TargetNode: "node-b", ReqCPU: 250, ReqMem: 1 << 20},
		mutating:   make(chan struct{}),
		release:    make(chan struct{}),
	}
	c := newTestConsole(t, fb, nil)
	ctx := context.Background()

	pending, err := c.Drop(ctx, "ns/app-1", workflow.Target{Node: "node-a"})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Confirm(ctx, pending.Edits) }()
	<-fb.mutating

	// the backend still reports the pre-move placement
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh during commit failed: %v", err)
	}
	if hl := c.View().Highlighted; len(hl) != 0 {
		t.Errorf("Expected no highlight while committing, got %v", hl)
	}

	close(fb.release)
	if err := <-done; err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	view := c.View()
	if len(view.Highlighted) != 1 || view.Highlighted[0] != "node-b" {
		t.Errorf("Expected node-b highlighted after commit, got %v", view.Highlighted)
	}
}

func TestOwnerMove(t *testing.T) {
	fb := &fakeBackend{
		state: clusterState("node-a"),
		plan:  &backend.PlanMoveResponse{TargetNode: "node-b", OwnerKind: "Deployment", OwnerName: "app"},
	}
	c := newTestConsole(t, fb, nil)
	ctx := context.Background()

	pending, err := c.Drop(ctx, "ns/app-1", workflow.Target{Node: "node-a"})
	if err != nil {
		t.Fatal(err)
	}
	edits := pending.Edits
	edits.ApplyToOwner = true
	if err := c.Confirm(ctx, edits); err != nil {
		t.Fatal(err)
	}

	op := fb.mutations[0][0]
	if op.Op != string(models.OpMoveOwnerToPool) || op.Namespace != "ns" || op.OwnerKind != "Deployment" || op.OwnerName != "app" || op.TargetPool != "pool-x" {
		t.Errorf("Unexpected operation: %+v", op)
	}
}

func TestMalformedOverridesMakeNoBackendCall(t *testing.T) {
	fb := &fakeBackend{
		state: clusterState("node-a"),
		plan:  &backend.PlanMoveResponse{TargetNode: "node-b"},
	}
	c := newTestConsole(t, fb, nil)
	ctx := context.Background()

	pending, err := c.Drop(ctx, "ns/app-1", workflow.Target{Node: "node-a"})
	if err != nil {
		t.Fatal(err)
	}
	before := fb.calls()

	edits := pending.Edits
	edits.Tolerations = `[{"key": "a",`
	err = c.Confirm(ctx, edits)

	var inputErr *workflow.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("Expected *workflow.InputError, got %v", err)
	}
	if fb.calls() != before {
		t.Errorf("Expected zero backend calls, got %d", fb.calls()-before)
	}
	if c.View().Phase != workflow.PhaseReviewing {
		t.Errorf("Expected to stay reviewing, got %s", c.View().Phase)
	}
}

func TestDropOnPoollessNodeMakesNoBackendCall(t *testing.T) {
	state := clusterState("node-a")
	state.Nodes = append(state.Nodes, backend.Node{Node: "loose"})
	fb := &fakeBackend{state: state}
	c := newTestConsole(t, fb, nil)

	_, err := c.Drop(context.Background(), "ns/app-1", workflow.Target{Node: "loose"})
	if !errors.Is(err, workflow.ErrMissingPool) {
		t.Fatalf("Expected ErrMissingPool, got %v", err)
	}
	if fb.planCalls != 0 {
		t.Errorf("Expected no plan request, got %d", fb.planCalls)
	}
}

func TestFailedCommitKeepsState(t *testing.T) {
	fb := &fakeBackend{
		state:     clusterState("node-a"),
		plan:      &backend.PlanMoveResponse{TargetNode: "node-b"},
		mutateErr: &backend.HTTPError{Method: "POST", Path: "/mutate", Status: 500},
	}
	store := &memoryStore{}
	c := newTestConsole(t, fb, store)
	ctx := context.Background()
	simulates := fb.simulates

	pending, err := c.Drop(ctx, "ns/app-1", workflow.Target{Node: "node-a"})
	if err != nil {
		t.Fatal(err)
	}
	err = c.Confirm(ctx, pending.Edits)

	var httpErr *backend.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *backend.HTTPError, got %v", err)
	}
	if fb.simulates != simulates {
		t.Error("Failed commit must not force a refresh")
	}
	c.mu.Lock()
	lastMoved := c.view.LastMoved
	c.mu.Unlock()
	if lastMoved != "" {
		t.Errorf("Expected last moved marker cleared, got %q", lastMoved)
	}
	if c.View().Phase != workflow.PhaseIdle {
		t.Errorf("Expected idle, got %s", c.View().Phase)
	}
	if len(store.records) != 1 || store.records[0].Status != models.MoveFailed {
		t.Errorf("Expected failed move journaled, got %+v", store.records)
	}
}

func TestUnsatisfiablePlan(t *testing.T) {
	fb := &fakeBackend{
		state: clusterState("node-a"),
		plan:  &backend.PlanMoveResponse{TargetPool: "pool-x"},
	}
	c := newTestConsole(t, fb, nil)

	_, err := c.Drop(context.Background(), "ns/app-1", workflow.Target{Pool: "pool-x"})
	if !errors.Is(err, workflow.ErrUnsatisfiablePlan) {
		t.Fatalf("Expected ErrUnsatisfiablePlan, got %v", err)
	}
	if c.View().Pending != nil {
		t.Error("Expected no pending move")
	}
}

func TestDispatch(t *testing.T) {
	fb := &fakeBackend{state: clusterState("node-a")}
	c := newTestConsole(t, fb, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Dispatch(ctx, Command{Name: CmdSortNodes, Key: sorting.NodeKeyCPU}); err != nil {
			t.Fatalf("sort-nodes failed: %v", err)
		}
	}
	view, err := c.Dispatch(ctx, Command{Name: CmdSelectNode, Node: "node-b"})
	if err != nil {
		t.Fatalf("select-node failed: %v", err)
	}
	if view.NodeSort.Dir != sorting.Asc || view.NodeSort.Mode != sorting.Requested {
		t.Errorf("Expected (req,asc) after two clicks, got %+v", view.NodeSort)
	}
	if view.SelectedNode != "node-b" || len(view.Workloads) != 0 {
		t.Errorf("Unexpected selection: %s %+v", view.SelectedNode, view.Workloads)
	}
	// cpu asc: keda node has no requests, then node-b, then node-a
	if view.Nodes[0].Name != "node-c" || view.Nodes[2].Name != "node-a" {
		t.Errorf("Unexpected order: %v", []string{view.Nodes[0].Name, view.Nodes[1].Name, view.Nodes[2].Name})
	}

	if _, err := c.Dispatch(ctx, Command{Name: "explode"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
	if _, err := c.Dispatch(ctx, Command{Name: CmdSelectNode, Node: "gone"}); !errors.Is(err, workflow.ErrUnknownNode) {
		t.Errorf("Expected ErrUnknownNode, got %v", err)
	}
	if _, err := c.Dispatch(ctx, Command{Name: CmdCancel}); !errors.Is(err, workflow.ErrNotReviewing) {
		t.Errorf("Expected ErrNotReviewing, got %v", err)
	}
}

func TestResetAndSnapshots(t *testing.T) {
	fb := &fakeBackend{state: clusterState("node-a")}
	c := newTestConsole(t, fb, nil)
	ctx := context.Background()

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if fb.mutations[0][0].Op != string(models.OpResetToBaseline) {
		t.Errorf("Expected reset op, got %+v", fb.mutations[0][0])
	}

	list, err := c.Snapshots(ctx)
	if err != nil || len(list) != 1 || !list[0].Active {
		t.Errorf("Unexpected snapshots: %+v, %v", list, err)
	}
	if err := c.ActivateSnapshot(ctx, "k8s-1"); err != nil || fb.activated != "k8s-1" {
		t.Errorf("ActivateSnapshot: %v", err)
	}
	id, err := c.CaptureSnapshot(ctx)
	if err != nil || id != "k8s-1" {
		t.Errorf("CaptureSnapshot: %q %v", id, err)
	}
	prices, err := c.RefreshPrices(ctx)
	if err != nil || prices.Region != "eu-west-1" {
		t.Errorf("RefreshPrices: %+v %v", prices, err)
	}
	table := c.Prices()
	if table.Region != "eu-west-1" || len(table.Rows) != 1 || !table.Rows[0].Known {
		t.Errorf("Expected refreshed price table, got %+v", table)
	}

	if _, err := c.History(ctx, storage.MoveFilter{}); !errors.Is(err, ErrJournalDisabled) {
		t.Errorf("Expected ErrJournalDisabled, got %v", err)
	}
}

func TestApplyBulkOperation(t *testing.T) {
	fb := &fakeBackend{state: clusterState("node-a")}
	store := &memoryStore{}
	c := newTestConsole(t, fb, store)
	ctx := context.Background()
	simulates := fb.simulates

	if err := c.Apply(ctx, models.NewMoveNodeOp("node-a", "pool keda-spot", models.Scope{IncludeDaemonSets: true})); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	op := fb.mutations[0][0]
	if op.Op != string(models.OpMoveNodeToPool) || op.NodeName != "node-a" || op.TargetPool != "keda-spot" || !op.IncludeDaemonSets {
		t.Errorf("Unexpected operation: %+v", op)
	}
	if fb.simulates != simulates+1 {
		t.Errorf("Expected one refresh after apply, got %d", fb.simulates-simulates)
	}
	if len(store.records) != 1 || store.records[0].SourceNode != "node-a" || store.records[0].TargetNode != "" {
		t.Errorf("Unexpected journal: %+v", store.records)
	}

	if err := c.Apply(ctx, models.NewDeletePodsOp([]string{"ns/app-1"})); err != nil {
		t.Fatalf("Apply delete failed: %v", err)
	}
	if rec := store.records[1]; rec.Kind != models.OpDeletePods || rec.PodID != "ns/app-1" || rec.Namespace != "ns" {
		t.Errorf("Unexpected delete journal: %+v", rec)
	}

	before := fb.calls()
	if err := c.Apply(ctx, models.NewDeletePodsOp([]string{"ns/ghost"})); !errors.Is(err, workflow.ErrUnknownWorkload) {
		t.Errorf("Expected ErrUnknownWorkload, got %v", err)
	}
	if fb.calls() != before {
		t.Error("Rejected operation must not reach the backend")
	}
}

func TestApplyBeforeLoad(t *testing.T) {
	c := New(Options{Backend: &fakeBackend{state: clusterState("node-a")}})
	if err := c.Apply(context.Background(), models.NewDeleteNamespaceOp("ns", models.Scope{})); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded, got %v", err)
	}
}

func TestOwnerOfAndPing(t *testing.T) {
	state := clusterState("node-a")
	state.PodsByNode["node-b"] = []backend.Pod{{PodID: "ns/web-1", Namespace: "ns", Name: "web-1", OwnerKind: "ReplicaSet", OwnerName: "web"}}
	fb := &fakeBackend{state: state}
	store := &memoryStore{}
	c := newTestConsole(t, fb, store)

	ns, kind, name, err := c.OwnerOf("ns/web-1")
	if err != nil || ns != "ns" || kind != "ReplicaSet" || name != "web" {
		t.Errorf("Unexpected owner %s/%s/%s: %v", ns, kind, name, err)
	}

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Expected healthy journal, got %v", err)
	}
	store.pingErr = errors.New("connection refused")
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Expected ping failure to surface")
	}
}
