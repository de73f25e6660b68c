package console

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/opscart/k8s-capacity-console/pkg/backend"
	"github.com/opscart/k8s-capacity-console/pkg/converter"
	"github.com/opscart/k8s-capacity-console/pkg/datasource"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/observability"
	"github.com/opscart/k8s-capacity-console/pkg/pricing"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/storage"
	"github.com/opscart/k8s-capacity-console/pkg/viewstate"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultAutoscalerMarker marks pools listed first in the default node order
const DefaultAutoscalerMarker = "keda"

var (
	ErrNotLoaded       = errors.New("no simulated state loaded")
	ErrJournalDisabled = errors.New("move journal is not enabled")
)

// Backend is the simulation service the console drives
type Backend interface {
	Simulate(ctx context.Context) (*backend.SimulateResponse, error)
	PlanMove(ctx context.Context, req backend.PlanMoveRequest) (*backend.PlanMoveResponse, error)
	Mutate(ctx context.Context, ops []backend.Operation) error
	ListSnapshots(ctx context.Context) ([]backend.Snapshot, error)
	ActivateSnapshot(ctx context.Context, id string) error
	CaptureSnapshot(ctx context.Context) (*backend.CaptureResponse, error)
	RefreshPrices(ctx context.Context) (*backend.RefreshPricesResponse, error)
}

// Options wires a console. Usage, Store and Recorder are optional.
type Options struct {
	Backend  Backend
	Sorter   *sorting.Engine
	Usage    datasource.UsageSource
	Store    storage.Store
	Prices   *pricing.Book
	Recorder *observability.Recorder
	Logger   *zap.Logger
}

// Console owns one view state and serialises every transition on it.
// Backend calls are made without holding the lock; results are applied
// against the latest state, never a copy taken before the call.
type Console struct {
	mu      sync.Mutex
	view    *viewstate.ViewState
	machine *workflow.Machine

	// last issued refresh sequence, and the sequence after which the last moved
	// marker may resolve; unresolvable while its mutation is in flight
	issued   uint64
	markedAt uint64

	backend  Backend
	sorter   *sorting.Engine
	usage    datasource.UsageSource
	store    storage.Store
	prices   *pricing.Book
	recorder *observability.Recorder
	logger   *zap.Logger
}

// New creates a console with an empty view
func New(opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sorter := opts.Sorter
	if sorter == nil {
		sorter = sorting.NewEngine(language.English, DefaultAutoscalerMarker)
	}
	prices := opts.Prices
	if prices == nil {
		prices = pricing.NewBook(pricing.DefaultTTL)
	}
	return &Console{
		view:     viewstate.New(),
		machine:  workflow.NewMachine(),
		backend:  opts.Backend,
		sorter:   sorter,
		usage:    opts.Usage,
		store:    opts.Store,
		prices:   prices,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// View returns a copy of the current state for rendering
func (c *Console) View() viewstate.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Console) snapshotLocked() viewstate.View {
	var pending *workflow.PendingMove
	if p, ok := c.machine.Pending(); ok {
		pending = &p
	}
	return c.view.Snapshot(c.machine.Phase(), pending)
}

func (c *Console) setStatus(format string, args ...any) {
	c.mu.Lock()
	c.view.Status = fmt.Sprintf(format, args...)
	c.mu.Unlock()
}

// Refresh reloads the simulated state and rebuilds both tables.
// A fetched state older than one already applied is discarded.
func (c *Console) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	start := time.Now()
	resp, err := c.backend.Simulate(ctx)
	if err != nil {
		c.recordRefresh("failed", start)
		c.setStatus("refresh failed: %v", err)
		return fmt.Errorf("refresh: %w", err)
	}
	state := converter.ToState(resp)
	c.overlayUsage(ctx, state)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.view.Seq {
		c.recordRefresh("stale", start)
		c.logger.Debug("discarding stale refresh", zap.Uint64("seq", seq), zap.Uint64("applied", c.view.Seq))
		return nil
	}

	c.view.Seq = seq
	c.view.Apply(state)
	if seq > c.markedAt {
		if node, ok := c.view.ResolveLastMoved(); ok {
			c.logger.Debug("highlighting moved workload", zap.String("node", node))
		}
	}
	c.view.Resort(c.sorter)
	c.view.Status = fmt.Sprintf("loaded %d nodes", len(state.Nodes))

	c.recordRefresh("applied", start)
	if c.recorder != nil {
		c.recorder.RecordPools(c.view.Pools)
		c.recorder.RecordHighlighted(c.view.Highlighted.Len())
	}
	return nil
}

func (c *Console) overlayUsage(ctx context.Context, state *models.SimulationState) {
	if c.usage == nil {
		return
	}
	usage, err := c.usage.UsageByWorkload(ctx)
	if err != nil {
		c.logger.Warn("usage overlay unavailable", zap.String("source", c.usage.Name()), zap.Error(err))
		return
	}
	filled := datasource.Overlay(state, usage)
	c.logger.Debug("usage overlay applied", zap.String("source", c.usage.Name()), zap.Int("workloads", filled))
}

func (c *Console) recordRefresh(outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordRefresh(outcome, time.Since(start).Seconds())
	}
}

// ClickNodeSort applies a node table header click
func (c *Console) ClickNodeSort(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.view.NodeSort.Click(key); err != nil {
		return err
	}
	c.view.Resort(c.sorter)
	return nil
}

// ClickWorkloadSort applies a workload table header click
func (c *Console) ClickWorkloadSort(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.view.WorkloadSort.Click(key); err != nil {
		return err
	}
	c.view.Resort(c.sorter)
	return nil
}

// SelectNode shows the workloads of another node
func (c *Console) SelectNode(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.Loaded() {
		return ErrNotLoaded
	}
	if !c.view.Select(name) {
		return fmt.Errorf("select %s: %w", name, workflow.ErrUnknownNode)
	}
	c.view.Resort(c.sorter)
	return nil
}

// Drop requests a plan for moving podID onto target and opens it for review
func (c *Console) Drop(ctx context.Context, podID string, target workflow.Target) (workflow.PendingMove, error) {
	c.mu.Lock()
	if !c.view.Loaded() {
		c.mu.Unlock()
		return workflow.PendingMove{}, ErrNotLoaded
	}
	req, token, err := c.machine.Drop(c.view.State, podID, target)
	c.mu.Unlock()
	if err != nil {
		c.setStatus("%v", err)
		return workflow.PendingMove{}, err
	}

	resp, planErr := c.backend.PlanMove(ctx, converter.ToPlanRequest(req))

	pending, err := c.machine.PlanResolved(token, converter.ToPlan(resp), planErr)
	switch {
	case errors.Is(err, workflow.ErrStalePlan):
		c.recordPlan("stale")
		c.logger.Debug("discarding stale plan", zap.String("pod", podID))
		return workflow.PendingMove{}, err
	case errors.Is(err, workflow.ErrUnsatisfiablePlan):
		c.recordPlan("unsatisfiable")
		c.setStatus("%v", err)
		return workflow.PendingMove{}, err
	case err != nil:
		c.recordPlan("failed")
		c.setStatus("%v", err)
		return workflow.PendingMove{}, err
	}

	c.recordPlan("ready")
	c.setStatus("review move of %s to %s", pending.PodID, pending.Plan.TargetNode)
	return pending, nil
}

func (c *Console) recordPlan(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordPlan(outcome)
	}
}

// Cancel discards the open gesture without contacting the backend
func (c *Console) Cancel() error {
	if err := c.machine.Cancel(); err != nil {
		return err
	}
	c.setStatus("move cancelled")
	return nil
}

// Confirm commits the move under review with the given edits. Malformed edits
// return a *workflow.InputError before any backend call. A successful commit
// is followed by a refresh that highlights the workload's new node.
func (c *Console) Confirm(ctx context.Context, edits workflow.Edits) error {
	c.mu.Lock()
	commit, err := c.machine.Confirm(edits)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.view.MarkMoved(commit.PodID)
	c.markedAt = math.MaxUint64
	c.mu.Unlock()

	op := commit.Operation
	mutateErr := c.backend.Mutate(ctx, converter.ToOperations([]models.Operation{op}))
	if c.recorder != nil {
		c.recorder.RecordMutation(string(op.Kind), mutateErr)
	}
	c.journal(ctx, op, commit.PodID, mutateErr)

	if err := c.machine.CommitResolved(mutateErr); err != nil {
		c.mu.Lock()
		c.view.LastMoved = ""
		c.markedAt = c.issued
		c.view.Status = fmt.Sprintf("move failed: %v", err)
		c.mu.Unlock()
		return err
	}

	// refreshes issued before this point may carry the pre-move state
	c.mu.Lock()
	c.markedAt = c.issued
	c.mu.Unlock()

	c.logger.Info("move committed",
		zap.String("kind", string(op.Kind)),
		zap.String("pod", commit.PodID),
		zap.String("node", op.NodeName),
		zap.String("pool", op.TargetPool))
	return c.Refresh(ctx)
}

func (c *Console) journal(ctx context.Context, op models.Operation, podID string, mutateErr error) {
	if c.store == nil {
		return
	}

	rec := &models.MoveRecord{
		Kind:       op.Kind,
		PodID:      podID,
		Namespace:  op.Namespace,
		OwnerKind:  op.OwnerKind,
		OwnerName:  op.OwnerName,
		TargetPool: op.TargetPool,
		Status:     models.MoveSucceeded,
	}
	if op.Kind == models.OpMoveNodeToPool {
		rec.SourceNode = op.NodeName
	} else {
		rec.TargetNode = op.NodeName
	}
	if rec.Namespace == "" && podID != "" {
		rec.Namespace, _ = models.SplitWorkloadID(podID)
	}
	if op.Overrides != nil {
		rec.RequestedCPU = op.Overrides.RequestedCPU
		rec.RequestedMemory = op.Overrides.RequestedMemory
	}
	if mutateErr != nil {
		rec.Status = models.MoveFailed
		rec.ErrorMessage = mutateErr.Error()
	}

	if err := c.store.SaveMove(ctx, rec); err != nil {
		c.logger.Warn("failed to journal move", zap.String("kind", string(op.Kind)), zap.Error(err))
	}
}

// Apply sends one namespace, node, pod-list or owner operation and reloads.
// It is refused while a single-instance move is being committed. Highlights
// are left as they are.
func (c *Console) Apply(ctx context.Context, op models.Operation) error {
	c.mu.Lock()
	if !c.view.Loaded() {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.machine.Phase() == workflow.PhaseCommitting {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op.Kind, workflow.ErrBusy)
	}
	op, err := workflow.PrepareBulk(c.view.State, op)
	c.mu.Unlock()
	if err != nil {
		c.setStatus("%v", err)
		return err
	}

	mutateErr := c.backend.Mutate(ctx, converter.ToOperations([]models.Operation{op}))
	if c.recorder != nil {
		c.recorder.RecordMutation(string(op.Kind), mutateErr)
	}
	c.journal(ctx, op, strings.Join(op.PodIDs, ","), mutateErr)
	if mutateErr != nil {
		c.setStatus("%s failed: %v", op.Kind, mutateErr)
		return fmt.Errorf("%s: %w", op.Kind, mutateErr)
	}

	c.logger.Info("operation applied",
		zap.String("kind", string(op.Kind)),
		zap.Strings("pods", op.PodIDs),
		zap.String("namespace", op.Namespace),
		zap.String("node", op.NodeName),
		zap.String("pool", op.TargetPool))
	return c.Refresh(ctx)
}

// OwnerOf resolves the controller managing a loaded workload
func (c *Console) OwnerOf(podID string) (namespace, kind, name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.Loaded() {
		return "", "", "", ErrNotLoaded
	}
	return workflow.OwnerOf(c.view.State, podID)
}

// Reset discards every mutation applied to the active snapshot
func (c *Console) Reset(ctx context.Context) error {
	op := models.NewResetOp()
	err := c.backend.Mutate(ctx, converter.ToOperations([]models.Operation{op}))
	if c.recorder != nil {
		c.recorder.RecordMutation(string(op.Kind), err)
	}
	if err != nil {
		c.setStatus("reset failed: %v", err)
		return fmt.Errorf("reset: %w", err)
	}

	c.mu.Lock()
	c.view.Highlighted = sets.New[string]()
	c.view.LastMoved = ""
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Snapshots lists the backend's snapshots
func (c *Console) Snapshots(ctx context.Context) ([]models.SnapshotInfo, error) {
	list, err := c.backend.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return converter.ToSnapshots(list), nil
}

// ActivateSnapshot switches the backend to another snapshot and reloads
func (c *Console) ActivateSnapshot(ctx context.Context, id string) error {
	if err := c.backend.ActivateSnapshot(ctx, id); err != nil {
		c.setStatus("activate %s failed: %v", id, err)
		return fmt.Errorf("activate snapshot %s: %w", id, err)
	}
	return c.Refresh(ctx)
}

// CaptureSnapshot collects the live cluster into a new snapshot and reloads
// once the capture has completed.
func (c *Console) CaptureSnapshot(ctx context.Context) (string, error) {
	resp, err := c.backend.CaptureSnapshot(ctx)
	if err != nil {
		c.setStatus("capture failed: %v", err)
		return "", fmt.Errorf("capture snapshot: %w", err)
	}
	c.logger.Info("snapshot captured", zap.String("id", resp.ID))
	if err := c.Refresh(ctx); err != nil {
		return resp.ID, err
	}
	return resp.ID, nil
}

// RefreshPrices re-fetches instance prices and reloads
func (c *Console) RefreshPrices(ctx context.Context) (models.PriceRefresh, error) {
	resp, err := c.backend.RefreshPrices(ctx)
	if err != nil {
		c.setStatus("price refresh failed: %v", err)
		return models.PriceRefresh{}, fmt.Errorf("refresh prices: %w", err)
	}
	result := converter.ToPriceRefresh(resp)
	c.prices.Load(result)
	if err := c.Refresh(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Prices lists the refreshed instance prices next to the instance types in view
func (c *Console) Prices() models.PriceTable {
	c.mu.Lock()
	nodes := slices.Clone(c.view.Nodes)
	c.mu.Unlock()
	return c.prices.Table(nodes)
}

// Ping checks the move journal, when one is configured
func (c *Console) Ping(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Ping(ctx)
}

// History lists journaled moves
func (c *Console) History(ctx context.Context, filter storage.MoveFilter) ([]*models.MoveRecord, error) {
	if c.store == nil {
		return nil, ErrJournalDisabled
	}
	return c.store.ListMoves(ctx, filter)
}
