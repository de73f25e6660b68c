package workflow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/opscart/k8s-capacity-console/pkg/models"
)

// Phase of the move workflow
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePlanning   Phase = "planning"
	PhaseReviewing  Phase = "reviewing"
	PhaseCommitting Phase = "committing"
)

// Target is where a workload was dropped: a node row or a pool card.
// Exactly one field is set.
type Target struct {
	Node string `json:"node,omitempty"`
	Pool string `json:"pool,omitempty"`
}

// PendingMove is the open, editable wrapper around a plan
type PendingMove struct {
	Token  string          `json:"token"`
	PodID  string          `json:"podId"`
	Target Target          `json:"target"`
	Pool   string          `json:"pool"` // pool used for controller-level moves
	Plan   models.MovePlan `json:"plan"`
	Edits  Edits           `json:"edits"`
}

// CanApplyToOwner reports whether the controller-level choice is offered
func (p PendingMove) CanApplyToOwner() bool {
	return p.Plan.HasOwner() && p.Pool != ""
}

// Commit is the single mutation produced by a confirmed review
type Commit struct {
	PodID     string
	Operation models.Operation
}

// Machine drives one gesture at a time through
// idle -> planning -> reviewing -> committing -> idle.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	token   string
	podID   string
	target  Target
	pool    string
	pending *PendingMove
}

// NewMachine creates an idle workflow
func NewMachine() *Machine {
	return &Machine{phase: PhaseIdle}
}

// Phase returns the current phase
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Pending returns a copy of the move under review
func (m *Machine) Pending() (PendingMove, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return PendingMove{}, false
	}
	return *m.pending, true
}

// NormalizePool keeps the last word of a pool label ("pool keda-spot" -> "keda-spot")
func NormalizePool(pool string) string {
	fields := strings.Fields(pool)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Drop opens a plan request for a dropped workload and returns it with its token.
// A drop while reviewing supersedes the open move.
func (m *Machine) Drop(state *models.SimulationState, podID string, target Target) (models.PlanRequest, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhasePlanning || m.phase == PhaseCommitting {
		return models.PlanRequest{}, "", fmt.Errorf("drop %s: %w", podID, ErrBusy)
	}
	if state == nil {
		return models.PlanRequest{}, "", fmt.Errorf("drop %s: %w", podID, ErrUnknownWorkload)
	}
	if _, ok := state.LocateWorkload(podID); !ok {
		return models.PlanRequest{}, "", fmt.Errorf("drop %s: %w", podID, ErrUnknownWorkload)
	}

	req := models.PlanRequest{PodID: podID}
	var pool string
	switch {
	case target.Node != "":
		node, ok := state.FindNode(target.Node)
		if !ok {
			return models.PlanRequest{}, "", fmt.Errorf("drop %s on %s: %w", podID, target.Node, ErrUnknownNode)
		}
		if !node.HasPool() {
			return models.PlanRequest{}, "", fmt.Errorf("drop %s on %s: %w", podID, target.Node, ErrMissingPool)
		}
		req.TargetNode = node.Name
		pool = NormalizePool(node.Pool)
	default:
		pool = NormalizePool(target.Pool)
		if pool == "" {
			return models.PlanRequest{}, "", fmt.Errorf("drop %s: %w", podID, ErrMissingPool)
		}
		req.TargetPool = pool
	}

	m.phase = PhasePlanning
	m.token = uuid.NewString()
	m.podID = podID
	m.target = target
	m.pool = pool
	m.pending = nil

	return req, m.token, nil
}

// PlanResolved applies the response to a plan request.
// Responses for anything but the latest open request return ErrStalePlan and change nothing.
func (m *Machine) PlanResolved(token string, plan *models.MovePlan, planErr error) (PendingMove, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlanning || token == "" || token != m.token {
		return PendingMove{}, ErrStalePlan
	}

	podID := m.podID
	if planErr != nil {
		m.reset()
		return PendingMove{}, fmt.Errorf("plan %s: %w", podID, planErr)
	}
	if plan == nil || plan.TargetNode == "" {
		m.reset()
		return PendingMove{}, fmt.Errorf("plan %s: %w", podID, ErrUnsatisfiablePlan)
	}

	pool := m.pool
	if p := NormalizePool(plan.TargetPool); p != "" {
		pool = p
	}

	m.pending = &PendingMove{
		Token:  token,
		PodID:  podID,
		Target: m.target,
		Pool:   pool,
		Plan:   *plan,
		Edits:  DefaultEdits(*plan),
	}
	m.phase = PhaseReviewing
	return *m.pending, nil
}

// Cancel abandons the open gesture. Cancelling while planning invalidates the
// request token so the late response is discarded. No backend call is made.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhasePlanning && m.phase != PhaseReviewing {
		return ErrNotReviewing
	}
	m.reset()
	return nil
}

// Confirm parses the edits and builds the mutation for the move under review.
// Malformed edits return an *InputError and leave the move open.
func (m *Machine) Confirm(edits Edits) (Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseReviewing || m.pending == nil {
		return Commit{}, ErrNotReviewing
	}

	overrides, err := edits.Parse()
	if err != nil {
		m.pending.Edits = edits
		return Commit{}, err
	}

	p := m.pending
	p.Edits = edits

	var op models.Operation
	if edits.ApplyToOwner && p.CanApplyToOwner() {
		namespace, _ := models.SplitWorkloadID(p.PodID)
		op = models.NewMoveOwnerOp(namespace, p.Plan.OwnerKind, p.Plan.OwnerName, p.Pool, overrides)
	} else {
		op = models.NewMoveWorkloadOp(p.PodID, p.Plan.TargetNode, overrides)
	}

	m.phase = PhaseCommitting
	return Commit{PodID: p.PodID, Operation: op}, nil
}

// CommitResolved closes the gesture once the backend has answered the mutation
func (m *Machine) CommitResolved(commitErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseCommitting {
		return ErrNotCommitting
	}
	podID := m.podID
	m.reset()

	if commitErr != nil {
		return fmt.Errorf("commit %s: %w", podID, commitErr)
	}
	return nil
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.token = ""
	m.podID = ""
	m.target = Target{}
	m.pool = ""
	m.pending = nil
}
