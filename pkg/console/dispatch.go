package console

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/viewstate"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

// ErrUnknownCommand is returned by Dispatch for names missing from the table
var ErrUnknownCommand = errors.New("unknown command")

// Command names
const (
	CmdSortNodes     = "sort-nodes"
	CmdSortWorkloads = "sort-workloads"
	CmdSelectNode    = "select-node"
	CmdDrop          = "drop"
	CmdConfirm       = "confirm"
	CmdCancel        = "cancel"
	CmdRefresh       = "refresh"
	CmdReset         = "reset"
	CmdApply         = "apply"
)

// Command is one user gesture
type Command struct {
	Name   string          `json:"command"`
	Key    string          `json:"key,omitempty"`    // sort-*
	Node   string          `json:"node,omitempty"`   // select-node
	PodID  string          `json:"podId,omitempty"`  // drop
	Target workflow.Target `json:"target,omitempty"` // drop
	Edits  workflow.Edits  `json:"edits,omitempty"`  // confirm

	Operation *models.Operation `json:"operation,omitempty"` // apply
}

type handler func(ctx context.Context, c *Console, cmd Command) error

var commands = map[string]handler{
	CmdSortNodes: func(_ context.Context, c *Console, cmd Command) error {
		return c.ClickNodeSort(cmd.Key)
	},
	CmdSortWorkloads: func(_ context.Context, c *Console, cmd Command) error {
		return c.ClickWorkloadSort(cmd.Key)
	},
	CmdSelectNode: func(_ context.Context, c *Console, cmd Command) error {
		return c.SelectNode(cmd.Node)
	},
	CmdDrop: func(ctx context.Context, c *Console, cmd Command) error {
		_, err := c.Drop(ctx, cmd.PodID, cmd.Target)
		return err
	},
	CmdConfirm: func(ctx context.Context, c *Console, cmd Command) error {
		return c.Confirm(ctx, cmd.Edits)
	},
	CmdCancel: func(_ context.Context, c *Console, _ Command) error {
		return c.Cancel()
	},
	CmdRefresh: func(ctx context.Context, c *Console, _ Command) error {
		return c.Refresh(ctx)
	},
	CmdReset: func(ctx context.Context, c *Console, _ Command) error {
		return c.Reset(ctx)
	},
	CmdApply: func(ctx context.Context, c *Console, cmd Command) error {
		if cmd.Operation == nil {
			return &workflow.InputError{Field: "operation", Err: errors.New("required")}
		}
		return c.Apply(ctx, *cmd.Operation)
	},
}

// Commands lists the dispatchable command names
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs one command and returns the resulting view
func (c *Console) Dispatch(ctx context.Context, cmd Command) (viewstate.View, error) {
	h, ok := commands[cmd.Name]
	if !ok {
		return c.View(), fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	err := h(ctx, c, cmd)
	return c.View(), err
}
