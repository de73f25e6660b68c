package sorting

import (
	"errors"
	"fmt"
)

// Direction of a column sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Toggle flips the direction
func (d Direction) Toggle() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Mode selects which metric a dual-metric column compares
type Mode string

const (
	Requested Mode = "req"
	Used      Mode = "use"
)

// Node table columns
const (
	NodeKeyDefault = "default"
	NodeKeyName    = "node"
	NodeKeyPool    = "nodepool"
	NodeKeyCost    = "cost"
	NodeKeyCPU     = "cpu"
	NodeKeyRAM     = "ram"
)

// Workload table columns
const (
	WorkloadKeyDefault     = "default"
	WorkloadKeyNamespace   = "namespace"
	WorkloadKeyName        = "name"
	WorkloadKeyActiveRatio = "active-ratio"
	WorkloadKeyType        = "type"
	WorkloadKeyCPU         = "cpu"
	WorkloadKeyMemory      = "mem"
)

// ErrUnknownKey is returned when a header click names a column the table does not have
var ErrUnknownKey = errors.New("unknown sort key")

var nodeKeys = map[string]bool{
	NodeKeyDefault: true,
	NodeKeyName:    true,
	NodeKeyPool:    true,
	NodeKeyCost:    true,
	NodeKeyCPU:     true,
	NodeKeyRAM:     true,
}

var workloadKeys = map[string]bool{
	WorkloadKeyDefault:     true,
	WorkloadKeyNamespace:   true,
	WorkloadKeyName:        true,
	WorkloadKeyActiveRatio: true,
	WorkloadKeyType:        true,
	WorkloadKeyCPU:         true,
	WorkloadKeyMemory:      true,
}

func isDualMetric(key string) bool {
	return key == NodeKeyCPU || key == NodeKeyRAM
}

// NodeSort is the active sort configuration of the node table
type NodeSort struct {
	Key  string    `json:"key"`
	Dir  Direction `json:"dir"`
	Mode Mode      `json:"mode"`
}

// DefaultNodeSort is the configuration of a freshly opened node table
func DefaultNodeSort() NodeSort {
	return NodeSort{Key: NodeKeyDefault, Dir: Asc, Mode: Requested}
}

// Click applies a header click to the node table.
//
// A new column starts descending (and on requested values for cpu/ram).
// Repeated clicks on cpu/ram walk (req,desc) -> (req,asc) -> (use,desc) -> (use,asc)
// and wrap; any other repeated click toggles the direction.
func (s *NodeSort) Click(key string) error {
	if !nodeKeys[key] {
		return fmt.Errorf("node table: %w: %q", ErrUnknownKey, key)
	}
	if key != s.Key {
		s.Key = key
		s.Dir = Desc
		if isDualMetric(key) {
			s.Mode = Requested
		}
		return nil
	}
	if !isDualMetric(key) {
		s.Dir = s.Dir.Toggle()
		return nil
	}
	switch {
	case s.Mode == Requested && s.Dir == Desc:
		s.Dir = Asc
	case s.Mode == Requested && s.Dir == Asc:
		s.Mode = Used
		s.Dir = Desc
	case s.Mode == Used && s.Dir == Desc:
		s.Dir = Asc
	default:
		s.Mode = Requested
		s.Dir = Desc
	}
	return nil
}

// WorkloadSort is the active sort configuration of the workload table
type WorkloadSort struct {
	Key string    `json:"key"`
	Dir Direction `json:"dir"`
}

// DefaultWorkloadSort is the configuration of a freshly opened workload table
func DefaultWorkloadSort() WorkloadSort {
	return WorkloadSort{Key: WorkloadKeyDefault, Dir: Desc}
}

// Click applies a header click to the workload table.
// Text columns start ascending, every other column starts descending.
func (s *WorkloadSort) Click(key string) error {
	if !workloadKeys[key] {
		return fmt.Errorf("workload table: %w: %q", ErrUnknownKey, key)
	}
	if key == s.Key {
		s.Dir = s.Dir.Toggle()
		return nil
	}
	s.Key = key
	s.Dir = Desc
	if key == WorkloadKeyNamespace || key == WorkloadKeyName {
		s.Dir = Asc
	}
	return nil
}
