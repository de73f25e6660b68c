package models

import "time"

// LogEntry is one change-log line reported by the backend
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// SimulationState is a full simulated snapshot as returned by the backend
type SimulationState struct {
	Nodes      []NodeView                `json:"nodes"`
	PodsByNode map[string][]WorkloadView `json:"podsByNode"`
	Summary    Summary                   `json:"summary"`
	Logs       []LogEntry                `json:"logs,omitempty"`
	Violations map[string][]string       `json:"violations,omitempty"`
}

// FindNode returns the node with the given name
func (s *SimulationState) FindNode(name string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeView{}, false
}

// FindWorkload returns the workload and the node currently hosting it
func (s *SimulationState) FindWorkload(id string) (WorkloadView, string, bool) {
	for node, pods := range s.PodsByNode {
		for _, p := range pods {
			if p.ID == id {
				return p, node, true
			}
		}
	}
	return WorkloadView{}, "", false
}

// LocateWorkload returns the node currently hosting the workload
func (s *SimulationState) LocateWorkload(id string) (string, bool) {
	_, node, ok := s.FindWorkload(id)
	return node, ok
}

// SnapshotInfo describes a named snapshot held by the backend
type SnapshotInfo struct {
	ID        string `json:"id"`
	NodeCount int    `json:"nodeCount"`
	PodCount  int    `json:"podCount"`
	Active    bool   `json:"active"`
}

// PriceRefresh is the outcome of an external pricing refresh
type PriceRefresh struct {
	Region        string             `json:"region"`
	InstanceTypes []string           `json:"instanceTypes"`
	HourlyPrices  map[string]float64 `json:"hourlyPrices"`
}

// InstancePrice is one row of the price table
type InstancePrice struct {
	Instance  string  `json:"instance"`
	HourlyUSD float64 `json:"hourlyUsd"`
	DailyUSD  float64 `json:"dailyUsd"`
	Nodes     int     `json:"nodes"` // real nodes of this type in the current view
	Known     bool    `json:"known"`
}

type PriceTable struct {
	Region string          `json:"region"`
	Rows   []InstancePrice `json:"rows"`
}
