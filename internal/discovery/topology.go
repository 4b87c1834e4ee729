package discovery

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is one discovered device in the topology document.
type Node struct {
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
}

// Edge is one neighbor relationship reported by a visited device, recorded
// even when the remote end lacks a resolvable management IP (§4.1 "a
// neighbor with no management IP is recorded in topology edges but not
// enqueued").
type Edge struct {
	LocalHostname   string `json:"local_hostname"`
	LocalInterface  string `json:"local_interface,omitempty"`
	RemoteHostname  string `json:"remote_hostname"`
	RemoteInterface string `json:"remote_interface,omitempty"`
	RemoteIP        string `json:"remote_ip,omitempty"`
}

// Topology is the plain adjacency-list document the crawler owns
// (discovery/network.json).
type Topology struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// LoadTopology reads a previously written network.json, if any.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("discovery: read topology %s: %w", path, err)
	}
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("discovery: parse topology %s: %w", path, err)
	}
	return &t, nil
}

// SaveTopology writes t as pretty-printed JSON to path.
func SaveTopology(path string, t *Topology) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("discovery: marshal topology: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("discovery: write topology %s: %w", path, err)
	}
	return nil
}

// MergeTopology folds a new crawl's nodes and edges into a previously
// written topology document instead of overwriting it, so repeated partial
// crawls of a large campus accumulate one topology over time. Recovered
// from the original deployment's standalone topology-merge tool, which
// spec.md's distillation dropped.
func MergeTopology(existing, incoming *Topology) *Topology {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	merged := &Topology{}

	seenNodes := make(map[string]struct{})
	for _, n := range existing.Nodes {
		merged.Nodes = append(merged.Nodes, n)
		seenNodes[n.Hostname] = struct{}{}
	}
	for _, n := range incoming.Nodes {
		if _, ok := seenNodes[n.Hostname]; ok {
			continue
		}
		merged.Nodes = append(merged.Nodes, n)
		seenNodes[n.Hostname] = struct{}{}
	}

	seenEdges := make(map[string]struct{})
	edgeKey := func(e Edge) string {
		return e.LocalHostname + "|" + e.LocalInterface + "|" + e.RemoteHostname + "|" + e.RemoteInterface
	}
	for _, e := range existing.Edges {
		merged.Edges = append(merged.Edges, e)
		seenEdges[edgeKey(e)] = struct{}{}
	}
	for _, e := range incoming.Edges {
		key := edgeKey(e)
		if _, ok := seenEdges[key]; ok {
			continue
		}
		merged.Edges = append(merged.Edges, e)
		seenEdges[key] = struct{}{}
	}

	return merged
}
