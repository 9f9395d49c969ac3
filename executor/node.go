// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import "sync"

// ScheduleState is a node's position in the schedule routine's state
// machine (spec.md §3, "Node").
type ScheduleState int

const (
	Idle ScheduleState = iota
	Preparing
	Processing
	Finished
)

func (s ScheduleState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Preparing:
		return "Preparing"
	case Processing:
		return "Processing"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// DirectedEdge is an ordered (source, target) pair tagged with the side the
// triggering port transition occurred on, per spec.md §3.
type DirectedEdge struct {
	Source, Target *Node
	Side           Side
}

// Node is the executor's wrapper around a Processor: a mutable schedule
// state guarded by its own mutex, and an update list recording which edges
// this node's ports touched since the list was last drained. Per spec.md
// §5, a node's mutex may be carried forward one hop by the schedule routine
// (edge-follow into node-process) but two node mutexes are never held at
// once, since propagation always follows edge direction.
type Node struct {
	Index     int
	Name      string
	Processor Processor
	Inputs    []*InputPort
	Outputs   []*OutputPort

	mu    sync.Mutex
	state ScheduleState

	updateMu   sync.Mutex
	updateList []DirectedEdge
}

// NewNode wraps p as node index idx.
func NewNode(idx int, p Processor) *Node {
	return &Node{Index: idx, Name: p.Name(), Processor: p, state: Idle}
}

// Lock acquires the node's state mutex. The schedule routine carries a lock
// taken while following an edge forward into the node's Event call, holding
// it across both.
func (n *Node) Lock()   { n.mu.Lock() }
func (n *Node) Unlock() { n.mu.Unlock() }

// State returns the node's current schedule state. Callers must hold the
// node's lock.
func (n *Node) State() ScheduleState { return n.state }

// SetState transitions the node's schedule state. Callers must hold the
// node's lock.
func (n *Node) SetState(s ScheduleState) { n.state = s }

// IsSink reports whether this node has no outgoing (downstream) wiring,
// i.e. no output ports — the executor graph's terminal nodes.
func (n *Node) IsSink() bool { return len(n.Outputs) == 0 }

// IsSource reports whether this node has no input ports.
func (n *Node) IsSource() bool { return len(n.Inputs) == 0 }

func (n *Node) pushUpdate(e DirectedEdge) {
	n.updateMu.Lock()
	n.updateList = append(n.updateList, e)
	n.updateMu.Unlock()
}

// drainUpdates removes and returns every edge accumulated on this node's
// update list since the last drain.
func (n *Node) drainUpdates() []DirectedEdge {
	n.updateMu.Lock()
	edges := n.updateList
	n.updateList = nil
	n.updateMu.Unlock()
	return edges
}
