// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import (
	"sync"

	"github.com/datafuselabs/fusequery-core/block"
)

// Side identifies which side of an edge a trigger fired on: Downstream
// triggers are recorded by a producer pushing data or finishing, Upstream
// triggers by a consumer asking for more data.
type Side int

const (
	Downstream Side = iota
	Upstream
)

func (s Side) String() string {
	if s == Upstream {
		return "Upstream"
	}
	return "Downstream"
}

// wire is the shared state behind one OutputPort/InputPort pair: a
// single-producer/single-consumer slot for at most one pending block, per
// spec.md §3 ("an OutputPort may hold at most one pending block; an
// InputPort observes one").
type wire struct {
	mu         sync.Mutex
	hasData    bool
	needData   bool
	isFinished bool
	pending    *block.DataBlock
}

// OutputPort is the producer-facing endpoint of a wire.
type OutputPort struct {
	w     *wire
	owner *Node
	peer  *Node // consuming node, set once Wire connects this port
}

// InputPort is the consumer-facing endpoint of a wire.
type InputPort struct {
	w     *wire
	owner *Node
	peer  *Node // producing node, set once Wire connects this port
}

// NewOutputPort and NewInputPort construct unconnected ports; Wire links a
// pair into a single SPSC channel and records the owning nodes.
func NewOutputPort(owner *Node) *OutputPort { return &OutputPort{w: &wire{}, owner: owner} }
func NewInputPort(owner *Node) *InputPort   { return &InputPort{w: &wire{}, owner: owner} }

// Wire connects out to in, replacing in's wire with out's so both endpoints
// observe the same pending-block slot, and records each side's peer node for
// trigger propagation.
func Wire(out *OutputPort, in *InputPort) {
	in.w = out.w
	out.peer = in.owner
	in.peer = out.owner
}

func (p *OutputPort) notify() {
	p.owner.pushUpdate(DirectedEdge{Source: p.owner, Target: p.peer, Side: Downstream})
}

func (p *InputPort) notify() {
	p.owner.pushUpdate(DirectedEdge{Source: p.owner, Target: p.peer, Side: Upstream})
}

// HasData reports whether a block is waiting to be pulled.
func (p *OutputPort) HasData() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return p.w.hasData
}

// CanPush reports whether Push may be called: the slot must be empty and
// the port not yet finished.
func (p *OutputPort) CanPush() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return !p.w.hasData && !p.w.isFinished
}

// NeedData reports whether the consumer has asked for more data.
func (p *OutputPort) NeedData() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return p.w.needData
}

// Push hands a block downstream. It notifies the owning (producer) node's
// update list so the schedule routine can walk to the consuming node next.
func (p *OutputPort) Push(b *block.DataBlock) {
	p.w.mu.Lock()
	p.w.pending = b
	p.w.hasData = true
	p.w.needData = false
	p.w.mu.Unlock()
	p.notify()
}

// Finish marks the port as having no more data to produce.
func (p *OutputPort) Finish() {
	p.w.mu.Lock()
	p.w.isFinished = true
	p.w.mu.Unlock()
	p.notify()
}

// IsFinished reports whether the producer has finished.
func (p *OutputPort) IsFinished() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return p.w.isFinished
}

// HasData reports whether a block is available to Pull.
func (p *InputPort) HasData() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return p.w.hasData
}

// IsFinished reports whether the upstream producer has finished and no
// block remains pending.
func (p *InputPort) IsFinished() bool {
	p.w.mu.Lock()
	defer p.w.mu.Unlock()
	return p.w.isFinished && !p.w.hasData
}

// Pull takes the pending block, if any, clearing has-data.
func (p *InputPort) Pull() (*block.DataBlock, bool) {
	p.w.mu.Lock()
	b := p.w.pending
	ok := p.w.hasData
	p.w.pending = nil
	p.w.hasData = false
	p.w.mu.Unlock()
	return b, ok
}

// SetNeedData asks the upstream producer for another block, notifying the
// owning (consumer) node's update list so the schedule routine walks back
// to the producing node.
func (p *InputPort) SetNeedData() {
	p.w.mu.Lock()
	p.w.needData = true
	p.w.mu.Unlock()
	p.notify()
}
