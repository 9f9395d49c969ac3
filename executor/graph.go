// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import (
	"github.com/cockroachdb/errors"
	"github.com/emicklei/dot"
)

// Graph is the lowered, stable directed graph of processor nodes the
// executor schedules. It is built once per query (Build) and dropped on
// completion or cancellation.
type Graph struct {
	Nodes []*Node
	Edges []DirectedEdge

	lock upgradableLock
}

// errBadPipeline reports a malformed Pipeline: carry-stack arity mismatches
// or a non-empty stack after the last pipe.
func errBadPipeline(format string, args ...any) error {
	return errors.Newf("malformed pipeline: "+format, args...)
}

// carrySlot is one element of the carry-over stack threaded between pipes:
// the output port available for the next pipe to consume, and the node
// that owns it.
type carrySlot struct {
	node *Node
	port *OutputPort
}

// Build lowers pipeline into a Graph, per spec.md §4.4: walking pipes
// left-to-right, maintaining a carry-over stack of (node, output port)
// pairs from the previous pipe, wiring each new pipe's input ports to that
// stack, and replacing the stack with the new pipe's output side.
func Build(pipeline Pipeline) (*Graph, error) {
	g := &Graph{}
	var carry []carrySlot

	for pipeIdx, pipe := range pipeline.Pipes {
		switch p := pipe.(type) {
		case SimplePipe:
			if p.HasInput && len(carry) != len(p.Processors) {
				return nil, errBadPipeline("pipe %d: %d carry outputs but %d processors expecting input", pipeIdx, len(carry), len(p.Processors))
			}
			next := make([]carrySlot, 0, len(p.Processors))
			for i, proc := range p.Processors {
				node := NewNode(len(g.Nodes), proc)
				g.Nodes = append(g.Nodes, node)

				if p.HasInput {
					in := NewInputPort(node)
					node.Inputs = append(node.Inputs, in)
					src := carry[i]
					Wire(src.port, in)
					edge := DirectedEdge{Source: src.node, Target: node, Side: Downstream}
					g.Edges = append(g.Edges, edge)
				}
				if p.HasOutput {
					out := NewOutputPort(node)
					node.Outputs = append(node.Outputs, out)
					next = append(next, carrySlot{node: node, port: out})
				}
			}
			carry = next

		case ResizePipe:
			if len(carry) != p.Inputs {
				return nil, errBadPipeline("pipe %d: %d carry outputs but ResizePipe wants %d inputs", pipeIdx, len(carry), p.Inputs)
			}
			node := NewNode(len(g.Nodes), p.Processor)
			g.Nodes = append(g.Nodes, node)

			for _, src := range carry {
				in := NewInputPort(node)
				node.Inputs = append(node.Inputs, in)
				Wire(src.port, in)
				g.Edges = append(g.Edges, DirectedEdge{Source: src.node, Target: node, Side: Downstream})
			}

			next := make([]carrySlot, 0, p.Outputs)
			for o := 0; o < p.Outputs; o++ {
				out := NewOutputPort(node)
				node.Outputs = append(node.Outputs, out)
				next = append(next, carrySlot{node: node, port: out})
			}
			carry = next

		default:
			return nil, errBadPipeline("pipe %d: unknown pipe type %T", pipeIdx, pipe)
		}
	}

	if len(carry) != 0 {
		return nil, errBadPipeline("carry stack has %d unconsumed outputs after the last pipe", len(carry))
	}
	return g, nil
}

// Sinks returns every node with no outgoing wiring, the executor's starting
// points for the initial schedule wave (spec.md §4.4).
func (g *Graph) Sinks() []*Node {
	var sinks []*Node
	for _, n := range g.Nodes {
		if n.IsSink() {
			sinks = append(sinks, n)
		}
	}
	return sinks
}

// DOT renders the graph for diagnostics, mirroring the original engine's
// petgraph::dot debug dumps.
func (g *Graph) DOT() string {
	graph := dot.NewGraph(dot.Directed)
	nodes := make(map[int]dot.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.Index] = graph.Node(n.Name)
	}
	for _, e := range g.Edges {
		graph.Edge(nodes[e.Source.Index], nodes[e.Target.Index])
	}
	return graph.String()
}
