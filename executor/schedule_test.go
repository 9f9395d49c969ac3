// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitialWaveProducesQueueOfLengthK(t *testing.T) {
	k := 4
	procs := make([]Processor, k)
	for i := range procs {
		event := Sync
		if i%2 == 1 {
			event = Async
		}
		procs[i] = newScripted("source", event)
	}
	pipeline := Pipeline{Pipes: []Pipe{
		SimplePipe{Processors: procs, HasInput: false, HasOutput: false},
	}}
	g, err := Build(pipeline)
	require.NoError(t, err)
	require.Len(t, g.Sinks(), k, "every source-and-sink-in-one node should be scheduled")

	queue, err := InitialWave(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, k, queue.Len())
}

func TestResizePipeConsumerReachesFinishedAfterProducersFinish(t *testing.T) {
	sources := []Processor{newFinishingSource("source-0"), newFinishingSource("source-1"), newFinishingSource("source-2")}
	resize := newResizeCollector("resize")
	sink := newSinkWatcher("sink")

	pipeline := Pipeline{Pipes: []Pipe{
		SimplePipe{Processors: sources, HasInput: false, HasOutput: true},
		ResizePipe{Processor: resize, Inputs: 3, Outputs: 1},
		SimplePipe{Processors: []Processor{sink}, HasInput: true, HasOutput: false},
	}}
	g, err := Build(pipeline)
	require.NoError(t, err)
	for _, n := range g.Nodes {
		wireNode(n)
	}

	ctx := context.Background()
	queue, err := InitialWave(ctx, g)
	require.NoError(t, err)
	_ = queue

	sinkNode := g.Nodes[len(g.Nodes)-1]
	sinkNode.Lock()
	state := sinkNode.State()
	sinkNode.Unlock()
	require.Equal(t, Finished, state, "sink should reach Finished once all producers finish in a single scheduling pass")
}
