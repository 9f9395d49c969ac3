// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datafuselabs/fusequery-core/block"
)

func TestWirePropagatesPushedBlockToInput(t *testing.T) {
	producer := NewNode(0, newScripted("producer", Sync))
	consumer := NewNode(1, newScripted("consumer", NeedData))

	out := NewOutputPort(producer)
	in := NewInputPort(consumer)
	Wire(out, in)

	require.True(t, out.CanPush())
	require.False(t, in.HasData())

	b := block.EmptyDataBlock(block.Schema{})
	out.Push(b)

	require.True(t, in.HasData())
	require.False(t, out.CanPush())

	got, ok := in.Pull()
	require.True(t, ok)
	require.Same(t, b, got)
	require.False(t, in.HasData())
	require.True(t, out.CanPush())
}

func TestPushNotifiesProducerUpdateList(t *testing.T) {
	producer := NewNode(0, newScripted("producer", Sync))
	consumer := NewNode(1, newScripted("consumer", NeedData))
	out := NewOutputPort(producer)
	in := NewInputPort(consumer)
	Wire(out, in)

	out.Push(block.EmptyDataBlock(block.Schema{}))

	edges := producer.drainUpdates()
	require.Len(t, edges, 1)
	require.Same(t, producer, edges[0].Source)
	require.Same(t, consumer, edges[0].Target)
	require.Equal(t, Downstream, edges[0].Side)
}

func TestSetNeedDataNotifiesConsumerUpdateListTowardProducer(t *testing.T) {
	producer := NewNode(0, newScripted("producer", Sync))
	consumer := NewNode(1, newScripted("consumer", NeedData))
	out := NewOutputPort(producer)
	in := NewInputPort(consumer)
	Wire(out, in)

	in.SetNeedData()

	edges := consumer.drainUpdates()
	require.Len(t, edges, 1)
	require.Same(t, consumer, edges[0].Source)
	require.Same(t, producer, edges[0].Target)
	require.Equal(t, Upstream, edges[0].Side)
}

func TestFinishWithoutPendingBlockReportsInputFinished(t *testing.T) {
	producer := NewNode(0, newScripted("producer", Sync))
	consumer := NewNode(1, newScripted("consumer", NeedData))
	out := NewOutputPort(producer)
	in := NewInputPort(consumer)
	Wire(out, in)

	require.False(t, in.IsFinished())
	out.Finish()
	require.True(t, in.IsFinished())
}

func TestFinishAfterPendingBlockIsNotYetInputFinished(t *testing.T) {
	producer := NewNode(0, newScripted("producer", Sync))
	consumer := NewNode(1, newScripted("consumer", NeedData))
	out := NewOutputPort(producer)
	in := NewInputPort(consumer)
	Wire(out, in)

	out.Push(block.EmptyDataBlock(block.Schema{}))
	out.Finish()
	require.False(t, in.IsFinished(), "a pending block must be consumed before finished is observable on the input side")

	_, _ = in.Pull()
	require.True(t, in.IsFinished())
}
