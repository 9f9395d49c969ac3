// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import "context"

// scheduleNode runs the per-node schedule routine of spec.md §4.4 starting
// from seed, appending every Sync/Async task it discovers onto queue. It
// maintains a node deque and an edge deque; the edge deque is how readiness
// discovered on one node's ports propagates to its neighbors without
// polling the whole graph.
//
// Locking follows spec.md §5's one-hop carry discipline: following an edge
// into an Idle target locks that target's node mutex once, and the lock is
// carried forward into the node-pop step instead of being released and
// re-acquired, so no two node mutexes are ever held at the same time.
func scheduleNode(ctx context.Context, seed *Node, queue *ScheduleQueue) error {
	nodeDeque := []*Node{seed}
	lockedOnArrival := map[*Node]bool{seed: false}
	edgeDeque := []DirectedEdge{}

	for len(nodeDeque) > 0 || len(edgeDeque) > 0 {
		if len(nodeDeque) == 0 {
			edge := edgeDeque[0]
			edgeDeque = edgeDeque[1:]

			target := edge.Target
			target.Lock()
			if target.State() == Idle {
				nodeDeque = append(nodeDeque, target)
				lockedOnArrival[target] = true
				continue
			}
			target.Unlock()
			continue
		}

		n := nodeDeque[0]
		nodeDeque = nodeDeque[1:]

		alreadyLocked := lockedOnArrival[n]
		delete(lockedOnArrival, n)
		if !alreadyLocked {
			n.Lock()
		}

		event, err := n.Processor.Event(ctx)
		if err != nil {
			n.Unlock()
			return err
		}

		switch event {
		case Finished:
			n.SetState(Finished)
		case NeedData, NeedConsume:
			n.SetState(Idle)
		case Sync:
			n.SetState(Processing)
			queue.PushSync(n.Processor)
		case Async:
			n.SetState(Processing)
			queue.PushAsync(n.Processor)
		}
		n.Unlock()

		edgeDeque = append(edgeDeque, n.drainUpdates()...)
	}
	return nil
}

// InitialWave runs the schedule routine from every sink of g, under an
// upgradable read lock on the graph (spec.md §4.4's "Initial wave"),
// collecting every discovered task into a single ScheduleQueue.
func InitialWave(ctx context.Context, g *Graph) (*ScheduleQueue, error) {
	g.lock.UpgradableRLock()
	defer g.lock.UnlockUpgradableAsRead()

	queue := NewScheduleQueue()
	for _, sink := range g.Sinks() {
		if err := scheduleNode(ctx, sink, queue); err != nil {
			return nil, err
		}
	}
	return queue, nil
}
