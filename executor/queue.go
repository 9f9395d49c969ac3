// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import "sync"

// TaskKind distinguishes a Sync task (runs to completion, never yields)
// from an Async task (may suspend inside Processor.AsyncProcess).
type TaskKind int

const (
	SyncTask TaskKind = iota
	AsyncTask
)

// Task pairs a processor with the kind of work a worker must do for it.
type Task struct {
	Kind      TaskKind
	Processor Processor
}

// ScheduleQueue is the pair of FIFOs produced by one scheduling pass
// (spec.md §4.4, §8): a sync queue and an async queue.
type ScheduleQueue struct {
	mu    sync.Mutex
	sync  []Processor
	async []Processor
}

// NewScheduleQueue returns an empty ScheduleQueue.
func NewScheduleQueue() *ScheduleQueue { return &ScheduleQueue{} }

// PushSync enqueues a processor that reported the Sync event.
func (q *ScheduleQueue) PushSync(p Processor) {
	q.mu.Lock()
	q.sync = append(q.sync, p)
	q.mu.Unlock()
}

// PushAsync enqueues a processor that reported the Async event.
func (q *ScheduleQueue) PushAsync(p Processor) {
	q.mu.Lock()
	q.async = append(q.async, p)
	q.mu.Unlock()
}

// Len returns the total number of queued tasks, sync and async combined.
func (q *ScheduleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sync) + len(q.async)
}

// GlobalQueue is a worker's tail queue: tasks this worker picked up during a
// schedule pass but did not immediately execute, preserved in
// sync-before-async order for any worker (this one or another) to drain.
type GlobalQueue struct {
	mu    sync.Mutex
	tasks []Task
}

// NewGlobalQueue returns an empty GlobalQueue.
func NewGlobalQueue() *GlobalQueue { return &GlobalQueue{} }

func (g *GlobalQueue) pushBack(t Task) {
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
}

// PopFront removes and returns the oldest queued task.
func (g *GlobalQueue) PopFront() (Task, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.tasks) == 0 {
		return Task{}, false
	}
	t := g.tasks[0]
	g.tasks = g.tasks[1:]
	return t, true
}

// Schedule implements the dispatch rule of spec.md §4.4: if the sync queue
// is empty, steal one async task for the caller; otherwise steal one sync
// task (sync wins when both are available, since sync tasks cannot yield
// and must not wait behind async I/O). Everything else left in the queue is
// pushed onto global as a tail, sync before async.
func (q *ScheduleQueue) Schedule(global *GlobalQueue) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var picked Task
	havePicked := false

	switch {
	case len(q.sync) == 0 && len(q.async) > 0:
		picked = Task{Kind: AsyncTask, Processor: q.async[0]}
		q.async = q.async[1:]
		havePicked = true
	case len(q.sync) > 0:
		picked = Task{Kind: SyncTask, Processor: q.sync[0]}
		q.sync = q.sync[1:]
		havePicked = true
	}

	for _, p := range q.sync {
		global.pushBack(Task{Kind: SyncTask, Processor: p})
	}
	for _, p := range q.async {
		global.pushBack(Task{Kind: AsyncTask, Processor: p})
	}
	q.sync = nil
	q.async = nil

	return picked, havePicked
}
