// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import (
	"context"

	"github.com/google/uuid"
)

// Event is the readiness verdict a Processor reports from Event. It drives
// the schedule routine's state transition for the owning node.
type Event int

const (
	NeedData Event = iota
	NeedConsume
	Sync
	Async
	Finished
)

func (e Event) String() string {
	switch e {
	case NeedData:
		return "NeedData"
	case NeedConsume:
		return "NeedConsume"
	case Sync:
		return "Sync"
	case Async:
		return "Async"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Processor is a node's behavior in the executor graph (spec.md §6,
// "Processor contract"). Event is called by the schedule routine to decide
// what state the owning node should move to; Process and AsyncProcess are
// the Sync/Async work bodies the runtime dispatches to a worker.
type Processor interface {
	Name() string
	Event(ctx context.Context) (Event, error)
	Process() error
	AsyncProcess(ctx context.Context) error
	AsAny() any
	ID() uuid.UUID
}

// Base is embedded by concrete processors to supply ID(). AsAny() is left to
// the embedder, since AsAny must downcast to the concrete type, not to Base
// itself.
type Base struct {
	id uuid.UUID
}

// NewBase assigns a fresh trace id, per spec.md §6 ("id() for tracing").
func NewBase() Base { return Base{id: uuid.New()} }

func (b Base) ID() uuid.UUID { return b.id }
