// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package main

import (
	"context"

	"github.com/datafuselabs/fusequery-core/executor"
)

// demoProcessor always reports the same event, just enough behavior to
// exercise graph lowering and one scheduling pass for inspection purposes.
type demoProcessor struct {
	executor.Base
	name  string
	event executor.Event
}

func newDemoProcessor(name string, event executor.Event) *demoProcessor {
	return &demoProcessor{Base: executor.NewBase(), name: name, event: event}
}

func (p *demoProcessor) Name() string { return p.name }

func (p *demoProcessor) Event(context.Context) (executor.Event, error) {
	return p.event, nil
}

func (p *demoProcessor) Process() error                    { return nil }
func (p *demoProcessor) AsyncProcess(context.Context) error { return nil }
func (p *demoProcessor) AsAny() any                          { return p }
