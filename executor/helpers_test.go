// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import "context"

// scriptedProcessor returns a fixed sequence of events, repeating its last
// entry once exhausted, and optionally runs a hook on Process/AsyncProcess.
type scriptedProcessor struct {
	Base
	name    string
	events  []Event
	idx     int
	onSync  func() error
	onAsync func(ctx context.Context) error
}

func newScripted(name string, events ...Event) *scriptedProcessor {
	return &scriptedProcessor{Base: NewBase(), name: name, events: events}
}

func (p *scriptedProcessor) Name() string { return p.name }

func (p *scriptedProcessor) Event(context.Context) (Event, error) {
	if p.idx >= len(p.events) {
		return p.events[len(p.events)-1], nil
	}
	e := p.events[p.idx]
	p.idx++
	return e, nil
}

func (p *scriptedProcessor) Process() error {
	if p.onSync != nil {
		return p.onSync()
	}
	return nil
}

func (p *scriptedProcessor) AsyncProcess(ctx context.Context) error {
	if p.onAsync != nil {
		return p.onAsync(ctx)
	}
	return nil
}

func (p *scriptedProcessor) AsAny() any { return p }

// finishingSource finishes its single output port the first time Event is
// called, and reports Finished from then on.
type finishingSource struct {
	Base
	name string
	Out  *OutputPort
	done bool
}

func newFinishingSource(name string) *finishingSource {
	return &finishingSource{Base: NewBase(), name: name}
}

func (p *finishingSource) Name() string { return p.name }

func (p *finishingSource) Event(context.Context) (Event, error) {
	if !p.done {
		p.done = true
		p.Out.Finish()
	}
	return Finished, nil
}

func (p *finishingSource) Process() error                    { return nil }
func (p *finishingSource) AsyncProcess(context.Context) error { return nil }
func (p *finishingSource) AsAny() any                         { return p }

// resizeCollector finishes all of its output ports once every input port
// reports finished, modeling a ResizePipe's fan-in/fan-out processor.
type resizeCollector struct {
	Base
	name string
	Ins  []*InputPort
	Outs []*OutputPort
	done bool
}

func newResizeCollector(name string) *resizeCollector {
	return &resizeCollector{Base: NewBase(), name: name}
}

func (p *resizeCollector) Name() string { return p.name }

func (p *resizeCollector) Event(context.Context) (Event, error) {
	allFinished := true
	for _, in := range p.Ins {
		if !in.IsFinished() {
			allFinished = false
			in.SetNeedData()
		}
	}
	if !allFinished {
		return NeedData, nil
	}
	if !p.done {
		p.done = true
		for _, out := range p.Outs {
			out.Finish()
		}
	}
	return Finished, nil
}

func (p *resizeCollector) Process() error                    { return nil }
func (p *resizeCollector) AsyncProcess(context.Context) error { return nil }
func (p *resizeCollector) AsAny() any                         { return p }

// sinkWatcher reports Finished once its single input port has no more data
// coming, modeling a terminal consumer processor.
type sinkWatcher struct {
	Base
	name string
	In   *InputPort
}

func newSinkWatcher(name string) *sinkWatcher {
	return &sinkWatcher{Base: NewBase(), name: name}
}

func (p *sinkWatcher) Name() string { return p.name }

func (p *sinkWatcher) Event(context.Context) (Event, error) {
	if p.In.IsFinished() {
		return Finished, nil
	}
	p.In.SetNeedData()
	return NeedData, nil
}

func (p *sinkWatcher) Process() error                    { return nil }
func (p *sinkWatcher) AsyncProcess(context.Context) error { return nil }
func (p *sinkWatcher) AsAny() any                         { return p }

// wireNode copies the node's allocated ports back onto the fake processor
// that owns it, since Build allocates ports during lowering, after the
// processor value itself was constructed.
func wireNode(n *Node) {
	switch p := n.Processor.(type) {
	case *finishingSource:
		p.Out = n.Outputs[0]
	case *resizeCollector:
		p.Ins = n.Inputs
		p.Outs = n.Outputs
	case *sinkWatcher:
		p.In = n.Inputs[0]
	}
}
