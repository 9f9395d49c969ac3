// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

// Command fuseinspect renders diagnostic views of the executor graph: DOT
// dumps for visualization and schedule-queue statistics for a one-shot
// initial scheduling pass, given a small built-in demo pipeline shape
// (N sources -> one resize -> M sinks).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/datafuselabs/fusequery-core/executor"
)

func main() {
	app := &cli.App{
		Name:  "fuseinspect",
		Usage: "inspect executor graphs lowered from a demo pipeline shape",
		Commands: []*cli.Command{
			dotCommand(),
			scheduleCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fuseinspect:", err)
		os.Exit(1)
	}
}

func demoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "sources", Value: 3, Usage: "number of parallel source processors"},
		&cli.IntFlag{Name: "sinks", Value: 1, Usage: "number of parallel sink processors"},
	}
}

func buildDemoGraph(c *cli.Context) (*executor.Graph, error) {
	sources := c.Int("sources")
	sinks := c.Int("sinks")
	if sources < 1 || sinks < 1 {
		return nil, cli.Exit("sources and sinks must each be at least 1", 1)
	}

	sourceProcs := make([]executor.Processor, sources)
	for i := range sourceProcs {
		sourceProcs[i] = newDemoProcessor(fmt.Sprintf("source-%d", i), executor.Sync)
	}
	sinkProcs := make([]executor.Processor, sinks)
	for i := range sinkProcs {
		sinkProcs[i] = newDemoProcessor(fmt.Sprintf("sink-%d", i), executor.NeedData)
	}
	resizeProc := newDemoProcessor("resize", executor.NeedData)

	pipeline := executor.Pipeline{Pipes: []executor.Pipe{
		executor.SimplePipe{Processors: sourceProcs, HasInput: false, HasOutput: true},
		executor.ResizePipe{Processor: resizeProc, Inputs: sources, Outputs: sinks},
		executor.SimplePipe{Processors: sinkProcs, HasInput: true, HasOutput: false},
	}}
	return executor.Build(pipeline)
}

func dotCommand() *cli.Command {
	return &cli.Command{
		Name:  "dot",
		Usage: "print the DOT representation of the demo pipeline's lowered graph",
		Flags: demoFlags(),
		Action: func(c *cli.Context) error {
			g, err := buildDemoGraph(c)
			if err != nil {
				return err
			}
			fmt.Println(g.DOT())
			return nil
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "print node, edge and sink counts and the number of queued tasks after one initial scheduling pass",
		Flags: demoFlags(),
		Action: func(c *cli.Context) error {
			g, err := buildDemoGraph(c)
			if err != nil {
				return err
			}
			queue, err := executor.InitialWave(context.Background(), g)
			if err != nil {
				return err
			}
			fmt.Printf("nodes=%d edges=%d sinks=%d queued=%d\n",
				len(g.Nodes), len(g.Edges), len(g.Sinks()), queue.Len())
			return nil
		},
	}
}
