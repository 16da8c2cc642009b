// Command schedsim runs a small fixed simulation scenario (one core, one
// scheduler module, a handful of workload threads) and streams the
// resulting event log to stdout, either as text or as a binary CBOR
// log for later replay.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/codec"
	"github.com/joeycumines/schedsi/policies"
	"github.com/joeycumines/schedsi/vtime"
	"github.com/joeycumines/schedsi/workload"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		policyName string
		slice      int64
		numThreads int
		burstLen   int64
		binaryOut  bool
		kMax       int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "schedsim",
		Short: "Run a fixed hierarchical scheduling simulation and emit its event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zl := zerolog.New(cmd.ErrOrStderr()).Level(level).With().Timestamp().Logger()
			logger := schedsi.NewZerologLogger(zl)

			world, err := schedsi.NewWorld(schedsi.WithWorldLogger(logger))
			if err != nil {
				return fmt.Errorf("schedsim: %w", err)
			}

			root := &schedsi.Module{ID: 1, Name: "root", HasRoot: true}
			if err := world.RegisterModule(root); err != nil {
				return fmt.Errorf("schedsim: %w", err)
			}

			view := &staticView{world: world}
			policy, err := buildPolicy(policyName, vtime.FromInt(slice))
			if err != nil {
				return err
			}
			sched := schedsi.NewBaseScheduler(1, root.ID, policy, view, kMax)
			if err := world.RegisterThread(sched); err != nil {
				return fmt.Errorf("schedsim: %w", err)
			}

			for i := 0; i < numThreads; i++ {
				id := schedsi.ThreadID(2 + i)
				t := workload.NewFixedThread(id, root.ID, vtime.FromInt(burstLen), vtime.Zero)
				if err := world.RegisterThread(t); err != nil {
					return fmt.Errorf("schedsim: %w", err)
				}
				view.ids = append(view.ids, id)
			}

			var sink schedsi.EventSink
			if binaryOut {
				bs, err := codec.NewBinarySink(cmd.OutOrStdout())
				if err != nil {
					return fmt.Errorf("schedsim: %w", err)
				}
				sink = bs
			} else {
				sink = codec.NewTextSink(cmd.OutOrStdout())
			}

			core, err := schedsi.NewCore("core0", sched,
				schedsi.WithStatusVariant(schedsi.LocalTimerVariant),
				schedsi.WithEventSink(sink),
				schedsi.WithThreadRegistry(world),
				schedsi.WithKMax(kMax),
				schedsi.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("schedsim: %w", err)
			}
			world.AddCore(core)

			return world.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "rr", "scheduling policy: rr, fcfs, sjf, mlfq, cfs")
	cmd.Flags().Int64Var(&slice, "slice", 4, "time slice for slice-based policies")
	cmd.Flags().IntVar(&numThreads, "threads", 3, "number of workload threads")
	cmd.Flags().Int64Var(&burstLen, "burst", 10, "workload length per thread")
	cmd.Flags().BoolVar(&binaryOut, "binary", false, "emit a binary CBOR event log instead of text")
	cmd.Flags().IntVar(&kMax, "k-max", 32, "maximum context chain depth")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "lower the log level from warn to debug (core failures and aborts are logged at error level either way)")

	return cmd
}

func buildPolicy(name string, slice vtime.Time) (schedsi.Policy, error) {
	switch name {
	case "rr":
		return policies.NewRoundRobin(slice), nil
	case "fcfs":
		return policies.NewFCFS(), nil
	case "sjf":
		return policies.NewSJF(), nil
	case "mlfq":
		return policies.NewMLFQ(4, slice), nil
	case "cfs":
		return policies.NewCFS(slice), nil
	default:
		return nil, fmt.Errorf("schedsim: unknown policy %q", name)
	}
}

// staticView is a fixed-membership PolicyView over the World's arena.
type staticView struct {
	world *schedsi.World
	ids   []schedsi.ThreadID
}

func (v *staticView) Candidates() []schedsi.ThreadID { return v.ids }

func (v *staticView) Thread(id schedsi.ThreadID) schedsi.Thread { return v.world.Thread(id) }
