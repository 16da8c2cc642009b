// Command schedsi-replay reads a binary CBOR event log produced by
// schedsim --binary and re-renders it, either as text lines or as a
// Gantt-chart SVG.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeycumines/schedsi"
	"github.com/joeycumines/schedsi/codec"
	"github.com/joeycumines/schedsi/svggantt"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var svg bool

	cmd := &cobra.Command{
		Use:   "schedsi-replay [file]",
		Short: "Replay a binary schedsi event log as text or SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("schedsi-replay: %w", err)
				}
				defer f.Close()
				in = f
			}

			source := codec.NewBinarySource(in)

			if svg {
				sink := svggantt.NewSink(cmd.OutOrStdout())
				if err := drain(source, sink.Handle); err != nil {
					return err
				}
				return sink.Flush()
			}

			sink := codec.NewTextSink(cmd.OutOrStdout())
			return drain(source, sink.Handle)
		},
	}

	cmd.Flags().BoolVar(&svg, "svg", false, "render a Gantt-chart SVG instead of text lines")

	return cmd
}

func drain(source *codec.BinarySource, handle func(schedsi.Event)) error {
	for {
		e, err := source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("schedsi-replay: %w", err)
		}
		handle(e)
	}
}
