package cli

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/padflow/internal/domain/model"
)

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		in     inputFlags
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "solve [performance]",
		Short: "Assign hands and fingers to a performance",
		Long: `Solve a performance (JSON, YAML or Standard MIDI File) against a section map
and print the per-note trace with the overall playability score.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			req, err := in.load(args)
			if err != nil {
				return f.Error(err)
			}
			res, err := solve(cmd.Context(), rootOpts, req)
			if err != nil {
				return f.Error(err)
			}
			if err := f.Success(res, func(w io.Writer) error { return writeTrace(w, res) }); err != nil {
				return err
			}
			if strict && res.UnplayableCount > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d unplayable notes", res.UnplayableCount))
			}
			return nil
		},
	}
	in.bind(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with status 1 when any note is unplayable")
	return cmd
}

func writeTrace(w io.Writer, res model.EngineResult) error { //nolint:gocritic // rendered once
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIME\tPITCH\tPAD\tHAND\tFINGER\tCOST\tDIFFICULTY\tNOTE")
	for _, ev := range res.DebugEvents {
		pad, cost := "-", "-"
		if ev.Mapped {
			pad = fmt.Sprintf("(%d,%d)", ev.Row, ev.Col)
		}
		if !math.IsInf(ev.Cost, 0) {
			cost = fmt.Sprintf("%.2f", ev.Cost)
		}
		note := ev.Reason
		if ev.Overridden {
			note = "override"
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.Index, ev.StartTime, ev.Pitch, pad, ev.Hand, ev.Finger, cost, ev.Difficulty, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nscore %.1f  hard %d  unplayable %d  drift %.2f\n",
		res.Score, res.HardCount, res.UnplayableCount, res.AverageDrift)
	return err
}
