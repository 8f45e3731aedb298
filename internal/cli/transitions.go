package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/padflow/internal/domain/analysis"
)

// NewTransitionsCommand creates the transitions command.
func NewTransitionsCommand(rootOpts *RootOptions) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:           "transitions [performance]",
		Short:         "Show hand switches, movement speed and choke points of a solved take",
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
			sum := analysis.Summarize(res.DebugEvents)
			return f.Success(sum, func(w io.Writer) error { return writeSummary(w, sum) })
		},
	}
	in.bind(cmd)
	return cmd
}

func writeSummary(w io.Writer, s analysis.Summary) error { //nolint:gocritic // rendered once
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tDT\tDISTANCE\tSPEED\tSWITCH\tSAME FINGER")
	for _, t := range s.Transitions {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.2f\t%.2f\t%t\t%t\n",
			t.From, t.To, t.TimeDelta, t.Distance, t.Speed, t.HandSwitch, t.SameFinger)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nleft %d  right %d  unplayable %d  left share %.0f%%\n"+
		"hand switches %d  same-finger repeats %d  max speed %.2f pads/s  choke points %v\n",
		s.Balance.Left, s.Balance.Right, s.Balance.Unplayable, s.Balance.LeftShare()*100,
		s.HandSwitches, s.SameFinger, s.MaxSpeed, s.ChokePoints)
	return err
}
