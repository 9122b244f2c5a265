// Command xtcfilter copies a subset of frames and atoms from one xtc
// trajectory into another, without re-compressing anything: compressed
// payloads are copied through byte-for-byte, truncated at the exact point
// decoding the selected atoms would stop.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thebagchi/xtc-go/xtc/internal/xlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		xlog.Logger().Error().Err(err).Msg("xtcfilter failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		frameSelectionFlag string
		atomSelectionFlag  string
		unbuffered         bool
		reverse            bool
		times              bool
		steps              bool
		verbose            bool
	)

	cmd := &cobra.Command{
		Use:   "xtcfilter <input.xtc> <output.xtc>",
		Short: "Filter an xtc trajectory by frame and atom selection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				xlog.Enabled = true
			}

			frameSelection, err := parseFrameSelection(frameSelectionFlag)
			if err != nil {
				return fmt.Errorf("parsing frame selection: %w", err)
			}
			atomSelection, err := parseAtomSelection(atomSelectionFlag)
			if err != nil {
				return fmt.Errorf("parsing atom selection: %w", err)
			}

			return filterTrajectory(filterOptions{
				input:          args[0],
				output:         args[1],
				frameSelection: frameSelection,
				atomSelection:  atomSelection,
				buffered:       !unbuffered,
				reverse:        reverse,
				times:          times,
				steps:          steps,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&frameSelectionFlag, "frame-selection", "f", "", `frame selection as "start:stop:step", each component optional`)
	flags.StringVarP(&atomSelectionFlag, "atom-selection", "a", "", "keep atoms with index less than this value")
	flags.BoolVar(&unbuffered, "unbuffered", false, "read compressed payloads eagerly instead of in blocks")
	flags.BoolVar(&reverse, "reverse", false, "write the trajectory in reverse; selection is unaffected")
	flags.BoolVar(&times, "times", false, "print the time of each selected frame instead of writing it out")
	flags.BoolVar(&steps, "steps", false, "print the step of each selected frame instead of writing it out")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable decode-time trace logging")

	return cmd
}
