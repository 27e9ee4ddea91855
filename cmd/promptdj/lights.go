package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi/launchxl"
)

func newLightsCmd(flags *rootFlags) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "lights",
		Short: "Show the level colours on a Launch Control XL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := flags.setup(false)
			if err != nil {
				return err
			}
			defer closeLog()

			out, err := launchxl.Open(cfg.MIDI.Template, logger)
			if err != nil {
				return err
			}
			defer out.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			// Each knob column shows one level, the bottom row flashing as
			// a filtered prompt would.
			for i := 0; i < 8; i++ {
				level := i % (intensity.MaxLevel + 1)
				out.SetColor(launchxl.ControlKnobSendA[i], launchxl.LevelColor(level, false))
				out.SetColor(launchxl.ControlKnobSendB[i], launchxl.LevelColor(level, false))
				out.SetColor(launchxl.ControlKnobPanDevice[i], launchxl.LevelColor(level, true))
				out.SetColor(launchxl.ControlButtonTrackFocus[i], launchxl.EightColors[i])
				out.SetColor(launchxl.ControlButtonTrackControl[i], launchxl.Flash(launchxl.EightColors[i]))
			}
			if err := out.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return out.Reset()
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "How long to show the pattern")
	return cmd
}
