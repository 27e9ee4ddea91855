package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmacd/promptdj/intensity"
	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/controller"
)

func newMonitorCmd(flags *rootFlags) *cobra.Command {
	var (
		duration time.Duration
		input    string
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print control changes from a MIDI input with the level each one selects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := flags.setup(false)
			if err != nil {
				return err
			}
			defer closeLog()
			if input == "" {
				input = cfg.MIDI.Input
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			bus := midi.NewBus()
			panel := midi.NewPanel(opener(cfg, logger), bus, logger, midi.WithPreferredInput(input))
			defer panel.Close()

			if err := panel.Open(ctx); err != nil {
				return err
			}
			if _, ok := panel.ActiveInput(); !ok {
				return midi.ErrNoDevices
			}

			out := cmd.OutOrStdout()
			unsubscribe := bus.Subscribe(midi.AllControls, func(msg controller.Message) {
				fmt.Fprintf(out, "ch %-2d cc %-3d value %-3d level %d\n",
					msg.Channel, msg.Control, msg.Value, intensity.CCToLevel(int(msg.Value)))
			})
			defer unsubscribe()

			<-ctx.Done()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "How long to listen; 0 listens until interrupted")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Listen to the first input whose name contains this")
	return cmd
}
