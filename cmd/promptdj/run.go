package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmacd/promptdj/board"
	"github.com/jmacd/promptdj/collection"
	"github.com/jmacd/promptdj/midi/controller"
	"github.com/jmacd/promptdj/midi/launchxl"
	"github.com/jmacd/promptdj/tui"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var openMIDI, lights bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, openMIDI, lights)
		},
	}
	cmd.Flags().BoolVar(&openMIDI, "midi", false, "Acquire MIDI access at startup")
	cmd.Flags().BoolVar(&lights, "lights", false, "Show prompt levels on a Launch Control XL")
	return cmd
}

func run(ctx context.Context, flags *rootFlags, openMIDI, lights bool) error {
	cfg, logger, closeLog, err := flags.setup(true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	events := tui.NewEvents()
	b := board.New(events, opener(cfg, logger),
		board.WithLogger(logger),
		board.WithThrottleInterval(cfg.ThrottleInterval()),
		board.WithHalfExtent(cfg.HalfExtent()),
		board.WithPreferredInput(cfg.MIDI.Input),
		board.WithCollection(
			collection.WithPalette(cfg.Palette),
			collection.WithBounds(cfg.Container()),
			collection.WithFirstCC(controller.Control(cfg.Board.FirstCC)),
			collection.WithPrompts(cfg.Seeds()...),
		),
	)
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("close board", "error", err)
		}
	}()

	program := tea.NewProgram(tui.New(ctx, b),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	events.Attach(program)
	defer events.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := program.Run()
		stop()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	if openMIDI {
		g.Go(func() error {
			// Failures reach the screen through the board's error event.
			_ = b.OpenMIDI(ctx)
			return nil
		})
	}
	if lights || cfg.MIDI.Lights {
		out, err := launchxl.Open(cfg.MIDI.Template, logger)
		if err != nil {
			// The board works without the lights.
			logger.Warn("launch control xl unavailable", "error", err)
		} else {
			defer out.Close()
			unsubscribe := b.OnChange(out.Show)
			defer unsubscribe()
			out.Show(b.Snapshot())
			g.Go(func() error {
				if err := out.Run(ctx); !errors.Is(err, context.Canceled) {
					logger.Warn("launch control xl stopped", "error", err)
				}
				return nil
			})
		}
	}
	logger.Info("board started", "prompts", len(cfg.Prompts), "backend", cfg.MIDI.Backend)
	return g.Wait()
}
