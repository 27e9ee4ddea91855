package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmacd/promptdj/config"
	"github.com/jmacd/promptdj/midi"
	"github.com/jmacd/promptdj/midi/portmidi"
	"github.com/jmacd/promptdj/midi/rtmidi"
)

type rootFlags struct {
	configPath string
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "promptdj",
		Short:        "Mix weighted prompts with the keyboard, the mouse and a MIDI controller",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a TOML config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(
		newRunCmd(flags),
		newDevicesCmd(flags),
		newMonitorCmd(flags),
		newLightsCmd(flags),
	)
	return root
}

// setup loads configuration and builds the logger. quiet discards logs
// unless a log file was given, for commands that own the terminal.
func (f *rootFlags) setup(quiet bool) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, nil, err
		}
		out = file
		closeFn = func() { _ = file.Close() }
	case quiet:
		out = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()}))
	return cfg, logger, closeFn, nil
}

func opener(cfg *config.Config, logger *slog.Logger) midi.Opener {
	if cfg.MIDI.Backend == config.BackendPortmidi {
		return portmidi.Opener(logger)
	}
	return rtmidi.Opener(logger)
}
