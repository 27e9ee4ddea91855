package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDevicesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List MIDI input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := flags.setup(false)
			if err != nil {
				return err
			}
			defer closeLog()

			access, err := opener(cfg, logger)(cmd.Context())
			if err != nil {
				return fmt.Errorf("midi: acquire access: %w", err)
			}
			defer access.Close()

			ids, err := access.Inputs()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, id := range ids {
				fmt.Fprintf(w, "%d\t%s\n", id, access.Name(id))
			}
			return w.Flush()
		},
	}
}
