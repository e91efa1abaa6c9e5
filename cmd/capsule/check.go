package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the manifest and build its heap through the guard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, h, err := opts.buildHeap()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok (%d classes, %d objects, %d actors)\n",
				m.Project.Name, len(h.Classes), len(h.Objects), len(m.Actors))
			for _, id := range h.IDs() {
				obj, _ := h.Object(id)
				fmt.Fprintf(out, "  %-12s %s\n", id, obj.Capability())
			}
			return nil
		},
	}
}
