package main

import (
	"fmt"
	"os"

	"github.com/chazu/capsule/vm"
	"github.com/chazu/capsule/vm/snapshot"
	"github.com/spf13/cobra"
)

func newTransferCmd(opts *options) *cobra.Command {
	var (
		rootID   string
		destName string
		cborPath string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Deep copy the graph below an object and print both graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := vm.ParseCapability(destName)
			if err != nil {
				return err
			}
			_, h, err := opts.buildHeap()
			if err != nil {
				return err
			}
			root, ok := h.Object(rootID)
			if !ok {
				return fmt.Errorf("no object %q in manifest", rootID)
			}

			out := cmd.OutOrStdout()
			source := snapshot.Capture(root)
			fmt.Fprintf(out, "source (%s):\n", vm.ClassifyForTransfer(root))
			if err := source.Render(out); err != nil {
				return err
			}

			if vm.ClassifyForTransfer(root) == vm.NoTransfer {
				fmt.Fprintf(out, "%s is not a transfer type; it is shared by reference\n", rootID)
				return nil
			}

			tm := vm.NewTransferMap()
			copied := snapshot.Capture(vm.Transfer(root, dest, tm))
			fmt.Fprintf(out, "copy (%d objects, %s):\n", len(tm), dest)
			if err := copied.Render(out); err != nil {
				return err
			}

			if cborPath != "" {
				data, err := snapshot.Marshal(copied)
				if err != nil {
					return err
				}
				if err := os.WriteFile(cborPath, data, 0644); err != nil {
					return fmt.Errorf("writing %s: %w", cborPath, err)
				}
				log.Infof("wrote %d bytes to %s", len(data), cborPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rootID, "root", "", "id of the object to transfer")
	cmd.Flags().StringVar(&destName, "to", vm.Isolate.String(), "capability stamped on the copies")
	cmd.Flags().StringVar(&cborPath, "cbor", "", "write the copy's snapshot as CBOR to this file")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
