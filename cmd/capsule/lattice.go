package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/chazu/capsule/vm"
	"github.com/spf13/cobra"
)

func newLatticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lattice",
		Short: "Print which holder capabilities support which value capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLattice(cmd.OutOrStdout())
		},
	}
}

// printLattice renders the support relation with holders as rows and
// values as columns.
func printLattice(w io.Writer) error {
	caps := vm.AllCapabilities()

	headers := []string{"holder \\ value"}
	for _, c := range caps {
		headers = append(headers, c.String())
	}

	rows := make([][]string, 0, len(caps))
	for _, holder := range caps {
		row := []string{holder.String()}
		for _, value := range caps {
			cell := "-"
			if holder.Supports(value) {
				cell = "yes"
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
