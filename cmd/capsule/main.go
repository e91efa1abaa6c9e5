// Capsule CLI - inspects the capability model over a capsule.toml manifest
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/capsule/manifest"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("capsule.cli")

// options holds the persistent flags shared by every subcommand.
type options struct {
	manifestPath string
	verbosity    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "capsule",
		Short: "Reference capabilities and isolate transfer",
		Long: `capsule loads classes, fixture objects and actors from a capsule.toml
manifest and exercises the capability guard and isolate transfer on them.

Examples:
  capsule lattice                          # print the support table
  capsule check -m ./demo                  # build the manifest heap
  capsule transfer --root a --to local     # deep copy object a
  capsule send --from I1 --to I2 --root a  # send a between actors`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(opts.verbosity, nil)
		},
	}

	root.PersistentFlags().StringVarP(&opts.manifestPath, "manifest", "m", "", "manifest file or directory (default: search upward from the working directory)")
	root.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (repeatable)")

	root.AddCommand(
		newLatticeCmd(),
		newCheckCmd(opts),
		newTransferCmd(opts),
		newSendCmd(opts),
	)
	return root
}

// loadManifest resolves the -m flag to a manifest and applies its logging
// section.
func (o *options) loadManifest() (*manifest.Manifest, error) {
	var (
		m   *manifest.Manifest
		err error
	)
	switch {
	case o.manifestPath == "":
		m, err = manifest.FindAndLoad(".")
		if err == nil && m == nil {
			err = fmt.Errorf("no capsule.toml found in this directory or any parent")
		}
	default:
		info, statErr := os.Stat(o.manifestPath)
		if statErr != nil {
			return nil, statErr
		}
		if info.IsDir() {
			m, err = manifest.Load(o.manifestPath)
		} else {
			m, err = manifest.LoadFile(o.manifestPath)
		}
	}
	if err != nil {
		return nil, err
	}

	if m.Log.Verbosity > o.verbosity || m.Log.File != "" {
		verbosity := max(o.verbosity, m.Log.Verbosity)
		var path *string
		if m.Log.File != "" {
			file := m.Log.File
			if !filepath.IsAbs(file) {
				file = filepath.Join(filepath.Dir(m.Path), file)
			}
			path = &file
		}
		commonlog.Configure(verbosity, path)
	}
	log.Debugf("using manifest %s", m.Path)
	return m, nil
}

// buildHeap loads the manifest and builds its heap.
func (o *options) buildHeap() (*manifest.Manifest, *manifest.Heap, error) {
	m, err := o.loadManifest()
	if err != nil {
		return nil, nil, err
	}
	h, err := m.Build()
	if err != nil {
		return nil, nil, err
	}
	return m, h, nil
}
