package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/capsule/vm"
	"github.com/chazu/capsule/vm/actor"
	"github.com/chazu/capsule/vm/snapshot"
	"github.com/spf13/cobra"
)

func newSendCmd(opts *options) *cobra.Command {
	var (
		fromName string
		toName   string
		rootID   string
		selector string
		resend   bool
		consume  bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an object from one manifest actor to another",
		Long: `send spawns the manifest's actors and sends the object named by --root
from --from to --to. It prints the graph the receiver observed and the
capability the sender's reference carries afterwards.

--resend sends the same reference a second time, which the guard rejects
while the sender still aliases it. --consume first re-acquires the
reference destructively, after which a resend succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, h, err := opts.buildHeap()
			if err != nil {
				return err
			}
			root, ok := h.Object(rootID)
			if !ok {
				return fmt.Errorf("no object %q in manifest", rootID)
			}

			type delivery struct {
				msg   actor.Message
				graph *snapshot.Graph
			}
			observed := make(chan delivery, 2)
			receive := func(ctx context.Context, self *actor.Actor, msg actor.Message) error {
				if self.Name != toName {
					return nil
				}
				d := delivery{msg: msg, graph: snapshot.Capture(msg.Args[0])}
				for i, arg := range msg.Args {
					name := fmt.Sprintf("%s.%d", msg.Selector, i)
					if err := self.Frame().Define(name, arg, vm.SourceLocation{File: self.Name}); err != nil {
						return err
					}
				}
				observed <- d
				return nil
			}

			sys := actor.NewSystem()
			if _, err := m.SpawnActors(sys, receive); err != nil {
				return err
			}
			from, ok := sys.Lookup(fromName)
			if !ok {
				return fmt.Errorf("no actor %q in manifest", fromName)
			}
			to, ok := sys.Lookup(toName)
			if !ok {
				return fmt.Errorf("no actor %q in manifest", toName)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- sys.Run(ctx) }()
			defer func() {
				sys.Close()
				<-done
			}()

			out := cmd.OutOrStdout()
			slot := vm.Value(root)
			loc := vm.Loc(m.Path, 0, 0)

			sendOnce := func() error {
				if err := from.Send(ctx, to, selector, []vm.Value{slot}, loc); err != nil {
					return err
				}
				select {
				case d := <-observed:
					fmt.Fprintf(out, "%s received #%s from %s:\n", to.Name, d.msg.Selector, d.msg.SenderName)
					if err := d.graph.Render(out); err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
				fmt.Fprintf(out, "%s's reference to %s is now %s\n", from.Name, rootID, vm.CapabilityOf(slot))
				return nil
			}

			if err := sendOnce(); err != nil {
				return err
			}
			if consume {
				slot = vm.ConsumeSlot(&slot)
				fmt.Fprintf(out, "%s consumed %s: %s\n", from.Name, rootID, vm.CapabilityOf(slot))
			}
			if resend {
				if err := sendOnce(); err != nil {
					fmt.Fprintf(out, "resend rejected: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromName, "from", "", "sending actor")
	cmd.Flags().StringVar(&toName, "to", "", "receiving actor")
	cmd.Flags().StringVar(&rootID, "root", "", "id of the object to send")
	cmd.Flags().StringVar(&selector, "selector", "receive", "message selector")
	cmd.Flags().BoolVar(&resend, "resend", false, "send the same reference a second time")
	cmd.Flags().BoolVar(&consume, "consume", false, "destructively re-acquire the reference after the first send")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up waiting for delivery after this long")
	for _, name := range []string{"from", "to", "root"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
