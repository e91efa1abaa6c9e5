// Package actor is a minimal messaging layer over the capability model.
//
// Each actor runs its behaviour on its own goroutine and owns a local
// frame. Objects reach another actor only through Send, which reads every
// argument through the guard and deep copies transfer-type arguments into
// the receiver's capability before enqueueing the message.
package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chazu/capsule/vm"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("capsule.actor")

var (
	// ErrMailboxFull is returned by TrySend when the receiver's mailbox has
	// no free space.
	ErrMailboxFull = errors.New("actor: mailbox full")
	// ErrActorClosed is returned when sending to or receiving from a
	// closed actor.
	ErrActorClosed = errors.New("actor: closed")
	// ErrNotTransferable is returned when an Isolate argument is not a
	// transfer type and would be shared by reference.
	ErrNotTransferable = errors.New("actor: isolate argument is not a transfer type")
)

// DefaultMailboxSize is the mailbox buffer used unless WithMailboxSize is given.
const DefaultMailboxSize = 64

// Message is one delivered send. Args hold the receiver's copies of
// transfer-type arguments and shared references to everything else.
type Message struct {
	Selector   string
	Args       []vm.Value
	Sender     uuid.UUID
	SenderName string
}

// Behavior handles one message on the receiving actor's goroutine.
type Behavior func(ctx context.Context, self *Actor, msg Message) error

// Actor is an independently scheduled unit of sequential execution.
type Actor struct {
	ID   uuid.UUID
	Name string

	capability vm.Capability // stamped on objects transferred to this actor
	frame      *vm.Frame
	behavior   Behavior

	mailbox chan Message
	done    chan struct{}
	closed  atomic.Bool
	mu      sync.Mutex // protects close
}

// Option configures an actor at creation.
type Option func(*Actor)

// WithCapability sets the capability stamped on objects transferred in.
func WithCapability(c vm.Capability) Option {
	return func(a *Actor) { a.capability = c }
}

// WithMailboxSize sets the mailbox buffer size.
func WithMailboxSize(n int) Option {
	return func(a *Actor) {
		if n < 0 {
			n = 0
		}
		a.mailbox = make(chan Message, n)
	}
}

// New creates an actor that is not registered with any system.
func New(name string, behavior Behavior, opts ...Option) *Actor {
	a := &Actor{
		ID:         uuid.New(),
		Name:       name,
		capability: vm.Isolate,
		behavior:   behavior,
		mailbox:    make(chan Message, DefaultMailboxSize),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	// A frame without arguments cannot be rejected.
	a.frame, _ = vm.NewFrame(vm.Local, nil, nil, vm.SourceLocation{File: name})
	return a
}

// Capability returns the capability stamped on objects transferred to a.
func (a *Actor) Capability() vm.Capability {
	return a.capability
}

// Frame returns the actor's local variable frame.
func (a *Actor) Frame() *vm.Frame {
	return a.frame
}

func (a *Actor) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.ID.String()[:8])
}

// ---------------------------------------------------------------------------
// Sending
// ---------------------------------------------------------------------------

// Send delivers selector with args to the receiver, blocking while its
// mailbox is full.
//
// Every argument is read through the guard: an aliased isolate is rejected
// and leaves every argument untouched; otherwise each Isolate argument
// becomes AliasedIsolate in the sender, and stays so until the sender
// consumes the argument slot destructively. The transitions are applied
// before the message is enqueued and undone if delivery fails.
// Transfer-type arguments are copied with one transfer map per message, so
// sharing between arguments survives. An Isolate argument that is not a
// transfer type is rejected with ErrNotTransferable.
func (a *Actor) Send(ctx context.Context, to *Actor, selector string, args []vm.Value, loc vm.SourceLocation) error {
	msg, pending, err := a.prepare(to, selector, args, loc)
	if err != nil {
		return err
	}
	pending.Commit()
	if err := to.deliver(ctx, msg); err != nil {
		pending.Rollback()
		return fmt.Errorf("actor %s: send %s to %s: %w", a.Name, selector, to.Name, err)
	}
	return nil
}

// TrySend is Send without blocking: a full mailbox yields ErrMailboxFull
// and leaves the arguments untouched.
func (a *Actor) TrySend(to *Actor, selector string, args []vm.Value, loc vm.SourceLocation) error {
	msg, pending, err := a.prepare(to, selector, args, loc)
	if err != nil {
		return err
	}
	if to.closed.Load() {
		return fmt.Errorf("actor %s: send %s to %s: %w", a.Name, selector, to.Name, ErrActorClosed)
	}
	pending.Commit()
	select {
	case to.mailbox <- msg:
	default:
		pending.Rollback()
		return fmt.Errorf("actor %s: send %s to %s: %w", a.Name, selector, to.Name, ErrMailboxFull)
	}
	return nil
}

func (a *Actor) prepare(to *Actor, selector string, args []vm.Value, loc vm.SourceLocation) (Message, *vm.PendingReads, error) {
	if to.closed.Load() {
		return Message{}, nil, fmt.Errorf("actor %s: send %s to %s: %w", a.Name, selector, to.Name, ErrActorClosed)
	}
	pending, err := vm.PrepareReads(to.capability, args, loc)
	if err != nil {
		return Message{}, nil, fmt.Errorf("actor %s: send %s: %w", a.Name, selector, err)
	}
	for i, arg := range args {
		if vm.CapabilityOf(arg) == vm.Isolate && vm.ClassifyForTransfer(arg) == vm.NoTransfer {
			return Message{}, nil, fmt.Errorf("actor %s: send %s: argument %d (%s): %w",
				a.Name, selector, i, vm.FormatValue(arg), ErrNotTransferable)
		}
	}

	tm := vm.NewTransferMap()
	out := make([]vm.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			arg = vm.Nil
		}
		if vm.ClassifyForTransfer(arg) == vm.NoTransfer {
			out[i] = arg
			continue
		}
		if c, ok := tm.Lookup(arg); ok {
			out[i] = c
			continue
		}
		out[i] = vm.Transfer(arg, to.capability, tm)
	}
	log.Debugf("%s -> %s #%s: %d args, %d objects copied", a, to, selector, len(args), len(tm))

	return Message{Selector: selector, Args: out, Sender: a.ID, SenderName: a.Name}, pending, nil
}

func (a *Actor) deliver(ctx context.Context, msg Message) error {
	if a.closed.Load() {
		return ErrActorClosed
	}
	select {
	case a.mailbox <- msg:
		return nil
	case <-a.done:
		return ErrActorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Receiving
// ---------------------------------------------------------------------------

// Receive returns the next message. After Close, buffered messages are
// still returned; once drained Receive reports ErrActorClosed.
func (a *Actor) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-a.mailbox:
		return msg, nil
	case <-a.done:
		select {
		case msg := <-a.mailbox:
			return msg, nil
		default:
			return Message{}, ErrActorClosed
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Run handles messages with the actor's behaviour until the actor is closed
// and drained (returns nil), the context ends, or the behaviour fails.
func (a *Actor) Run(ctx context.Context) error {
	log.Infof("actor %s started", a)
	defer log.Infof("actor %s stopped", a)
	for {
		msg, err := a.Receive(ctx)
		if errors.Is(err, ErrActorClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if a.behavior == nil {
			continue
		}
		if err := a.behavior(ctx, a, msg); err != nil {
			return fmt.Errorf("actor %s: handling %s: %w", a.Name, msg.Selector, err)
		}
	}
}

// Close stops accepting messages. Messages already queued are still
// delivered by Receive.
func (a *Actor) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return
	}
	a.closed.Store(true)
	close(a.done)
}

// Closed reports whether Close has been called.
func (a *Actor) Closed() bool {
	return a.closed.Load()
}
