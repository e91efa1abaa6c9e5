package vm

import (
	"errors"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("capsule.vm")

// ---------------------------------------------------------------------------
// Capability guard
//
// The guard is consulted before a reference is bound into a slot: an object
// field, an array element, a variable or an argument. It decides legality
// and applies the Isolate <-> AliasedIsolate transitions:
//
//	Isolate --(bound into a slot)--> AliasedIsolate
//	AliasedIsolate --(slot overwritten or destructively read)--> Isolate
//
// Checks run in a fixed order (aliased, transition-in, release of the old
// value, holder support). Transitions are only committed once every check
// has passed.
// ---------------------------------------------------------------------------

// bindPlan records the transitions a binding will apply once committed.
type bindPlan struct {
	aliases  HeapObject // Isolate value becoming AliasedIsolate
	releases HeapObject // overwritten AliasedIsolate returning to Isolate
}

func planBind(holder Capability, previous, value Value, loc SourceLocation) (bindPlan, error) {
	var plan bindPlan

	vc := Immutable
	if h, ok := value.(HeapObject); ok {
		vc = h.Capability()
		switch vc {
		case AliasedIsolate:
			return bindPlan{}, reject(KindStillAliased, holder, vc, loc)
		case Isolate:
			plan.aliases = h
		}
	}

	if old, ok := previous.(HeapObject); ok && old.Capability() == AliasedIsolate {
		plan.releases = old
	}

	if !holder.Supports(vc) {
		return bindPlan{}, reject(KindUnsupported, holder, vc, loc)
	}
	return plan, nil
}

func (p bindPlan) commit() {
	if p.aliases != nil {
		p.aliases.SetCapability(AliasedIsolate)
	}
	if p.releases != nil && p.releases != p.aliases {
		p.releases.SetCapability(Isolate)
	}
}

func reject(kind ErrorKind, holder, value Capability, loc SourceLocation) *CapabilityError {
	err := newCapabilityError(kind, holder, value, loc)
	log.Debugf("rejected binding: %s", err)
	return err
}

// GuardBind checks whether value may be bound into a slot owned by a holder
// tagged holder, replacing previous (Nil or nil if the slot was empty).
// On success the transitions have been applied and the caller performs the
// physical write. On failure nothing has changed.
func GuardBind(holder Capability, previous, value Value, loc SourceLocation) error {
	plan, err := planBind(holder, previous, value, loc)
	if err != nil {
		return err
	}
	plan.commit()
	return nil
}

// GuardRead handles a non-destructive argument read or bind by a holder
// tagged holder: an aliased isolate is rejected and an Isolate becomes
// AliasedIsolate. The holder is only reported, reads are not support
// checked.
func GuardRead(holder Capability, v Value, loc SourceLocation) error {
	h, ok := v.(HeapObject)
	if !ok {
		return nil
	}
	switch h.Capability() {
	case AliasedIsolate:
		return reject(KindStillAliased, holder, AliasedIsolate, loc)
	case Isolate:
		h.SetCapability(AliasedIsolate)
	}
	return nil
}

// ConsumeSlot performs a destructive read: the slot is cleared to Nil and an
// aliased isolate read out of it becomes Isolate again, making the reader
// its sole holder.
func ConsumeSlot(slot *Value) Value {
	v := *slot
	*slot = Nil
	if v == nil {
		return Nil
	}
	if h, ok := v.(HeapObject); ok && h.Capability() == AliasedIsolate {
		h.SetCapability(Isolate)
	}
	return v
}

// ---------------------------------------------------------------------------
// Batches
// ---------------------------------------------------------------------------

// planBinds plans several bindings that must succeed or fail together, such
// as the arguments of one call. A heap object appearing twice is rejected
// on its second occurrence, as if the bindings had been applied in order.
func planBinds(holder Capability, previous, values []Value, loc SourceLocation) ([]bindPlan, error) {
	plans := make([]bindPlan, len(values))
	for i, v := range values {
		var prev Value = Nil
		if i < len(previous) {
			prev = previous[i]
		}
		plan, err := planBind(holder, prev, v, loc)
		if err != nil {
			return nil, err
		}
		if plan.aliases != nil {
			for _, earlier := range plans[:i] {
				if earlier.aliases == plan.aliases {
					return nil, reject(KindStillAliased, holder, AliasedIsolate, loc)
				}
			}
		}
		plans[i] = plan
	}
	return plans, nil
}

func commitAll(plans []bindPlan) {
	for _, p := range plans {
		p.commit()
	}
}

func (p bindPlan) rollback() {
	if p.aliases != nil {
		p.aliases.SetCapability(Isolate)
	}
	if p.releases != nil && p.releases != p.aliases {
		p.releases.SetCapability(AliasedIsolate)
	}
}

// PendingReads holds the transitions of a checked batch of argument reads
// until the caller commits them.
type PendingReads struct {
	plans []bindPlan
}

// PrepareReads checks values as GuardRead would for a holder tagged
// holder, without applying any transition.
func PrepareReads(holder Capability, values []Value, loc SourceLocation) (*PendingReads, error) {
	plans, err := planBinds(Unsafe, nil, values, loc)
	if err != nil {
		var ce *CapabilityError
		if errors.As(err, &ce) {
			ce.Holder = holder
		}
		return nil, err
	}
	return &PendingReads{plans: plans}, nil
}

// Commit applies the prepared transitions.
func (p *PendingReads) Commit() {
	commitAll(p.plans)
}

// Rollback undoes a Commit. It is only valid while nothing else has
// observed the committed values, such as when a send fails after
// committing but before the message is enqueued.
func (p *PendingReads) Rollback() {
	for i := len(p.plans) - 1; i >= 0; i-- {
		p.plans[i].rollback()
	}
}

// GuardReadAll applies GuardRead to every value, all or nothing.
func GuardReadAll(holder Capability, values []Value, loc SourceLocation) error {
	pending, err := PrepareReads(holder, values, loc)
	if err != nil {
		return err
	}
	pending.Commit()
	return nil
}
