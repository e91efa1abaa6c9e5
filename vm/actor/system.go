package actor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// System is a VM-local registry of actors. There is no process-wide
// registry; every System is independent.
type System struct {
	mu     sync.Mutex
	actors map[uuid.UUID]*Actor
	byName map[string]*Actor
}

// NewSystem creates an empty actor system.
func NewSystem() *System {
	return &System{
		actors: make(map[uuid.UUID]*Actor),
		byName: make(map[string]*Actor),
	}
}

// Spawn creates and registers an actor. Names are unique within a system.
func (s *System) Spawn(name string, behavior Behavior, opts ...Option) (*Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("actor: %q already exists", name)
	}
	a := New(name, behavior, opts...)
	s.actors[a.ID] = a
	s.byName[name] = a
	return a, nil
}

// Lookup finds an actor by name.
func (s *System) Lookup(name string) (*Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byName[name]
	return a, ok
}

// Get finds an actor by ID.
func (s *System) Get(id uuid.UUID) (*Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	return a, ok
}

// Actors returns the registered actors sorted by name.
func (s *System) Actors() []*Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run runs every actor registered at the time of the call, each on its own
// goroutine. It returns when all actors have stopped; the first behaviour
// error cancels the others and is returned.
func (s *System) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range s.Actors() {
		a := a
		g.Go(func() error {
			return a.Run(ctx)
		})
	}
	return g.Wait()
}

// Close closes every actor. Running actors drain their mailboxes and stop.
func (s *System) Close() {
	for _, a := range s.Actors() {
		a.Close()
	}
}
