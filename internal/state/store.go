package state

import "sync"

// UndoKind tells which destructive mutation an UndoEntry reverses.
type UndoKind string

const (
	UndoPath  UndoKind = "path"
	UndoClear UndoKind = "clear"
)

// UndoEntry records what a destructive mutation removed from the store.
// Nothing consumes the log yet; it keeps enough to restore either kind.
type UndoEntry struct {
	Kind  UndoKind `json:"kind"`
	Paths []Path   `json:"paths"`
}

// Store is the ordered collection of finalized paths plus its undo log.
// Insertion order is render and export order.
type Store struct {
	paths []Path
	undo  []UndoEntry
	mu    sync.RWMutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		paths: make([]Path, 0),
		undo:  make([]UndoEntry, 0),
	}
}

// Add appends a copy of p. Paths with fewer than two points are refused.
func (s *Store) Add(p Path) bool {
	if len(p.Points) < 2 {
		return false
	}
	if p.ID == "" {
		p.ID = NewPathID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, p.Clone())
	return true
}

// Pop removes the most recently added path and logs it.
func (s *Store) Pop() (Path, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.paths) == 0 {
		return Path{}, false
	}
	last := s.paths[len(s.paths)-1]
	s.paths = s.paths[:len(s.paths)-1]
	s.undo = append(s.undo, UndoEntry{Kind: UndoPath, Paths: []Path{last}})
	return last.Clone(), true
}

// Clear empties the store, logging the removed paths. It returns how many
// paths were removed; an empty store is left untouched.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.paths)
	if n == 0 {
		return 0
	}
	s.undo = append(s.undo, UndoEntry{Kind: UndoClear, Paths: s.paths})
	s.paths = make([]Path, 0)
	return n
}

// Replace swaps the contents for paths, dropping degenerate ones. It is a
// restore, not an edit, so nothing is logged.
func (s *Store) Replace(paths []Path) int {
	kept := make([]Path, 0, len(paths))
	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		if p.ID == "" {
			p.ID = NewPathID()
		}
		kept = append(kept, p.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = kept
	return len(kept)
}

// Paths returns a deep copy of the stored paths.
func (s *Store) Paths() []Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePaths(s.paths)
}

// Len returns the number of stored paths.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// UndoLog returns a deep copy of the undo log, oldest first.
func (s *Store) UndoLog() []UndoEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UndoEntry, 0, len(s.undo))
	for _, e := range s.undo {
		out = append(out, UndoEntry{Kind: e.Kind, Paths: clonePaths(e.Paths)})
	}
	return out
}
