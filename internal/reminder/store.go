package reminder

import (
	"fmt"
	"sync"
	"time"
)

type entry struct {
	spec Spec
	h    Handle
}

// Store is the per-chat registry of active reminders. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	byChat map[int64][]*entry
}

func NewStore() *Store {
	return &Store{now: time.Now, byChat: map[int64][]*entry{}}
}

// Add appends spec for chatID and takes ownership of h. An empty ID is filled in.
func (s *Store) Add(chatID int64, spec Spec, h Handle) (Spec, error) {
	if spec.ID == "" {
		spec.ID = NewID()
	}
	spec.ChatID = chatID
	spec.Status = Active
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byChat[chatID] {
		if e.spec.ID == spec.ID {
			return Spec{}, fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
		}
	}
	s.byChat[chatID] = append(s.byChat[chatID], &entry{spec: spec, h: h})
	return spec, nil
}

// List returns the chat's reminders in insertion order.
func (s *Store) List(chatID int64) []Listing {
	s.mu.Lock()
	entries := append([]*entry(nil), s.byChat[chatID]...)
	s.mu.Unlock()

	out := make([]Listing, 0, len(entries))
	for i, e := range entries {
		l := Listing{Index: i, ID: e.spec.ID, Kind: e.spec.Kind, Label: e.spec.Label, Rule: e.spec.Rule}
		if e.h != nil {
			l.Next = e.h.Next()
		}
		out = append(out, l)
	}
	return out
}

// IDs is the ordered id snapshot used by the delete menu.
func (s *Store) IDs(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.byChat[chatID]))
	for _, e := range s.byChat[chatID] {
		ids = append(ids, e.spec.ID)
	}
	return ids
}

func (s *Store) Get(chatID int64, id string) (Spec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byChat[chatID] {
		if e.spec.ID == id {
			return e.spec, true
		}
	}
	return Spec{}, false
}

// Len is the number of active reminders for chatID.
func (s *Store) Len(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byChat[chatID])
}

// Remove stops and discards the reminder at index (0-based).
func (s *Store) Remove(chatID int64, index int) (Spec, error) {
	s.mu.Lock()
	list := s.byChat[chatID]
	if index < 0 || index >= len(list) {
		s.mu.Unlock()
		return Spec{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	e := s.detachLocked(chatID, index)
	s.mu.Unlock()
	return stop(e), nil
}

// RemoveByID stops and discards the reminder with id.
func (s *Store) RemoveByID(chatID int64, id string) (Spec, error) {
	s.mu.Lock()
	for i, e := range s.byChat[chatID] {
		if e.spec.ID == id {
			e = s.detachLocked(chatID, i)
			s.mu.Unlock()
			return stop(e), nil
		}
	}
	s.mu.Unlock()
	return Spec{}, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

// StopAll stops every job and empties the store. Returns how many were stopped.
func (s *Store) StopAll() int {
	s.mu.Lock()
	all := s.byChat
	s.byChat = map[int64][]*entry{}
	s.mu.Unlock()

	n := 0
	for _, list := range all {
		for _, e := range list {
			stop(e)
			n++
		}
	}
	return n
}

// detachLocked removes list[i] for chatID. Call with s.mu held.
func (s *Store) detachLocked(chatID int64, i int) *entry {
	list := s.byChat[chatID]
	e := list[i]
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(s.byChat, chatID)
	} else {
		s.byChat[chatID] = list
	}
	return e
}

func stop(e *entry) Spec {
	if e.h != nil {
		e.h.Stop()
	}
	e.spec.Status = Stopped
	return e.spec
}
