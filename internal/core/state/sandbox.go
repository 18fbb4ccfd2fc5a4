package state

import (
	"bytes"
	"context"
	"sort"

	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
)

// Action represents the type of modification to a state entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// trackedEntry represents a state entry being tracked for changes
type trackedEntry struct {
	action   Action
	original []byte // nil for inserts
	current  []byte
}

// Sandbox wraps a parent View and tracks all modifications. Nothing reaches
// the parent until Apply is called; Discard drops everything.
type Sandbox struct {
	parent View
	items  map[[32]byte]*trackedEntry
}

// NewSandbox creates a new Sandbox over parent.
func NewSandbox(parent View) *Sandbox {
	return &Sandbox{
		parent: parent,
		items:  make(map[[32]byte]*trackedEntry),
	}
}

// Read reads an entry, tracking it as cached
func (s *Sandbox) Read(k keylet.Keylet) ([]byte, error) {
	if e, ok := s.items[k.Key]; ok {
		if e.action == ActionErase {
			return nil, nil
		}
		return bytes.Clone(e.current), nil
	}

	data, err := s.parent.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the parent
	if data != nil {
		s.items[k.Key] = &trackedEntry{
			action:   ActionCache,
			original: data,
			current:  data,
		}
	}

	return bytes.Clone(data), nil
}

// Exists checks if an entry exists
func (s *Sandbox) Exists(k keylet.Keylet) (bool, error) {
	if e, ok := s.items[k.Key]; ok {
		return e.action != ActionErase, nil
	}
	return s.parent.Exists(k)
}

// Insert adds a new entry
func (s *Sandbox) Insert(k keylet.Keylet, data []byte) error {
	if e, ok := s.items[k.Key]; ok {
		if e.action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		e.action = ActionModify
		e.current = bytes.Clone(data)
		return nil
	}

	exists, err := s.parent.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	s.items[k.Key] = &trackedEntry{
		action:  ActionInsert,
		current: bytes.Clone(data),
	}
	return nil
}

// Update modifies an existing entry
func (s *Sandbox) Update(k keylet.Keylet, data []byte) error {
	if e, ok := s.items[k.Key]; ok {
		if e.action == ActionErase {
			return ErrEntryNotFound
		}
		if e.action == ActionCache {
			e.action = ActionModify
		}
		// For insert, keep it as insert with new data
		e.current = bytes.Clone(data)
		return nil
	}

	original, err := s.parent.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	s.items[k.Key] = &trackedEntry{
		action:   ActionModify,
		original: original,
		current:  bytes.Clone(data),
	}
	return nil
}

// Erase removes an entry
func (s *Sandbox) Erase(k keylet.Keylet) error {
	if e, ok := s.items[k.Key]; ok {
		switch e.action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionInsert:
			// Inserting then deleting = no change
			delete(s.items, k.Key)
		default:
			e.action = ActionErase
		}
		return nil
	}

	original, err := s.parent.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	s.items[k.Key] = &trackedEntry{
		action:   ActionErase,
		original: original,
		current:  original,
	}
	return nil
}

// Changes returns the number of entries inserted, modified or erased.
func (s *Sandbox) Changes() int {
	n := 0
	for _, e := range s.items {
		if e.action != ActionCache {
			n++
		}
	}
	return n
}

// Apply commits all changes to the parent view and resets the sandbox.
func (s *Sandbox) Apply() error {
	for _, key := range s.sortedKeys() {
		e := s.items[key]
		k := keylet.Keylet{Key: key}

		var err error
		switch e.action {
		case ActionCache:
			continue
		case ActionInsert:
			err = s.parent.Insert(k, e.current)
		case ActionModify:
			if bytes.Equal(e.original, e.current) {
				continue
			}
			err = s.parent.Update(k, e.current)
		case ActionErase:
			err = s.parent.Erase(k)
		}
		if err != nil {
			return err
		}
	}
	s.Discard()
	return nil
}

// Discard drops every tracked change.
func (s *Sandbox) Discard() {
	s.items = make(map[[32]byte]*trackedEntry)
}

// Flush writes all changes to db in a single batch. It is used on a root
// sandbox whose parent is a read-only Base over the same db.
func (s *Sandbox) Flush(ctx context.Context, db kvstore.DB) error {
	ops := make([]kvstore.BatchOperation, 0, len(s.items))
	for _, key := range s.sortedKeys() {
		e := s.items[key]
		switch e.action {
		case ActionInsert, ActionModify:
			if e.action == ActionModify && bytes.Equal(e.original, e.current) {
				continue
			}
			ops = append(ops, kvstore.BatchOperation{
				Type:  kvstore.BatchPut,
				Key:   bytes.Clone(key[:]),
				Value: e.current,
			})
		case ActionErase:
			ops = append(ops, kvstore.BatchOperation{
				Type: kvstore.BatchDelete,
				Key:  bytes.Clone(key[:]),
			})
		}
	}
	if len(ops) == 0 {
		s.Discard()
		return nil
	}
	if err := db.Batch(ctx, ops); err != nil {
		return err
	}
	s.Discard()
	return nil
}

func (s *Sandbox) sortedKeys() [][32]byte {
	keys := make([][32]byte, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
