// Package state provides views over contract state: a read-only base view on
// top of a kvstore and change-tracking sandboxes that nest per call.
package state

import (
	"context"

	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/pkg/errors"
)

var (
	ErrReadOnly      = errors.New("view is read-only")
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// View is the interface for reading and modifying state entries.
// Read returns nil data with a nil error when the entry does not exist.
type View interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Put inserts or updates the entry at k.
func Put(v View, k keylet.Keylet, data []byte) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Remove erases the entry at k if present.
func Remove(v View, k keylet.Keylet) error {
	exists, err := v.Exists(k)
	if err != nil || !exists {
		return err
	}
	return v.Erase(k)
}

// Base is a read-only view of committed state.
type Base struct {
	ctx context.Context
	db  kvstore.DB
}

// NewBase returns a view reading committed entries from db.
func NewBase(ctx context.Context, db kvstore.DB) *Base {
	return &Base{ctx: ctx, db: db}
}

func (b *Base) Read(k keylet.Keylet) ([]byte, error) {
	data, err := b.db.Read(b.ctx, k.Key[:])
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "state read")
	}
	return data, nil
}

func (b *Base) Exists(k keylet.Keylet) (bool, error) {
	data, err := b.Read(k)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func (b *Base) Insert(keylet.Keylet, []byte) error { return ErrReadOnly }
func (b *Base) Update(keylet.Keylet, []byte) error { return ErrReadOnly }
func (b *Base) Erase(keylet.Keylet) error          { return ErrReadOnly }
