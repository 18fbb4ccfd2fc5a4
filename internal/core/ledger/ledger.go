// Package ledger is the balance book of record: who holds how much of every
// asset, and how much of each asset exists.
package ledger

import (
	"encoding/binary"
	"math/bits"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Ledger reads and moves balances within a state view.
type Ledger struct {
	view state.View
}

// New returns a ledger operating on v.
func New(v state.View) *Ledger {
	return &Ledger{view: v}
}

// View returns the underlying state view.
func (l *Ledger) View() state.View {
	return l.view
}

// BalanceOf returns holder's balance of id.
func (l *Ledger) BalanceOf(holder, id asset.ID) (uint64, error) {
	return l.readAmount(keylet.Balance(holder, id))
}

// Supply returns the outstanding supply of id.
func (l *Ledger) Supply(id asset.ID) (uint64, error) {
	return l.readAmount(keylet.Supply(id))
}

// Transfer moves amount of id from one holder to another.
func (l *Ledger) Transfer(from, to, id asset.ID, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if err := l.debit(from, id, amount); err != nil {
		return err
	}
	return l.credit(to, id, amount)
}

// TransferParcel moves every transfer in p from one holder to another.
func (l *Ledger) TransferParcel(from, to asset.ID, p asset.Parcel) error {
	for _, t := range p {
		if err := l.Transfer(from, to, t.ID, t.Value); err != nil {
			return errors.Wrapf(err, "transfer %d of %s", t.Value, t.ID)
		}
	}
	return nil
}

// Mint creates amount of id and credits it to holder.
func (l *Ledger) Mint(to, id asset.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	supply, err := l.Supply(id)
	if err != nil {
		return err
	}
	next, carry := bits.Add64(supply, amount, 0)
	if carry != 0 {
		return ter.TecOVERFLOW
	}
	if err := l.writeAmount(keylet.Supply(id), next); err != nil {
		return err
	}
	return l.credit(to, id, amount)
}

// Burn destroys amount of id held by holder.
func (l *Ledger) Burn(from, id asset.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := l.debit(from, id, amount); err != nil {
		return err
	}
	supply, err := l.Supply(id)
	if err != nil {
		return err
	}
	if supply < amount {
		return errors.Wrap(ter.TefINTERNAL, "supply underflow")
	}
	return l.writeAmount(keylet.Supply(id), supply-amount)
}

func (l *Ledger) debit(holder, id asset.ID, amount uint64) error {
	k := keylet.Balance(holder, id)
	bal, err := l.readAmount(k)
	if err != nil {
		return err
	}
	if bal < amount {
		return errors.Wrapf(ter.TecUNFUNDED, "%s holds %d of %s, needs %d", holder, bal, id, amount)
	}
	return l.writeAmount(k, bal-amount)
}

func (l *Ledger) credit(holder, id asset.ID, amount uint64) error {
	k := keylet.Balance(holder, id)
	bal, err := l.readAmount(k)
	if err != nil {
		return err
	}
	next, carry := bits.Add64(bal, amount, 0)
	if carry != 0 {
		return ter.TecOVERFLOW
	}
	return l.writeAmount(k, next)
}

func (l *Ledger) readAmount(k keylet.Keylet) (uint64, error) {
	data, err := l.view.Read(k)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, errors.Wrapf(ter.TefINTERNAL, "amount entry has %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Zero balances are erased rather than stored.
func (l *Ledger) writeAmount(k keylet.Keylet, v uint64) error {
	if v == 0 {
		return state.Remove(l.view, k)
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return state.Put(l.view, k, b)
}
