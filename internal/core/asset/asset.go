// Package asset defines identifiers for assets, accounts and contract
// instances along with the transfer parcels attached to calls.
package asset

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Id block numbers. Deployed contract instances live in ContractBlock,
// externally owned accounts in AccountBlock.
const (
	AccountBlock  uint64 = 1
	ContractBlock uint64 = 2
)

// IDSize is the encoded size of an ID.
const IDSize = 16

// ID identifies a fungible asset on the ledger. Every contract instance is
// also an asset: its LP or auth units are balances keyed by its own ID.
type ID struct {
	Block uint64
	Tx    uint64
}

// Zero is the burn address. Balances credited to it can never be spent.
var Zero = ID{}

// Account returns the ID of the n-th externally owned account.
func Account(n uint64) ID {
	return ID{Block: AccountBlock, Tx: n}
}

// Contract returns the ID of the n-th deployed contract.
func Contract(n uint64) ID {
	return ID{Block: ContractBlock, Tx: n}
}

// IsZero reports whether id is the burn address.
func (id ID) IsZero() bool {
	return id == Zero
}

// Compare orders ids by block then tx.
func (id ID) Compare(other ID) int {
	switch {
	case id.Block < other.Block:
		return -1
	case id.Block > other.Block:
		return 1
	case id.Tx < other.Tx:
		return -1
	case id.Tx > other.Tx:
		return 1
	}
	return 0
}

// Less reports whether id sorts before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.Block, id.Tx)
}

// Bytes returns the 16-byte little-endian encoding of id.
func (id ID) Bytes() []byte {
	b := make([]byte, IDSize)
	binary.LittleEndian.PutUint64(b[0:8], id.Block)
	binary.LittleEndian.PutUint64(b[8:16], id.Tx)
	return b
}

// FromBytes decodes an ID written by Bytes.
func FromBytes(b []byte) (ID, error) {
	if len(b) < IDSize {
		return ID{}, fmt.Errorf("asset id: need %d bytes, got %d", IDSize, len(b))
	}
	return ID{
		Block: binary.LittleEndian.Uint64(b[0:8]),
		Tx:    binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// Parse reads an id in "block:tx" form.
func Parse(s string) (ID, error) {
	block, tx, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ID{}, fmt.Errorf("invalid asset id %q: expected block:tx", s)
	}
	b, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid asset id %q: %w", s, err)
	}
	t, err := strconv.ParseUint(tx, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid asset id %q: %w", s, err)
	}
	return ID{Block: b, Tx: t}, nil
}

// Pair is an asset pair. A Pair produced by SortPair has A < B.
type Pair struct {
	A ID
	B ID
}

// SortPair returns the canonical ordering of a and b. The second return
// value is false when a and b are the same asset.
func SortPair(a, b ID) (Pair, bool) {
	switch a.Compare(b) {
	case 0:
		return Pair{}, false
	case 1:
		a, b = b, a
	}
	return Pair{A: a, B: b}, true
}

// Bytes returns the 32-byte encoding of the pair.
func (p Pair) Bytes() []byte {
	return append(p.A.Bytes(), p.B.Bytes()...)
}

func (p Pair) String() string {
	return p.A.String() + "/" + p.B.String()
}

// EncodePath flattens a list of ids.
func EncodePath(path []ID) []byte {
	out := make([]byte, 0, len(path)*IDSize)
	for _, id := range path {
		out = append(out, id.Bytes()...)
	}
	return out
}

// DecodePath reads ids until the input is exhausted. Trailing bytes that do
// not make a full id are ignored.
func DecodePath(b []byte) []ID {
	path := make([]ID, 0, len(b)/IDSize)
	for len(b) >= IDSize {
		id, _ := FromBytes(b)
		path = append(path, id)
		b = b[IDSize:]
	}
	return path
}
