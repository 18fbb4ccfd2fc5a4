package factory

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// State is the persisted configuration of a factory.
type State struct {
	Flavor     pool.Flavor
	DefaultFee uint64
	Share      amm.ProtocolShare
	NumPools   uint64
	// Treasury and PathProvider are only used by the oyl flavor.
	Treasury     asset.ID
	PathProvider asset.ID
}

const stateSize = 1 + 8*4 + 2*asset.IDSize

// Bytes encodes the state with little-endian fixed-width fields.
func (s *State) Bytes() []byte {
	out := make([]byte, 0, stateSize)
	out = append(out, byte(s.Flavor))
	out = binary.LittleEndian.AppendUint64(out, s.DefaultFee)
	out = binary.LittleEndian.AppendUint64(out, s.Share.Num)
	out = binary.LittleEndian.AppendUint64(out, s.Share.Den)
	out = binary.LittleEndian.AppendUint64(out, s.NumPools)
	out = append(out, s.Treasury.Bytes()...)
	return append(out, s.PathProvider.Bytes()...)
}

// ParseState decodes a state written by Bytes.
func ParseState(b []byte) (*State, error) {
	if len(b) != stateSize {
		return nil, errors.Errorf("factory state: %d bytes, want %d", len(b), stateSize)
	}
	s := &State{Flavor: pool.Flavor(b[0])}
	b = b[1:]
	s.DefaultFee = binary.LittleEndian.Uint64(b)
	s.Share.Num = binary.LittleEndian.Uint64(b[8:])
	s.Share.Den = binary.LittleEndian.Uint64(b[16:])
	s.NumPools = binary.LittleEndian.Uint64(b[24:])
	s.Treasury, _ = asset.FromBytes(b[32:])
	s.PathProvider, _ = asset.FromBytes(b[48:])
	return s, nil
}

// Load reads the state of the factory at id.
func Load(v state.View, id asset.ID) (*State, error) {
	data, err := v.Read(keylet.Factory(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrapf(ter.TerNOT_INITIALIZED, "factory %s", id)
	}
	return ParseState(data)
}

func save(v state.View, id asset.ID, s *State) error {
	return state.Put(v, keylet.Factory(id), s.Bytes())
}

// Lookup returns the pool registered for a and b.
func Lookup(v state.View, factory, a, b asset.ID) (asset.ID, error) {
	pair, err := amm.SortTokens(a, b)
	if err != nil {
		return asset.ID{}, err
	}
	data, err := v.Read(keylet.PoolOf(factory, pair))
	if err != nil {
		return asset.ID{}, err
	}
	if data == nil {
		return asset.ID{}, errors.Wrapf(ter.TerNO_POOL, "%s", pair)
	}
	return asset.FromBytes(data)
}

// PoolAt returns the pool registered at position n.
func PoolAt(v state.View, factory asset.ID, n uint64) (asset.ID, error) {
	data, err := v.Read(keylet.PoolIndex(factory, n))
	if err != nil {
		return asset.ID{}, err
	}
	if data == nil {
		return asset.ID{}, errors.Wrapf(ter.TerNO_POOL, "index %d", n)
	}
	return asset.FromBytes(data)
}

func register(v state.View, factory asset.ID, st *State, pair asset.Pair, id asset.ID) error {
	if err := v.Insert(keylet.PoolOf(factory, pair), id.Bytes()); err != nil {
		return err
	}
	if err := v.Insert(keylet.PoolIndex(factory, st.NumPools), id.Bytes()); err != nil {
		return err
	}
	st.NumPools++
	return nil
}

func feeOverride(v state.View, factory, id asset.ID) (uint64, bool, error) {
	data, err := v.Read(keylet.FeeOverride(factory, id))
	if err != nil || len(data) != 8 {
		return 0, false, err
	}
	return binary.LittleEndian.Uint64(data), true, nil
}
