package pool

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Flavor selects how collected protocol fees are paid out.
type Flavor uint8

const (
	// FlavorPlain pays collected fees as LP units.
	FlavorPlain Flavor = iota
	// FlavorOyl redeems collected LP for the underlying assets so the
	// factory can convert them to its treasury asset.
	FlavorOyl
)

func (f Flavor) String() string {
	switch f {
	case FlavorPlain:
		return "plain"
	case FlavorOyl:
		return "oyl"
	}
	return "unknown"
}

// ParseFlavor maps a word to a flavor.
func ParseFlavor(v uint64) (Flavor, error) {
	if v > uint64(FlavorOyl) {
		return 0, errors.Wrapf(ter.TemMALFORMED, "flavor %d", v)
	}
	return Flavor(v), nil
}

// FlavorByName is the inverse of Flavor.String.
func FlavorByName(name string) (Flavor, error) {
	for _, f := range []Flavor{FlavorPlain, FlavorOyl} {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown pool flavor %q", name)
}

// State is the persisted record of one pool.
type State struct {
	TokenA  asset.ID
	TokenB  asset.ID
	Factory asset.ID

	TotalSupply   uint64
	KLast         *uint256.Int
	ClaimableFees uint64

	Fee    uint64
	Share  amm.ProtocolShare
	Flavor Flavor
	Locked bool

	Name string
}

// fixed part: 3 ids, supply, kLast, claimable, fee, share, flavor, locked, name length
const stateFixedSize = 3*asset.IDSize + 8 + 32 + 8 + 8 + 16 + 1 + 1 + 4

// Bytes encodes the state with little-endian fixed-width fields.
func (s *State) Bytes() []byte {
	out := make([]byte, 0, stateFixedSize+len(s.Name))
	out = append(out, s.TokenA.Bytes()...)
	out = append(out, s.TokenB.Bytes()...)
	out = append(out, s.Factory.Bytes()...)
	out = binary.LittleEndian.AppendUint64(out, s.TotalSupply)
	k := s.KLast
	if k == nil {
		k = new(uint256.Int)
	}
	out = append(out, amm.EncodeK(k)...)
	out = binary.LittleEndian.AppendUint64(out, s.ClaimableFees)
	out = binary.LittleEndian.AppendUint64(out, s.Fee)
	out = binary.LittleEndian.AppendUint64(out, s.Share.Num)
	out = binary.LittleEndian.AppendUint64(out, s.Share.Den)
	out = append(out, byte(s.Flavor))
	if s.Locked {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Name)))
	return append(out, s.Name...)
}

// ParseState decodes a state written by Bytes.
func ParseState(b []byte) (*State, error) {
	if len(b) < stateFixedSize {
		return nil, errors.Errorf("pool state: %d bytes, want at least %d", len(b), stateFixedSize)
	}
	s := &State{}
	s.TokenA, _ = asset.FromBytes(b[0:])
	s.TokenB, _ = asset.FromBytes(b[16:])
	s.Factory, _ = asset.FromBytes(b[32:])
	b = b[48:]
	s.TotalSupply = binary.LittleEndian.Uint64(b)
	s.KLast = amm.DecodeK(b[8:40])
	b = b[40:]
	s.ClaimableFees = binary.LittleEndian.Uint64(b)
	s.Fee = binary.LittleEndian.Uint64(b[8:])
	s.Share.Num = binary.LittleEndian.Uint64(b[16:])
	s.Share.Den = binary.LittleEndian.Uint64(b[24:])
	s.Flavor = Flavor(b[32])
	s.Locked = b[33] == 1
	n := int(binary.LittleEndian.Uint32(b[34:]))
	b = b[38:]
	if len(b) < n {
		return nil, errors.Errorf("pool state: name of %d bytes, have %d", n, len(b))
	}
	s.Name = string(b[:n])
	return s, nil
}

// Pair returns the canonical pair of the pool.
func (s *State) Pair() asset.Pair {
	return asset.Pair{A: s.TokenA, B: s.TokenB}
}

// Has reports whether id is one of the pool's two assets.
func (s *State) Has(id asset.ID) bool {
	return id == s.TokenA || id == s.TokenB
}

// Load reads the state of the pool at id.
func Load(v state.View, id asset.ID) (*State, error) {
	data, err := v.Read(keylet.Pool(id))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrapf(ter.TerNOT_INITIALIZED, "pool %s", id)
	}
	return ParseState(data)
}

func save(v state.View, id asset.ID, s *State) error {
	return state.Put(v, keylet.Pool(id), s.Bytes())
}
