package pool

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/pkg/errors"
)

// Details is the public description of a pool.
type Details struct {
	TokenA      asset.ID
	TokenB      asset.ID
	ReserveA    uint64
	ReserveB    uint64
	TotalSupply uint64
	Name        string
}

// Bytes encodes tokens, reserves, supply and the length-prefixed name.
func (d Details) Bytes() []byte {
	out := make([]byte, 0, 2*asset.IDSize+28+len(d.Name))
	out = append(out, d.TokenA.Bytes()...)
	out = append(out, d.TokenB.Bytes()...)
	out = binary.LittleEndian.AppendUint64(out, d.ReserveA)
	out = binary.LittleEndian.AppendUint64(out, d.ReserveB)
	out = binary.LittleEndian.AppendUint64(out, d.TotalSupply)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(d.Name)))
	return append(out, d.Name...)
}

// ParseDetails decodes details written by Bytes.
func ParseDetails(b []byte) (Details, error) {
	const fixed = 2*asset.IDSize + 28
	if len(b) < fixed {
		return Details{}, errors.Errorf("pool details: %d bytes, want at least %d", len(b), fixed)
	}
	var d Details
	d.TokenA, _ = asset.FromBytes(b)
	d.TokenB, _ = asset.FromBytes(b[16:])
	d.ReserveA = binary.LittleEndian.Uint64(b[32:])
	d.ReserveB = binary.LittleEndian.Uint64(b[40:])
	d.TotalSupply = binary.LittleEndian.Uint64(b[48:])
	n := int(binary.LittleEndian.Uint32(b[56:]))
	if len(b[fixed:]) < n {
		return Details{}, errors.Errorf("pool details: name of %d bytes, have %d", n, len(b[fixed:]))
	}
	d.Name = string(b[fixed : fixed+n])
	return d, nil
}

// FeeState is the fee configuration reported by a pool.
type FeeState struct {
	Fee           uint64
	ShareNum      uint64
	ShareDen      uint64
	ClaimableFees uint64
}

// ParseFeeState decodes the response of OpGetFeeState.
func ParseFeeState(b []byte) (FeeState, error) {
	w, err := runtime.ReadUint64s(b, 4)
	if err != nil {
		return FeeState{}, err
	}
	return FeeState{Fee: w[0], ShareNum: w[1], ShareDen: w[2], ClaimableFees: w[3]}, nil
}

// ParseReserves decodes the response of OpGetReserves.
func ParseReserves(b []byte) (reserveA, reserveB uint64, err error) {
	w, err := runtime.ReadUint64s(b, 2)
	if err != nil {
		return 0, 0, err
	}
	return w[0], w[1], nil
}

func (p *Pool) query(cc *runtime.CallContext, opcode uint64) (*runtime.Response, error) {
	st, err := Load(cc.View(), cc.Self)
	if err != nil {
		return nil, err
	}
	resp := runtime.Forward(cc.Incoming)
	switch opcode {
	case OpGetReserves:
		resA, resB, err := reserves(cc, st)
		if err != nil {
			return nil, err
		}
		resp.Data = runtime.Uint64Data(resA, resB)
	case OpGetFeeState:
		resp.Data = runtime.Uint64Data(st.Fee, st.Share.Num, st.Share.Den, st.ClaimableFees)
	case OpGetName:
		resp.Data = []byte(st.Name)
	case OpGetPoolDetail:
		resA, resB, err := reserves(cc, st)
		if err != nil {
			return nil, err
		}
		resp.Data = Details{
			TokenA:      st.TokenA,
			TokenB:      st.TokenB,
			ReserveA:    resA,
			ReserveB:    resB,
			TotalSupply: st.TotalSupply,
			Name:        st.Name,
		}.Bytes()
	}
	return resp, nil
}
