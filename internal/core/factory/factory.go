// Package factory implements the pool registry: one canonical pool per asset
// pair, protocol fee control and convenience entry points that route
// through the registered pools.
package factory

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/authtoken"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Kind is the contract kind of factories.
const Kind runtime.Kind = "factory"

// Factory opcodes
const (
	OpInitialize    uint64 = 0
	OpCreatePool    uint64 = 1
	OpFindPool      uint64 = 2
	OpGetAllPools   uint64 = 3
	OpGetNumPools   uint64 = 4
	OpGetPoolAt     uint64 = 5
	OpCollectFees   uint64 = 10
	OpAddLiquidity  uint64 = 11
	OpBurn          uint64 = 12
	OpSwapExactIn   uint64 = 13
	OpSwapExactOut  uint64 = 14
	OpSetDefaultFee uint64 = 20
	OpSetPoolFee    uint64 = 21
	OpGetPoolFee    uint64 = 22
	OpForward       uint64 = 50
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Factory{} })
}

// Factory is the factory contract.
type Factory struct{}

func (f *Factory) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	args := call.Args()
	if call.Opcode == OpInitialize {
		return f.initialize(cc, args)
	}
	if call.Opcode == OpForward {
		return runtime.Forward(cc.Incoming), nil
	}

	st, err := Load(cc.View(), cc.Self)
	if err != nil {
		return nil, err
	}
	switch call.Opcode {
	case OpCreatePool:
		return f.createPool(cc, st, args)
	case OpFindPool:
		a, b, err := pairArgs(args)
		if err != nil {
			return nil, err
		}
		id, err := Lookup(cc.View(), cc.Self, a, b)
		if err != nil {
			return nil, err
		}
		return dataResponse(cc, id.Bytes()), nil
	case OpGetAllPools:
		return f.allPools(cc, st)
	case OpGetNumPools:
		return dataResponse(cc, runtime.Uint64Data(st.NumPools)), nil
	case OpGetPoolAt:
		n, err := args.Uint()
		if err != nil {
			return nil, err
		}
		id, err := PoolAt(cc.View(), cc.Self, n)
		if err != nil {
			return nil, err
		}
		return dataResponse(cc, id.Bytes()), nil
	case OpCollectFees:
		return f.collectFees(cc, st, args)
	case OpAddLiquidity:
		return f.passThrough(cc, args, pool.OpAddLiquidity, 1)
	case OpBurn:
		return f.passThrough(cc, args, pool.OpBurn, 1)
	case OpSwapExactIn:
		return f.passThrough(cc, args, pool.OpSwapExactIn, 2)
	case OpSwapExactOut:
		return f.passThrough(cc, args, pool.OpSwapExactOut, 3)
	case OpSetDefaultFee:
		return f.setDefaultFee(cc, st, args)
	case OpSetPoolFee:
		return f.setPoolFee(cc, args)
	case OpGetPoolFee:
		id, err := args.ID()
		if err != nil {
			return nil, err
		}
		fee, ok, err := feeOverride(cc.View(), cc.Self, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			fee = st.DefaultFee
		}
		return dataResponse(cc, runtime.Uint64Data(fee)), nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "factory opcode %d", call.Opcode)
}

func dataResponse(cc *runtime.CallContext, data []byte) *runtime.Response {
	resp := runtime.Forward(cc.Incoming)
	resp.Data = data
	return resp
}

func pairArgs(args *runtime.Args) (asset.ID, asset.ID, error) {
	a, err := args.ID()
	if err != nil {
		return asset.ID{}, asset.ID{}, err
	}
	b, err := args.ID()
	return a, b, err
}

// initialize(flavor, defaultFee, shareNum, shareDen[, treasury, provider])
// stores the configuration and returns one auth token to the caller.
func (f *Factory) initialize(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	if ok, err := cc.View().Exists(keylet.Factory(cc.Self)); err != nil || ok {
		if err != nil {
			return nil, err
		}
		return nil, ter.TerALREADY_INITIALIZED
	}
	var words [4]uint64
	var err error
	for i := range words {
		if words[i], err = args.Uint(); err != nil {
			return nil, err
		}
	}
	flavor, err := pool.ParseFlavor(words[0])
	if err != nil {
		return nil, err
	}
	st := &State{
		Flavor:     flavor,
		DefaultFee: words[1],
		Share:      amm.ProtocolShare{Num: words[2], Den: words[3]},
	}
	if err := amm.ValidateFee(st.DefaultFee); err != nil {
		return nil, err
	}
	if err := st.Share.Validate(); err != nil {
		return nil, err
	}
	if args.Remaining() > 0 {
		if st.Treasury, err = args.ID(); err != nil {
			return nil, err
		}
		if st.PathProvider, err = args.ID(); err != nil {
			return nil, err
		}
	}
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}

	auth, err := authtoken.Deploy(cc, 1)
	if err != nil {
		return nil, err
	}
	resp := runtime.Forward(cc.Incoming)
	resp.Parcel = resp.Parcel.Pay(auth, 1)
	return resp, nil
}

// createPool(tokenA, tokenB) registers a new pool seeded with both attached
// deposits and hands the initial LP to the caller.
func (f *Factory) createPool(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	a, b, err := pairArgs(args)
	if err != nil {
		return nil, err
	}
	pair, err := amm.SortTokens(a, b)
	if err != nil {
		return nil, err
	}
	if len(cc.Incoming) != 2 || cc.Incoming.Amount(pair.A) == 0 || cc.Incoming.Amount(pair.B) == 0 {
		return nil, errors.Wrapf(ter.TemBAD_ASSET_COUNT, "createPool needs both %s, got %s", pair, cc.Incoming)
	}
	if ok, err := cc.View().Exists(keylet.PoolOf(cc.Self, pair)); err != nil || ok {
		if err != nil {
			return nil, err
		}
		return nil, errors.Wrapf(ter.TerPOOL_EXISTS, "%s", pair)
	}

	id, err := cc.Deploy(pool.Kind)
	if err != nil {
		return nil, err
	}
	if err := register(cc.View(), cc.Self, st, pair, id); err != nil {
		return nil, err
	}
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}
	init := pool.InitCall(pair.A, pair.B, st.DefaultFee, st.Share, st.Flavor)
	resp, err := cc.Call(id, init, cc.Incoming)
	if err != nil {
		return nil, errors.Wrap(err, "initialize pool")
	}
	return &runtime.Response{Data: id.Bytes(), Parcel: resp.Parcel}, nil
}

// allPools returns the pool count followed by every registered id. Index
// entries that cannot be read are skipped.
func (f *Factory) allPools(cc *runtime.CallContext, st *State) (*runtime.Response, error) {
	ids := make([]asset.ID, 0, st.NumPools)
	for i := uint64(0); i < st.NumPools; i++ {
		id, err := PoolAt(cc.View(), cc.Self, i)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	data := binary.LittleEndian.AppendUint64(nil, uint64(len(ids)))
	return dataResponse(cc, append(data, asset.EncodePath(ids)...)), nil
}

// ParseAllPools decodes the response of OpGetAllPools.
func ParseAllPools(data []byte) ([]asset.ID, error) {
	n, err := runtime.ReadUint64(data)
	if err != nil {
		return nil, err
	}
	ids := asset.DecodePath(data[8:])
	if uint64(len(ids)) != n {
		return nil, errors.Wrapf(ter.TemMALFORMED, "pool list of %d ids, header says %d", len(ids), n)
	}
	return ids, nil
}

// passThrough(a, b, args...) forwards the attached parcel to the pool of
// (a, b) with the next nargs words, then returns every leftover balance of
// the involved assets to the caller.
func (f *Factory) passThrough(cc *runtime.CallContext, args *runtime.Args, opcode uint64, nargs int) (*runtime.Response, error) {
	a, b, err := pairArgs(args)
	if err != nil {
		return nil, err
	}
	id, err := Lookup(cc.View(), cc.Self, a, b)
	if err != nil {
		return nil, err
	}
	inputs := make([]uint64, nargs)
	for i := range inputs {
		if inputs[i], err = args.Uint(); err != nil {
			return nil, err
		}
	}
	resp, err := cc.Call(id, runtime.NewCall(opcode, inputs...), cc.Incoming)
	if err != nil {
		return nil, err
	}
	out, err := returnLeftovers(cc, a, b, id)
	if err != nil {
		return nil, err
	}
	return &runtime.Response{Data: resp.Data, Parcel: out}, nil
}

// returnLeftovers collects the factory's whole balance of ids into a parcel
// for the caller.
func returnLeftovers(cc *runtime.CallContext, ids ...asset.ID) (asset.Parcel, error) {
	var out asset.Parcel
	for _, id := range ids {
		bal, err := cc.Balance(id)
		if err != nil {
			return nil, err
		}
		out = out.Pay(id, bal)
	}
	return out, nil
}

// setDefaultFee(fee) changes the fee given to pools created from now on.
func (f *Factory) setDefaultFee(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	if err := authtoken.Require(cc); err != nil {
		return nil, err
	}
	fee, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := amm.ValidateFee(fee); err != nil {
		return nil, err
	}
	st.DefaultFee = fee
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}
	return runtime.Forward(cc.Incoming), nil
}

// setPoolFee(pool, fee) overrides the fee of one registered pool.
func (f *Factory) setPoolFee(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	if err := authtoken.Require(cc); err != nil {
		return nil, err
	}
	id, err := args.ID()
	if err != nil {
		return nil, err
	}
	fee, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := amm.ValidateFee(fee); err != nil {
		return nil, err
	}
	if _, err := cc.Call(id, runtime.NewCall(pool.OpSetFee, fee), nil); err != nil {
		return nil, err
	}
	if err := state.Put(cc.View(), keylet.FeeOverride(cc.Self, id), binary.LittleEndian.AppendUint64(nil, fee)); err != nil {
		return nil, err
	}
	return runtime.Forward(cc.Incoming), nil
}
