// Package pool implements the constant-product pool contract: reserves of
// two assets, an LP token keyed by the pool's own id, protocol-fee accrual
// and flash swaps.
package pool

import (
	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/LeJamon/goAMM/internal/core/token"
	"github.com/pkg/errors"
)

// Kind is the contract kind of pools.
const Kind runtime.Kind = "pool"

// Pool opcodes
const (
	OpInitialize    uint64 = 0
	OpAddLiquidity  uint64 = 1
	OpBurn          uint64 = 2
	OpSwap          uint64 = 3
	OpSwapExactIn   uint64 = 4
	OpSwapExactOut  uint64 = 5
	OpCollectFees   uint64 = 10
	OpSetFee        uint64 = 20
	OpForward       uint64 = 50
	OpGetReserves   uint64 = 97
	OpGetFeeState   uint64 = 98
	OpGetName       uint64 = token.OpGetName
	OpGetPoolDetail uint64 = 999
)

// OpFlashCallback is invoked on the recipient of a swap that carries
// callback data, with inputs [sender block, sender tx, amountAOut, amountBOut, data...].
// The response parcel is the repayment.
const OpFlashCallback uint64 = 73776170

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Pool{} })
}

// Pool is the pool contract. It is stateless; everything lives in the view.
type Pool struct{}

func (p *Pool) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	args := call.Args()
	switch call.Opcode {
	case OpInitialize:
		return p.initialize(cc, args)
	case OpAddLiquidity:
		return p.locked(cc, args, p.addLiquidity)
	case OpBurn:
		return p.locked(cc, args, p.burn)
	case OpSwap:
		return p.locked(cc, args, p.swap)
	case OpSwapExactIn:
		return p.locked(cc, args, p.swapExactIn)
	case OpSwapExactOut:
		return p.locked(cc, args, p.swapExactOut)
	case OpCollectFees:
		return p.locked(cc, args, p.collectFees)
	case OpSetFee:
		return p.locked(cc, args, p.setFee)
	case OpForward:
		return runtime.Forward(cc.Incoming), nil
	case OpGetReserves, OpGetFeeState, OpGetName, OpGetPoolDetail:
		return p.query(cc, call.Opcode)
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "pool opcode %d", call.Opcode)
}

type handler func(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error)

// locked runs fn holding the reentrancy lock. The lock is persisted so nested
// calls observe it; a failure discards the sandbox and with it the lock.
func (p *Pool) locked(cc *runtime.CallContext, args *runtime.Args, fn handler) (*runtime.Response, error) {
	st, err := Load(cc.View(), cc.Self)
	if err != nil {
		return nil, err
	}
	if st.Locked {
		return nil, ter.TerLOCKED
	}
	st.Locked = true
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}

	resp, err := fn(cc, st, args)
	if err != nil {
		return nil, err
	}

	st.Locked = false
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}
	return resp, nil
}

// optionalDeadline checks a trailing deadline argument when one is given.
func optionalDeadline(cc *runtime.CallContext, args *runtime.Args) error {
	if args.Remaining() == 0 {
		return nil
	}
	deadline, err := args.Uint()
	if err != nil {
		return err
	}
	return cc.CheckDeadline(deadline)
}

// reserves returns the pool's balances before this call's deposits.
func reserves(cc *runtime.CallContext, st *State) (uint64, uint64, error) {
	balA, err := cc.Balance(st.TokenA)
	if err != nil {
		return 0, 0, err
	}
	balB, err := cc.Balance(st.TokenB)
	if err != nil {
		return 0, 0, err
	}
	return balA - cc.Incoming.Amount(st.TokenA), balB - cc.Incoming.Amount(st.TokenB), nil
}

// checkDeposits rejects any incoming asset outside allowed.
func checkDeposits(in asset.Parcel, allowed func(asset.ID) bool) error {
	for _, t := range in {
		if !allowed(t.ID) {
			return errors.Wrapf(ter.TemUNSUPPORTED_ASSET, "%s", t.ID)
		}
	}
	return nil
}

// mintFee mints the protocol's share of reserve growth to the pool itself.
func mintFee(cc *runtime.CallContext, st *State, reserveA, reserveB uint64) error {
	fee, err := amm.ProtocolFee(st.TotalSupply, reserveA, reserveB, st.KLast, st.Share)
	if err != nil || fee == 0 {
		return err
	}
	if err := cc.Ledger().Mint(cc.Self, cc.Self, fee); err != nil {
		return err
	}
	st.TotalSupply += fee
	st.ClaimableFees += fee
	return nil
}

// initialize(tokenA, tokenB, fee, shareNum, shareDen, flavor) records the
// pair and performs the first mint from the two seed deposits.
func (p *Pool) initialize(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	if ok, err := cc.View().Exists(keylet.Pool(cc.Self)); err != nil || ok {
		if err != nil {
			return nil, err
		}
		return nil, ter.TerALREADY_INITIALIZED
	}

	a, err := args.ID()
	if err != nil {
		return nil, err
	}
	b, err := args.ID()
	if err != nil {
		return nil, err
	}
	pair, err := amm.SortTokens(a, b)
	if err != nil {
		return nil, err
	}
	var words [4]uint64
	for i := range words {
		if words[i], err = args.Uint(); err != nil {
			return nil, err
		}
	}
	fee, share := words[0], amm.ProtocolShare{Num: words[1], Den: words[2]}
	if err := amm.ValidateFee(fee); err != nil {
		return nil, err
	}
	if err := share.Validate(); err != nil {
		return nil, err
	}
	flavor, err := ParseFlavor(words[3])
	if err != nil {
		return nil, err
	}

	if len(cc.Incoming) != 2 {
		return nil, errors.Wrapf(ter.TemBAD_ASSET_COUNT, "seeding needs 2 assets, got %d", len(cc.Incoming))
	}
	st := &State{
		TokenA:  pair.A,
		TokenB:  pair.B,
		Factory: cc.Caller,
		Fee:     fee,
		Share:   share,
		Flavor:  flavor,
	}
	if err := checkDeposits(cc.Incoming, st.Has); err != nil {
		return nil, err
	}
	st.Name = token.Name(cc, st.TokenA) + " / " + token.Name(cc, st.TokenB) + " LP"
	if err := token.WriteMetadata(cc.View(), cc.Self, token.Metadata{Name: st.Name, Symbol: "LP"}); err != nil {
		return nil, err
	}
	// the seed deposit is an ordinary first deposit, made under the lock
	st.Locked = true
	if err := save(cc.View(), cc.Self, st); err != nil {
		return nil, err
	}
	resp, err := p.addLiquidity(cc, st, args)
	if err != nil {
		return nil, err
	}
	st.Locked = false
	return resp, save(cc.View(), cc.Self, st)
}

// addLiquidity([deadline]) mints LP for the attached deposits.
func (p *Pool) addLiquidity(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	if err := optionalDeadline(cc, args); err != nil {
		return nil, err
	}
	if err := checkDeposits(cc.Incoming, st.Has); err != nil {
		return nil, err
	}
	prevA, prevB, err := reserves(cc, st)
	if err != nil {
		return nil, err
	}
	if err := mintFee(cc, st, prevA, prevB); err != nil {
		return nil, err
	}

	inA, inB := cc.Incoming.Amount(st.TokenA), cc.Incoming.Amount(st.TokenB)
	liquidity, burned, err := amm.MintLiquidity(inA, inB, prevA, prevB, st.TotalSupply)
	if err != nil {
		return nil, err
	}
	if burned > 0 {
		if err := cc.Ledger().Mint(asset.Zero, cc.Self, burned); err != nil {
			return nil, err
		}
	}
	if err := cc.Ledger().Mint(cc.Self, cc.Self, liquidity); err != nil {
		return nil, err
	}
	st.TotalSupply += liquidity + burned
	st.KLast = amm.Product(prevA+inA, prevB+inB)

	return &runtime.Response{Parcel: asset.Single(cc.Self, liquidity)}, nil
}

// burn([deadline]) redeems the attached LP for both assets.
func (p *Pool) burn(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	if err := optionalDeadline(cc, args); err != nil {
		return nil, err
	}
	if err := checkDeposits(cc.Incoming, func(id asset.ID) bool { return id == cc.Self }); err != nil {
		return nil, err
	}
	if len(cc.Incoming) != 1 {
		return nil, errors.Wrap(ter.TemBAD_ASSET_COUNT, "burn needs the pool's LP")
	}
	lp := cc.Incoming[0].Value

	resA, resB, err := reserves(cc, st)
	if err != nil {
		return nil, err
	}
	if err := mintFee(cc, st, resA, resB); err != nil {
		return nil, err
	}
	outA, outB, err := amm.BurnAmounts(lp, resA, resB, st.TotalSupply)
	if err != nil {
		return nil, err
	}
	if err := cc.Ledger().Burn(cc.Self, cc.Self, lp); err != nil {
		return nil, err
	}
	st.TotalSupply -= lp
	st.KLast = amm.Product(resA-outA, resB-outB)

	var out asset.Parcel
	out = out.Pay(st.TokenA, outA)
	out = out.Pay(st.TokenB, outB)
	return &runtime.Response{Parcel: out}, nil
}

// collectFees pays the accrued protocol fee to the factory.
func (p *Pool) collectFees(cc *runtime.CallContext, st *State, _ *runtime.Args) (*runtime.Response, error) {
	if cc.Caller != st.Factory {
		return nil, errors.Wrapf(ter.TefNOT_FACTORY, "caller %s", cc.Caller)
	}
	resA, resB, err := reserves(cc, st)
	if err != nil {
		return nil, err
	}
	if err := mintFee(cc, st, resA, resB); err != nil {
		return nil, err
	}
	claim := st.ClaimableFees
	st.ClaimableFees = 0

	resp := runtime.Forward(cc.Incoming)
	switch {
	case claim == 0:
	case st.Flavor == FlavorOyl:
		outA, outB, err := amm.BurnAmounts(claim, resA, resB, st.TotalSupply)
		if err != nil {
			return nil, err
		}
		if err := cc.Ledger().Burn(cc.Self, cc.Self, claim); err != nil {
			return nil, err
		}
		st.TotalSupply -= claim
		resA, resB = resA-outA, resB-outB
		resp.Parcel = resp.Parcel.Pay(st.TokenA, outA)
		resp.Parcel = resp.Parcel.Pay(st.TokenB, outB)
	default:
		resp.Parcel = resp.Parcel.Pay(cc.Self, claim)
	}
	st.KLast = amm.Product(resA, resB)
	return resp, nil
}

// setFee(fee) changes the total swap fee.
func (p *Pool) setFee(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	if cc.Caller != st.Factory {
		return nil, errors.Wrapf(ter.TefNOT_FACTORY, "caller %s", cc.Caller)
	}
	fee, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := amm.ValidateFee(fee); err != nil {
		return nil, err
	}
	st.Fee = fee
	return runtime.Forward(cc.Incoming), nil
}

// InitCall builds the initialize call of a pool.
func InitCall(a, b asset.ID, fee uint64, share amm.ProtocolShare, flavor Flavor) runtime.Call {
	return runtime.NewCall(OpInitialize, runtime.Words(
		runtime.IDWords(a, b),
		[]uint64{fee, share.Num, share.Den, uint64(flavor)},
	)...)
}

// SwapCall builds a low-level swap call. data, when non-empty, is passed to
// the recipient's flash callback.
func SwapCall(amountAOut, amountBOut uint64, to asset.ID, data ...uint64) runtime.Call {
	return runtime.NewCall(OpSwap, runtime.Words(
		[]uint64{amountAOut, amountBOut},
		runtime.IDWords(to),
		data,
	)...)
}
