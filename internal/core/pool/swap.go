package pool

import (
	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// swap(amountAOut, amountBOut, to, data...) pays the outputs to `to` first,
// runs the flash callback when data is present, then checks the invariant
// against whatever was received during the call.
func (p *Pool) swap(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	outA, err := args.Uint()
	if err != nil {
		return nil, err
	}
	outB, err := args.Uint()
	if err != nil {
		return nil, err
	}
	to, err := args.ID()
	if err != nil {
		return nil, err
	}
	data := args.Rest()

	if outA == 0 && outB == 0 {
		return nil, ter.TecINSUFFICIENT_OUTPUT_AMOUNT
	}
	if st.Has(to) || to == cc.Self {
		return nil, errors.Wrapf(ter.TemBAD_RECIPIENT, "%s", to)
	}
	if err := checkDeposits(cc.Incoming, st.Has); err != nil {
		return nil, err
	}
	prevA, prevB, err := reserves(cc, st)
	if err != nil {
		return nil, err
	}
	if outA >= prevA || outB >= prevB {
		return nil, ter.TecINSUFFICIENT_LIQUIDITY
	}

	l := cc.Ledger()
	if err := l.Transfer(cc.Self, to, st.TokenA, outA); err != nil {
		return nil, err
	}
	if err := l.Transfer(cc.Self, to, st.TokenB, outB); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		inputs := runtime.Words(runtime.IDWords(cc.Caller), []uint64{outA, outB}, data)
		if _, err := cc.Call(to, runtime.NewCall(OpFlashCallback, inputs...), nil); err != nil {
			return nil, errors.Wrap(err, "flash callback")
		}
	}

	balA, err := cc.Balance(st.TokenA)
	if err != nil {
		return nil, err
	}
	balB, err := cc.Balance(st.TokenB)
	if err != nil {
		return nil, err
	}
	inA := received(balA, prevA-outA)
	inB := received(balB, prevB-outB)
	if inA == 0 && inB == 0 {
		return nil, ter.TecINSUFFICIENT_INPUT_AMOUNT
	}
	if err := amm.CheckK(balA, balB, inA, inB, prevA, prevB, st.Fee); err != nil {
		return nil, err
	}
	return &runtime.Response{}, nil
}

func received(balance, floor uint64) uint64 {
	if balance > floor {
		return balance - floor
	}
	return 0
}

// single returns the one asset attached to an exact swap and the asset it
// swaps into.
func single(cc *runtime.CallContext, st *State) (in asset.Transfer, out asset.ID, err error) {
	if len(cc.Incoming) != 1 || cc.Incoming[0].Value == 0 {
		return in, out, errors.Wrapf(ter.TemBAD_ASSET_COUNT, "exact swap needs one asset, got %d", len(cc.Incoming))
	}
	in = cc.Incoming[0]
	switch in.ID {
	case st.TokenA:
		return in, st.TokenB, nil
	case st.TokenB:
		return in, st.TokenA, nil
	}
	return in, out, errors.Wrapf(ter.TemUNSUPPORTED_ASSET, "%s", in.ID)
}

// directional reserves for a swap of in into out
func sided(cc *runtime.CallContext, st *State, in asset.ID) (reserveIn, reserveOut uint64, err error) {
	resA, resB, err := reserves(cc, st)
	if err != nil {
		return 0, 0, err
	}
	if in == st.TokenA {
		return resA, resB, nil
	}
	return resB, resA, nil
}

// swapExactIn(amountOutMin, deadline) sells the whole attached asset.
func (p *Pool) swapExactIn(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	minOut, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := optionalDeadline(cc, args); err != nil {
		return nil, err
	}
	in, outID, err := single(cc, st)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := sided(cc, st, in.ID)
	if err != nil {
		return nil, err
	}
	out, err := amm.GetAmountOut(in.Value, reserveIn, reserveOut, st.Fee)
	if err != nil {
		return nil, err
	}
	if out < minOut {
		return nil, errors.Wrapf(ter.TecINSUFFICIENT_OUTPUT_AMOUNT, "out %d < min %d", out, minOut)
	}
	return &runtime.Response{Parcel: asset.Single(outID, out)}, nil
}

// swapExactOut(amountOut, amountInMax, deadline) buys amountOut and refunds
// the unused part of the attached asset.
func (p *Pool) swapExactOut(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	amountOut, err := args.Uint()
	if err != nil {
		return nil, err
	}
	maxIn, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := optionalDeadline(cc, args); err != nil {
		return nil, err
	}
	in, outID, err := single(cc, st)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := sided(cc, st, in.ID)
	if err != nil {
		return nil, err
	}
	required, err := amm.GetAmountIn(amountOut, reserveIn, reserveOut, st.Fee)
	if err != nil {
		return nil, err
	}
	if required > maxIn || required > in.Value {
		return nil, errors.Wrapf(ter.TecEXCESSIVE_INPUT_AMOUNT, "need %d, max %d, sent %d", required, maxIn, in.Value)
	}
	out := asset.Single(outID, amountOut)
	out = out.Pay(in.ID, in.Value-required)
	return &runtime.Response{Parcel: out}, nil
}
