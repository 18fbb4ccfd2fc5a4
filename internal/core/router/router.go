// Package router implements multi-hop swaps across the pools of one factory.
package router

import (
	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/factory"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Kind is the contract kind of routers.
const Kind runtime.Kind = "router"

// Router opcodes
const (
	OpInitialize      uint64 = 0
	OpAddLiquidity    uint64 = 1
	OpRemoveLiquidity uint64 = 2
	OpSwapExactIn     uint64 = 3
	OpSwapExactOut    uint64 = 4
	OpGetAllPools     uint64 = 5
	OpGetAmountsOut   uint64 = 6
	OpGetAmountsIn    uint64 = 7
	OpForward         uint64 = 50
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Router{} })
}

// Router holds no funds between calls; everything it receives during a
// swap is paid on within the same call.
type Router struct{}

func (r *Router) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	args := call.Args()
	switch call.Opcode {
	case OpInitialize:
		return r.initialize(cc, args)
	case OpForward:
		return runtime.Forward(cc.Incoming), nil
	}

	fac, err := factoryOf(cc.View(), cc.Self)
	if err != nil {
		return nil, err
	}
	switch call.Opcode {
	case OpAddLiquidity:
		return r.viaFactory(cc, fac, factory.OpAddLiquidity, args)
	case OpRemoveLiquidity:
		return r.viaFactory(cc, fac, factory.OpBurn, args)
	case OpSwapExactIn:
		return r.swapExactIn(cc, fac, args)
	case OpSwapExactOut:
		return r.swapExactOut(cc, fac, args)
	case OpGetAllPools:
		resp, err := cc.Call(fac, runtime.NewCall(factory.OpGetAllPools), nil)
		if err != nil {
			return nil, err
		}
		out := runtime.Forward(cc.Incoming)
		out.Data = resp.Data
		return out, nil
	case OpGetAmountsOut, OpGetAmountsIn:
		path, err := args.Path()
		if err != nil {
			return nil, err
		}
		amount, err := args.Uint()
		if err != nil {
			return nil, err
		}
		route, err := resolve(cc, fac, path)
		if err != nil {
			return nil, err
		}
		var amounts []uint64
		if call.Opcode == OpGetAmountsOut {
			amounts, err = amm.GetAmountsOut(amount, route.hops)
		} else {
			amounts, err = amm.GetAmountsIn(amount, route.hops)
		}
		if err != nil {
			return nil, err
		}
		out := runtime.Forward(cc.Incoming)
		out.Data = runtime.Uint64Data(amounts...)
		return out, nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "router opcode %d", call.Opcode)
}

// initialize(factory) binds the router to a factory.
func (r *Router) initialize(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	if ok, err := cc.View().Exists(keylet.Router(cc.Self)); err != nil || ok {
		if err != nil {
			return nil, err
		}
		return nil, ter.TerALREADY_INITIALIZED
	}
	fac, err := args.ID()
	if err != nil {
		return nil, err
	}
	if err := cc.View().Insert(keylet.Router(cc.Self), fac.Bytes()); err != nil {
		return nil, err
	}
	return runtime.Forward(cc.Incoming), nil
}

func factoryOf(v state.View, router asset.ID) (asset.ID, error) {
	data, err := v.Read(keylet.Router(router))
	if err != nil {
		return asset.ID{}, err
	}
	if data == nil {
		return asset.ID{}, errors.Wrapf(ter.TerNOT_INITIALIZED, "router %s", router)
	}
	return asset.FromBytes(data)
}

// viaFactory(a, b, deadline) forwards a liquidity operation to the factory.
func (r *Router) viaFactory(cc *runtime.CallContext, fac asset.ID, opcode uint64, args *runtime.Args) (*runtime.Response, error) {
	a, err := args.ID()
	if err != nil {
		return nil, err
	}
	b, err := args.ID()
	if err != nil {
		return nil, err
	}
	deadline, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if err := cc.CheckDeadline(deadline); err != nil {
		return nil, err
	}
	inputs := runtime.Words(runtime.IDWords(a, b), []uint64{deadline})
	return cc.Call(fac, runtime.NewCall(opcode, inputs...), cc.Incoming)
}

// route is a resolved path: one pool and one quote per hop.
type route struct {
	path  []asset.ID
	pools []asset.ID
	hops  []amm.Hop
}

// resolve finds the pool of every hop through the factory and reads its
// reserves and fee.
func resolve(cc *runtime.CallContext, fac asset.ID, path []asset.ID) (*route, error) {
	if len(path) < 2 {
		return nil, errors.Wrapf(ter.TemPATH_TOO_SHORT, "path of %d", len(path))
	}
	rt := &route{
		path:  path,
		pools: make([]asset.ID, len(path)-1),
		hops:  make([]amm.Hop, len(path)-1),
	}
	for i := range rt.pools {
		in, out := path[i], path[i+1]
		resp, err := cc.Call(fac, runtime.NewCall(factory.OpFindPool, runtime.IDWords(in, out)...), nil)
		if err != nil {
			return nil, err
		}
		id, err := runtime.ReadID(resp.Data)
		if err != nil {
			return nil, err
		}
		resp, err = cc.Call(id, runtime.NewCall(pool.OpGetReserves), nil)
		if err != nil {
			return nil, err
		}
		resA, resB, err := pool.ParseReserves(resp.Data)
		if err != nil {
			return nil, err
		}
		resp, err = cc.Call(id, runtime.NewCall(pool.OpGetFeeState), nil)
		if err != nil {
			return nil, err
		}
		fees, err := pool.ParseFeeState(resp.Data)
		if err != nil {
			return nil, err
		}

		hop := amm.Hop{ReserveIn: resA, ReserveOut: resB, Fee: fees.Fee}
		if out.Less(in) {
			hop.ReserveIn, hop.ReserveOut = resB, resA
		}
		rt.pools[i], rt.hops[i] = id, hop
	}
	return rt, nil
}

// execute runs the low-level swap of every hop with the router as the
// recipient, feeding each output into the next hop.
func (rt *route) execute(cc *runtime.CallContext, amounts []uint64) error {
	for i, id := range rt.pools {
		in, out := rt.path[i], rt.path[i+1]
		outA, outB := uint64(0), amounts[i+1]
		if out.Less(in) {
			outA, outB = outB, outA
		}
		if _, err := cc.Call(id, pool.SwapCall(outA, outB, cc.Self), asset.Single(in, amounts[i])); err != nil {
			return errors.Wrapf(err, "hop %d through %s", i, id)
		}
	}
	return nil
}

// settle pays the final output and refunds whatever of the incoming parcel
// the route did not spend.
func settle(cc *runtime.CallContext, rt *route, amounts []uint64) *runtime.Response {
	first, last := rt.path[0], rt.path[len(rt.path)-1]
	var out asset.Parcel
	for _, t := range cc.Incoming {
		v := t.Value
		if t.ID == first {
			v -= amounts[0]
		}
		out = out.Pay(t.ID, v)
	}
	out = out.Pay(last, amounts[len(amounts)-1])
	return &runtime.Response{Data: runtime.Uint64Data(amounts...), Parcel: out}
}

// swapExactIn(path, amountIn, amountOutMin, deadline)
func (r *Router) swapExactIn(cc *runtime.CallContext, fac asset.ID, args *runtime.Args) (*runtime.Response, error) {
	path, err := args.Path()
	if err != nil {
		return nil, err
	}
	var words [3]uint64
	for i := range words {
		if words[i], err = args.Uint(); err != nil {
			return nil, err
		}
	}
	amountIn, minOut, deadline := words[0], words[1], words[2]
	if err := cc.CheckDeadline(deadline); err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, errors.Wrapf(ter.TemPATH_TOO_SHORT, "path of %d", len(path))
	}
	if cc.Incoming.Amount(path[0]) < amountIn {
		return nil, errors.Wrapf(ter.TecINSUFFICIENT_INPUT_AMOUNT, "sent %d of %d", cc.Incoming.Amount(path[0]), amountIn)
	}

	rt, err := resolve(cc, fac, path)
	if err != nil {
		return nil, err
	}
	amounts, err := amm.GetAmountsOut(amountIn, rt.hops)
	if err != nil {
		return nil, err
	}
	if got := amounts[len(amounts)-1]; got < minOut {
		return nil, errors.Wrapf(ter.TecINSUFFICIENT_OUTPUT_AMOUNT, "out %d < min %d", got, minOut)
	}
	if err := rt.execute(cc, amounts); err != nil {
		return nil, err
	}
	return settle(cc, rt, amounts), nil
}

// swapExactOut(path, amountOut, amountInMax, deadline)
func (r *Router) swapExactOut(cc *runtime.CallContext, fac asset.ID, args *runtime.Args) (*runtime.Response, error) {
	path, err := args.Path()
	if err != nil {
		return nil, err
	}
	var words [3]uint64
	for i := range words {
		if words[i], err = args.Uint(); err != nil {
			return nil, err
		}
	}
	amountOut, maxIn, deadline := words[0], words[1], words[2]
	if err := cc.CheckDeadline(deadline); err != nil {
		return nil, err
	}
	if len(path) < 2 {
		return nil, errors.Wrapf(ter.TemPATH_TOO_SHORT, "path of %d", len(path))
	}

	rt, err := resolve(cc, fac, path)
	if err != nil {
		return nil, err
	}
	amounts, err := amm.GetAmountsIn(amountOut, rt.hops)
	if err != nil {
		return nil, err
	}
	if need := amounts[0]; need > maxIn || need > cc.Incoming.Amount(path[0]) {
		return nil, errors.Wrapf(ter.TecEXCESSIVE_INPUT_AMOUNT, "need %d, max %d, sent %d", need, maxIn, cc.Incoming.Amount(path[0]))
	}
	if err := rt.execute(cc, amounts); err != nil {
		return nil, err
	}
	return settle(cc, rt, amounts), nil
}

// SwapExactInCall builds a SwapExactIn call.
func SwapExactInCall(path []asset.ID, amountIn, amountOutMin, deadline uint64) runtime.Call {
	return runtime.NewCall(OpSwapExactIn, runtime.Words(runtime.PathWords(path), []uint64{amountIn, amountOutMin, deadline})...)
}

// SwapExactOutCall builds a SwapExactOut call.
func SwapExactOutCall(path []asset.ID, amountOut, amountInMax, deadline uint64) runtime.Call {
	return runtime.NewCall(OpSwapExactOut, runtime.Words(runtime.PathWords(path), []uint64{amountOut, amountInMax, deadline})...)
}

// QuoteCall builds a GetAmountsOut (exactIn) or GetAmountsIn call.
func QuoteCall(path []asset.ID, amount uint64, exactIn bool) runtime.Call {
	op := OpGetAmountsIn
	if exactIn {
		op = OpGetAmountsOut
	}
	return runtime.NewCall(op, runtime.Words(runtime.PathWords(path), []uint64{amount})...)
}
