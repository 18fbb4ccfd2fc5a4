// Package amm provides test builders for pool, factory, router and path
// provider calls.
package amm

import (
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/factory"
	"github.com/LeJamon/goAMM/internal/core/pathprovider"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/router"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	jtx "github.com/LeJamon/goAMM/internal/testing"
)

// NoDeadline is a deadline no test height reaches.
const NoDeadline = ^uint64(0)

// CreatePoolBuilder provides a fluent interface for building factory createPool calls.
type CreatePoolBuilder struct {
	account *jtx.Account
	factory asset.ID
	a, b    asset.ID
	amountA uint64
	amountB uint64
	parcel  asset.Parcel
}

// CreatePool creates a new CreatePoolBuilder seeding the pool with both amounts.
func CreatePool(account *jtx.Account, fac, a asset.ID, amountA uint64, b asset.ID, amountB uint64) *CreatePoolBuilder {
	return &CreatePoolBuilder{account: account, factory: fac, a: a, b: b, amountA: amountA, amountB: amountB}
}

// Parcel replaces the attached deposits.
func (b *CreatePoolBuilder) Parcel(p asset.Parcel) *CreatePoolBuilder {
	b.parcel = p
	return b
}

// Build creates the message.
func (b *CreatePoolBuilder) Build() runtime.Message {
	parcel := b.parcel
	if parcel == nil {
		parcel = asset.Parcel{{ID: b.a, Value: b.amountA}, {ID: b.b, Value: b.amountB}}
	}
	return runtime.Message{
		Caller: b.account.ID,
		Target: b.factory,
		Call:   runtime.NewCall(factory.OpCreatePool, runtime.IDWords(b.a, b.b)...),
		Parcel: parcel,
	}
}

// LiquidityBuilder provides a fluent interface for addLiquidity and burn
// calls, sent either to a factory or directly to a pool.
type LiquidityBuilder struct {
	account  *jtx.Account
	target   asset.ID
	opcode   uint64
	direct   bool
	a, b     asset.ID
	parcel   asset.Parcel
	deadline uint64
}

// AddLiquidity deposits both amounts through the factory.
func AddLiquidity(account *jtx.Account, fac, a asset.ID, amountA uint64, b asset.ID, amountB uint64) *LiquidityBuilder {
	var p asset.Parcel
	p = p.Pay(a, amountA)
	p = p.Pay(b, amountB)
	return &LiquidityBuilder{account: account, target: fac, opcode: factory.OpAddLiquidity, a: a, b: b, parcel: p, deadline: NoDeadline}
}

// AddLiquidityToPool deposits the parcel straight into a pool.
func AddLiquidityToPool(account *jtx.Account, poolID asset.ID, p asset.Parcel) *LiquidityBuilder {
	return &LiquidityBuilder{account: account, target: poolID, opcode: pool.OpAddLiquidity, direct: true, parcel: p, deadline: NoDeadline}
}

// Burn redeems lp units of poolID through the factory.
func Burn(account *jtx.Account, fac, a, b, poolID asset.ID, lp uint64) *LiquidityBuilder {
	return &LiquidityBuilder{account: account, target: fac, opcode: factory.OpBurn, a: a, b: b, parcel: asset.Single(poolID, lp), deadline: NoDeadline}
}

// BurnFromPool redeems lp units straight at the pool.
func BurnFromPool(account *jtx.Account, poolID asset.ID, lp uint64) *LiquidityBuilder {
	return &LiquidityBuilder{account: account, target: poolID, opcode: pool.OpBurn, direct: true, parcel: asset.Single(poolID, lp), deadline: NoDeadline}
}

// Deadline sets the deadline height.
func (b *LiquidityBuilder) Deadline(h uint64) *LiquidityBuilder {
	b.deadline = h
	return b
}

// Build creates the message.
func (b *LiquidityBuilder) Build() runtime.Message {
	inputs := []uint64{b.deadline}
	if !b.direct {
		inputs = runtime.Words(runtime.IDWords(b.a, b.b), inputs)
	}
	return runtime.Message{
		Caller: b.account.ID,
		Target: b.target,
		Call:   runtime.NewCall(b.opcode, inputs...),
		Parcel: b.parcel,
	}
}

// SwapBuilder provides a fluent interface for exact-input and exact-output
// swaps through a factory.
type SwapBuilder struct {
	account   *jtx.Account
	factory   asset.ID
	in, out   asset.ID
	amountIn  uint64
	amountOut uint64
	exactOut  bool
	deadline  uint64
}

// SwapExactIn sells amountIn of in for at least MinOut of out.
func SwapExactIn(account *jtx.Account, fac, in asset.ID, amountIn uint64, out asset.ID) *SwapBuilder {
	return &SwapBuilder{account: account, factory: fac, in: in, out: out, amountIn: amountIn, deadline: NoDeadline}
}

// SwapExactOut buys amountOut of out, sending at most maxIn of in.
func SwapExactOut(account *jtx.Account, fac, in asset.ID, maxIn uint64, out asset.ID, amountOut uint64) *SwapBuilder {
	return &SwapBuilder{account: account, factory: fac, in: in, out: out, amountIn: maxIn, amountOut: amountOut, exactOut: true, deadline: NoDeadline}
}

// MinOut sets the minimum output of an exact-input swap.
func (b *SwapBuilder) MinOut(v uint64) *SwapBuilder {
	b.amountOut = v
	return b
}

// Deadline sets the deadline height.
func (b *SwapBuilder) Deadline(h uint64) *SwapBuilder {
	b.deadline = h
	return b
}

// Build creates the message.
func (b *SwapBuilder) Build() runtime.Message {
	call := runtime.NewCall(factory.OpSwapExactIn, runtime.Words(runtime.IDWords(b.in, b.out), []uint64{b.amountOut, b.deadline})...)
	if b.exactOut {
		call = runtime.NewCall(factory.OpSwapExactOut, runtime.Words(runtime.IDWords(b.in, b.out), []uint64{b.amountOut, b.amountIn, b.deadline})...)
	}
	return runtime.Message{
		Caller: b.account.ID,
		Target: b.factory,
		Call:   call,
		Parcel: asset.Single(b.in, b.amountIn),
	}
}

// FlashSwapBuilder provides a fluent interface for low-level pool swaps.
type FlashSwapBuilder struct {
	account *jtx.Account
	pool    asset.ID
	outA    uint64
	outB    uint64
	to      asset.ID
	data    []uint64
	parcel  asset.Parcel
}

// LowLevelSwap asks poolID to pay outA/outB to `to`.
func LowLevelSwap(account *jtx.Account, poolID asset.ID, outA, outB uint64, to asset.ID) *FlashSwapBuilder {
	return &FlashSwapBuilder{account: account, pool: poolID, outA: outA, outB: outB, to: to}
}

// Data sets the flash callback data.
func (b *FlashSwapBuilder) Data(words []uint64) *FlashSwapBuilder {
	b.data = words
	return b
}

// Parcel attaches an up-front payment.
func (b *FlashSwapBuilder) Parcel(p asset.Parcel) *FlashSwapBuilder {
	b.parcel = p
	return b
}

// Build creates the message.
func (b *FlashSwapBuilder) Build() runtime.Message {
	return runtime.Message{
		Caller: b.account.ID,
		Target: b.pool,
		Call:   pool.SwapCall(b.outA, b.outB, b.to, b.data...),
		Parcel: b.parcel,
	}
}

// RouterSwapBuilder provides a fluent interface for multi-hop router swaps.
type RouterSwapBuilder struct {
	account  *jtx.Account
	router   asset.ID
	path     []asset.ID
	amount   uint64
	limit    uint64
	exactOut bool
	deadline uint64
	parcel   asset.Parcel
}

// RouterSwapExactIn sells amountIn of path[0] along path.
func RouterSwapExactIn(account *jtx.Account, r asset.ID, path []asset.ID, amountIn uint64) *RouterSwapBuilder {
	b := &RouterSwapBuilder{account: account, router: r, path: path, amount: amountIn, deadline: NoDeadline}
	if len(path) > 0 {
		b.parcel = asset.Single(path[0], amountIn)
	}
	return b
}

// RouterSwapExactOut buys amountOut of the last asset of path, sending maxIn.
func RouterSwapExactOut(account *jtx.Account, r asset.ID, path []asset.ID, amountOut, maxIn uint64) *RouterSwapBuilder {
	b := &RouterSwapBuilder{account: account, router: r, path: path, amount: amountOut, limit: maxIn, exactOut: true, deadline: NoDeadline}
	if len(path) > 0 {
		b.parcel = asset.Single(path[0], maxIn)
	}
	return b
}

// MinOut sets the minimum output of an exact-input swap.
func (b *RouterSwapBuilder) MinOut(v uint64) *RouterSwapBuilder {
	b.limit = v
	return b
}

// Deadline sets the deadline height.
func (b *RouterSwapBuilder) Deadline(h uint64) *RouterSwapBuilder {
	b.deadline = h
	return b
}

// Parcel replaces the attached parcel.
func (b *RouterSwapBuilder) Parcel(p asset.Parcel) *RouterSwapBuilder {
	b.parcel = p
	return b
}

// Build creates the message.
func (b *RouterSwapBuilder) Build() runtime.Message {
	call := router.SwapExactInCall(b.path, b.amount, b.limit, b.deadline)
	if b.exactOut {
		call = router.SwapExactOutCall(b.path, b.amount, b.limit, b.deadline)
	}
	return runtime.Message{Caller: b.account.ID, Target: b.router, Call: call, Parcel: b.parcel}
}

// SetPath builds an owner call storing path for (a, b) on the provider.
func SetPath(owner *jtx.Account, provider, auth, a, b asset.ID, path []asset.ID) runtime.Message {
	return runtime.Message{
		Caller: owner.ID,
		Target: provider,
		Call:   pathprovider.SetPathCall(a, b, path),
		Parcel: asset.Single(auth, 1),
	}
}
