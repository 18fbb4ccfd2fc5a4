package amm_test

import (
	"math/rand"
	"testing"

	coreAmm "github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/LeJamon/goAMM/internal/testing/amm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapExactIn(t *testing.T) {
	t.Run("Pricing", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireParcel(t, res, env.EUR, 9_755)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding+9_755)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-10_000)

		d := env.Details(p)
		assert.Equal(t, uint64(510_000), d.ReserveA)
		assert.Equal(t, uint64(490_245), d.ReserveB)
	})

	t.Run("ReverseDirection", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.EUR, 10_000, env.USD).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding+9_755)
	})

	t.Run("MinimumNotMet", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, env.Bob.ID, p)

		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).MinOut(9_756).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_OUTPUT_AMOUNT)
		env.RequireUnchanged(snap)
	})

	t.Run("Expired", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
		env.AdvanceHeight(100)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, env.Bob.ID, p)

		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).Deadline(50).Build())
		jtx.RequireCode(t, res, ter.TerEXPIRED)
		env.RequireUnchanged(snap)
	})

	t.Run("NoPool", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.BTC).Build())
		jtx.RequireCode(t, res, ter.TerNO_POOL)
	})

	t.Run("TwoAssets", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
		call := amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).Build().Call
		res := env.Call(env.Bob, p, runtime.NewCall(pool.OpSwapExactIn, call.Inputs[4:]...),
			asset.Parcel{{ID: env.USD, Value: 10}, {ID: env.EUR, Value: 10}})
		jtx.RequireCode(t, res, ter.TemBAD_ASSET_COUNT)
	})
}

func TestSwapExactOut(t *testing.T) {
	t.Run("RefundsUnused", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.SwapExactOut(env.Bob, env.Factory, env.USD, 10_000, env.EUR, 9_000).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding+9_000)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-9_212)
		jtx.RequireBalance(t, env.TestEnv, env.Factory, env.USD, 0)
	})

	t.Run("ExactBudget", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.SwapExactOut(env.Bob, env.Factory, env.USD, 10_000, env.EUR, 9_755).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-10_000)
	})

	t.Run("ExcessiveInput", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, env.Bob.ID, p)

		res := env.Submit(amm.SwapExactOut(env.Bob, env.Factory, env.USD, 9_000, env.EUR, 9_755).Build())
		jtx.RequireCode(t, res, ter.TecEXCESSIVE_INPUT_AMOUNT)
		env.RequireUnchanged(snap)
	})

	t.Run("DrainReserve", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.SwapExactOut(env.Bob, env.Factory, env.USD, amm.DefaultFunding, env.EUR, 500_000).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_LIQUIDITY)
	})
}

func TestLowLevelSwap(t *testing.T) {
	t.Run("PrepaidInput", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 9_755, env.Bob.ID).
			Parcel(asset.Single(env.USD, 10_000)).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding+9_755)
	})

	t.Run("KNotIncreasing", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, env.Bob.ID, p)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 9_756, env.Bob.ID).
			Parcel(asset.Single(env.USD, 10_000)).Build())
		jtx.RequireCode(t, res, ter.TecK_NOT_INCREASING)
		env.RequireUnchanged(snap)
	})

	t.Run("NoInput", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 100, env.Bob.ID).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_INPUT_AMOUNT)
	})

	t.Run("NoOutput", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 0, env.Bob.ID).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_OUTPUT_AMOUNT)
	})

	t.Run("BadRecipient", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		for _, to := range []asset.ID{env.USD, env.EUR, p} {
			res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 100, to).Parcel(asset.Single(env.USD, 1_000)).Build())
			jtx.RequireCode(t, res, ter.TemBAD_RECIPIENT)
		}
	})

	t.Run("WholeReserve", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 0, 500_000, env.Bob.ID).
			Parcel(asset.Single(env.USD, amm.DefaultFunding)).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_LIQUIDITY)
	})
}

func TestInvariantPreserved(t *testing.T) {
	env := amm.NewAMMTestEnv(t)
	p := env.CreatePool(env.Alice, env.USD, 2_000_000, env.EUR, 3_000_000)
	rng := rand.New(rand.NewSource(7))

	k := env.K(p)
	for i := 0; i < 40; i++ {
		in, out := env.USD, env.EUR
		if rng.Intn(2) == 1 {
			in, out = out, in
		}
		amount := uint64(rng.Intn(50_000) + 1)
		res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, in, amount, out).Build())
		require.True(t, res.Success, "swap %d: %s %s", i, res.Code, res.Message)

		next := env.K(p)
		require.False(t, next.Lt(k), "swap %d decreased k from %s to %s", i, k, next)
		k = next
	}
	env.RequireLPConserved(p)
}

func TestSwapWithZeroFee(t *testing.T) {
	env := amm.NewAMMTestEnvWith(t, amm.FactoryConfig{
		Flavor: pool.FlavorPlain,
		Fee:    0,
		Share:  coreAmm.ProtocolShare{Num: 0, Den: 1},
	})
	env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)

	res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).Build())
	jtx.RequireSuccess(t, res)
	jtx.RequireParcel(t, res, env.EUR, 9_803)
}
