package amm_test

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/router"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/LeJamon/goAMM/internal/testing/amm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routedEnv seeds USD/EUR and EUR/BTC with 1M of each side.
func routedEnv(t *testing.T) (*amm.AMMTestEnv, []asset.ID) {
	env := amm.NewAMMTestEnv(t)
	env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
	env.CreatePool(env.Alice, env.EUR, 1_000_000, env.BTC, 1_000_000)
	return env, []asset.ID{env.USD, env.EUR, env.BTC}
}

func quote(t *testing.T, env *amm.AMMTestEnv, path []asset.ID, amount uint64, exactIn bool) []uint64 {
	t.Helper()
	res := env.Simulate(runtime.Message{Caller: env.Bob.ID, Target: env.Router, Call: router.QuoteCall(path, amount, exactIn)})
	jtx.RequireSuccess(t, res)
	amounts, err := runtime.ReadUint64s(res.Data(), len(path))
	require.NoError(t, err)
	return amounts
}

func TestRouterSwapExactIn(t *testing.T) {
	t.Run("MultiHop", func(t *testing.T) {
		env, path := routedEnv(t)
		assert.Equal(t, []uint64{10_000, 9_851, 9_706}, quote(t, env, path, 10_000, true))

		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, path, 10_000).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireParcel(t, res, env.BTC, 9_706)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-10_000)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.BTC, amm.DefaultFunding+9_706)

		amounts, err := runtime.ReadUint64s(res.Data(), 3)
		require.NoError(t, err)
		assert.Equal(t, []uint64{10_000, 9_851, 9_706}, amounts)

		// the router keeps nothing
		for _, id := range path {
			jtx.RequireBalance(t, env.TestEnv, env.Router, id, 0)
		}
	})

	t.Run("RefundsExcess", func(t *testing.T) {
		env, path := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, path, 10_000).
			Parcel(asset.Single(env.USD, 15_000).Pay(env.EUR, 7)).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireParcel(t, res, env.USD, 5_000)
		jtx.RequireParcel(t, res, env.EUR, 7)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-10_000)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding)
	})

	t.Run("SplitInputEntries", func(t *testing.T) {
		env, path := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, path, 10_000).
			Parcel(asset.Parcel{{ID: env.USD, Value: 6_000}, {ID: env.USD, Value: 6_000}}).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireParcel(t, res, env.USD, 2_000)
		jtx.RequireParcel(t, res, env.BTC, 9_706)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-10_000)
		jtx.RequireBalance(t, env.TestEnv, env.Router, env.USD, 0)
	})

	t.Run("InsufficientOutput", func(t *testing.T) {
		env, path := routedEnv(t)
		snap := env.Snapshot(path, env.Bob.ID, env.Router)

		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, path, 10_000).MinOut(9_707).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_OUTPUT_AMOUNT)
		env.RequireUnchanged(snap)
	})

	t.Run("UnderfundedInput", func(t *testing.T) {
		env, path := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, path, 10_000).
			Parcel(asset.Single(env.USD, 9_999)).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_INPUT_AMOUNT)
	})

	t.Run("PathTooShort", func(t *testing.T) {
		env, _ := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, []asset.ID{env.USD}, 10_000).Build())
		jtx.RequireCode(t, res, ter.TemPATH_TOO_SHORT)
	})

	t.Run("ExpiredBeforePathCheck", func(t *testing.T) {
		env, _ := routedEnv(t)
		env.AdvanceHeight(10)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, []asset.ID{env.USD}, 10_000).Deadline(5).Build())
		jtx.RequireCode(t, res, ter.TerEXPIRED)
	})

	t.Run("MissingPool", func(t *testing.T) {
		env, _ := routedEnv(t)
		snap := env.Snapshot([]asset.ID{env.USD, env.BTC}, env.Bob.ID)
		res := env.Submit(amm.RouterSwapExactIn(env.Bob, env.Router, []asset.ID{env.USD, env.BTC}, 10_000).Build())
		jtx.RequireCode(t, res, ter.TerNO_POOL)
		env.RequireUnchanged(snap)
	})
}

func TestRouterSwapExactOut(t *testing.T) {
	t.Run("MultiHop", func(t *testing.T) {
		env, path := routedEnv(t)
		assert.Equal(t, []uint64{5_103, 5_051, 5_000}, quote(t, env, path, 5_000, false))

		res := env.Submit(amm.RouterSwapExactOut(env.Bob, env.Router, path, 5_000, 6_000).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireParcel(t, res, env.BTC, 5_000)
		jtx.RequireParcel(t, res, env.USD, 6_000-5_103)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding-5_103)
		jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.BTC, amm.DefaultFunding+5_000)
	})

	t.Run("ExcessiveInput", func(t *testing.T) {
		env, path := routedEnv(t)
		snap := env.Snapshot(path, env.Bob.ID)
		res := env.Submit(amm.RouterSwapExactOut(env.Bob, env.Router, path, 5_000, 5_102).Build())
		jtx.RequireCode(t, res, ter.TecEXCESSIVE_INPUT_AMOUNT)
		env.RequireUnchanged(snap)
	})

	t.Run("MaxAboveSent", func(t *testing.T) {
		env, path := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactOut(env.Bob, env.Router, path, 5_000, 6_000).
			Parcel(asset.Single(env.USD, 5_000)).Build())
		jtx.RequireCode(t, res, ter.TecEXCESSIVE_INPUT_AMOUNT)
	})

	t.Run("DrainsPool", func(t *testing.T) {
		env, path := routedEnv(t)
		res := env.Submit(amm.RouterSwapExactOut(env.Bob, env.Router, path, 1_000_000, 5_000_000).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_LIQUIDITY)
	})
}

func TestRouterLiquidity(t *testing.T) {
	env := amm.NewAMMTestEnv(t)
	p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)

	add := runtime.NewCall(router.OpAddLiquidity, runtime.Words(runtime.IDWords(env.USD, env.EUR), []uint64{amm.NoDeadline})...)
	res := env.Call(env.Bob, env.Router, add, asset.Single(env.USD, 10_000).Pay(env.EUR, 10_000))
	jtx.RequireSuccess(t, res)
	jtx.RequireParcel(t, res, p, 10_000)
	jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, p, 10_000)
	jtx.RequireBalance(t, env.TestEnv, env.Router, p, 0)

	remove := runtime.NewCall(router.OpRemoveLiquidity, runtime.Words(runtime.IDWords(env.USD, env.EUR), []uint64{amm.NoDeadline})...)
	res = env.Call(env.Bob, env.Router, remove, asset.Single(p, 10_000))
	jtx.RequireSuccess(t, res)
	jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, p, 0)
	jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.USD, amm.DefaultFunding)
	jtx.RequireBalance(t, env.TestEnv, env.Bob.ID, env.EUR, amm.DefaultFunding)
	env.RequireLPConserved(p)

	env.AdvanceHeight(10)
	expired := runtime.NewCall(router.OpAddLiquidity, runtime.Words(runtime.IDWords(env.USD, env.EUR), []uint64{1})...)
	res = env.Call(env.Bob, env.Router, expired, asset.Single(env.USD, 10_000).Pay(env.EUR, 10_000))
	jtx.RequireCode(t, res, ter.TerEXPIRED)
}
