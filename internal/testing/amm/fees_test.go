package amm_test

import (
	"testing"

	coreAmm "github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/factory"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/LeJamon/goAMM/internal/testing/amm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trade runs swaps in both directions so the pool earns fees.
func trade(t *testing.T, env *amm.AMMTestEnv, a, b asset.ID) {
	t.Helper()
	jtx.RequireSuccess(t, env.Submit(amm.SwapExactIn(env.Bob, env.Factory, a, 100_000, b).Build()))
	jtx.RequireSuccess(t, env.Submit(amm.SwapExactIn(env.Bob, env.Factory, b, 100_000, a).Build()))
}

func collectCall(env *amm.AMMTestEnv, acc *jtx.Account, p asset.ID, auth asset.Parcel) runtime.Message {
	return runtime.Message{
		Caller: acc.ID,
		Target: env.Factory,
		Call:   runtime.NewCall(factory.OpCollectFees, runtime.IDWords(p)...),
		Parcel: auth,
	}
}

func TestCollectFees(t *testing.T) {
	t.Run("Plain", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
		trade(t, env, env.USD, env.EUR)

		d := env.Details(p)
		expected, err := coreAmm.ProtocolFee(d.TotalSupply, d.ReserveA, d.ReserveB,
			coreAmm.Product(1_000_000, 1_000_000), coreAmm.DefaultProtocolShare)
		require.NoError(t, err)
		require.NotZero(t, expected)

		res := env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, p, expected)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, env.FactoryAuth, 1)
		jtx.RequireBalance(t, env.TestEnv, p, p, 0)
		assert.Zero(t, env.FeeState(p).ClaimableFees)
		env.RequireLPConserved(p)

		// kLast was refreshed, so nothing more is owed
		res = env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, p, expected)
	})

	t.Run("AccruedOnDeposit", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
		trade(t, env, env.USD, env.EUR)

		jtx.RequireSuccess(t, env.Submit(amm.AddLiquidity(env.Alice, env.Factory, env.USD, 1_000, env.EUR, 1_000).Build()))
		claimable := env.FeeState(p).ClaimableFees
		require.NotZero(t, claimable)
		jtx.RequireBalance(t, env.TestEnv, p, p, claimable)

		res := env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, p, claimable)
	})

	t.Run("NoShare", func(t *testing.T) {
		env := amm.NewAMMTestEnvWith(t, amm.FactoryConfig{
			Flavor: pool.FlavorPlain,
			Fee:    coreAmm.DEFAULT_FEE_AMOUNT_PER_1000,
			Share:  coreAmm.ProtocolShare{Num: 0, Den: 6},
		})
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
		trade(t, env, env.USD, env.EUR)

		res := env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, p, 0)
	})

	t.Run("NotOwner", func(t *testing.T) {
		env := amm.NewAMMTestEnv(t)
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)

		res := env.Submit(collectCall(env, env.Bob, p, nil))
		jtx.RequireCode(t, res, ter.TefNOT_OWNER)

		res = env.Submit(collectCall(env, env.Bob, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireCode(t, res, ter.TecUNFUNDED)

		res = env.Call(env.Bob, p, runtime.NewCall(pool.OpCollectFees), nil)
		jtx.RequireCode(t, res, ter.TefNOT_FACTORY)
	})
}

func TestPoolFees(t *testing.T) {
	env := amm.NewAMMTestEnv(t)
	p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
	auth := asset.Single(env.FactoryAuth, 1)

	setFee := func(acc *jtx.Account, fee uint64, parcel asset.Parcel) jtx.CallResult {
		return env.Call(acc, env.Factory, runtime.NewCall(factory.OpSetPoolFee, runtime.Words(runtime.IDWords(p), []uint64{fee})...), parcel)
	}
	getFee := func() uint64 {
		res := env.Simulate(runtime.Message{Caller: env.Bob.ID, Target: env.Factory, Call: runtime.NewCall(factory.OpGetPoolFee, runtime.IDWords(p)...)})
		jtx.RequireSuccess(t, res)
		fee, err := runtime.ReadUint64(res.Data())
		require.NoError(t, err)
		return fee
	}

	assert.Equal(t, coreAmm.DEFAULT_FEE_AMOUNT_PER_1000, getFee())

	jtx.RequireCode(t, setFee(env.Bob, 0, nil), ter.TefNOT_OWNER)
	jtx.RequireCode(t, setFee(env.Owner, 1_000, auth), ter.TemBAD_FEE)

	jtx.RequireSuccess(t, setFee(env.Owner, 0, auth))
	assert.Zero(t, getFee())
	assert.Zero(t, env.FeeState(p).Fee)

	res := env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 10_000, env.EUR).Build())
	jtx.RequireSuccess(t, res)
	jtx.RequireParcel(t, res, env.EUR, 9_803)

	// pools only take fees from their own factory
	res = env.Call(env.Owner, p, runtime.NewCall(pool.OpSetFee, 3), nil)
	jtx.RequireCode(t, res, ter.TefNOT_FACTORY)

	t.Run("DefaultFee", func(t *testing.T) {
		res := env.Call(env.Owner, env.Factory, runtime.NewCall(factory.OpSetDefaultFee, 3), auth)
		jtx.RequireSuccess(t, res)
		q := env.CreatePool(env.Alice, env.EUR, 10_000, env.BTC, 10_000)
		assert.Equal(t, uint64(3), env.FeeState(q).Fee)
		assert.Zero(t, env.FeeState(p).Fee)
	})
}

func TestOylCollectFees(t *testing.T) {
	oyl := amm.FactoryConfig{
		Flavor:   pool.FlavorOyl,
		Fee:      coreAmm.DEFAULT_FEE_AMOUNT_PER_1000,
		Share:    coreAmm.DefaultProtocolShare,
		Treasury: "BTC",
	}

	t.Run("ConvertsToTreasury", func(t *testing.T) {
		env := amm.NewAMMTestEnvWith(t, oyl)
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
		env.CreatePool(env.Alice, env.EUR, 1_000_000, env.BTC, 1_000_000)
		res := env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC,
			[]asset.ID{env.USD, env.EUR, env.BTC}))
		jtx.RequireSuccess(t, res)
		trade(t, env, env.USD, env.EUR)
		supply := env.Supply(p)

		res = env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)

		assert.NotZero(t, env.Balance(env.Owner.ID, env.BTC))
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, env.USD, 0)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, env.EUR, 0)
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, p, 0)
		jtx.RequireBalance(t, env.TestEnv, env.Factory, env.BTC, 0)
		// the claimed LP was minted and redeemed in the same call
		jtx.RequireSupply(t, env.TestEnv, p, supply)
		env.RequireLPConserved(p)
	})

	t.Run("NoRoute", func(t *testing.T) {
		env := amm.NewAMMTestEnvWith(t, oyl)
		p := env.CreatePool(env.Alice, env.USD, 1_000_000, env.EUR, 1_000_000)
		trade(t, env, env.USD, env.EUR)

		res := env.Submit(collectCall(env, env.Owner, p, asset.Single(env.FactoryAuth, 1)))
		jtx.RequireSuccess(t, res)
		assert.NotZero(t, env.Balance(env.Owner.ID, env.USD))
		assert.NotZero(t, env.Balance(env.Owner.ID, env.EUR))
		jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, env.BTC, 0)
	})
}
