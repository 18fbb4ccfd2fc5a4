package amm_test

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/pathprovider"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/LeJamon/goAMM/internal/testing/amm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getPath(t *testing.T, env *amm.AMMTestEnv, a, b asset.ID) []asset.ID {
	t.Helper()
	res := env.Simulate(runtime.Message{Caller: env.Bob.ID, Target: env.Provider, Call: pathprovider.GetPathCall(a, b)})
	jtx.RequireSuccess(t, res)
	return asset.DecodePath(res.Data())
}

func numPaths(t *testing.T, env *amm.AMMTestEnv) uint64 {
	t.Helper()
	res := env.Simulate(runtime.Message{Caller: env.Bob.ID, Target: env.Provider, Call: runtime.NewCall(pathprovider.OpGetNumPaths)})
	jtx.RequireSuccess(t, res)
	n, err := runtime.ReadUint64(res.Data())
	require.NoError(t, err)
	return n
}

func TestPathProvider(t *testing.T) {
	env := amm.NewAMMTestEnv(t)
	route := []asset.ID{env.USD, env.EUR, env.BTC}

	assert.Empty(t, getPath(t, env, env.USD, env.BTC))
	assert.Zero(t, numPaths(t, env))

	jtx.RequireSuccess(t, env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC, route)))
	assert.Equal(t, route, getPath(t, env, env.USD, env.BTC))
	assert.Equal(t, []asset.ID{env.BTC, env.EUR, env.USD}, getPath(t, env, env.BTC, env.USD))
	assert.Equal(t, uint64(1), numPaths(t, env))
	jtx.RequireBalance(t, env.TestEnv, env.Owner.ID, env.ProviderAuth, 1)

	t.Run("StoredFromEitherEnd", func(t *testing.T) {
		// given B..A for the (A, B) key, overwrite without growing the count
		res := env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.BTC, env.USD,
			[]asset.ID{env.BTC, env.USD}))
		jtx.RequireSuccess(t, res)
		assert.Equal(t, []asset.ID{env.USD, env.BTC}, getPath(t, env, env.USD, env.BTC))
		assert.Equal(t, uint64(1), numPaths(t, env))
	})

	t.Run("Rejected", func(t *testing.T) {
		res := env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC,
			[]asset.ID{env.USD, env.EUR}))
		jtx.RequireCode(t, res, ter.TemMALFORMED)

		res = env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC,
			[]asset.ID{env.USD}))
		jtx.RequireCode(t, res, ter.TemPATH_TOO_SHORT)

		res = env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.USD,
			[]asset.ID{env.USD, env.USD}))
		jtx.RequireCode(t, res, ter.TemIDENTICAL_ASSETS)

		res = env.Call(env.Bob, env.Provider, pathprovider.SetPathCall(env.USD, env.EUR, []asset.ID{env.USD, env.EUR}), nil)
		jtx.RequireCode(t, res, ter.TefNOT_OWNER)
		assert.Empty(t, getPath(t, env, env.USD, env.EUR))
	})

	t.Run("Clear", func(t *testing.T) {
		res := env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC, nil))
		jtx.RequireSuccess(t, res)
		assert.Empty(t, getPath(t, env, env.USD, env.BTC))
		assert.Zero(t, numPaths(t, env))

		// clearing an absent path is a no-op
		res = env.Submit(amm.SetPath(env.Owner, env.Provider, env.ProviderAuth, env.USD, env.BTC, nil))
		jtx.RequireSuccess(t, res)
		assert.Zero(t, numPaths(t, env))
	})
}
