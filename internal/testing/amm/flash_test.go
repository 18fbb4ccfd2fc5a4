package amm_test

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/LeJamon/goAMM/internal/testing/amm"
	"github.com/LeJamon/goAMM/internal/testing/flashswap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flashEnv creates a 500k/500k USD/EUR pool and a receiver holding 100 USD.
func flashEnv(t *testing.T) (*amm.AMMTestEnv, asset.ID, asset.ID) {
	t.Helper()
	env := amm.NewAMMTestEnv(t)
	p := env.CreatePool(env.Alice, env.USD, 500_000, env.EUR, 500_000)
	receiver := env.MustDeploy(env.Bob, flashswap.Kind, nil, nil)
	env.Transfer(env.Bob, receiver, env.USD, 100)
	return env, p, receiver
}

func TestFlashSwap(t *testing.T) {
	t.Run("Repaid", func(t *testing.T) {
		env, p, receiver := flashEnv(t)

		// 10_000 borrowed needs 10_051 back once the fee is charged on it
		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 10_000, 0, receiver).
			Data(flashswap.Data(flashswap.ModeRepay, env.USD, 10_051)).Build())
		jtx.RequireSuccess(t, res)

		jtx.RequireBalance(t, env.TestEnv, receiver, env.USD, 49)
		d := env.Details(p)
		assert.Equal(t, uint64(500_051), d.ReserveA)
		assert.Equal(t, uint64(500_000), d.ReserveB)
	})

	t.Run("Underpaid", func(t *testing.T) {
		env, p, receiver := flashEnv(t)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, receiver, p)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 10_000, 0, receiver).
			Data(flashswap.Data(flashswap.ModeRepay, env.USD, 10_050)).Build())
		jtx.RequireCode(t, res, ter.TecK_NOT_INCREASING)
		env.RequireUnchanged(snap)
	})

	t.Run("RepaidInOtherAsset", func(t *testing.T) {
		env, p, receiver := flashEnv(t)
		env.Transfer(env.Bob, receiver, env.EUR, 20_000)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 9_755, 0, receiver).
			Data(flashswap.Data(flashswap.ModeRepay, env.EUR, 10_000)).Build())
		jtx.RequireSuccess(t, res)
		jtx.RequireBalance(t, env.TestEnv, receiver, env.USD, 100+9_755)
	})

	t.Run("NotRepaid", func(t *testing.T) {
		env, p, receiver := flashEnv(t)
		snap := env.Snapshot([]asset.ID{env.USD, env.EUR}, receiver, p)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 10_000, 0, receiver).
			Data(flashswap.Data(flashswap.ModeKeep, asset.ID{}, 0)).Build())
		jtx.RequireCode(t, res, ter.TecINSUFFICIENT_INPUT_AMOUNT)
		env.RequireUnchanged(snap)
	})

	t.Run("AccountRecipient", func(t *testing.T) {
		env, p, _ := flashEnv(t)

		res := env.Submit(amm.LowLevelSwap(env.Bob, p, 10_000, 0, env.Bob.ID).
			Data(flashswap.Data(flashswap.ModeRepay, env.USD, 10_051)).Build())
		jtx.RequireCode(t, res, ter.TerNO_CONTRACT)
	})
}

func TestReentrantSwapRejected(t *testing.T) {
	env, p, receiver := flashEnv(t)

	res := env.Submit(amm.LowLevelSwap(env.Bob, p, 10_000, 0, receiver).
		Data(flashswap.Data(flashswap.ModeReenter, env.USD, 10_051)).Build())
	jtx.RequireSuccess(t, res)

	res = env.Simulate(runtime.Message{Caller: env.Bob.ID, Target: receiver, Call: runtime.NewCall(flashswap.OpGetReentryCodes)})
	jtx.RequireSuccess(t, res)
	codes, err := flashswap.ParseReentryCodes(res.Data())
	require.NoError(t, err)
	assert.Equal(t, []ter.Result{ter.TerLOCKED, ter.TerLOCKED, ter.TerLOCKED}, codes)

	// the outer swap completed and released the lock
	d := env.Details(p)
	assert.Equal(t, uint64(500_051), d.ReserveA)
	res = env.Submit(amm.SwapExactIn(env.Bob, env.Factory, env.USD, 1_000, env.EUR).Build())
	jtx.RequireSuccess(t, res)
}
