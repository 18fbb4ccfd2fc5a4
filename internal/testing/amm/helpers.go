package amm

import (
	"testing"

	coreAmm "github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/factory"
	"github.com/LeJamon/goAMM/internal/core/pathprovider"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/router"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	jtx "github.com/LeJamon/goAMM/internal/testing"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// DefaultFunding is the amount of each token given to Alice and Bob.
const DefaultFunding uint64 = 10_000_000

// FactoryConfig selects the factory deployed by NewAMMTestEnvWith.
type FactoryConfig struct {
	Flavor pool.Flavor
	Fee    uint64
	Share  coreAmm.ProtocolShare
	// Treasury is the symbol of the token oyl fees convert into.
	Treasury string
}

// DefaultFactoryConfig is a plain factory with the default fee and share.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		Flavor: pool.FlavorPlain,
		Fee:    coreAmm.DEFAULT_FEE_AMOUNT_PER_1000,
		Share:  coreAmm.DefaultProtocolShare,
	}
}

// AMMTestEnv wraps TestEnv with a deployed factory, router and path provider.
type AMMTestEnv struct {
	*jtx.TestEnv
	T *testing.T

	// Owner deployed the tokens and holds both auth tokens.
	Owner *jtx.Account
	Alice *jtx.Account
	Bob   *jtx.Account

	USD asset.ID
	EUR asset.ID
	BTC asset.ID

	Factory      asset.ID
	FactoryAuth  asset.ID
	Router       asset.ID
	Provider     asset.ID
	ProviderAuth asset.ID
}

// NewAMMTestEnv creates an environment with a plain factory.
func NewAMMTestEnv(t *testing.T) *AMMTestEnv {
	return NewAMMTestEnvWith(t, DefaultFactoryConfig())
}

// NewAMMTestEnvWith creates an environment with the given factory.
func NewAMMTestEnvWith(t *testing.T, cfg FactoryConfig) *AMMTestEnv {
	t.Helper()
	env := &AMMTestEnv{TestEnv: jtx.NewTestEnv(t), T: t}
	env.Owner = env.Account("owner")
	env.Alice = env.Account("alice")
	env.Bob = env.Account("bob")

	env.USD = env.DeployToken(env.Owner, "USD", 0)
	env.EUR = env.DeployToken(env.Owner, "EUR", 0)
	env.BTC = env.DeployToken(env.Owner, "BTC", 0)
	for _, id := range []asset.ID{env.USD, env.EUR, env.BTC} {
		env.Fund(env.Owner, id, DefaultFunding, env.Alice, env.Bob)
	}

	init := runtime.NewCall(pathprovider.OpInitialize)
	env.Provider, env.ProviderAuth = env.deployOwned(pathprovider.Kind, &init)

	words := []uint64{uint64(cfg.Flavor), cfg.Fee, cfg.Share.Num, cfg.Share.Den}
	if cfg.Treasury != "" {
		words = runtime.Words(words, runtime.IDWords(env.Token(cfg.Treasury), env.Provider))
	}
	init = runtime.NewCall(factory.OpInitialize, words...)
	env.Factory, env.FactoryAuth = env.deployOwned(factory.Kind, &init)

	init = runtime.NewCall(router.OpInitialize, runtime.IDWords(env.Factory)...)
	env.Router = env.MustDeploy(env.Owner, router.Kind, &init, nil)
	return env
}

// deployOwned deploys a contract whose init returns one auth token to Owner.
func (env *AMMTestEnv) deployOwned(kind runtime.Kind, init *runtime.Call) (asset.ID, asset.ID) {
	env.T.Helper()
	id, res := env.Deploy(env.Owner, kind, init, nil)
	jtx.RequireSuccess(env.T, res)
	ids := res.Response.Parcel.IDs()
	require.Len(env.T, ids, 1, "expected one auth token from %s", kind)
	return id, ids[0]
}

// Token returns the token with the given symbol.
func (env *AMMTestEnv) Token(symbol string) asset.ID {
	switch symbol {
	case "USD":
		return env.USD
	case "EUR":
		return env.EUR
	case "BTC":
		return env.BTC
	}
	env.T.Fatalf("unknown token %q", symbol)
	return asset.ID{}
}

// CreatePool creates a pool funded by acc and returns its id.
func (env *AMMTestEnv) CreatePool(acc *jtx.Account, a asset.ID, amountA uint64, b asset.ID, amountB uint64) asset.ID {
	env.T.Helper()
	res := env.Submit(CreatePool(acc, env.Factory, a, amountA, b, amountB).Build())
	jtx.RequireSuccess(env.T, res)
	id, err := runtime.ReadID(res.Data())
	require.NoError(env.T, err)
	return id
}

// Details returns the committed details of a pool.
func (env *AMMTestEnv) Details(poolID asset.ID) pool.Details {
	env.T.Helper()
	res := env.Simulate(runtime.Message{Caller: env.Owner.ID, Target: poolID, Call: runtime.NewCall(pool.OpGetPoolDetail)})
	jtx.RequireSuccess(env.T, res)
	d, err := pool.ParseDetails(res.Data())
	require.NoError(env.T, err)
	return d
}

// FeeState returns the committed fee state of a pool.
func (env *AMMTestEnv) FeeState(poolID asset.ID) pool.FeeState {
	env.T.Helper()
	res := env.Simulate(runtime.Message{Caller: env.Owner.ID, Target: poolID, Call: runtime.NewCall(pool.OpGetFeeState)})
	jtx.RequireSuccess(env.T, res)
	fs, err := pool.ParseFeeState(res.Data())
	require.NoError(env.T, err)
	return fs
}

// K returns the reserve product of a pool.
func (env *AMMTestEnv) K(poolID asset.ID) *uint256.Int {
	d := env.Details(poolID)
	return coreAmm.Product(d.ReserveA, d.ReserveB)
}

// RequireLPConserved checks that the LP supply of poolID equals the sum of
// the balances of every holder that can own it.
func (env *AMMTestEnv) RequireLPConserved(poolID asset.ID) {
	env.T.Helper()
	holders := []asset.ID{
		env.Owner.ID, env.Alice.ID, env.Bob.ID,
		asset.Zero, poolID, env.Factory, env.Router,
	}
	var sum uint64
	for _, h := range holders {
		sum += env.Balance(h, poolID)
	}
	require.Equal(env.T, env.Supply(poolID), sum, "LP supply of %s differs from holder balances", poolID)
	require.Equal(env.T, env.Details(poolID).TotalSupply, sum, "tracked LP supply of %s", poolID)
}

// Snapshot captures balances of accounts for later comparison.
type Snapshot map[asset.ID]map[asset.ID]uint64

// Snapshot records the balance of every token and pool LP of holders.
func (env *AMMTestEnv) Snapshot(ids []asset.ID, holders ...asset.ID) Snapshot {
	s := make(Snapshot)
	for _, h := range holders {
		s[h] = make(map[asset.ID]uint64)
		for _, id := range ids {
			s[h][id] = env.Balance(h, id)
		}
	}
	return s
}

// RequireUnchanged asserts that balances still match s.
func (env *AMMTestEnv) RequireUnchanged(s Snapshot) {
	env.T.Helper()
	for h, bals := range s {
		for id, v := range bals {
			require.Equal(env.T, v, env.Balance(h, id), "balance of %s held by %s changed", id, h)
		}
	}
}
