package testing

import (
	"context"
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/token"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/prometheus/client_golang/prometheus"

	// contract kinds
	_ "github.com/LeJamon/goAMM/internal/core/authtoken"
	_ "github.com/LeJamon/goAMM/internal/core/factory"
	_ "github.com/LeJamon/goAMM/internal/core/pathprovider"
	_ "github.com/LeJamon/goAMM/internal/core/pool"
	_ "github.com/LeJamon/goAMM/internal/core/router"
	_ "github.com/LeJamon/goAMM/internal/testing/flashswap"
)

// TestEnv manages a call engine over an in-memory store for contract testing.
// It provides a simplified interface for creating accounts, deploying
// contracts, submitting calls, and verifying balances.
type TestEnv struct {
	t        *testing.T
	db       kvstore.DB
	engine   *runtime.Engine
	heights  runtime.HeightSource
	clock    *ManualHeight
	metrics  *runtime.Metrics
	registry *prometheus.Registry
	accounts map[string]*Account
}

// NewTestEnv creates a new test environment at height 1.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	clock := NewManualHeight()
	env := NewTestEnvWithHeights(t, clock)
	env.clock = clock
	return env
}

// NewTestEnvWithHeights creates a test environment reading heights from hs.
// AdvanceHeight is unavailable unless hs is the env's own ManualHeight.
func NewTestEnvWithHeights(t *testing.T, hs runtime.HeightSource) *TestEnv {
	t.Helper()
	db := kvstore.NewMemoryDB()
	t.Cleanup(func() { db.Close() })

	reg := prometheus.NewRegistry()
	metrics := runtime.NewMetrics(reg)
	return &TestEnv{
		t:       t,
		db:      db,
		heights: hs,
		engine: runtime.NewEngine(db, runtime.EngineConfig{
			Heights: hs,
			Metrics: metrics,
		}),
		metrics:  metrics,
		registry: reg,
		accounts: make(map[string]*Account),
	}
}

// Engine returns the underlying call engine.
func (e *TestEnv) Engine() *runtime.Engine {
	return e.engine
}

// DB returns the backing store. Writing to it bypasses the engine.
func (e *TestEnv) DB() kvstore.DB {
	return e.db
}

// Metrics returns the engine metrics and the registry they are registered on.
func (e *TestEnv) Metrics() (*runtime.Metrics, *prometheus.Registry) {
	return e.metrics, e.registry
}

// Account returns the named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Submit applies msg and commits it on success.
func (e *TestEnv) Submit(msg runtime.Message) CallResult {
	e.t.Helper()
	return newCallResult(e.engine.Apply(context.Background(), msg))
}

// Simulate runs msg without committing anything.
func (e *TestEnv) Simulate(msg runtime.Message) CallResult {
	e.t.Helper()
	return newCallResult(e.engine.Simulate(context.Background(), msg))
}

// Call is a shorthand for submitting call from acc to target with parcel.
func (e *TestEnv) Call(acc *Account, target asset.ID, call runtime.Call, parcel asset.Parcel) CallResult {
	e.t.Helper()
	return e.Submit(runtime.Message{Caller: acc.ID, Target: target, Call: call, Parcel: parcel})
}

// Deploy creates a contract of kind and runs init, when given, as acc with
// parcel.
func (e *TestEnv) Deploy(acc *Account, kind runtime.Kind, init *runtime.Call, parcel asset.Parcel) (asset.ID, CallResult) {
	e.t.Helper()
	id, res := e.engine.Deploy(context.Background(), acc.ID, kind, init, parcel)
	return id, newCallResult(res)
}

// MustDeploy is Deploy that fails the test unless the deploy succeeds.
func (e *TestEnv) MustDeploy(acc *Account, kind runtime.Kind, init *runtime.Call, parcel asset.Parcel) asset.ID {
	e.t.Helper()
	id, res := e.Deploy(acc, kind, init, parcel)
	if !res.Success {
		e.t.Fatalf("Failed to deploy %s: %s - %s", kind, res.Code, res.Message)
	}
	return id
}

// DeployToken deploys a mintable token with supply minted to owner.
func (e *TestEnv) DeployToken(owner *Account, symbol string, supply uint64) asset.ID {
	e.t.Helper()
	init := token.InitCall(symbol+" token", symbol, supply, true)
	return e.MustDeploy(owner, token.Kind, &init, nil)
}

// Transfer moves amount of id from acc to the holder `to`.
func (e *TestEnv) Transfer(acc *Account, to, id asset.ID, amount uint64) {
	e.t.Helper()
	res := e.Call(acc, id, token.SendCall(to), asset.Single(id, amount))
	if !res.Success {
		e.t.Fatalf("Failed to transfer %d %s to %s: %s - %s", amount, id, to, res.Code, res.Message)
	}
}

// Fund mints amount of the mintable token id to each account. owner must
// be the account that deployed the token.
func (e *TestEnv) Fund(owner *Account, id asset.ID, amount uint64, accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		res := e.Call(owner, id, runtime.NewCall(token.OpMint, amount), nil)
		if !res.Success {
			e.t.Fatalf("Failed to mint %d %s: %s - %s", amount, id, res.Code, res.Message)
		}
		if acc.ID != owner.ID {
			e.Transfer(owner, acc.ID, id, amount)
		}
	}
}

// Balance returns holder's committed balance of id.
func (e *TestEnv) Balance(holder, id asset.ID) uint64 {
	e.t.Helper()
	var bal uint64
	err := e.engine.Ledger(context.Background(), func(l *ledger.Ledger) error {
		var err error
		bal, err = l.BalanceOf(holder, id)
		return err
	})
	if err != nil {
		e.t.Fatalf("Failed to read balance: %v", err)
	}
	return bal
}

// Supply returns the committed total supply of id.
func (e *TestEnv) Supply(id asset.ID) uint64 {
	e.t.Helper()
	var supply uint64
	err := e.engine.Ledger(context.Background(), func(l *ledger.Ledger) error {
		var err error
		supply, err = l.Supply(id)
		return err
	})
	if err != nil {
		e.t.Fatalf("Failed to read supply: %v", err)
	}
	return supply
}

// Height returns the current height.
func (e *TestEnv) Height() uint64 {
	return e.heights.Height()
}

// AdvanceHeight moves the env's height forward by n blocks.
func (e *TestEnv) AdvanceHeight(n uint64) {
	e.t.Helper()
	if e.clock == nil {
		e.t.Fatalf("AdvanceHeight needs the env's own height source")
	}
	e.clock.Advance(n)
}
