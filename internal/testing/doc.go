// Package testing provides test infrastructure for contract testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: a call engine over an in-memory store
//   - Account: deterministic named test accounts
//   - ManualHeight: a controllable block height for deadline tests
//   - Assertions: helpers for balances, supplies and result codes
//
// Contract-specific builders live in subpackages (see testing/amm).
//
// # Basic Usage
//
//	func TestSend(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//
//	    alice := env.Account("alice")
//	    bob := env.Account("bob")
//
//	    usd := env.DeployToken(alice, "USD", 1_000)
//	    env.Transfer(alice, bob.ID, usd, 100)
//
//	    testing.RequireBalance(t, env, bob.ID, usd, 100)
//	}
//
// # TestEnv
//
// TestEnv registers every contract kind of the module. Calls are submitted
// as runtime.Message values and return a CallResult:
//
//	res := env.Submit(msg)   // apply and commit
//	res = env.Simulate(msg)  // run against committed state, commit nothing
//	env.Balance(holder, id)  // committed balance
//	env.Supply(id)           // committed supply
//
// # Height Control
//
//	env.AdvanceHeight(10)
//	env.Height()
package testing
