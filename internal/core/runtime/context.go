package runtime

import (
	"context"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// CallContext is what a contract sees while executing one call.
type CallContext struct {
	ctx    context.Context
	engine *Engine
	view   *state.Sandbox
	ledger *ledger.Ledger

	// Self is the contract being executed.
	Self asset.ID
	// Caller is the account or contract that made the call.
	Caller asset.ID
	// Incoming is the parcel attached to the call. It has already been
	// credited to Self.
	Incoming asset.Parcel
	// Height is the block height the top-level call executes at.
	Height uint64

	depth int
}

// Context returns the context of the top-level call.
func (cc *CallContext) Context() context.Context { return cc.ctx }

// View returns the state view of this call.
func (cc *CallContext) View() state.View { return cc.view }

// Ledger returns the balance ledger of this call.
func (cc *CallContext) Ledger() *ledger.Ledger { return cc.ledger }

// Depth returns the nesting depth of this call; top-level calls are 0.
func (cc *CallContext) Depth() int { return cc.depth }

// Balance returns Self's balance of id.
func (cc *CallContext) Balance(id asset.ID) (uint64, error) {
	return cc.ledger.BalanceOf(cc.Self, id)
}

// Call invokes target with Self as the caller, moving parcel from Self.
// State changes of the nested call are visible once it returns; a failure
// is returned as an error with nothing applied.
func (cc *CallContext) Call(target asset.ID, call Call, parcel asset.Parcel) (*Response, error) {
	return cc.engine.invoke(cc.ctx, cc.view, cc.depth+1, cc.Self, target, call, parcel, cc.Height)
}

// Deploy creates a new contract instance of kind.
func (cc *CallContext) Deploy(kind Kind) (asset.ID, error) {
	return cc.engine.create(cc.view, kind)
}

// CheckDeadline fails with TerEXPIRED when deadline is below the current height.
func (cc *CallContext) CheckDeadline(deadline uint64) error {
	if deadline < cc.Height {
		return errors.Wrapf(ter.TerEXPIRED, "deadline %d, height %d", deadline, cc.Height)
	}
	return nil
}
