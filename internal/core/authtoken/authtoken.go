// Package authtoken implements the ownership capability used by factories
// and path providers. Whoever spends at least one unit of a contract's auth
// token to it in a call is its owner for that call.
package authtoken

import (
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/LeJamon/goAMM/internal/core/token"
	"github.com/pkg/errors"
)

// Kind is the contract kind of auth tokens.
const Kind runtime.Kind = "auth-token"

// Auth token opcodes
const (
	OpInitialize uint64 = 0
	OpGetName    uint64 = 99
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &AuthToken{} })
}

// AuthToken mints its whole supply once, to the contract that deployed it.
type AuthToken struct{}

func (a *AuthToken) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	switch call.Opcode {
	case OpInitialize:
		if _, ok, err := token.ReadMetadata(cc.View(), cc.Self); err != nil || ok {
			if err != nil {
				return nil, err
			}
			return nil, ter.TerALREADY_INITIALIZED
		}
		amount, err := call.Args().Uint()
		if err != nil {
			return nil, err
		}
		if amount == 0 {
			return nil, ter.TemBAD_AMOUNT
		}
		m := token.Metadata{Name: "AUTH " + cc.Caller.String(), Symbol: "AUTH"}
		if err := token.WriteMetadata(cc.View(), cc.Self, m); err != nil {
			return nil, err
		}
		if err := cc.Ledger().Mint(cc.Self, cc.Self, amount); err != nil {
			return nil, err
		}
		return &runtime.Response{Parcel: asset.Single(cc.Self, amount)}, nil
	case OpGetName:
		m, ok, err := token.ReadMetadata(cc.View(), cc.Self)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ter.TerNOT_INITIALIZED
		}
		resp := runtime.Forward(cc.Incoming)
		resp.Data = []byte(m.Name)
		return resp, nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "auth token opcode %d", call.Opcode)
}

// Deploy creates an auth token for cc.Self, binds it, and leaves amount
// units in cc.Self's balance. The caller is expected to pay them onward.
func Deploy(cc *runtime.CallContext, amount uint64) (asset.ID, error) {
	if _, err := Bound(cc.View(), cc.Self); err == nil {
		return asset.ID{}, ter.TerALREADY_INITIALIZED
	}
	id, err := cc.Deploy(Kind)
	if err != nil {
		return asset.ID{}, err
	}
	if _, err := cc.Call(id, runtime.NewCall(OpInitialize, amount), nil); err != nil {
		return asset.ID{}, errors.Wrap(err, "initialize auth token")
	}
	if err := cc.View().Insert(keylet.Auth(cc.Self), id.Bytes()); err != nil {
		return asset.ID{}, err
	}
	return id, nil
}

// Bound returns the auth token bound to contract.
func Bound(v state.View, contract asset.ID) (asset.ID, error) {
	data, err := v.Read(keylet.Auth(contract))
	if err != nil {
		return asset.ID{}, err
	}
	if data == nil {
		return asset.ID{}, ter.TefNO_AUTH
	}
	return asset.FromBytes(data)
}

// Require fails with TefNOT_OWNER unless the call carries at least one unit
// of cc.Self's auth token.
func Require(cc *runtime.CallContext) error {
	id, err := Bound(cc.View(), cc.Self)
	if err != nil {
		return err
	}
	if cc.Incoming.Amount(id) < 1 {
		return errors.Wrapf(ter.TefNOT_OWNER, "must spend %s to %s", id, cc.Self)
	}
	return nil
}
