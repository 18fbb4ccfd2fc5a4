// Package pathprovider implements an owner-curated cache of swap paths
// between asset pairs.
package pathprovider

import (
	"encoding/binary"
	"slices"

	"github.com/LeJamon/goAMM/internal/core/amm"
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/authtoken"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Kind is the contract kind of path providers.
const Kind runtime.Kind = "path-provider"

// Path provider opcodes
const (
	OpInitialize  uint64 = 0
	OpSetPath     uint64 = 1
	OpGetPath     uint64 = 2
	OpGetNumPaths uint64 = 3
	OpForward     uint64 = 50
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Provider{} })
}

// Provider stores one path per canonical pair, oriented from A to B.
type Provider struct{}

func (p *Provider) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	args := call.Args()
	switch call.Opcode {
	case OpInitialize:
		id, err := authtoken.Deploy(cc, 1)
		if err != nil {
			return nil, err
		}
		if err := writeCount(cc.View(), cc.Self, 0); err != nil {
			return nil, err
		}
		resp := runtime.Forward(cc.Incoming)
		resp.Parcel = resp.Parcel.Pay(id, 1)
		return resp, nil
	case OpSetPath:
		if err := authtoken.Require(cc); err != nil {
			return nil, err
		}
		if err := setPath(cc, args); err != nil {
			return nil, err
		}
		return runtime.Forward(cc.Incoming), nil
	case OpGetPath:
		a, err := args.ID()
		if err != nil {
			return nil, err
		}
		b, err := args.ID()
		if err != nil {
			return nil, err
		}
		path, err := Lookup(cc.View(), cc.Self, a, b)
		if err != nil {
			return nil, err
		}
		resp := runtime.Forward(cc.Incoming)
		resp.Data = asset.EncodePath(path)
		return resp, nil
	case OpGetNumPaths:
		n, err := readCount(cc.View(), cc.Self)
		if err != nil {
			return nil, err
		}
		resp := runtime.Forward(cc.Incoming)
		resp.Data = runtime.Uint64Data(n)
		return resp, nil
	case OpForward:
		return runtime.Forward(cc.Incoming), nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "path provider opcode %d", call.Opcode)
}

// setPath(a, b, path) stores path for the pair; an empty path clears it.
func setPath(cc *runtime.CallContext, args *runtime.Args) error {
	a, err := args.ID()
	if err != nil {
		return err
	}
	b, err := args.ID()
	if err != nil {
		return err
	}
	path, err := args.Path()
	if err != nil {
		return err
	}
	pair, err := amm.SortTokens(a, b)
	if err != nil {
		return err
	}

	k := keylet.Path(cc.Self, pair)
	had, err := cc.View().Exists(k)
	if err != nil {
		return err
	}
	n, err := readCount(cc.View(), cc.Self)
	if err != nil {
		return err
	}

	if len(path) == 0 {
		if !had {
			return nil
		}
		if err := state.Remove(cc.View(), k); err != nil {
			return err
		}
		return writeCount(cc.View(), cc.Self, n-1)
	}

	if len(path) < 2 {
		return errors.Wrap(ter.TemPATH_TOO_SHORT, "cached path")
	}
	first, last := path[0], path[len(path)-1]
	switch {
	case first == pair.A && last == pair.B:
	case first == pair.B && last == pair.A:
		slices.Reverse(path)
	default:
		return errors.Wrapf(ter.TemMALFORMED, "path %s..%s does not join %s", first, last, pair)
	}
	if err := state.Put(cc.View(), k, asset.EncodePath(path)); err != nil {
		return err
	}
	if had {
		return nil
	}
	return writeCount(cc.View(), cc.Self, n+1)
}

// Lookup returns the cached path from a to b, or nil when none is stored.
func Lookup(v state.View, provider, a, b asset.ID) ([]asset.ID, error) {
	pair, err := amm.SortTokens(a, b)
	if err != nil {
		return nil, err
	}
	data, err := v.Read(keylet.Path(provider, pair))
	if err != nil || data == nil {
		return nil, err
	}
	path := asset.DecodePath(data)
	if a != pair.A {
		slices.Reverse(path)
	}
	return path, nil
}

func readCount(v state.View, provider asset.ID) (uint64, error) {
	data, err := v.Read(keylet.PathProvider(provider))
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, errors.Wrapf(ter.TerNOT_INITIALIZED, "path provider %s", provider)
	}
	return binary.LittleEndian.Uint64(data), nil
}

func writeCount(v state.View, provider asset.ID, n uint64) error {
	return state.Put(v, keylet.PathProvider(provider), binary.LittleEndian.AppendUint64(nil, n))
}

// SetPathCall builds a SetPath call.
func SetPathCall(a, b asset.ID, path []asset.ID) runtime.Call {
	return runtime.NewCall(OpSetPath, runtime.Words(runtime.IDWords(a, b), runtime.PathWords(path))...)
}

// GetPathCall builds a GetPath call.
func GetPathCall(a, b asset.ID) runtime.Call {
	return runtime.NewCall(OpGetPath, runtime.IDWords(a, b)...)
}
