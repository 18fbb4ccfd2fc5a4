// Package flashswap provides a flash-swap recipient contract for tests.
package flashswap

import (
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Kind is the contract kind of the receiver.
const Kind runtime.Kind = "flash-receiver"

// OpGetReentryCodes returns the result codes recorded by the last ModeReenter callback.
const OpGetReentryCodes uint64 = 1

// Callback modes, the first word of the swap data.
const (
	// ModeKeep keeps the output and repays nothing.
	ModeKeep uint64 = 0
	// ModeRepay repays the requested amount.
	ModeRepay uint64 = 1
	// ModeReenter tries addLiquidity, burn and swap on the calling pool,
	// records each result code, then repays.
	ModeReenter uint64 = 2
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Receiver{} })
}

// Receiver answers flash callbacks according to the mode in the swap data:
// [mode, repay block, repay tx, repay amount].
type Receiver struct{}

func (r *Receiver) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	switch call.Opcode {
	case pool.OpFlashCallback:
		return r.callback(cc, call.Args())
	case OpGetReentryCodes:
		data, err := cc.View().Read(keylet.Receiver(cc.Self))
		if err != nil {
			return nil, err
		}
		return &runtime.Response{Data: data, Parcel: cc.Incoming.Clone()}, nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "receiver opcode %d", call.Opcode)
}

func (r *Receiver) callback(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	// sender and the two output amounts
	for i := 0; i < 4; i++ {
		if _, err := args.Uint(); err != nil {
			return nil, err
		}
	}
	mode, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if mode == ModeKeep {
		return &runtime.Response{}, nil
	}
	repay, err := args.ID()
	if err != nil {
		return nil, err
	}
	amount, err := args.Uint()
	if err != nil {
		return nil, err
	}

	if mode == ModeReenter {
		nested := []runtime.Call{
			runtime.NewCall(pool.OpAddLiquidity),
			runtime.NewCall(pool.OpBurn),
			pool.SwapCall(1, 0, cc.Self),
		}
		codes := make([]uint64, len(nested))
		for i, c := range nested {
			_, err := cc.Call(cc.Caller, c, nil)
			codes[i] = uint64(int64(ter.Of(err)))
		}
		if err := state.Put(cc.View(), keylet.Receiver(cc.Self), runtime.Uint64Data(codes...)); err != nil {
			return nil, err
		}
	}
	return &runtime.Response{Parcel: asset.Single(repay, amount)}, nil
}

// Data builds swap callback data for mode.
func Data(mode uint64, repay asset.ID, amount uint64) []uint64 {
	return runtime.Words([]uint64{mode}, runtime.IDWords(repay), []uint64{amount})
}

// ParseReentryCodes decodes the codes returned by OpGetReentryCodes.
func ParseReentryCodes(data []byte) ([]ter.Result, error) {
	words, err := runtime.ReadUint64s(data, len(data)/8)
	if err != nil {
		return nil, err
	}
	out := make([]ter.Result, len(words))
	for i, w := range words {
		out[i] = ter.Result(int64(w))
	}
	return out, nil
}
