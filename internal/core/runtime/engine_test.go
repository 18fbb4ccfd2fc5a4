package runtime

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kindCounter Kind = "counter"

const (
	opIncrement = iota
	opForward
	opRecurse
	opFailAfterWrite
	opSwallowNestedFailure
	opPanic
	opMint
	opRead
)

// counter is a minimal contract used to exercise the engine.
type counter struct{}

func (counter) Execute(cc *CallContext, call Call) (*Response, error) {
	switch call.Opcode {
	case opIncrement:
		return nil, bump(cc)
	case opForward:
		return Forward(cc.Incoming), nil
	case opRecurse:
		return cc.Call(cc.Self, NewCall(opRecurse), nil)
	case opFailAfterWrite:
		if err := bump(cc); err != nil {
			return nil, err
		}
		return nil, ter.TecK_NOT_INCREASING
	case opSwallowNestedFailure:
		target, err := call.Args().ID()
		if err != nil {
			return nil, err
		}
		if _, err := cc.Call(target, NewCall(opFailAfterWrite), nil); ter.Of(err) != ter.TecK_NOT_INCREASING {
			return nil, ter.TefINTERNAL
		}
		return nil, bump(cc)
	case opPanic:
		panic("boom")
	case opMint:
		n, err := call.Args().Uint()
		if err != nil {
			return nil, err
		}
		if err := cc.Ledger().Mint(cc.Self, cc.Self, n); err != nil {
			return nil, err
		}
		return &Response{Parcel: asset.Single(cc.Self, n)}, nil
	case opRead:
		v, err := read(cc.View(), cc.Self)
		return &Response{Data: Uint64Data(v)}, err
	}
	return nil, ter.TemUNKNOWN_OPCODE
}

func read(v state.View, self asset.ID) (uint64, error) {
	data, err := v.Read(keylet.Receiver(self))
	if err != nil || data == nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

func bump(cc *CallContext) error {
	v, err := read(cc.View(), cc.Self)
	if err != nil {
		return err
	}
	return state.Put(cc.View(), keylet.Receiver(cc.Self), Uint64Data(v+1))
}

var user = asset.Account(1)

func newEngine(t *testing.T, cfg EngineConfig) (*Engine, context.Context) {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister(kindCounter, func() Contract { return counter{} })
	cfg.Registry = reg
	return NewEngine(kvstore.NewMemoryDB(), cfg), context.Background()
}

func deploy(t *testing.T, e *Engine, ctx context.Context) asset.ID {
	t.Helper()
	id, res := e.Deploy(ctx, user, kindCounter, nil, nil)
	require.True(t, res.Applied, res.Message)
	return id
}

func counterValue(t *testing.T, e *Engine, ctx context.Context, id asset.ID) uint64 {
	t.Helper()
	res := e.Simulate(ctx, Message{Caller: user, Target: id, Call: NewCall(opRead)})
	require.NoError(t, res.Err)
	v, err := ReadUint64(res.Response.Data)
	require.NoError(t, err)
	return v
}

func TestDeployAllocatesSequentialIDs(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{})
	a := deploy(t, e, ctx)
	b := deploy(t, e, ctx)
	assert.Equal(t, asset.Contract(1), a)
	assert.Equal(t, asset.Contract(2), b)

	kind, err := e.KindOf(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, kindCounter, kind)

	_, res := e.Deploy(ctx, user, "missing", nil, nil)
	assert.Equal(t, ter.TefBAD_CONTRACT, res.Result)
}

func TestApplyCommitsAndSimulateDiscards(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{})
	id := deploy(t, e, ctx)

	res := e.Simulate(ctx, Message{Caller: user, Target: id, Call: NewCall(opIncrement)})
	require.Equal(t, ter.TesSUCCESS, res.Result)
	assert.False(t, res.Applied)
	assert.Zero(t, counterValue(t, e, ctx, id))

	res = e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opIncrement)})
	require.True(t, res.Applied)
	assert.Equal(t, uint64(1), counterValue(t, e, ctx, id))
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{})
	id := deploy(t, e, ctx)

	res := e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opFailAfterWrite)})
	assert.Equal(t, ter.TecK_NOT_INCREASING, res.Result)
	assert.False(t, res.Applied)
	assert.Zero(t, counterValue(t, e, ctx, id))
}

func TestNestedFailureIsIsolated(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{})
	outer := deploy(t, e, ctx)
	inner := deploy(t, e, ctx)

	res := e.Apply(ctx, Message{Caller: user, Target: outer, Call: NewCall(opSwallowNestedFailure, IDWords(inner)...)})
	require.True(t, res.Applied, res.Message)
	assert.Equal(t, uint64(1), counterValue(t, e, ctx, outer))
	assert.Zero(t, counterValue(t, e, ctx, inner))
}

func TestParcelsMoveBothWays(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{})
	minter := deploy(t, e, ctx)
	other := deploy(t, e, ctx)

	res := e.Apply(ctx, Message{Caller: user, Target: minter, Call: NewCall(opMint, 500)})
	require.True(t, res.Applied, res.Message)

	res = e.Apply(ctx, Message{Caller: user, Target: other, Call: NewCall(opForward), Parcel: asset.Single(minter, 200)})
	require.True(t, res.Applied, res.Message)
	assert.Equal(t, uint64(200), res.Response.Parcel.Amount(minter))

	res = e.Apply(ctx, Message{Caller: user, Target: other, Call: NewCall(opIncrement), Parcel: asset.Single(minter, 300)})
	require.True(t, res.Applied, res.Message)

	require.NoError(t, e.Ledger(ctx, func(l *ledger.Ledger) error {
		bal, err := l.BalanceOf(user, minter)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), bal)
		bal, err = l.BalanceOf(other, minter)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), bal)
		return nil
	}))

	res = e.Apply(ctx, Message{Caller: user, Target: other, Call: NewCall(opForward), Parcel: asset.Single(minter, 201)})
	assert.Equal(t, ter.TecUNFUNDED, res.Result)
}

func TestDepthLimitAndPanics(t *testing.T) {
	e, ctx := newEngine(t, EngineConfig{MaxDepth: 4})
	id := deploy(t, e, ctx)

	res := e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opRecurse)})
	assert.Equal(t, ter.TefMAX_DEPTH, res.Result)

	res = e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opPanic)})
	assert.Equal(t, ter.TefINTERNAL, res.Result)

	res = e.Apply(ctx, Message{Caller: user, Target: asset.Contract(99), Call: NewCall(opIncrement)})
	assert.Equal(t, ter.TerNO_CONTRACT, res.Result)

	res = e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(1234)})
	assert.Equal(t, ter.TemUNKNOWN_OPCODE, res.Result)
}

func TestDeadline(t *testing.T) {
	cc := &CallContext{Height: 100}
	assert.NoError(t, cc.CheckDeadline(100))
	assert.NoError(t, cc.CheckDeadline(150))
	assert.Equal(t, ter.TerEXPIRED, ter.Of(cc.CheckDeadline(99)))
}

func TestMetricsCountReverts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e, ctx := newEngine(t, EngineConfig{Metrics: m})
	id := deploy(t, e, ctx)

	e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opIncrement)})
	e.Apply(ctx, Message{Caller: user, Target: id, Call: NewCall(opFailAfterWrite)})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.calls.WithLabelValues(string(kindCounter), "0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reverts.WithLabelValues(string(kindCounter), "3", "tecK_NOT_INCREASING")))
}

func TestArgs(t *testing.T) {
	path := []asset.ID{asset.Contract(1), asset.Contract(2)}
	call := NewCall(9, Words(IDWords(asset.Contract(5)), PathWords(path), StringWords("OWNED / OWNED LP"), []uint64{7})...)

	args := call.Args()
	id, err := args.ID()
	require.NoError(t, err)
	assert.Equal(t, asset.Contract(5), id)

	got, err := args.Path()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	s, err := args.String()
	require.NoError(t, err)
	assert.Equal(t, "OWNED / OWNED LP", s)

	assert.Equal(t, []uint64{7}, args.Rest())
	_, err = args.Uint()
	assert.Equal(t, ter.TemMALFORMED, ter.Of(err))

	_, err = NewCall(0, 5, 1).Args().Path()
	assert.Equal(t, ter.TemMALFORMED, ter.Of(err))
}
