// Package runtime executes contract calls. Each call runs in its own state
// sandbox nested inside its caller's, so a failing call leaves no trace and a
// successful one becomes visible to its caller only when it returns.
package runtime

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"sync"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/pkg/errors"
)

// DefaultMaxDepth bounds nested calls.
const DefaultMaxDepth = 32

// EngineConfig holds engine dependencies. Zero values select defaults.
type EngineConfig struct {
	Heights  HeightSource
	Registry *Registry
	Logger   *slog.Logger
	Metrics  *Metrics
	MaxDepth int
}

// Engine applies messages against a kvstore-backed state.
type Engine struct {
	db     kvstore.DB
	config EngineConfig

	// mu serializes committing calls; simulations share the read lock.
	mu sync.RWMutex
}

// NewEngine creates a new call engine
func NewEngine(db kvstore.DB, config EngineConfig) *Engine {
	if config.Heights == nil {
		config.Heights = FixedHeight(0)
	}
	if config.Registry == nil {
		config.Registry = DefaultRegistry
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	return &Engine{db: db, config: config}
}

// Message is a top-level call submitted by an account.
type Message struct {
	Caller asset.ID
	Target asset.ID
	Call   Call
	Parcel asset.Parcel
}

// ApplyResult is the outcome of a top-level call.
type ApplyResult struct {
	Result   ter.Result
	Applied  bool
	Response *Response
	Message  string
	Err      error
}

func newApplyResult(resp *Response, err error, applied bool) ApplyResult {
	r := ter.Of(err)
	res := ApplyResult{
		Result:   r,
		Applied:  applied && err == nil,
		Response: resp,
		Message:  r.Message(),
		Err:      err,
	}
	if err != nil {
		res.Message = err.Error()
	}
	return res
}

// Apply executes msg and commits its effects if it succeeds.
func (e *Engine) Apply(ctx context.Context, msg Message) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := state.NewSandbox(state.NewBase(ctx, e.db))
	height := e.config.Heights.Height()
	resp, err := e.invoke(ctx, root, 0, msg.Caller, msg.Target, msg.Call, msg.Parcel, height)
	if err == nil {
		err = root.Flush(ctx, e.db)
	}
	e.logResult("apply", msg, err)
	return newApplyResult(resp, err, true)
}

// Simulate executes msg against committed state and discards its effects.
func (e *Engine) Simulate(ctx context.Context, msg Message) ApplyResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	root := state.NewSandbox(state.NewBase(ctx, e.db))
	height := e.config.Heights.Height()
	resp, err := e.invoke(ctx, root, 0, msg.Caller, msg.Target, msg.Call, msg.Parcel, height)
	e.logResult("simulate", msg, err)
	return newApplyResult(resp, err, false)
}

// Deploy creates a new contract of kind and, when init is non-nil, calls it
// on the new instance with parcel in the same atomic step.
func (e *Engine) Deploy(ctx context.Context, caller asset.ID, kind Kind, init *Call, parcel asset.Parcel) (asset.ID, ApplyResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := state.NewSandbox(state.NewBase(ctx, e.db))
	id, err := e.create(root, kind)
	if err != nil {
		return asset.ID{}, newApplyResult(nil, err, true)
	}

	var resp *Response
	if init != nil {
		height := e.config.Heights.Height()
		resp, err = e.invoke(ctx, root, 0, caller, id, *init, parcel, height)
	}
	if err == nil {
		err = root.Flush(ctx, e.db)
	}
	e.config.Logger.Debug("deploy", "kind", kind, "id", id, "result", ter.Of(err))
	if err != nil {
		return asset.ID{}, newApplyResult(resp, err, true)
	}
	return id, newApplyResult(resp, nil, true)
}

// Ledger runs fn against a read-only ledger of committed state.
func (e *Engine) Ledger(ctx context.Context, fn func(*ledger.Ledger) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(ledger.New(state.NewBase(ctx, e.db)))
}

// KindOf returns the kind of the contract deployed at id.
func (e *Engine) KindOf(ctx context.Context, id asset.ID) (Kind, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return kindOf(state.NewBase(ctx, e.db), id)
}

func (e *Engine) logResult(mode string, msg Message, err error) {
	if err != nil {
		e.config.Logger.Info("call reverted",
			"mode", mode,
			"caller", msg.Caller,
			"target", msg.Target,
			"op", msg.Call.Opcode,
			"code", ter.Of(err).String(),
			"err", err)
		return
	}
	e.config.Logger.Debug("call applied",
		"mode", mode,
		"caller", msg.Caller,
		"target", msg.Target,
		"op", msg.Call.Opcode)
}

// invoke runs one call in a sandbox over parent. The attached parcel moves
// from caller to target before execution and the response parcel moves back
// after; any failure discards the sandbox.
func (e *Engine) invoke(ctx context.Context, parent state.View, depth int, caller, target asset.ID, call Call, parcel asset.Parcel, height uint64) (resp *Response, err error) {
	if depth > e.config.MaxDepth {
		return nil, ter.TefMAX_DEPTH
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sb := state.NewSandbox(parent)
	kind, err := kindOf(sb, target)
	if err != nil {
		return nil, err
	}
	contract, ok := e.config.Registry.New(kind)
	if !ok {
		return nil, errors.Wrapf(ter.TefBAD_CONTRACT, "kind %q", kind)
	}

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, errors.Wrapf(ter.TefINTERNAL, "panic in %s: %v", kind, r)
		}
		e.config.Metrics.observe(kind, call.Opcode, depth, err)
		if err != nil {
			sb.Discard()
		}
	}()

	l := ledger.New(sb)
	if err := l.TransferParcel(caller, target, parcel); err != nil {
		return nil, err
	}

	cc := &CallContext{
		ctx:      ctx,
		engine:   e,
		view:     sb,
		ledger:   l,
		Self:     target,
		Caller:   caller,
		Incoming: parcel.Normalize(),
		Height:   height,
		depth:    depth,
	}
	resp, err = contract.Execute(cc, call)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &Response{}
	}
	if err := l.TransferParcel(target, caller, resp.Parcel); err != nil {
		return nil, errors.Wrap(err, "response parcel")
	}
	if err := sb.Apply(); err != nil {
		return nil, err
	}
	return resp, nil
}

// create allocates the next contract id and records its kind.
func (e *Engine) create(v state.View, kind Kind) (asset.ID, error) {
	if _, ok := e.config.Registry.New(kind); !ok {
		return asset.ID{}, errors.Wrapf(ter.TefBAD_CONTRACT, "kind %q", kind)
	}

	seqKey := keylet.Sequence()
	data, err := v.Read(seqKey)
	if err != nil {
		return asset.ID{}, err
	}
	next := uint64(1)
	if len(data) == 8 {
		next = binary.LittleEndian.Uint64(data)
	}

	if err := state.Put(v, seqKey, binary.LittleEndian.AppendUint64(nil, next+1)); err != nil {
		return asset.ID{}, err
	}
	id := asset.Contract(next)
	if err := v.Insert(keylet.Contract(id), []byte(kind)); err != nil {
		return asset.ID{}, errors.Wrapf(err, "contract %s", id)
	}
	return id, nil
}

func kindOf(v state.View, id asset.ID) (Kind, error) {
	data, err := v.Read(keylet.Contract(id))
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", errors.Wrapf(ter.TerNO_CONTRACT, "%s", id)
	}
	return Kind(data), nil
}
