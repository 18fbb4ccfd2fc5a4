// Package token implements a fungible token contract and the metadata shared
// by every named asset, including pool LP tokens.
package token

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ledger/keylet"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Kind is the contract kind of fungible tokens.
const Kind runtime.Kind = "token"

// Token opcodes
const (
	OpInitialize     uint64 = 0
	OpSend           uint64 = 2
	OpMint           uint64 = 77
	OpGetName        uint64 = 99
	OpGetSymbol      uint64 = 100
	OpGetTotalSupply uint64 = 101
	OpGetData        uint64 = 1000
)

func init() {
	runtime.MustRegister(Kind, func() runtime.Contract { return &Token{} })
}

// Metadata names an asset.
type Metadata struct {
	Name   string
	Symbol string
	// Owner may mint more supply. Zero means the supply is fixed.
	Owner asset.ID
}

// Bytes encodes the metadata as length-prefixed strings followed by the owner.
func (m Metadata) Bytes() []byte {
	out := appendString(nil, m.Name)
	out = appendString(out, m.Symbol)
	return append(out, m.Owner.Bytes()...)
}

// ParseMetadata decodes metadata written by Bytes.
func ParseMetadata(b []byte) (Metadata, error) {
	var m Metadata
	var err error
	if m.Name, b, err = readString(b); err != nil {
		return m, err
	}
	if m.Symbol, b, err = readString(b); err != nil {
		return m, err
	}
	if len(b) >= asset.IDSize {
		m.Owner, _ = asset.FromBytes(b)
	}
	return m, nil
}

func appendString(out []byte, s string) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, errors.New("metadata: short string header")
	}
	n := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if len(b) < n {
		return "", nil, errors.New("metadata: short string")
	}
	return string(b[:n]), b[n:], nil
}

// ReadMetadata loads the metadata of id. ok is false when none is stored.
func ReadMetadata(v state.View, id asset.ID) (m Metadata, ok bool, err error) {
	data, err := v.Read(keylet.Token(id))
	if err != nil || data == nil {
		return Metadata{}, false, err
	}
	m, err = ParseMetadata(data)
	return m, err == nil, err
}

// WriteMetadata stores the metadata of id.
func WriteMetadata(v state.View, id asset.ID, m Metadata) error {
	return state.Put(v, keylet.Token(id), m.Bytes())
}

// Name asks the contract at id for its name, falling back to the id itself
// when it cannot answer.
func Name(cc *runtime.CallContext, id asset.ID) string {
	resp, err := cc.Call(id, runtime.NewCall(OpGetName), nil)
	if err != nil || len(resp.Data) == 0 {
		return id.String()
	}
	return string(resp.Data)
}

// Token is a named fungible asset whose id is its contract id.
type Token struct{}

func (t *Token) Execute(cc *runtime.CallContext, call runtime.Call) (*runtime.Response, error) {
	switch call.Opcode {
	case OpInitialize:
		return t.initialize(cc, call.Args())
	case OpMint:
		return t.mint(cc, call.Args())
	case OpSend:
		to, err := call.Args().ID()
		if err != nil {
			return nil, err
		}
		if err := cc.Ledger().TransferParcel(cc.Self, to, cc.Incoming); err != nil {
			return nil, err
		}
		return &runtime.Response{}, nil
	case OpGetName, OpGetSymbol, OpGetData:
		m, ok, err := ReadMetadata(cc.View(), cc.Self)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ter.TerNOT_INITIALIZED
		}
		resp := runtime.Forward(cc.Incoming)
		switch call.Opcode {
		case OpGetName:
			resp.Data = []byte(m.Name)
		case OpGetSymbol:
			resp.Data = []byte(m.Symbol)
		default:
			resp.Data = m.Bytes()
		}
		return resp, nil
	case OpGetTotalSupply:
		supply, err := cc.Ledger().Supply(cc.Self)
		if err != nil {
			return nil, err
		}
		resp := runtime.Forward(cc.Incoming)
		resp.Data = runtime.Uint64Data(supply)
		return resp, nil
	}
	return nil, errors.Wrapf(ter.TemUNKNOWN_OPCODE, "token opcode %d", call.Opcode)
}

// initialize(name, symbol, supply, mintable) mints the initial supply to the caller.
func (t *Token) initialize(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	if _, ok, err := ReadMetadata(cc.View(), cc.Self); err != nil || ok {
		if err != nil {
			return nil, err
		}
		return nil, ter.TerALREADY_INITIALIZED
	}

	name, err := args.String()
	if err != nil {
		return nil, err
	}
	symbol, err := args.String()
	if err != nil {
		return nil, err
	}
	supply, err := args.Uint()
	if err != nil {
		return nil, err
	}
	m := Metadata{Name: name, Symbol: symbol}
	if args.Remaining() > 0 {
		if mintable, _ := args.Uint(); mintable != 0 {
			m.Owner = cc.Caller
		}
	}

	if err := WriteMetadata(cc.View(), cc.Self, m); err != nil {
		return nil, err
	}
	if err := cc.Ledger().Mint(cc.Self, cc.Self, supply); err != nil {
		return nil, err
	}
	resp := runtime.Forward(cc.Incoming)
	resp.Parcel = resp.Parcel.Pay(cc.Self, supply)
	return resp, nil
}

// mint(amount) creates more supply for the owner.
func (t *Token) mint(cc *runtime.CallContext, args *runtime.Args) (*runtime.Response, error) {
	m, ok, err := ReadMetadata(cc.View(), cc.Self)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ter.TerNOT_INITIALIZED
	}
	if m.Owner.IsZero() || m.Owner != cc.Caller {
		return nil, ter.TefNOT_OWNER
	}
	amount, err := args.Uint()
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ter.TemBAD_AMOUNT
	}
	if err := cc.Ledger().Mint(cc.Self, cc.Self, amount); err != nil {
		return nil, err
	}
	resp := runtime.Forward(cc.Incoming)
	resp.Parcel = resp.Parcel.Pay(cc.Self, amount)
	return resp, nil
}

// InitCall builds the initialize call of a token.
func InitCall(name, symbol string, supply uint64, mintable bool) runtime.Call {
	flag := uint64(0)
	if mintable {
		flag = 1
	}
	return runtime.NewCall(OpInitialize, runtime.Words(
		runtime.StringWords(name),
		runtime.StringWords(symbol),
		[]uint64{supply, flag},
	)...)
}

// SendCall builds a call that delivers the attached parcel to `to`. Any
// token contract accepts it for any asset.
func SendCall(to asset.ID) runtime.Call {
	return runtime.NewCall(OpSend, runtime.IDWords(to)...)
}
