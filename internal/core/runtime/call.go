package runtime

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Call is an operation sent to a contract: an opcode and its word-encoded
// arguments.
type Call struct {
	Opcode uint64
	Inputs []uint64
}

// NewCall builds a call from an opcode and inputs.
func NewCall(opcode uint64, inputs ...uint64) Call {
	return Call{Opcode: opcode, Inputs: inputs}
}

// Args returns a reader over the call inputs.
func (c Call) Args() *Args {
	return &Args{in: c.Inputs}
}

// Response is what a contract returns to its caller.
type Response struct {
	Data   []byte
	Parcel asset.Parcel
}

// Forward returns a response handing p back to the caller unchanged.
func Forward(p asset.Parcel) *Response {
	return &Response{Parcel: p.Clone()}
}

// Args reads typed values from call inputs in order.
type Args struct {
	in  []uint64
	pos int
}

// Uint reads one word.
func (a *Args) Uint() (uint64, error) {
	if a.pos >= len(a.in) {
		return 0, errors.Wrapf(ter.TemMALFORMED, "missing argument %d", a.pos)
	}
	v := a.in[a.pos]
	a.pos++
	return v, nil
}

// ID reads a block/tx pair.
func (a *Args) ID() (asset.ID, error) {
	block, err := a.Uint()
	if err != nil {
		return asset.ID{}, err
	}
	tx, err := a.Uint()
	if err != nil {
		return asset.ID{}, err
	}
	return asset.ID{Block: block, Tx: tx}, nil
}

// Path reads a count followed by that many ids.
func (a *Args) Path() ([]asset.ID, error) {
	n, err := a.Uint()
	if err != nil {
		return nil, err
	}
	if n > uint64(a.Remaining()/2) {
		return nil, errors.Wrapf(ter.TemMALFORMED, "path of %d ids with %d words left", n, a.Remaining())
	}
	path := make([]asset.ID, n)
	for i := range path {
		if path[i], err = a.ID(); err != nil {
			return nil, err
		}
	}
	return path, nil
}

// String reads a byte length followed by 8-byte little-endian chunks.
func (a *Args) String() (string, error) {
	n, err := a.Uint()
	if err != nil {
		return "", err
	}
	words := (n + 7) / 8
	if words > uint64(a.Remaining()) {
		return "", errors.Wrapf(ter.TemMALFORMED, "string of %d bytes with %d words left", n, a.Remaining())
	}
	buf := make([]byte, 0, words*8)
	for i := uint64(0); i < words; i++ {
		w, _ := a.Uint()
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	s := string(buf[:n])
	if !utf8.ValidString(s) {
		return "", errors.Wrap(ter.TemMALFORMED, "string is not utf-8")
	}
	return s, nil
}

// Rest returns every unread word.
func (a *Args) Rest() []uint64 {
	rest := a.in[a.pos:]
	a.pos = len(a.in)
	return rest
}

// Remaining returns the number of unread words.
func (a *Args) Remaining() int {
	return len(a.in) - a.pos
}

// IDWords encodes ids for use as call inputs.
func IDWords(ids ...asset.ID) []uint64 {
	out := make([]uint64, 0, 2*len(ids))
	for _, id := range ids {
		out = append(out, id.Block, id.Tx)
	}
	return out
}

// PathWords encodes a path as read by Args.Path.
func PathWords(path []asset.ID) []uint64 {
	return append([]uint64{uint64(len(path))}, IDWords(path...)...)
}

// StringWords encodes s as read by Args.String.
func StringWords(s string) []uint64 {
	b := []byte(s)
	out := []uint64{uint64(len(b))}
	for len(b) > 0 {
		var chunk [8]byte
		n := copy(chunk[:], b)
		out = append(out, binary.LittleEndian.Uint64(chunk[:]))
		b = b[n:]
	}
	return out
}

// Words concatenates input groups.
func Words(groups ...[]uint64) []uint64 {
	var out []uint64
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
