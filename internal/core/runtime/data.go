package runtime

import (
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/pkg/errors"
)

// Uint64Data encodes values as consecutive 8-byte little-endian words.
func Uint64Data(vals ...uint64) []byte {
	out := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint64(out, v)
	}
	return out
}

// ReadUint64 decodes the first word of data.
func ReadUint64(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, errors.Wrapf(ter.TemMALFORMED, "response has %d bytes, want 8", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadID decodes an id from the start of data.
func ReadID(data []byte) (asset.ID, error) {
	id, err := asset.FromBytes(data)
	if err != nil {
		return asset.ID{}, errors.Wrap(ter.TemMALFORMED, err.Error())
	}
	return id, nil
}

// ReadUint64s decodes the first n words of data.
func ReadUint64s(data []byte, n int) ([]uint64, error) {
	if len(data) < 8*n {
		return nil, errors.Wrapf(ter.TemMALFORMED, "response has %d bytes, want %d", len(data), 8*n)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(data[8*i:])
	}
	return out, nil
}
