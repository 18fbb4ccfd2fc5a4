package asset

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Transfer moves Value units of ID.
type Transfer struct {
	ID    ID
	Value uint64
}

// Parcel is the set of transfers attached to a call or its response.
type Parcel []Transfer

// Single returns a parcel holding one transfer.
func Single(id ID, value uint64) Parcel {
	return Parcel{{ID: id, Value: value}}
}

// Amount returns the total value of id carried by the parcel.
func (p Parcel) Amount(id ID) uint64 {
	var total uint64
	for _, t := range p {
		if t.ID == id {
			total += t.Value
		}
	}
	return total
}

// Pay appends a transfer, merging it into an existing entry for the same id.
// Zero-valued transfers are dropped. The receiver may be modified in place.
func (p Parcel) Pay(id ID, value uint64) Parcel {
	if value == 0 {
		return p
	}
	for i := range p {
		if p[i].ID == id {
			p[i].Value += value
			return p
		}
	}
	return append(p, Transfer{ID: id, Value: value})
}

// Merge returns p with every transfer of other paid into it.
func (p Parcel) Merge(other Parcel) Parcel {
	out := p.Clone()
	for _, t := range other {
		out = out.Pay(t.ID, t.Value)
	}
	return out
}

// Normalize returns a copy of p with one entry per id and no zero values.
func (p Parcel) Normalize() Parcel {
	return Parcel(nil).Merge(p)
}

// Clone returns a copy of the parcel.
func (p Parcel) Clone() Parcel {
	if p == nil {
		return nil
	}
	out := make(Parcel, len(p))
	copy(out, p)
	return out
}

// IDs returns the distinct ids carried, in first-seen order.
func (p Parcel) IDs() []ID {
	seen := make(map[ID]struct{}, len(p))
	ids := make([]ID, 0, len(p))
	for _, t := range p {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}
	return ids
}

// Bytes encodes the parcel as a u32 count followed by 24-byte transfers.
func (p Parcel) Bytes() []byte {
	out := make([]byte, 4, 4+len(p)*(IDSize+8))
	binary.LittleEndian.PutUint32(out, uint32(len(p)))
	for _, t := range p {
		out = append(out, t.ID.Bytes()...)
		out = binary.LittleEndian.AppendUint64(out, t.Value)
	}
	return out
}

// ParseParcel decodes a parcel written by Bytes.
func ParseParcel(b []byte) (Parcel, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("parcel: short header")
	}
	n := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	if len(b) != n*(IDSize+8) {
		return nil, fmt.Errorf("parcel: expected %d transfers, have %d bytes", n, len(b))
	}
	p := make(Parcel, 0, n)
	for i := 0; i < n; i++ {
		id, _ := FromBytes(b)
		p = append(p, Transfer{ID: id, Value: binary.LittleEndian.Uint64(b[IDSize:])})
		b = b[IDSize+8:]
	}
	return p, nil
}

func (p Parcel) String() string {
	parts := make([]string, len(p))
	for i, t := range p {
		parts[i] = fmt.Sprintf("%d@%s", t.Value, t.ID)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
