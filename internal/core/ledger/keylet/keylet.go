package keylet

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/LeJamon/goAMM/internal/core/asset"
)

// Space identifiers for keylet generation
const (
	spaceContract    uint16 = 'c' // Contract kind of a deployed instance
	spaceSequence    uint16 = 'n' // Next contract sequence (singleton)
	spaceBalance     uint16 = 'a' // Holder balance of one asset
	spaceSupply      uint16 = 'S' // Total supply of one asset
	spaceToken       uint16 = 't' // Token metadata
	spaceAuth        uint16 = 'u' // Auth token bound to a contract
	spacePool        uint16 = 'A' // Pool state
	spaceFactory     uint16 = 'F' // Factory state
	spacePoolOf      uint16 = 'P' // Factory pair -> pool
	spacePoolIndex   uint16 = 'i' // Factory position -> pool
	spaceFeeOverride uint16 = 'e' // Factory per-pool fee
	spacePath        uint16 = 'p' // Cached routing path
	spaceRouter      uint16 = 'R' // Router state
	spaceProvider    uint16 = 'v' // Path provider state
	spaceReceiver    uint16 = 'r' // Flash-swap receiver state
)

// Type identifies the kind of entry stored under a keylet.
type Type uint16

const (
	TypeContract Type = iota + 1
	TypeSequence
	TypeBalance
	TypeSupply
	TypeToken
	TypeAuth
	TypePool
	TypeFactory
	TypePoolOf
	TypePoolIndex
	TypeFeeOverride
	TypePath
	TypeRouter
	TypePathProvider
	TypeReceiver
)

// Keylet represents an addressable location in the state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	h := sha512.New()

	// Prepend the space identifier as a 2-byte big-endian value
	var spaceBytes [2]byte
	binary.BigEndian.PutUint16(spaceBytes[:], space)
	h.Write(spaceBytes[:])
	for _, d := range data {
		h.Write(d)
	}

	var key [32]byte
	copy(key[:], h.Sum(nil)[:32])
	return key
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Contract returns the keylet recording which kind of contract lives at id.
func Contract(id asset.ID) Keylet {
	return Keylet{Type: TypeContract, Key: indexHash(spaceContract, id.Bytes())}
}

// Sequence returns the keylet for the singleton contract sequence counter.
func Sequence() Keylet {
	return Keylet{Type: TypeSequence, Key: indexHash(spaceSequence)}
}

// Balance returns the keylet for holder's balance of id.
func Balance(holder, id asset.ID) Keylet {
	return Keylet{Type: TypeBalance, Key: indexHash(spaceBalance, holder.Bytes(), id.Bytes())}
}

// Supply returns the keylet for the outstanding supply of id.
func Supply(id asset.ID) Keylet {
	return Keylet{Type: TypeSupply, Key: indexHash(spaceSupply, id.Bytes())}
}

// Token returns the keylet for token metadata.
func Token(id asset.ID) Keylet {
	return Keylet{Type: TypeToken, Key: indexHash(spaceToken, id.Bytes())}
}

// Auth returns the keylet holding the auth token bound to a contract.
func Auth(contract asset.ID) Keylet {
	return Keylet{Type: TypeAuth, Key: indexHash(spaceAuth, contract.Bytes())}
}

// Pool returns the keylet for a pool's state.
func Pool(pool asset.ID) Keylet {
	return Keylet{Type: TypePool, Key: indexHash(spacePool, pool.Bytes())}
}

// Factory returns the keylet for a factory's state.
func Factory(factory asset.ID) Keylet {
	return Keylet{Type: TypeFactory, Key: indexHash(spaceFactory, factory.Bytes())}
}

// PoolOf returns the keylet mapping a canonical pair to its pool.
func PoolOf(factory asset.ID, pair asset.Pair) Keylet {
	return Keylet{Type: TypePoolOf, Key: indexHash(spacePoolOf, factory.Bytes(), pair.Bytes())}
}

// PoolIndex returns the keylet of the pool registered at position n.
func PoolIndex(factory asset.ID, n uint64) Keylet {
	return Keylet{Type: TypePoolIndex, Key: indexHash(spacePoolIndex, factory.Bytes(), u64(n))}
}

// FeeOverride returns the keylet of a per-pool fee set by the factory.
func FeeOverride(factory, pool asset.ID) Keylet {
	return Keylet{Type: TypeFeeOverride, Key: indexHash(spaceFeeOverride, factory.Bytes(), pool.Bytes())}
}

// Path returns the keylet of a cached path between a canonical pair.
func Path(provider asset.ID, pair asset.Pair) Keylet {
	return Keylet{Type: TypePath, Key: indexHash(spacePath, provider.Bytes(), pair.Bytes())}
}

// Router returns the keylet for a router's state.
func Router(router asset.ID) Keylet {
	return Keylet{Type: TypeRouter, Key: indexHash(spaceRouter, router.Bytes())}
}

// PathProvider returns the keylet for a path provider's state.
func PathProvider(provider asset.ID) Keylet {
	return Keylet{Type: TypePathProvider, Key: indexHash(spaceProvider, provider.Bytes())}
}

// Receiver returns the keylet for a flash-swap receiver's state.
func Receiver(receiver asset.ID) Keylet {
	return Keylet{Type: TypeReceiver, Key: indexHash(spaceReceiver, receiver.Bytes())}
}
