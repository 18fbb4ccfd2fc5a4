package keylet

import (
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/stretchr/testify/assert"
)

func TestKeysAreDistinctAcrossSpaces(t *testing.T) {
	id := asset.Contract(5)
	pair, _ := asset.SortPair(asset.Contract(1), asset.Contract(2))

	keys := []Keylet{
		Contract(id),
		Sequence(),
		Balance(id, id),
		Supply(id),
		Token(id),
		Auth(id),
		Pool(id),
		Factory(id),
		PoolOf(id, pair),
		PoolIndex(id, 0),
		FeeOverride(id, id),
		Path(id, pair),
		Router(id),
		PathProvider(id),
		Receiver(id),
	}

	seen := make(map[[32]byte]Type)
	for _, k := range keys {
		prev, dup := seen[k.Key]
		assert.False(t, dup, "type %d collides with %d", k.Type, prev)
		seen[k.Key] = k.Type
	}
}

func TestBalanceKeyDependsOnHolderAndAsset(t *testing.T) {
	a := asset.Contract(1)
	b := asset.Contract(2)

	assert.Equal(t, Balance(a, b), Balance(a, b))
	assert.NotEqual(t, Balance(a, b).Key, Balance(b, a).Key)
}

func TestPoolIndexPositions(t *testing.T) {
	f := asset.Contract(3)
	assert.NotEqual(t, PoolIndex(f, 0).Key, PoolIndex(f, 1).Key)
	assert.NotEqual(t, PoolIndex(f, 0).Key, PoolIndex(asset.Contract(4), 0).Key)
}
