package ledger

import (
	"context"
	"testing"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/state"
	"github.com/LeJamon/goAMM/internal/core/ter"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = asset.Account(1)
	bob   = asset.Account(2)
	token = asset.Contract(10)
)

func newLedger() *Ledger {
	return New(state.NewSandbox(state.NewBase(context.Background(), kvstore.NewMemoryDB())))
}

func TestMintTransferBurn(t *testing.T) {
	l := newLedger()

	require.NoError(t, l.Mint(alice, token, 1_000))
	require.NoError(t, l.Transfer(alice, bob, token, 400))

	bal, err := l.BalanceOf(alice, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), bal)
	bal, err = l.BalanceOf(bob, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), bal)

	require.NoError(t, l.Burn(bob, token, 400))
	supply, err := l.Supply(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), supply)

	bal, err = l.BalanceOf(bob, token)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestTransferUnfunded(t *testing.T) {
	l := newLedger()
	require.NoError(t, l.Mint(alice, token, 10))

	err := l.Transfer(alice, bob, token, 11)
	assert.Equal(t, ter.TecUNFUNDED, ter.Of(err))

	err = l.TransferParcel(alice, bob, asset.Parcel{{ID: token, Value: 5}, {ID: asset.Contract(11), Value: 1}})
	assert.Equal(t, ter.TecUNFUNDED, ter.Of(err))
}

func TestMintOverflow(t *testing.T) {
	l := newLedger()
	require.NoError(t, l.Mint(alice, token, ^uint64(0)))
	assert.Equal(t, ter.TecOVERFLOW, ter.Of(l.Mint(bob, token, 1)))
}

func TestZeroTransferIsNoop(t *testing.T) {
	l := newLedger()
	require.NoError(t, l.Transfer(alice, bob, token, 0))
	require.NoError(t, l.Transfer(alice, alice, token, 5))
}
