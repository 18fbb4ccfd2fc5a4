// Package kvstoretest holds the behaviour every kvstore backend must share.
package kvstoretest

import (
	"context"
	"fmt"
	"testing"

	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/stretchr/testify/require"
)

// Run exercises read/write/delete, batches and bounded iteration on db.
func Run(t *testing.T, db kvstore.DB) {
	t.Helper()
	ctx := context.Background()

	t.Run("ReadWrite", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("lifecycle-test"), []byte("test-value")))

		got, err := db.Read(ctx, []byte("lifecycle-test"))
		require.NoError(t, err)
		require.Equal(t, "test-value", string(got))

		_, err = db.Read(ctx, []byte("missing"))
		require.ErrorIs(t, err, kvstore.ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("doomed"), []byte("v")))
		require.NoError(t, db.Delete(ctx, []byte("doomed")))

		_, err := db.Read(ctx, []byte("doomed"))
		require.ErrorIs(t, err, kvstore.ErrKeyNotFound)
	})

	t.Run("Batch", func(t *testing.T) {
		ops := []kvstore.BatchOperation{
			{Type: kvstore.BatchPut, Key: []byte("batch1"), Value: []byte("value1")},
			{Type: kvstore.BatchPut, Key: []byte("batch2"), Value: []byte("value2")},
			{Type: kvstore.BatchDelete, Key: []byte("batch1")},
		}
		require.NoError(t, db.Batch(ctx, ops))

		_, err := db.Read(ctx, []byte("batch1"))
		require.Error(t, err)

		value, err := db.Read(ctx, []byte("batch2"))
		require.NoError(t, err)
		require.Equal(t, "value2", string(value))
	})

	t.Run("Iterator", func(t *testing.T) {
		for i := 1; i <= 4; i++ {
			key := []byte(fmt.Sprintf("iter%d", i))
			require.NoError(t, db.Write(ctx, key, []byte(fmt.Sprintf("value%d", i))))
		}

		it, err := db.Iterator(ctx, []byte("iter2"), []byte("iter3"))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		require.Equal(t, []string{"iter2", "iter3"}, keys)
	})
}
