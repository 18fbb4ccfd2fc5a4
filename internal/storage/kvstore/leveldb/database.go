// Package leveldb adapts goleveldb to the kvstore interfaces.
package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type DB struct {
	db *leveldb.DB
}

func NewDB(db *leveldb.DB) *DB {
	return &DB{db: db}
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, kvstore.ErrDBClosed
	}
	val, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, kvstore.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}
	return l.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}
	return l.db.Delete(key, &opt.WriteOptions{Sync: true})
}

func (l *DB) Batch(ctx context.Context, ops []kvstore.BatchOperation) error {
	if l.db == nil {
		return kvstore.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case kvstore.BatchPut:
			batch.Put(op.Key, op.Value)
		case kvstore.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("%w: %d", kvstore.ErrUnknownBatchOp, op.Type)
		}
	}
	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

type Iterator struct {
	iter iterator.Iterator
	end  []byte
	key  []byte
	val  []byte
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (kvstore.Iterator, error) {
	if l.db == nil {
		return nil, kvstore.ErrDBClosed
	}
	return &Iterator{
		iter: l.db.NewIterator(&util.Range{Start: start}, nil),
		end:  end,
	}, nil
}

func (it *Iterator) Next() bool {
	if !it.iter.Next() {
		return false
	}
	key := it.iter.Key()
	if it.end != nil && bytes.Compare(key, it.end) > 0 {
		return false
	}
	it.key = bytes.Clone(key)
	it.val = bytes.Clone(it.iter.Value())
	return true
}

func (it *Iterator) Key() []byte   { return it.key }
func (it *Iterator) Value() []byte { return it.val }
func (it *Iterator) Error() error  { return it.iter.Error() }

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}
