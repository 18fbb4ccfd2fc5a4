package kvstore

import "errors"

var (
	// ErrDBClosed is returned when trying to operate on a closed kvstore
	ErrDBClosed = errors.New("kvstore is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the kvstore
	ErrKeyNotFound = errors.New("key not found")

	// ErrUnknownBatchOp is returned for batch operations of unknown type
	ErrUnknownBatchOp = errors.New("unknown batch operation type")
)
