package kvstore

import "errors"

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is a minimal persistent key-value store. It offers no atomic
// read-modify-write primitive; callers that need serialized updates must
// provide their own exclusion (see requestqueue).
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
