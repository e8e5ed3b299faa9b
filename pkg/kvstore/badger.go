package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/xarmian/voi-wallet-sub008/pkg/logger"
)

// BadgerStore is a Store implementation backed by BadgerDB.
type BadgerStore struct {
	DB *badger.DB
}

type BadgerConfig struct {
	DBPath        string
	EncryptionKey []byte
}

// NewBadgerStore opens (or creates) the wallet database at the configured path.
func NewBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(config.DBPath).
		WithCompression(options.ZSTD).
		WithIndexCacheSize(16 << 20).
		WithBlockCacheSize(32 << 20).
		WithSyncWrites(true).
		WithVerifyValueChecksum(true). // surface value-log corruption on read instead of masking it
		WithCompactL0OnClose(true).
		WithLogger(newQuietBadgerLogger())

	if len(config.EncryptionKey) > 0 {
		opts = opts.WithEncryptionKey(config.EncryptionKey).
			WithIndexCacheSize(32 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logger.Info("Connected to BadgerDB successfully!", "path", config.DBPath)
	return &BadgerStore{DB: db}, nil
}

// Get retrieves the value associated with a key.
func (b *BadgerStore) Get(key string) ([]byte, error) {
	var result []byte
	err := b.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == nil {
			return item.Value(func(val []byte) error {
				result = append([]byte{}, val...)
				return nil
			})
		}
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return result, err
}

// Set stores a key-value pair.
func (b *BadgerStore) Set(key string, value []byte) error {
	return b.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Delete removes a key-value pair. Deleting a missing key is not an error.
func (b *BadgerStore) Delete(key string) error {
	return b.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close closes the underlying database.
func (b *BadgerStore) Close() error {
	return b.DB.Close()
}

// quietBadgerLogger routes badger's chatty internal logging through the
// application logger at reduced severity.
type quietBadgerLogger struct{}

func newQuietBadgerLogger() badger.Logger {
	return quietBadgerLogger{}
}

func (quietBadgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("badger", fmt.Errorf(format, args...))
}

func (quietBadgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func (quietBadgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func (quietBadgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}
