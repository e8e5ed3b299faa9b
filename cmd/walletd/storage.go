package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xarmian/voi-wallet-sub008/pkg/config"
	"github.com/xarmian/voi-wallet-sub008/pkg/kvstore"
)

// openStore opens the wallet database holding the durable request queue.
func openStore(cfg *config.AppConfig) (kvstore.Store, error) {
	var encryptionKey []byte
	if cfg.BadgerPassword != "" {
		// Badger wants a fixed-size key; derive one from the passphrase.
		key := sha256.Sum256([]byte(cfg.BadgerPassword))
		encryptionKey = key[:]
	}
	return kvstore.NewBadgerStore(kvstore.BadgerConfig{
		DBPath:        cfg.DBPath,
		EncryptionKey: encryptionKey,
	})
}

// readSeedFile loads a 32-byte ed25519 seed, either raw or hex-encoded.
func readSeedFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("seed_file is required for software accounts")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(raw) == 32 {
		return raw, nil
	}

	trimmed := strings.TrimSpace(string(raw))
	seed, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("seed file is neither 32 raw bytes nor hex: %w", err)
	}
	return seed, nil
}
