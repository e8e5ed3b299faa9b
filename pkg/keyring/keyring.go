// Package keyring routes signing requests to the backend holding the key for
// a given address. It is the wallet's key-management collaborator: the
// orchestrator asks it to sign decoded transaction bytes and to authenticate
// an account before signing starts.
package keyring

import (
	"context"
	"fmt"
	"sync"

	"github.com/xarmian/voi-wallet-sub008/pkg/signer"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// Keyring maps account addresses to their signer backends.
type Keyring struct {
	mu      sync.RWMutex
	signers map[string]signer.Signer
}

func New() *Keyring {
	return &Keyring{signers: make(map[string]signer.Signer)}
}

// Register binds an address to a backend, replacing any previous binding.
func (k *Keyring) Register(address string, s signer.Signer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.signers[address] = s
}

func (k *Keyring) lookup(address string) (signer.Signer, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	s, ok := k.signers[address]
	return s, ok
}

// Sign signs the decoded transaction bytes with the backend owning the
// signer address.
func (k *Keyring) Sign(ctx context.Context, tx []byte, address string, cred *types.Credential) ([]byte, error) {
	s, ok := k.lookup(address)
	if !ok {
		return nil, signererr.New(signererr.CodeAccount,
			fmt.Sprintf("no signer registered for address %s", address))
	}
	return s.Sign(ctx, tx, address, cred)
}

// Authenticate verifies that the account can sign: a backend must exist and,
// for credential-gated backends, the supplied credential must unlock it. It
// performs no signing side effects.
func (k *Keyring) Authenticate(ctx context.Context, account *types.Account, cred *types.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, ok := k.lookup(account.Address)
	if !ok {
		return signererr.New(signererr.CodeAccount,
			fmt.Sprintf("no signer registered for address %s", account.Address))
	}
	if verifier, ok := s.(signer.CredentialVerifier); ok {
		return verifier.VerifyCredential(cred)
	}
	return nil
}
