package signer

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/edwards/v2"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// SoftwareSigner holds PIN-protected ed25519 key material for one account.
type SoftwareSigner struct {
	address string
	key     ed25519.PrivateKey
	pinHash [sha256.Size]byte
}

// NewSoftwareSigner derives the signing key from a 32-byte seed and locks it
// behind the given PIN.
func NewSoftwareSigner(address string, seed []byte, pin string) (*SoftwareSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d, want %d", len(seed), ed25519.SeedSize)
	}
	if pin == "" {
		return nil, errors.New("pin must not be empty")
	}
	return &SoftwareSigner{
		address: address,
		key:     ed25519.NewKeyFromSeed(seed),
		pinHash: sha256.Sum256([]byte(pin)),
	}, nil
}

// Address returns the account address this key belongs to.
func (s *SoftwareSigner) Address() string {
	return s.address
}

func (s *SoftwareSigner) Available() bool {
	return true
}

// VerifyCredential checks the supplied PIN against the unlock PIN.
func (s *SoftwareSigner) VerifyCredential(cred *types.Credential) error {
	if cred == nil || cred.PIN == "" {
		return signererr.New(signererr.CodeAccount, "PIN required to unlock account")
	}
	supplied := sha256.Sum256([]byte(cred.PIN))
	if subtle.ConstantTimeCompare(supplied[:], s.pinHash[:]) != 1 {
		return signererr.New(signererr.CodeAccount, "invalid PIN")
	}
	return nil
}

// Sign produces a signature over the transaction bytes. The produced
// signature is verified before it is returned (a bad signature submitted to
// the network would burn the fee for nothing).
func (s *SoftwareSigner) Sign(ctx context.Context, tx []byte, address string, cred *types.Credential) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if address != s.address {
		return nil, signererr.New(signererr.CodeAccount,
			fmt.Sprintf("key does not belong to address %s", address))
	}
	if err := s.VerifyCredential(cred); err != nil {
		return nil, err
	}

	sig := ed25519.Sign(s.key, tx)

	pub, err := edwards.ParsePubKey(s.key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	parsed, err := edwards.ParseSignature(sig)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	if !edwards.Verify(pub, tx, parsed.R, parsed.S) {
		return nil, errors.New("produced signature failed verification")
	}
	return sig, nil
}
