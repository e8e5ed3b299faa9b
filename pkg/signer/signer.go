// Package signer provides the backends that produce signatures: software
// keys unlocked by a PIN and Bluetooth-connected hardware devices.
package signer

import (
	"context"

	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

// Signer produces an ed25519 signature over raw transaction bytes for the
// given address. Implementations raise backend-specific faults; callers pass
// them through signererr.Sanitize before they reach UI or logs.
type Signer interface {
	Sign(ctx context.Context, tx []byte, address string, cred *types.Credential) ([]byte, error)
	// Available reports whether the backend can currently sign.
	Available() bool
}

// CredentialVerifier is implemented by backends that gate signing on a
// caller-supplied credential, so authentication can run before any signing
// side effects.
type CredentialVerifier interface {
	VerifyCredential(cred *types.Credential) error
}
