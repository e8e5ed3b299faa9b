package keyring

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xarmian/voi-wallet-sub008/pkg/signer"
	"github.com/xarmian/voi-wallet-sub008/pkg/signererr"
	"github.com/xarmian/voi-wallet-sub008/pkg/types"
)

func newTestKeyring(t *testing.T) *Keyring {
	t.Helper()
	seed := bytes.Repeat([]byte{0x07}, ed25519.SeedSize)
	soft, err := signer.NewSoftwareSigner("SOFTADDR", seed, "1234")
	require.NoError(t, err)

	k := New()
	k.Register("SOFTADDR", soft)
	return k
}

func TestKeyring_SignRoutesByAddress(t *testing.T) {
	k := newTestKeyring(t)

	sig, err := k.Sign(context.Background(), []byte("tx"), "SOFTADDR", &types.Credential{PIN: "1234"})
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)
}

func TestKeyring_UnknownAddress(t *testing.T) {
	k := newTestKeyring(t)

	_, err := k.Sign(context.Background(), []byte("tx"), "NOBODY", nil)
	require.Error(t, err)
	sErr, ok := signererr.FromError(err)
	require.True(t, ok)
	assert.Equal(t, signererr.CodeAccount, sErr.Code)
}

func TestKeyring_Authenticate(t *testing.T) {
	k := newTestKeyring(t)
	account := &types.Account{Address: "SOFTADDR", Type: types.AccountTypeSoftware}

	require.NoError(t, k.Authenticate(context.Background(), account, &types.Credential{PIN: "1234"}))

	err := k.Authenticate(context.Background(), account, &types.Credential{PIN: "0000"})
	require.Error(t, err)
	sErr, ok := signererr.FromError(err)
	require.True(t, ok)
	assert.Equal(t, signererr.CodeAccount, sErr.Code)

	unknown := &types.Account{Address: "NOBODY", Type: types.AccountTypeSoftware}
	assert.Error(t, k.Authenticate(context.Background(), unknown, nil))
}
