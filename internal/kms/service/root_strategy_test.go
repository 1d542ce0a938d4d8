package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

func newTestChain(t *testing.T) *kmsDomain.RootKeyChain {
	t.Helper()
	key := newTestKey(t)
	t.Setenv("ROOT_KEYS", "rk1:"+base64.StdEncoding.EncodeToString(key))
	t.Setenv("ACTIVE_ROOT_KEY_ID", "rk1")

	chain, err := kmsDomain.LoadRootKeyChainFromEnv()
	require.NoError(t, err)
	t.Cleanup(chain.Close)
	return chain
}

func TestSoftwareRootStrategy_WrapUnwrap(t *testing.T) {
	ctx := context.Background()
	envelope := NewEnvelopeCipher(NewAEADManager())
	strategy := NewSoftwareRootStrategy(newTestChain(t), envelope, kmsDomain.AESGCM)

	material := newTestKey(t)
	wrapped, err := strategy.Wrap(ctx, material)
	require.NoError(t, err)
	assert.NotContains(t, string(wrapped), base64.StdEncoding.EncodeToString(material))

	unwrapped, err := strategy.Unwrap(ctx, wrapped)
	require.NoError(t, err)
	assert.Equal(t, material, unwrapped)
}

func TestSoftwareRootStrategy_UnwrapFailures(t *testing.T) {
	ctx := context.Background()
	envelope := NewEnvelopeCipher(NewAEADManager())
	strategy := NewSoftwareRootStrategy(newTestChain(t), envelope, kmsDomain.AESGCM)

	t.Run("MalformedPayload", func(t *testing.T) {
		_, err := strategy.Unwrap(ctx, []byte("garbage"))
		assert.ErrorIs(t, err, kmsDomain.ErrDecryptionFailed)
	})

	t.Run("UnknownRootKey", func(t *testing.T) {
		_, err := strategy.Unwrap(ctx, []byte("other-root:"+base64.StdEncoding.EncodeToString([]byte{1})))
		assert.ErrorIs(t, err, kmsDomain.ErrRootKeyNotFound)
	})

	t.Run("TamperedCiphertext", func(t *testing.T) {
		wrapped, err := strategy.Wrap(ctx, []byte("material"))
		require.NoError(t, err)
		wrapped[len(wrapped)-1] ^= 0x01

		_, err = strategy.Unwrap(ctx, wrapped)
		assert.ErrorIs(t, err, kmsDomain.ErrDecryptionFailed)
	})
}
