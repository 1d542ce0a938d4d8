package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("PreservesErrorChain", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "key lookup")
		assert.True(t, Is(wrapped, ErrNotFound))
		assert.Equal(t, "key lookup: not found", wrapped.Error())
	})

	t.Run("NilError", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("DoubleWrap", func(t *testing.T) {
		inner := Wrap(ErrCrypto, "decryption failed")
		outer := Wrap(inner, "unwrap key material")
		assert.True(t, Is(outer, ErrCrypto))
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("operation: %w", ErrConflict)
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrInvalidInput,
		ErrUnauthorized, ErrForbidden, ErrCrypto, ErrCache,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v should not match %v", a, b)
		}
	}
}
