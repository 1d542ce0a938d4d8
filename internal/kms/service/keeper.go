package service

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeeperRootStrategy wraps data-key material with a hardware- or cloud-backed
// keeper (gocloud.dev/secrets). The keeper URI selects the provider:
// awskms://, gcpkms://, azurekeyvault://, hashivault://, base64key://.
type KeeperRootStrategy struct {
	keeper *secrets.Keeper
}

// NewKeeperRootStrategy opens the keeper at keyURI and returns a strategy
// delegating wrap/unwrap to it.
func NewKeeperRootStrategy(ctx context.Context, keyURI string) (*KeeperRootStrategy, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return &KeeperRootStrategy{keeper: keeper}, nil
}

// Wrap encrypts material with the provider-held root key.
func (s *KeeperRootStrategy) Wrap(ctx context.Context, material []byte) ([]byte, error) {
	wrapped, err := s.keeper.Encrypt(ctx, material)
	if err != nil {
		return nil, fmt.Errorf("keeper encrypt: %w", err)
	}
	return wrapped, nil
}

// Unwrap decrypts material with the provider-held root key.
func (s *KeeperRootStrategy) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	material, err := s.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("keeper decrypt: %w", err)
	}
	return material, nil
}

// Close releases the keeper.
func (s *KeeperRootStrategy) Close() error {
	return s.keeper.Close()
}

// GocloudExternalKeeper forwards external-key operations to the provider
// referenced by each key's URI.
type GocloudExternalKeeper struct{}

// NewExternalKeeper creates a GocloudExternalKeeper.
func NewExternalKeeper() *GocloudExternalKeeper {
	return &GocloudExternalKeeper{}
}

// Encrypt forwards plaintext to the provider keeper at ref.
func (g *GocloudExternalKeeper) Encrypt(ctx context.Context, ref string, plaintext []byte) ([]byte, error) {
	keeper, err := secrets.OpenKeeper(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open external keeper: %w", err)
	}
	defer keeper.Close()

	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("external keeper encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt forwards ciphertext to the provider keeper at ref.
func (g *GocloudExternalKeeper) Decrypt(ctx context.Context, ref string, ciphertext []byte) ([]byte, error) {
	keeper, err := secrets.OpenKeeper(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open external keeper: %w", err)
	}
	defer keeper.Close()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("external keeper decrypt: %w", err)
	}
	return plaintext, nil
}
