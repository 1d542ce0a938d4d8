// Package usecase implements business logic for secret management: the
// cached read path, and write paths that encrypt through the key hierarchy
// and invalidate the project cache after commit.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/secrets/cache"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// SecretRepository defines the interface for Secret persistence operations.
type SecretRepository interface {
	Create(ctx context.Context, secret *secretsDomain.Secret) error
	Update(ctx context.Context, secret *secretsDomain.Secret) error
	GetByKey(ctx context.Context, projectID uuid.UUID, folderID *uuid.UUID, key string) (*secretsDomain.Secret, error)
	List(ctx context.Context, q secretsDomain.ListQuery) ([]*secretsDomain.Secret, error)
	Delete(ctx context.Context, secretID uuid.UUID) error
}

// SecretCache is the coherency layer consumed by the read and write paths.
type SecretCache interface {
	Stamp(ctx context.Context, projectID uuid.UUID, querySignature string) cache.Stamp
	Get(ctx context.Context, stamp cache.Stamp) ([]*secretsDomain.Secret, bool)
	Store(ctx context.Context, stamp cache.Stamp, secrets []*secretsDomain.Secret)
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

// CreateSecretInput carries the fields of a secret create or update.
type CreateSecretInput struct {
	ProjectID uuid.UUID
	FolderID  *uuid.UUID
	Key       string
	Value     []byte
	Comment   []byte
	Tags      []string
	Metadata  []secretsDomain.MetadataEntry
}

// SecretUseCase defines the interface for secret management business logic.
type SecretUseCase interface {
	// List returns the encrypted secret rows matching the query, served
	// from cache when possible. Rows keep their ciphertext; List never
	// decrypts.
	List(ctx context.Context, actor authz.Actor, q secretsDomain.ListQuery) ([]*secretsDomain.Secret, error)

	// Get retrieves and decrypts a single secret.
	//
	// Security Note: the returned Secret carries plaintext in Value and
	// Comment. Callers MUST zero them after use.
	Get(ctx context.Context, actor authz.Actor, projectID uuid.UUID, folderID *uuid.UUID, key string) (*secretsDomain.Secret, error)

	// CreateOrUpdate creates the secret or rewrites it with a bumped
	// version. The project cache is invalidated after the transaction
	// commits.
	CreateOrUpdate(ctx context.Context, actor authz.Actor, input CreateSecretInput) (*secretsDomain.Secret, error)

	// Delete removes the secret and invalidates the project cache after
	// commit.
	Delete(ctx context.Context, actor authz.Actor, projectID uuid.UUID, folderID *uuid.UUID, key string) error
}
