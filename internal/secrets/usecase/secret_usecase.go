package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsUsecase "github.com/keyloft/keyloft/internal/kms/usecase"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// secretUseCase implements SecretUseCase.
type secretUseCase struct {
	txManager    database.TxManager
	secretRepo   SecretRepository
	secretCache  SecretCache
	keyHierarchy kmsUsecase.KeyHierarchyUseCase
	authorizer   authz.Authorizer
}

// NewSecretUseCase creates a SecretUseCase.
func NewSecretUseCase(
	txManager database.TxManager,
	secretRepo SecretRepository,
	secretCache SecretCache,
	keyHierarchy kmsUsecase.KeyHierarchyUseCase,
	authorizer authz.Authorizer,
) SecretUseCase {
	return &secretUseCase{
		txManager:    txManager,
		secretRepo:   secretRepo,
		secretCache:  secretCache,
		keyHierarchy: keyHierarchy,
		authorizer:   authorizer,
	}
}

// List returns the encrypted rows for the query, consulting the cache first.
// The stamp is taken once, so a version bump between the miss and the store
// leaves the stored entry unreachable instead of stale.
func (s *secretUseCase) List(
	ctx context.Context,
	actor authz.Actor,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	if err := s.authorizer.Authorize(ctx, actor, q.ProjectID, authz.ActionRead, authz.ResourceSecrets); err != nil {
		return nil, err
	}

	stamp := s.secretCache.Stamp(ctx, q.ProjectID, q.Signature())
	if secrets, hit := s.secretCache.Get(ctx, stamp); hit {
		return secrets, nil
	}

	secrets, err := s.secretRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	s.secretCache.Store(ctx, stamp, secrets)
	return secrets, nil
}

// Get retrieves a secret and decrypts its value and comment.
func (s *secretUseCase) Get(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	if err := s.authorizer.Authorize(ctx, actor, projectID, authz.ActionRead, authz.ResourceSecrets); err != nil {
		return nil, err
	}

	secret, err := s.secretRepo.GetByKey(ctx, projectID, folderID, key)
	if err != nil {
		return nil, err
	}

	secret.Value, err = s.keyHierarchy.Decrypt(ctx, secret.KeyID, secret.EncryptedValue, projectAAD(projectID))
	if err != nil {
		return nil, err
	}
	if len(secret.EncryptedComment) > 0 {
		secret.Comment, err = s.keyHierarchy.Decrypt(ctx, secret.KeyID, secret.EncryptedComment, projectAAD(projectID))
		if err != nil {
			return nil, err
		}
	}
	return secret, nil
}

// CreateOrUpdate writes the secret inside one transaction and invalidates
// the project cache after the commit. An update bumps the row version and
// replaces tags and metadata.
func (s *secretUseCase) CreateOrUpdate(
	ctx context.Context,
	actor authz.Actor,
	input CreateSecretInput,
) (*secretsDomain.Secret, error) {
	if err := s.authorizer.Authorize(ctx, actor, input.ProjectID, authz.ActionEdit, authz.ResourceSecrets); err != nil {
		return nil, err
	}

	dataKey, err := s.keyHierarchy.ResolveOrCreateKey(
		ctx, kmsDomain.ProjectScope(input.ProjectID), kmsDomain.IntentEncryptDecrypt, "",
	)
	if err != nil {
		return nil, err
	}

	encryptedValue, err := s.keyHierarchy.Encrypt(ctx, dataKey.ID, input.Value, projectAAD(input.ProjectID))
	if err != nil {
		return nil, err
	}

	var encryptedComment []byte
	if len(input.Comment) > 0 {
		encryptedComment, err = s.keyHierarchy.Encrypt(ctx, dataKey.ID, input.Comment, projectAAD(input.ProjectID))
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	secret := &secretsDomain.Secret{
		ID:               uuid.Must(uuid.NewV7()),
		ProjectID:        input.ProjectID,
		FolderID:         input.FolderID,
		Key:              input.Key,
		KeyID:            dataKey.ID,
		EncryptedValue:   encryptedValue,
		EncryptedComment: encryptedComment,
		Version:          1,
		Tags:             tagRows(input.Tags),
		Metadata:         input.Metadata,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.secretRepo.GetByKey(txCtx, input.ProjectID, input.FolderID, input.Key)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil {
			secret.ID = existing.ID
			secret.Version = existing.Version + 1
			secret.CreatedAt = existing.CreatedAt
			return s.secretRepo.Update(txCtx, secret)
		}
		return s.secretRepo.Create(txCtx, secret)
	})
	if err != nil {
		return nil, err
	}

	// The bump happens strictly after the data commit, so a reader never
	// caches pre-write data under a post-write version.
	s.secretCache.Invalidate(ctx, input.ProjectID)
	return secret, nil
}

// Delete removes the secret inside a transaction and invalidates the
// project cache after the commit.
func (s *secretUseCase) Delete(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) error {
	if err := s.authorizer.Authorize(ctx, actor, projectID, authz.ActionEdit, authz.ResourceSecrets); err != nil {
		return err
	}

	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		secret, err := s.secretRepo.GetByKey(txCtx, projectID, folderID, key)
		if err != nil {
			return err
		}
		return s.secretRepo.Delete(txCtx, secret.ID)
	})
	if err != nil {
		return err
	}

	s.secretCache.Invalidate(ctx, projectID)
	return nil
}

// projectAAD binds ciphertext to its owning project.
func projectAAD(projectID uuid.UUID) []byte {
	return projectID[:]
}

// tagRows materializes tag names into rows with fresh ids.
func tagRows(names []string) []secretsDomain.Tag {
	if len(names) == 0 {
		return nil
	}
	tags := make([]secretsDomain.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, secretsDomain.Tag{ID: uuid.Must(uuid.NewV7()), Name: name})
	}
	return tags
}
