// Package repository implements data persistence for secret management.
// Repositories support both PostgreSQL and MySQL. Tags and metadata live in
// child tables and are attached to their secrets in an explicit nesting step
// after the row queries.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// PostgreSQLSecretRepository implements Secret persistence for PostgreSQL
// databases.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL Secret repository
// instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}

// Create inserts a new secret row with its tags and metadata. A duplicate
// (project_id, folder_id, secret_key) maps to ErrConflict.
func (p *PostgreSQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secrets (id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.ProjectID,
		folderColumn(secret.FolderID),
		secret.Key,
		secret.KeyID,
		secret.EncryptedValue,
		secret.EncryptedComment,
		secret.Version,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create secret")
	}

	return p.insertChildren(ctx, querier, secret)
}

// Update rewrites the secret row and replaces its tags and metadata.
func (p *PostgreSQLSecretRepository) Update(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secrets
			  SET key_id = $1, encrypted_value = $2, encrypted_comment = $3, version = $4, updated_at = $5
			  WHERE id = $6`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.KeyID,
		secret.EncryptedValue,
		secret.EncryptedComment,
		secret.Version,
		secret.UpdatedAt,
		secret.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret")
	}

	for _, table := range []string{"secret_tags", "secret_metadata"} {
		if _, err := querier.ExecContext(ctx, `DELETE FROM `+table+` WHERE secret_id = $1`, secret.ID); err != nil {
			return apperrors.Wrap(err, "failed to replace secret children")
		}
	}
	return p.insertChildren(ctx, querier, secret)
}

// insertChildren inserts the tag and metadata rows for a secret.
func (p *PostgreSQLSecretRepository) insertChildren(
	ctx context.Context,
	querier database.Querier,
	secret *secretsDomain.Secret,
) error {
	for _, tag := range secret.Tags {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO secret_tags (id, secret_id, name) VALUES ($1, $2, $3)`,
			tag.ID, secret.ID, tag.Name,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create secret tag")
		}
	}
	for position, entry := range secret.Metadata {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO secret_metadata (secret_id, position, meta_key, meta_value) VALUES ($1, $2, $3, $4)`,
			secret.ID, position, entry.Key, entry.Value,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create secret metadata")
		}
	}
	return nil
}

// GetByKey retrieves a secret by its logical key within a project folder.
func (p *PostgreSQLSecretRepository) GetByKey(
	ctx context.Context,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at
			  FROM secrets
			  WHERE project_id = $1 AND folder_id = $2 AND secret_key = $3`

	secret, err := scanSecret(querier.QueryRowContext(ctx, query, projectID, folderColumn(folderID), key))
	if err != nil {
		return nil, err
	}

	if err := p.attachChildren(ctx, querier, []*secretsDomain.Secret{secret}); err != nil {
		return nil, err
	}
	return secret, nil
}

// List retrieves the secrets matching the query, with tags and metadata
// attached.
func (p *PostgreSQLSecretRepository) List(
	ctx context.Context,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at
			  FROM secrets
			  WHERE project_id = $1 AND folder_id = $2
			  ORDER BY secret_key`

	rows, err := querier.QueryContext(ctx, query, q.ProjectID, folderColumn(q.FolderID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}
	defer rows.Close()

	var secrets []*secretsDomain.Secret
	for rows.Next() {
		secret, err := scanSecret(rows)
		if err != nil {
			return nil, err
		}
		secrets = append(secrets, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list secrets")
	}

	if err := p.attachChildren(ctx, querier, secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

// attachChildren loads tag and metadata rows for the given secrets and nests
// them onto their parents.
func (p *PostgreSQLSecretRepository) attachChildren(
	ctx context.Context,
	querier database.Querier,
	secrets []*secretsDomain.Secret,
) error {
	if len(secrets) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*secretsDomain.Secret, len(secrets))
	ids := make([]uuid.UUID, 0, len(secrets))
	for _, secret := range secrets {
		byID[secret.ID] = secret
		ids = append(ids, secret.ID)
	}

	tagRows, err := querier.QueryContext(
		ctx,
		`SELECT secret_id, id, name FROM secret_tags WHERE secret_id = ANY($1) ORDER BY name`,
		pq.Array(ids),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to load secret tags")
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var secretID uuid.UUID
		var tag secretsDomain.Tag
		if err := tagRows.Scan(&secretID, &tag.ID, &tag.Name); err != nil {
			return apperrors.Wrap(err, "failed to scan secret tag")
		}
		if secret, ok := byID[secretID]; ok {
			secret.Tags = append(secret.Tags, tag)
		}
	}
	if err := tagRows.Err(); err != nil {
		return apperrors.Wrap(err, "failed to load secret tags")
	}

	metaRows, err := querier.QueryContext(
		ctx,
		`SELECT secret_id, meta_key, meta_value FROM secret_metadata WHERE secret_id = ANY($1) ORDER BY position`,
		pq.Array(ids),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to load secret metadata")
	}
	defer metaRows.Close()

	for metaRows.Next() {
		var secretID uuid.UUID
		var entry secretsDomain.MetadataEntry
		if err := metaRows.Scan(&secretID, &entry.Key, &entry.Value); err != nil {
			return apperrors.Wrap(err, "failed to scan secret metadata")
		}
		if secret, ok := byID[secretID]; ok {
			secret.Metadata = append(secret.Metadata, entry)
		}
	}
	return metaRows.Err()
}

// Delete removes a secret row; tags and metadata cascade.
func (p *PostgreSQLSecretRepository) Delete(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1`, secretID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// folderColumn maps the optional folder pointer to the NOT NULL column.
// The zero uuid stands for the project root so the uniqueness constraint on
// (project_id, folder_id, secret_key) covers folderless secrets.
func folderColumn(folderID *uuid.UUID) uuid.UUID {
	if folderID == nil {
		return uuid.Nil
	}
	return *folderID
}

// scanSecret maps a secret row into the domain entity, without children.
func scanSecret(row interface{ Scan(dest ...any) error }) (*secretsDomain.Secret, error) {
	var secret secretsDomain.Secret
	var folderID uuid.UUID

	err := row.Scan(
		&secret.ID,
		&secret.ProjectID,
		&folderID,
		&secret.Key,
		&secret.KeyID,
		&secret.EncryptedValue,
		&secret.EncryptedComment,
		&secret.Version,
		&secret.CreatedAt,
		&secret.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret")
	}

	if folderID != uuid.Nil {
		secret.FolderID = &folderID
	}
	return &secret, nil
}
