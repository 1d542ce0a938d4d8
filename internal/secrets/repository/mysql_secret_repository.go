package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// MySQLSecretRepository implements Secret persistence for MySQL databases.
type MySQLSecretRepository struct {
	db *sql.DB
}

// NewMySQLSecretRepository creates a new MySQL Secret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}

// Create inserts a new secret row with its tags and metadata. A duplicate
// (project_id, folder_id, secret_key) maps to ErrConflict.
func (m *MySQLSecretRepository) Create(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secrets (id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.ID.String(),
		secret.ProjectID.String(),
		folderColumn(secret.FolderID).String(),
		secret.Key,
		secret.KeyID.String(),
		secret.EncryptedValue,
		secret.EncryptedComment,
		secret.Version,
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create secret")
	}

	return m.insertChildren(ctx, querier, secret)
}

// Update rewrites the secret row and replaces its tags and metadata.
func (m *MySQLSecretRepository) Update(ctx context.Context, secret *secretsDomain.Secret) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE secrets
			  SET key_id = ?, encrypted_value = ?, encrypted_comment = ?, version = ?, updated_at = ?
			  WHERE id = ?`

	_, err := querier.ExecContext(
		ctx,
		query,
		secret.KeyID.String(),
		secret.EncryptedValue,
		secret.EncryptedComment,
		secret.Version,
		secret.UpdatedAt,
		secret.ID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update secret")
	}

	for _, table := range []string{"secret_tags", "secret_metadata"} {
		if _, err := querier.ExecContext(ctx, `DELETE FROM `+table+` WHERE secret_id = ?`, secret.ID.String()); err != nil {
			return apperrors.Wrap(err, "failed to replace secret children")
		}
	}
	return m.insertChildren(ctx, querier, secret)
}

// insertChildren inserts the tag and metadata rows for a secret.
func (m *MySQLSecretRepository) insertChildren(
	ctx context.Context,
	querier database.Querier,
	secret *secretsDomain.Secret,
) error {
	for _, tag := range secret.Tags {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO secret_tags (id, secret_id, name) VALUES (?, ?, ?)`,
			tag.ID.String(), secret.ID.String(), tag.Name,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create secret tag")
		}
	}
	for position, entry := range secret.Metadata {
		_, err := querier.ExecContext(
			ctx,
			`INSERT INTO secret_metadata (secret_id, position, meta_key, meta_value) VALUES (?, ?, ?, ?)`,
			secret.ID.String(), position, entry.Key, entry.Value,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create secret metadata")
		}
	}
	return nil
}

// GetByKey retrieves a secret by its logical key within a project folder.
func (m *MySQLSecretRepository) GetByKey(
	ctx context.Context,
	projectID uuid.UUID,
	folderID *uuid.UUID,
	key string,
) (*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at
			  FROM secrets
			  WHERE project_id = ? AND folder_id = ? AND secret_key = ?`

	secret, err := scanSecret(querier.QueryRowContext(
		ctx, query, projectID.String(), folderColumn(folderID).String(), key,
	))
	if err != nil {
		return nil, err
	}

	if err := m.attachChildren(ctx, querier, []*secretsDomain.Secret{secret}); err != nil {
		return nil, err
	}
	return secret, nil
}

// List retrieves the secrets matching the query, with tags and metadata
// attached.
func (m *MySQLSecretRepository) List(
	ctx context.Context,
	q secretsDomain.ListQuery,
) ([]*secretsDomain.Secret, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, folder_id, secret_key, key_id, encrypted_value, encrypted_comment, version, created_at, updated_at
			  FROM secrets
			  WHERE project_id = ? AND folder_id = ?
			  ORDER BY secret_key`

	rows, err := querier.QueryContext(ctx, query, q.ProjectID.String(), folderColumn(q.FolderID).String())
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

	if err := m.attachChildren(ctx, querier, secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

// attachChildren loads tag and metadata rows for the given secrets and nests
// them onto their parents.
func (m *MySQLSecretRepository) attachChildren(
	ctx context.Context,
	querier database.Querier,
	secrets []*secretsDomain.Secret,
) error {
	if len(secrets) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*secretsDomain.Secret, len(secrets))
	args := make([]any, 0, len(secrets))
	for _, secret := range secrets {
		byID[secret.ID] = secret
		args = append(args, secret.ID.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	tagRows, err := querier.QueryContext(
		ctx,
		`SELECT secret_id, id, name FROM secret_tags WHERE secret_id IN (`+placeholders+`) ORDER BY name`,
		args...,
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
		`SELECT secret_id, meta_key, meta_value FROM secret_metadata WHERE secret_id IN (`+placeholders+`) ORDER BY position`,
		args...,
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
func (m *MySQLSecretRepository) Delete(ctx context.Context, secretID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE id = ?`, secretID.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to delete secret")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
