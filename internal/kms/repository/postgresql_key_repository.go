// Package repository implements persistence for managed keys.
// Repositories support both PostgreSQL and MySQL; insertion races on the
// reserved key are resolved by a uniqueness constraint, surfaced as
// ErrConflict so the caller can re-read the winner.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// PostgreSQLKeyRepository implements Key persistence for PostgreSQL databases.
type PostgreSQLKeyRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRepository creates a new PostgreSQL Key repository instance.
func NewPostgreSQLKeyRepository(db *sql.DB) *PostgreSQLKeyRepository {
	return &PostgreSQLKeyRepository{db: db}
}

// Create inserts a new key row. A duplicate reserved key for the same
// (scope, intent, version) returns ErrConflict.
func (p *PostgreSQLKeyRepository) Create(ctx context.Context, key *kmsDomain.Key) error {
	querier := database.GetTx(ctx, p.db)

	scopeType, scopeID := scopeColumns(key)

	query := `INSERT INTO kms_keys (id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID,
		scopeType,
		scopeID,
		key.Intent,
		key.Algorithm,
		key.Type,
		key.IsReserved,
		key.Version,
		key.WrappedMaterial,
		key.ExternalRef,
		key.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create key")
	}
	return nil
}

// GetByID retrieves a key by its id.
func (p *PostgreSQLKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*kmsDomain.Key, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at
			  FROM kms_keys
			  WHERE id = $1`

	return scanKey(querier.QueryRowContext(ctx, query, id))
}

// GetReserved retrieves the newest reserved key for (scope, intent).
func (p *PostgreSQLKeyRepository) GetReserved(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
) (*kmsDomain.Key, error) {
	querier := database.GetTx(ctx, p.db)

	scopeType, scopeID := scopeColumnsFromScope(scope)

	query := `SELECT id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at
			  FROM kms_keys
			  WHERE scope_type = $1 AND scope_id = $2 AND intent = $3 AND is_reserved = TRUE
			  ORDER BY version DESC
			  LIMIT 1`

	return scanKey(querier.QueryRowContext(ctx, query, scopeType, scopeID, intent))
}

// rowScanner abstracts *sql.Row for the shared mapping step.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanKey maps a key row into the domain entity, rebuilding the scope from
// the (scope_type, scope_id) columns.
func scanKey(row rowScanner) (*kmsDomain.Key, error) {
	var key kmsDomain.Key
	var scopeType string
	var scopeID uuid.UUID
	var wrapped []byte

	err := row.Scan(
		&key.ID,
		&scopeType,
		&scopeID,
		&key.Intent,
		&key.Algorithm,
		&key.Type,
		&key.IsReserved,
		&key.Version,
		&wrapped,
		&key.ExternalRef,
		&key.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, kmsDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key")
	}

	key.WrappedMaterial = wrapped
	if scopeType == "org" {
		key.OrgID = &scopeID
	} else {
		key.ProjectID = &scopeID
	}
	return &key, nil
}

func scopeColumns(key *kmsDomain.Key) (string, uuid.UUID) {
	return scopeColumnsFromScope(key.Scope())
}

func scopeColumnsFromScope(scope kmsDomain.Scope) (string, uuid.UUID) {
	if scope.OrgID != nil {
		return "org", *scope.OrgID
	}
	if scope.ProjectID != nil {
		return "project", *scope.ProjectID
	}
	return "project", uuid.Nil
}
