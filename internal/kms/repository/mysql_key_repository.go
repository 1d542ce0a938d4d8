package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// MySQLKeyRepository implements Key persistence for MySQL databases.
type MySQLKeyRepository struct {
	db *sql.DB
}

// NewMySQLKeyRepository creates a new MySQL Key repository instance.
func NewMySQLKeyRepository(db *sql.DB) *MySQLKeyRepository {
	return &MySQLKeyRepository{db: db}
}

// Create inserts a new key row, mapping duplicate-entry errors to ErrConflict.
func (m *MySQLKeyRepository) Create(ctx context.Context, key *kmsDomain.Key) error {
	querier := database.GetTx(ctx, m.db)

	scopeType, scopeID := scopeColumns(key)

	query := `INSERT INTO kms_keys (id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		key.ID.String(),
		scopeType,
		scopeID.String(),
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
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create key")
	}
	return nil
}

// GetByID retrieves a key by its id.
func (m *MySQLKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*kmsDomain.Key, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at
			  FROM kms_keys
			  WHERE id = ?`

	return scanKey(querier.QueryRowContext(ctx, query, id.String()))
}

// GetReserved retrieves the newest reserved key for (scope, intent).
func (m *MySQLKeyRepository) GetReserved(
	ctx context.Context,
	scope kmsDomain.Scope,
	intent kmsDomain.KeyIntent,
) (*kmsDomain.Key, error) {
	querier := database.GetTx(ctx, m.db)

	scopeType, scopeID := scopeColumnsFromScope(scope)

	query := `SELECT id, scope_type, scope_id, intent, algorithm, key_type, is_reserved, version, wrapped_material, external_ref, created_at
			  FROM kms_keys
			  WHERE scope_type = ? AND scope_id = ? AND intent = ? AND is_reserved = TRUE
			  ORDER BY version DESC
			  LIMIT 1`

	return scanKey(querier.QueryRowContext(ctx, query, scopeType, scopeID.String(), intent))
}
