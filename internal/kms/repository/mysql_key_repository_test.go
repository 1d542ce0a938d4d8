package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

func TestMySQLKeyRepository_Create_DuplicateEntryMapsToConflict(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO kms_keys").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	orgID := uuid.Must(uuid.NewV7())
	repo := NewMySQLKeyRepository(db)
	err = repo.Create(context.Background(), &kmsDomain.Key{
		ID:        uuid.Must(uuid.NewV7()),
		OrgID:     &orgID,
		Intent:    kmsDomain.IntentSignVerify,
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMySQLKeyRepository_GetReserved_Found(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	keyID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	rows := sqlmock.NewRows(keyColumns()).AddRow(
		keyID.String(), "org", orgID.String(), "sign-verify", "ed25519", "internal",
		true, 1, []byte("wrapped"), "", now,
	)
	mock.ExpectQuery("SELECT (.+) FROM kms_keys").
		WithArgs("org", orgID.String(), kmsDomain.IntentSignVerify).
		WillReturnRows(rows)

	repo := NewMySQLKeyRepository(db)
	key, err := repo.GetReserved(
		context.Background(),
		kmsDomain.OrgScope(orgID),
		kmsDomain.IntentSignVerify,
	)
	require.NoError(t, err)
	assert.Equal(t, keyID, key.ID)
	require.NotNil(t, key.OrgID)
	assert.Equal(t, orgID, *key.OrgID)
	assert.Nil(t, key.ProjectID)
}
