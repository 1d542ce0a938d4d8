package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keyloft/keyloft/internal/errors"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

func secretColumns() []string {
	return []string{
		"id", "project_id", "folder_id", "secret_key", "key_id",
		"encrypted_value", "encrypted_comment", "version", "created_at", "updated_at",
	}
}

func TestPostgreSQLSecretRepository_Create(t *testing.T) {
	t.Run("Success_WithTagsAndMetadata", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		secret := &secretsDomain.Secret{
			ID:             uuid.Must(uuid.NewV7()),
			ProjectID:      uuid.Must(uuid.NewV7()),
			Key:            "DB_PASSWORD",
			KeyID:          uuid.Must(uuid.NewV7()),
			EncryptedValue: []byte("ciphertext"),
			Version:        1,
			Tags:           []secretsDomain.Tag{{ID: uuid.Must(uuid.NewV7()), Name: "prod"}},
			Metadata:       []secretsDomain.MetadataEntry{{Key: "owner", Value: "platform"}},
			CreatedAt:      time.Now().UTC(),
			UpdatedAt:      time.Now().UTC(),
		}

		mock.ExpectExec("INSERT INTO secrets").
			WithArgs(
				secret.ID, secret.ProjectID, uuid.Nil, secret.Key, secret.KeyID,
				secret.EncryptedValue, secret.EncryptedComment, secret.Version,
				secret.CreatedAt, secret.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO secret_tags").
			WithArgs(secret.Tags[0].ID, secret.ID, "prod").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO secret_metadata").
			WithArgs(secret.ID, 0, "owner", "platform").
			WillReturnResult(sqlmock.NewResult(1, 1))

		repo := NewPostgreSQLSecretRepository(db)
		require.NoError(t, repo.Create(context.Background(), secret))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DuplicateKeyMapsToConflict", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("INSERT INTO secrets").
			WillReturnError(&pq.Error{Code: "23505"})

		repo := NewPostgreSQLSecretRepository(db)
		err = repo.Create(context.Background(), &secretsDomain.Secret{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: uuid.Must(uuid.NewV7()),
			Key:       "DB_PASSWORD",
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestPostgreSQLSecretRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	projectID := uuid.Must(uuid.NewV7())
	folderID := uuid.Must(uuid.NewV7())
	firstID := uuid.Must(uuid.NewV7())
	secondID := uuid.Must(uuid.NewV7())
	keyID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM secrets").
		WithArgs(projectID, folderID).
		WillReturnRows(sqlmock.NewRows(secretColumns()).
			AddRow(firstID, projectID, folderID, "API_KEY", keyID, []byte("c1"), []byte(nil), 1, now, now).
			AddRow(secondID, projectID, folderID, "DB_PASSWORD", keyID, []byte("c2"), []byte(nil), 3, now, now))
	mock.ExpectQuery("SELECT (.+) FROM secret_tags").
		WillReturnRows(sqlmock.NewRows([]string{"secret_id", "id", "name"}).
			AddRow(secondID, uuid.Must(uuid.NewV7()), "prod"))
	mock.ExpectQuery("SELECT (.+) FROM secret_metadata").
		WillReturnRows(sqlmock.NewRows([]string{"secret_id", "meta_key", "meta_value"}).
			AddRow(firstID, "owner", "platform").
			AddRow(firstID, "rotation", "quarterly"))

	repo := NewPostgreSQLSecretRepository(db)
	secrets, err := repo.List(context.Background(), secretsDomain.ListQuery{
		ProjectID: projectID,
		FolderID:  &folderID,
	})

	require.NoError(t, err)
	require.Len(t, secrets, 2)

	assert.Equal(t, "API_KEY", secrets[0].Key)
	require.NotNil(t, secrets[0].FolderID)
	assert.Equal(t, folderID, *secrets[0].FolderID)
	assert.Empty(t, secrets[0].Tags)
	require.Len(t, secrets[0].Metadata, 2)
	assert.Equal(t, "owner", secrets[0].Metadata[0].Key)

	assert.Equal(t, "DB_PASSWORD", secrets[1].Key)
	require.Len(t, secrets[1].Tags, 1)
	assert.Equal(t, "prod", secrets[1].Tags[0].Name)
	assert.Empty(t, secrets[1].Metadata)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSecretRepository_GetByKey_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM secrets").
		WillReturnRows(sqlmock.NewRows(secretColumns()))

	repo := NewPostgreSQLSecretRepository(db)
	_, err = repo.GetByKey(context.Background(), uuid.Must(uuid.NewV7()), nil, "MISSING")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgreSQLSecretRepository_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		secretID := uuid.Must(uuid.NewV7())
		mock.ExpectExec("DELETE FROM secrets").
			WithArgs(secretID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLSecretRepository(db)
		assert.NoError(t, repo.Delete(context.Background(), secretID))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("DELETE FROM secrets").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgreSQLSecretRepository(db)
		err = repo.Delete(context.Background(), uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
