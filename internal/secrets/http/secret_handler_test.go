package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keyloft/keyloft/internal/authz"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
	"github.com/keyloft/keyloft/internal/secrets/http/dto"
	"github.com/keyloft/keyloft/internal/secrets/http/mocks"
	secretsUseCase "github.com/keyloft/keyloft/internal/secrets/usecase"
)

// setupTestSecretHandler creates a test handler with mocked dependencies.
func setupTestSecretHandler(t *testing.T) (*SecretHandler, *mocks.MockSecretUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockSecretUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewSecretHandler(mockUseCase, logger), mockUseCase
}

func projectParams(projectID uuid.UUID, key string) gin.Params {
	params := gin.Params{{Key: "project_id", Value: projectID.String()}}
	if key != "" {
		params = append(params, gin.Param{Key: "key", Value: key})
	}
	return params
}

func TestSecretHandler_ListHandler(t *testing.T) {
	actor := authz.Actor{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()

		rows := []*secretsDomain.Secret{
			{
				ID:        uuid.Must(uuid.NewV7()),
				ProjectID: projectID,
				Key:       "DB_PASSWORD",
				Version:   3,
				Tags:      []secretsDomain.Tag{{ID: uuid.Must(uuid.NewV7()), Name: "prod"}},
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		mockUseCase.On("List", mock.Anything, actor, secretsDomain.ListQuery{ProjectID: projectID}).
			Return(rows, nil)

		c, w := createTestContext(http.MethodGet, "/v1/projects/"+projectID.String()+"/secrets", nil, projectParams(projectID, ""))
		withActor(c, actor)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListSecretsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Secrets, 1)
		assert.Equal(t, "DB_PASSWORD", response.Secrets[0].Key)
		assert.Equal(t, uint(3), response.Secrets[0].Version)
		assert.Equal(t, []string{"prod"}, response.Secrets[0].Tags)
	})

	t.Run("MissingActorIsUnauthorized", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodGet, "/v1/projects/"+projectID.String()+"/secrets", nil, projectParams(projectID, ""))

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidProjectID", func(t *testing.T) {
		handler, _ := setupTestSecretHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/projects/nope/secrets", nil, gin.Params{{Key: "project_id", Value: "nope"}})
		withActor(c, actor)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ForbiddenMapsTo403", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("List", mock.Anything, actor, mock.Anything).
			Return(nil, apperrors.ErrForbidden)

		c, w := createTestContext(http.MethodGet, "/v1/projects/"+projectID.String()+"/secrets", nil, projectParams(projectID, ""))
		withActor(c, actor)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSecretHandler_GetHandler(t *testing.T) {
	actor := authz.Actor{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

	t.Run("Success_ReturnsBase64Plaintext", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()

		secret := &secretsDomain.Secret{
			ID:        uuid.Must(uuid.NewV7()),
			ProjectID: projectID,
			Key:       "DB_PASSWORD",
			Version:   1,
			Value:     []byte("hunter2"),
			Comment:   []byte("rotate monthly"),
			CreatedAt: now,
			UpdatedAt: now,
		}
		mockUseCase.On("Get", mock.Anything, actor, projectID, (*uuid.UUID)(nil), "DB_PASSWORD").
			Return(secret, nil)

		c, w := createTestContext(http.MethodGet, "/v1/projects/"+projectID.String()+"/secrets/DB_PASSWORD", nil, projectParams(projectID, "DB_PASSWORD"))
		withActor(c, actor)

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SecretValueResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "aHVudGVyMg==", response.Value)
		assert.Equal(t, "cm90YXRlIG1vbnRobHk=", response.Comment)
	})

	t.Run("NotFoundMapsTo404", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Get", mock.Anything, actor, projectID, (*uuid.UUID)(nil), "MISSING").
			Return(nil, apperrors.ErrNotFound)

		c, w := createTestContext(http.MethodGet, "/v1/projects/"+projectID.String()+"/secrets/MISSING", nil, projectParams(projectID, "MISSING"))
		withActor(c, actor)

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSecretHandler_WriteHandler(t *testing.T) {
	actor := authz.Actor{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

	t.Run("Create_Returns201", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()

		request := dto.WriteSecretRequest{
			Value: "aHVudGVyMg==",
			Tags:  []string{"prod"},
			Metadata: []dto.MetadataEntryRequest{
				{Key: "owner", Value: "platform"},
			},
		}

		var captured secretsUseCase.CreateSecretInput
		mockUseCase.On("CreateOrUpdate", mock.Anything, actor, mock.AnythingOfType("usecase.CreateSecretInput")).
			Run(func(args mock.Arguments) {
				captured = args.Get(2).(secretsUseCase.CreateSecretInput)
			}).
			Return(&secretsDomain.Secret{
				ID:        uuid.Must(uuid.NewV7()),
				ProjectID: projectID,
				Key:       "DB_PASSWORD",
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil)

		c, w := createTestContext(http.MethodPut, "/v1/projects/"+projectID.String()+"/secrets/DB_PASSWORD", request, projectParams(projectID, "DB_PASSWORD"))
		withActor(c, actor)

		handler.WriteHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, []byte("hunter2"), captured.Value)
		assert.Equal(t, []string{"prod"}, captured.Tags)
		require.Len(t, captured.Metadata, 1)
		assert.Equal(t, "owner", captured.Metadata[0].Key)
	})

	t.Run("Update_Returns200", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())
		now := time.Now().UTC()

		request := dto.WriteSecretRequest{Value: "aHVudGVyMg=="}
		mockUseCase.On("CreateOrUpdate", mock.Anything, actor, mock.AnythingOfType("usecase.CreateSecretInput")).
			Return(&secretsDomain.Secret{
				ID:        uuid.Must(uuid.NewV7()),
				ProjectID: projectID,
				Key:       "DB_PASSWORD",
				Version:   4,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil)

		c, w := createTestContext(http.MethodPut, "/v1/projects/"+projectID.String()+"/secrets/DB_PASSWORD", request, projectParams(projectID, "DB_PASSWORD"))
		withActor(c, actor)

		handler.WriteHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidBase64ValueFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		request := dto.WriteSecretRequest{Value: "not base64!!!"}

		c, w := createTestContext(http.MethodPut, "/v1/projects/"+projectID.String()+"/secrets/DB_PASSWORD", request, projectParams(projectID, "DB_PASSWORD"))
		withActor(c, actor)

		handler.WriteHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSecretHandler_DeleteHandler(t *testing.T) {
	actor := authz.Actor{ID: uuid.Must(uuid.NewV7()), Username: "alice"}

	t.Run("Success_Returns204", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Delete", mock.Anything, actor, projectID, (*uuid.UUID)(nil), "DB_PASSWORD").
			Return(nil)

		c, w := createTestContext(http.MethodDelete, "/v1/projects/"+projectID.String()+"/secrets/DB_PASSWORD", nil, projectParams(projectID, "DB_PASSWORD"))
		withActor(c, actor)

		handler.DeleteHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestSecretHandler(t)
		projectID := uuid.Must(uuid.NewV7())

		mockUseCase.On("Delete", mock.Anything, actor, projectID, (*uuid.UUID)(nil), "MISSING").
			Return(apperrors.ErrNotFound)

		c, w := createTestContext(http.MethodDelete, "/v1/projects/"+projectID.String()+"/secrets/MISSING", nil, projectParams(projectID, "MISSING"))
		withActor(c, actor)

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
