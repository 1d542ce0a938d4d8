package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyloft/keyloft/internal/authz"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	"github.com/keyloft/keyloft/internal/kms/http/dto"
	"github.com/keyloft/keyloft/internal/kms/http/mocks"
)

type denyAuthorizer struct{}

func (denyAuthorizer) Authorize(context.Context, authz.Actor, uuid.UUID, authz.Action, authz.Resource) error {
	return authz.Deny()
}

func setupTestKeyHandler(authorizer authz.Authorizer) (*KeyHandler, *mocks.MockKeyHierarchyUseCase) {
	gin.SetMode(gin.TestMode)
	mockUseCase := new(mocks.MockKeyHierarchyUseCase)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := NewKeyHandler(mockUseCase, authorizer, logger)
	return handler, mockUseCase
}

func testActor() authz.Actor {
	return authz.Actor{ID: uuid.New(), Username: "alice"}
}

func projectParams(projectID uuid.UUID) gin.Params {
	return gin.Params{{Key: "project_id", Value: projectID.String()}}
}

func keyParams(keyID uuid.UUID) gin.Params {
	return gin.Params{{Key: "key_id", Value: keyID.String()}}
}

func testKey(projectID uuid.UUID) *kmsDomain.Key {
	return &kmsDomain.Key{
		ID:         uuid.New(),
		ProjectID:  &projectID,
		Intent:     kmsDomain.IntentEncryptDecrypt,
		Algorithm:  string(kmsDomain.AESGCM),
		Type:       kmsDomain.KeyTypeInternal,
		IsReserved: true,
		Version:    1,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestKeyHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()
		key := testKey(projectID)

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))
		withActor(c, testActor())

		mockUseCase.On("ResolveOrCreateKey", c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.IntentEncryptDecrypt, "").
			Return(key, nil)

		handler.CreateHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.KeyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, key.ID.String(), response.ID)
		assert.Equal(t, projectID.String(), response.ProjectID)
		assert.Equal(t, "encrypt-decrypt", response.Intent)
		assert.True(t, response.IsReserved)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_PassesCallerAlgorithm", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()
		key := testKey(projectID)
		key.Algorithm = string(kmsDomain.ChaCha20)

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt", Algorithm: "chacha20-poly1305"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))
		withActor(c, testActor())

		mockUseCase.On("ResolveOrCreateKey", c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.IntentEncryptDecrypt, "chacha20-poly1305").
			Return(key, nil)

		handler.CreateHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("UnknownAlgorithmFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt", Algorithm: "des-ede3"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))
		withActor(c, testActor())

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveOrCreateKey")
	})

	t.Run("MissingActorIsUnauthorized", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveOrCreateKey")
	})

	t.Run("ForbiddenActorCannotManageKeys", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(denyAuthorizer{})
		projectID := uuid.New()

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))
		withActor(c, testActor())

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveOrCreateKey")
	})

	t.Run("UnknownIntentFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()

		body := dto.CreateKeyRequest{Intent: "wrap-unwrap"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys", body, projectParams(projectID))
		withActor(c, testActor())

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveOrCreateKey")
	})

	t.Run("InvalidProjectID", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})

		body := dto.CreateKeyRequest{Intent: "encrypt-decrypt"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/not-a-uuid/keys", body, gin.Params{{Key: "project_id", Value: "not-a-uuid"}})
		withActor(c, testActor())

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "ResolveOrCreateKey")
	})
}

func TestKeyHandler_RotateHandler(t *testing.T) {
	t.Run("Success_Returns201", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()
		key := testKey(projectID)
		key.Version = 2

		body := dto.RotateKeyRequest{Intent: "encrypt-decrypt"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/rotate", body, projectParams(projectID))
		withActor(c, testActor())

		mockUseCase.On("Rotate", c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.IntentEncryptDecrypt).
			Return(key, nil)

		handler.RotateHandler(c)

		require.Equal(t, http.StatusCreated, w.Code)
		var response dto.KeyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, uint(2), response.Version)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("ForbiddenMapsTo403", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(denyAuthorizer{})
		projectID := uuid.New()

		body := dto.RotateKeyRequest{Intent: "sign-verify"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/rotate", body, projectParams(projectID))
		withActor(c, testActor())

		handler.RotateHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertNotCalled(t, "Rotate")
	})
}

func TestKeyHandler_ImportHandler(t *testing.T) {
	t.Run("Success_DecodesMaterial", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()
		key := testKey(projectID)
		material := make([]byte, 32)
		for i := range material {
			material[i] = byte(i)
		}

		body := dto.ImportKeyRequest{
			Intent:    "encrypt-decrypt",
			Algorithm: "aes-gcm",
			Material:  base64.StdEncoding.EncodeToString(material),
		}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/import", body, projectParams(projectID))
		withActor(c, testActor())

		mockUseCase.On("ImportKeyMaterial", c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.IntentEncryptDecrypt, "aes-gcm", material).
			Return(key, nil)

		handler.ImportHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidBase64MaterialFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()

		body := dto.ImportKeyRequest{Intent: "encrypt-decrypt", Algorithm: "aes-gcm", Material: "!!!not-base64!!!"}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/import", body, projectParams(projectID))
		withActor(c, testActor())

		handler.ImportHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "ImportKeyMaterial")
	})
}

func TestKeyHandler_RegisterExternalHandler(t *testing.T) {
	t.Run("Success_Returns201", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()
		key := testKey(projectID)
		key.Type = kmsDomain.KeyTypeExternal
		key.ExternalRef = "gcpkms://projects/p/locations/l/keyRings/r/cryptoKeys/k"

		body := dto.RegisterExternalKeyRequest{Ref: key.ExternalRef}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/external", body, projectParams(projectID))
		withActor(c, testActor())

		mockUseCase.On("RegisterExternalKey", c.Request.Context(), kmsDomain.ProjectScope(projectID), key.ExternalRef).
			Return(key, nil)

		handler.RegisterExternalHandler(c)

		require.Equal(t, http.StatusCreated, w.Code)
		var response dto.KeyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, string(kmsDomain.KeyTypeExternal), response.Type)
		assert.Equal(t, key.ExternalRef, response.ExternalRef)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("BlankRefFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		projectID := uuid.New()

		body := dto.RegisterExternalKeyRequest{Ref: ""}
		c, w := createTestContext(http.MethodPost, "/v1/projects/"+projectID.String()+"/keys/external", body, projectParams(projectID))
		withActor(c, testActor())

		handler.RegisterExternalHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "RegisterExternalKey")
	})
}

func TestKeyHandler_EncryptHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		plaintext := []byte("hunter2")
		aad := []byte("project-context")
		ciphertext := []byte{0x01, 0xaa, 0xbb}

		body := dto.EncryptRequest{
			Plaintext: base64.StdEncoding.EncodeToString(plaintext),
			AAD:       base64.StdEncoding.EncodeToString(aad),
		}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/encrypt", body, keyParams(keyID))

		mockUseCase.On("Encrypt", c.Request.Context(), keyID, plaintext, aad).Return(ciphertext, nil)

		handler.EncryptHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.EncryptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, base64.StdEncoding.EncodeToString(ciphertext), response.Ciphertext)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("OmittedAADPassesNil", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		plaintext := []byte("hunter2")

		body := dto.EncryptRequest{Plaintext: base64.StdEncoding.EncodeToString(plaintext)}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/encrypt", body, keyParams(keyID))

		mockUseCase.On("Encrypt", c.Request.Context(), keyID, plaintext, []byte(nil)).Return([]byte{0x01}, nil)

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("InvalidKeyID", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})

		body := dto.EncryptRequest{Plaintext: "aHVudGVyMg=="}
		c, w := createTestContext(http.MethodPost, "/v1/keys/not-a-uuid/encrypt", body, gin.Params{{Key: "key_id", Value: "not-a-uuid"}})

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUseCase.AssertNotCalled(t, "Encrypt")
	})
}

func TestKeyHandler_DecryptHandler(t *testing.T) {
	t.Run("Success_ReturnsBase64Plaintext", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		ciphertext := []byte{0x01, 0xaa, 0xbb}

		body := dto.DecryptRequest{Ciphertext: base64.StdEncoding.EncodeToString(ciphertext)}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/decrypt", body, keyParams(keyID))

		mockUseCase.On("Decrypt", c.Request.Context(), keyID, ciphertext, []byte(nil)).
			Return([]byte("hunter2"), nil)

		handler.DecryptHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.DecryptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "aHVudGVyMg==", response.Plaintext)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("CryptoFailureMapsTo422WithoutDetail", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()

		body := dto.DecryptRequest{Ciphertext: "AaoB"}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/decrypt", body, keyParams(keyID))

		mockUseCase.On("Decrypt", c.Request.Context(), keyID, []byte{0x01, 0xaa, 0x01}, []byte(nil)).
			Return(nil, apperrors.Wrap(apperrors.ErrCrypto, "aad mismatch for key"))

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "decryption failed")
		assert.NotContains(t, w.Body.String(), "aad mismatch")
	})

	t.Run("UnknownKeyMapsTo404", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()

		body := dto.DecryptRequest{Ciphertext: "AaoB"}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/decrypt", body, keyParams(keyID))

		mockUseCase.On("Decrypt", c.Request.Context(), keyID, []byte{0x01, 0xaa, 0x01}, []byte(nil)).
			Return(nil, apperrors.Wrap(apperrors.ErrNotFound, "key not found"))

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestKeyHandler_SignHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		data := []byte("release-manifest")
		signature := []byte{0xde, 0xad}

		body := dto.SignRequest{Data: base64.StdEncoding.EncodeToString(data)}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/sign", body, keyParams(keyID))

		mockUseCase.On("Sign", c.Request.Context(), keyID, "", data).Return(signature, nil)

		handler.SignHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.SignResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, base64.StdEncoding.EncodeToString(signature), response.Signature)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_PassesCallerAlgorithm", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		data := []byte("release-manifest")

		body := dto.SignRequest{
			Data:      base64.StdEncoding.EncodeToString(data),
			Algorithm: "rsa-4096",
		}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/sign", body, keyParams(keyID))

		mockUseCase.On("Sign", c.Request.Context(), keyID, "rsa-4096", data).Return([]byte{0xde}, nil)

		handler.SignHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("UnknownAlgorithmFailsValidation", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()

		body := dto.SignRequest{Data: "aGVsbG8=", Algorithm: "dsa-1024"}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/sign", body, keyParams(keyID))

		handler.SignHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Sign")
	})

	t.Run("IntentMismatchMapsTo422", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()

		body := dto.SignRequest{Data: "aGVsbG8="}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/sign", body, keyParams(keyID))

		mockUseCase.On("Sign", c.Request.Context(), keyID, "", []byte("hello")).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "key intent does not allow signing"))

		handler.SignHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestKeyHandler_VerifyHandler(t *testing.T) {
	t.Run("ValidSignature", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		data := []byte("release-manifest")
		signature := []byte{0xde, 0xad}

		body := dto.VerifyRequest{
			Data:      base64.StdEncoding.EncodeToString(data),
			Signature: base64.StdEncoding.EncodeToString(signature),
		}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/verify", body, keyParams(keyID))

		mockUseCase.On("Verify", c.Request.Context(), keyID, "", data, signature).Return(true, nil)

		handler.VerifyHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Valid)
	})

	t.Run("BadSignatureReturnsValidFalse", func(t *testing.T) {
		handler, mockUseCase := setupTestKeyHandler(authz.AllowAll{})
		keyID := uuid.New()
		data := []byte("release-manifest")
		signature := []byte{0x00}

		body := dto.VerifyRequest{
			Data:      base64.StdEncoding.EncodeToString(data),
			Signature: base64.StdEncoding.EncodeToString(signature),
		}
		c, w := createTestContext(http.MethodPost, "/v1/keys/"+keyID.String()+"/verify", body, keyParams(keyID))

		mockUseCase.On("Verify", c.Request.Context(), keyID, "", data, signature).Return(false, nil)

		handler.VerifyHandler(c)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.VerifyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Valid)
	})
}
