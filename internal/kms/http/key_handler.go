// Package http provides HTTP handlers for key hierarchy management and
// cryptographic operations by key id.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	"github.com/keyloft/keyloft/internal/httputil"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	"github.com/keyloft/keyloft/internal/kms/http/dto"
	kmsUseCase "github.com/keyloft/keyloft/internal/kms/usecase"
	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// KeyHandler handles HTTP requests for key hierarchy operations.
// Project-scoped management endpoints are gated by the authorizer; the
// by-key-id crypto endpoints enforce intent inside the use case.
type KeyHandler struct {
	keyHierarchy kmsUseCase.KeyHierarchyUseCase
	authorizer   authz.Authorizer
	logger       *slog.Logger
}

// NewKeyHandler creates a new key handler with required dependencies.
func NewKeyHandler(
	keyHierarchy kmsUseCase.KeyHierarchyUseCase,
	authorizer authz.Authorizer,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		keyHierarchy: keyHierarchy,
		authorizer:   authorizer,
		logger:       logger,
	}
}

// CreateHandler resolves or creates the reserved key for the project scope.
// POST /v1/projects/:project_id/keys
func (h *KeyHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateKeyRequest
	projectID, intent, ok := h.managementRequest(c, func() (string, error) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", err
		}
		if err := req.Validate(); err != nil {
			return "", customValidation.WrapValidationError(err)
		}
		return req.Intent, nil
	})
	if !ok {
		return
	}

	key, err := h.keyHierarchy.ResolveOrCreateKey(c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.KeyIntent(intent), req.Algorithm)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapKeyResponse(key))
}

// RotateHandler inserts a new version of the reserved key.
// POST /v1/projects/:project_id/keys/rotate
func (h *KeyHandler) RotateHandler(c *gin.Context) {
	projectID, intent, ok := h.managementRequest(c, func() (string, error) {
		var req dto.RotateKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", err
		}
		if err := req.Validate(); err != nil {
			return "", customValidation.WrapValidationError(err)
		}
		return req.Intent, nil
	})
	if !ok {
		return
	}

	key, err := h.keyHierarchy.Rotate(c.Request.Context(), kmsDomain.ProjectScope(projectID), kmsDomain.KeyIntent(intent))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapKeyResponse(key))
}

// ImportHandler registers caller-supplied key material under the project.
// POST /v1/projects/:project_id/keys/import
func (h *KeyHandler) ImportHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.authorizer.Authorize(c.Request.Context(), actor, projectID, authz.ActionEdit, authz.ResourceKeys); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.ImportKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	material, err := base64.StdEncoding.DecodeString(req.Material)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 material: %w", err), h.logger)
		return
	}
	defer kmsDomain.Zero(material)

	key, err := h.keyHierarchy.ImportKeyMaterial(
		c.Request.Context(),
		kmsDomain.ProjectScope(projectID),
		kmsDomain.KeyIntent(req.Intent),
		req.Algorithm,
		material,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapKeyResponse(key))
}

// RegisterExternalHandler registers a provider-managed key by reference.
// POST /v1/projects/:project_id/keys/external
func (h *KeyHandler) RegisterExternalHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.authorizer.Authorize(c.Request.Context(), actor, projectID, authz.ActionEdit, authz.ResourceKeys); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.RegisterExternalKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	key, err := h.keyHierarchy.RegisterExternalKey(c.Request.Context(), kmsDomain.ProjectScope(projectID), req.Ref)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapKeyResponse(key))
}

// EncryptHandler encrypts plaintext under the key.
// POST /v1/keys/:key_id/encrypt
func (h *KeyHandler) EncryptHandler(c *gin.Context) {
	keyID, err := parseKeyID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.EncryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 plaintext: %w", err), h.logger)
		return
	}
	defer kmsDomain.Zero(plaintext)

	aad, err := decodeAAD(req.AAD)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	ciphertext, err := h.keyHierarchy.Encrypt(c.Request.Context(), keyID, plaintext, aad)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EncryptResponse{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
}

// DecryptHandler decrypts an encrypted blob.
// POST /v1/keys/:key_id/decrypt - Plaintext is zeroed after the response.
func (h *KeyHandler) DecryptHandler(c *gin.Context) {
	keyID, err := parseKeyID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.DecryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ciphertext, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 ciphertext: %w", err), h.logger)
		return
	}

	aad, err := decodeAAD(req.AAD)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	plaintext, err := h.keyHierarchy.Decrypt(c.Request.Context(), keyID, ciphertext, aad)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer kmsDomain.Zero(plaintext)

	c.JSON(http.StatusOK, dto.MapDecryptResponse(plaintext))
}

// SignHandler signs data with the key's signature scheme.
// POST /v1/keys/:key_id/sign
func (h *KeyHandler) SignHandler(c *gin.Context) {
	keyID, err := parseKeyID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 data: %w", err), h.logger)
		return
	}

	signature, err := h.keyHierarchy.Sign(c.Request.Context(), keyID, req.Algorithm, data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SignResponse{
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
}

// VerifyHandler reports whether a signature is valid.
// POST /v1/keys/:key_id/verify - A bad signature returns valid=false, not an error.
func (h *KeyHandler) VerifyHandler(c *gin.Context) {
	keyID, err := parseKeyID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 data: %w", err), h.logger)
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 signature: %w", err), h.logger)
		return
	}

	valid, err := h.keyHierarchy.Verify(c.Request.Context(), keyID, req.Algorithm, data, signature)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{Valid: valid})
}

// managementRequest factors the shared actor, project, authorize, and bind
// steps of the management endpoints.
func (h *KeyHandler) managementRequest(c *gin.Context, bind func() (string, error)) (uuid.UUID, string, bool) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return uuid.Nil, "", false
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return uuid.Nil, "", false
	}

	if err := h.authorizer.Authorize(c.Request.Context(), actor, projectID, authz.ActionEdit, authz.ResourceKeys); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return uuid.Nil, "", false
	}

	intent, err := bind()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			httputil.HandleValidationErrorGin(c, err, h.logger)
		} else {
			httputil.HandleBadRequestGin(c, err, h.logger)
		}
		return uuid.Nil, "", false
	}

	return projectID, intent, true
}

// parseProjectID extracts the project id URL parameter.
func parseProjectID(c *gin.Context) (uuid.UUID, error) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project_id: %w", err)
	}
	return projectID, nil
}

// parseKeyID extracts the key id URL parameter.
func parseKeyID(c *gin.Context) (uuid.UUID, error) {
	keyID, err := uuid.Parse(c.Param("key_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid key_id: %w", err)
	}
	return keyID, nil
}

// decodeAAD decodes the optional associated-data field.
func decodeAAD(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}
	aad, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 aad: %w", err)
	}
	return aad, nil
}
