// Package http provides HTTP handlers for secret management operations.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/httputil"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
	"github.com/keyloft/keyloft/internal/secrets/http/dto"
	secretsUseCase "github.com/keyloft/keyloft/internal/secrets/usecase"
	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// SecretHandler handles HTTP requests for secret management operations.
type SecretHandler struct {
	secretUseCase secretsUseCase.SecretUseCase
	logger        *slog.Logger
}

// NewSecretHandler creates a new secret handler with required dependencies.
func NewSecretHandler(secretUseCase secretsUseCase.SecretUseCase, logger *slog.Logger) *SecretHandler {
	return &SecretHandler{
		secretUseCase: secretUseCase,
		logger:        logger,
	}
}

// ListHandler lists the secrets of a project, optionally scoped to a folder.
// GET /v1/projects/:project_id/secrets - Values stay encrypted in listings.
func (h *SecretHandler) ListHandler(c *gin.Context) {
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

	folderID, err := parseFolderID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	secrets, err := h.secretUseCase.List(c.Request.Context(), actor, secretsDomain.ListQuery{
		ProjectID: projectID,
		FolderID:  folderID,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListSecretsResponse(secrets))
}

// GetHandler retrieves and decrypts a single secret.
// GET /v1/projects/:project_id/secrets/:key - Plaintext is zeroed after the response.
func (h *SecretHandler) GetHandler(c *gin.Context) {
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

	folderID, err := parseFolderID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	secret, err := h.secretUseCase.Get(c.Request.Context(), actor, projectID, folderID, c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	defer kmsDomain.Zero(secret.Value)
	defer kmsDomain.Zero(secret.Comment)

	c.JSON(http.StatusOK, dto.MapSecretValueResponse(secret))
}

// WriteHandler creates a secret or rewrites it with a bumped version.
// PUT /v1/projects/:project_id/secrets/:key
func (h *SecretHandler) WriteHandler(c *gin.Context) {
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

	var req dto.WriteSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input, err := mapWriteInput(projectID, c.Param("key"), &req)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	secret, err := h.secretUseCase.CreateOrUpdate(c.Request.Context(), actor, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if secret.Version == 1 {
		status = http.StatusCreated
	}
	c.JSON(status, dto.MapSecretResponse(secret))
}

// DeleteHandler removes a secret.
// DELETE /v1/projects/:project_id/secrets/:key
func (h *SecretHandler) DeleteHandler(c *gin.Context) {
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

	folderID, err := parseFolderID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	err = h.secretUseCase.Delete(c.Request.Context(), actor, projectID, folderID, c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// mapWriteInput decodes the request payload into a use case input.
func mapWriteInput(projectID uuid.UUID, key string, req *dto.WriteSecretRequest) (secretsUseCase.CreateSecretInput, error) {
	input := secretsUseCase.CreateSecretInput{
		ProjectID: projectID,
		Key:       key,
		Tags:      req.Tags,
	}

	if req.FolderID != "" {
		folderID, err := uuid.Parse(req.FolderID)
		if err != nil {
			return input, fmt.Errorf("invalid folder_id: %w", err)
		}
		input.FolderID = &folderID
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		return input, fmt.Errorf("invalid base64 value: %w", err)
	}
	input.Value = value

	if req.Comment != "" {
		comment, err := base64.StdEncoding.DecodeString(req.Comment)
		if err != nil {
			return input, fmt.Errorf("invalid base64 comment: %w", err)
		}
		input.Comment = comment
	}

	for _, entry := range req.Metadata {
		input.Metadata = append(input.Metadata, secretsDomain.MetadataEntry{
			Key:   entry.Key,
			Value: entry.Value,
		})
	}

	return input, nil
}

// parseProjectID extracts the project id URL parameter.
func parseProjectID(c *gin.Context) (uuid.UUID, error) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project_id: %w", err)
	}
	return projectID, nil
}

// parseFolderID extracts the optional folder_id query parameter.
func parseFolderID(c *gin.Context) (*uuid.UUID, error) {
	raw := c.Query("folder_id")
	if raw == "" {
		return nil, nil
	}
	folderID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid folder_id: %w", err)
	}
	return &folderID, nil
}
