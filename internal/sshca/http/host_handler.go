// Package http provides HTTP handlers for SSH host registration and
// certificate issuance.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/httputil"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	"github.com/keyloft/keyloft/internal/sshca/http/dto"
	sshcaUseCase "github.com/keyloft/keyloft/internal/sshca/usecase"
	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// HostHandler handles HTTP requests for SSH hosts and certificates.
type HostHandler struct {
	sshUseCase sshcaUseCase.SSHUseCase
	logger     *slog.Logger
}

// NewHostHandler creates a new host handler with required dependencies.
func NewHostHandler(sshUseCase sshcaUseCase.SSHUseCase, logger *slog.Logger) *HostHandler {
	return &HostHandler{
		sshUseCase: sshUseCase,
		logger:     logger,
	}
}

// CreateHandler registers a host with its login mappings.
// POST /v1/projects/:project_id/ssh/hosts
func (h *HostHandler) CreateHandler(c *gin.Context) {
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

	var req dto.CreateHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	mappings := make([]sshcaUseCase.LoginMappingInput, len(req.LoginMappings))
	for i, mapping := range req.LoginMappings {
		mappings[i] = sshcaUseCase.LoginMappingInput{
			LoginUser:         mapping.LoginUser,
			AllowedPrincipals: mapping.AllowedPrincipals,
		}
	}

	host, err := h.sshUseCase.CreateHost(c.Request.Context(), actor, sshcaUseCase.CreateHostInput{
		ProjectID:     projectID,
		Hostname:      req.Hostname,
		UserCertTTL:   time.Duration(req.UserCertTTLSeconds) * time.Second,
		HostCertTTL:   time.Duration(req.HostCertTTLSeconds) * time.Second,
		LoginMappings: mappings,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapHostResponse(host))
}

// GetHandler returns a host with its login mappings.
// GET /v1/ssh/hosts/:host_id
func (h *HostHandler) GetHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	hostID, err := parseHostID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	host, err := h.sshUseCase.GetHost(c.Request.Context(), actor, hostID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapHostResponse(host))
}

// ListHandler returns the project's hosts.
// GET /v1/projects/:project_id/ssh/hosts
func (h *HostHandler) ListHandler(c *gin.Context) {
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

	hosts, err := h.sshUseCase.ListHosts(c.Request.Context(), actor, projectID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListHostsResponse(hosts))
}

// IssueUserCertHandler issues a short-lived user certificate for logging in
// to the host. The response is the only copy of the private key.
// POST /v1/ssh/hosts/:host_id/certificates/user
func (h *HostHandler) IssueUserCertHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	hostID, err := parseHostID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.IssueUserCertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issued, err := h.sshUseCase.IssueUserCertificate(c.Request.Context(), actor, hostID, req.LoginUser)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer kmsDomain.Zero(issued.PrivateKeyPEM)

	c.JSON(http.StatusCreated, dto.MapIssuedCertificateResponse(issued))
}

// IssueHostCertHandler signs the host's own public key for host
// authentication.
// POST /v1/ssh/hosts/:host_id/certificates/host
func (h *HostHandler) IssueHostCertHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	hostID, err := parseHostID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.IssueHostCertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issued, err := h.sshUseCase.IssueHostCertificate(c.Request.Context(), actor, hostID, []byte(req.PublicKey))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuedCertificateResponse(issued))
}

// ListCertificatesHandler returns the host's issuance audit records.
// GET /v1/ssh/hosts/:host_id/certificates
func (h *HostHandler) ListCertificatesHandler(c *gin.Context) {
	actor, err := httputil.ActorFromGin(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	hostID, err := parseHostID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	certs, err := h.sshUseCase.ListCertificates(c.Request.Context(), actor, hostID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListCertificatesResponse(certs))
}

// parseProjectID extracts the project id URL parameter.
func parseProjectID(c *gin.Context) (uuid.UUID, error) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project_id: %w", err)
	}
	return projectID, nil
}

// parseHostID extracts the host id URL parameter.
func parseHostID(c *gin.Context) (uuid.UUID, error) {
	hostID, err := uuid.Parse(c.Param("host_id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid host_id: %w", err)
	}
	return hostID, nil
}
