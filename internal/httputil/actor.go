package httputil

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	apperrors "github.com/keyloft/keyloft/internal/errors"
)

// Actor identity headers. Authentication happens at the fronting layer; it
// forwards the verified identity in these headers.
const (
	HeaderActorID       = "X-Actor-Id"
	HeaderActorUsername = "X-Actor-Username"
)

// ActorFromGin extracts the authenticated actor from the request headers.
// Requests without a complete identity are rejected as unauthorized.
func ActorFromGin(c *gin.Context) (authz.Actor, error) {
	rawID := c.GetHeader(HeaderActorID)
	username := c.GetHeader(HeaderActorUsername)
	if rawID == "" || username == "" {
		return authz.Actor{}, apperrors.Wrap(apperrors.ErrUnauthorized, "missing actor identity")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return authz.Actor{}, apperrors.Wrap(apperrors.ErrUnauthorized, "malformed actor id")
	}

	return authz.Actor{ID: id, Username: username}, nil
}
