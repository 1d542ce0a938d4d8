// Package authz defines the authorization seam called before mutating or
// sensitive operations. The policy engine itself lives behind these
// interfaces; the core only consumes allow/deny decisions and principal
// lookups.
package authz

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/keyloft/keyloft/internal/errors"
)

// Action is the operation class being authorized.
type Action string

const (
	// ActionRead covers listing and reading resources.
	ActionRead Action = "read"
	// ActionEdit covers creating, updating, and deleting resources.
	ActionEdit Action = "edit"
)

// Resource names the resource class being authorized.
type Resource string

const (
	// ResourceSecrets covers secret rows and their listings.
	ResourceSecrets Resource = "secrets"
	// ResourceSSHHost covers SSH host registration and host identity.
	ResourceSSHHost Resource = "ssh-host"
	// ResourceKeys covers hierarchy key management.
	ResourceKeys Resource = "keys"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	// ID is the account identifier.
	ID uuid.UUID
	// Username is the login name principals are derived from.
	Username string
}

// Authorizer decides whether an actor may perform an action on a resource
// within a project. A deny returns ErrForbidden; the core performs no side
// effects after a deny.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, projectID uuid.UUID, action Action, resource Resource) error
}

// PrincipalDirectory resolves actor and user identity questions the SSH
// issuer needs: principal names for certificates and membership checks for
// login mappings.
type PrincipalDirectory interface {
	// PrincipalsFor returns the principal identifiers of the actor
	// (account-derived usernames).
	PrincipalsFor(ctx context.Context, actor Actor) ([]string, error)

	// UserExists reports whether a username names a known account.
	UserExists(ctx context.Context, username string) (bool, error)

	// HasProjectAccess reports whether the username currently holds access
	// to the project.
	HasProjectAccess(ctx context.Context, username string, projectID uuid.UUID) (bool, error)
}

// AllowAll is an Authorizer that permits everything. It backs deployments
// where policy enforcement happens at the routing layer.
type AllowAll struct{}

// Authorize always allows.
func (AllowAll) Authorize(context.Context, Actor, uuid.UUID, Action, Resource) error {
	return nil
}

// Deny is a helper for policy implementations: it returns ErrForbidden
// without revealing whether the resource exists.
func Deny() error {
	return apperrors.ErrForbidden
}

// SelfDirectory is a PrincipalDirectory that trusts the forwarded identity:
// the actor's only principal is their username, and every username with a
// mapping is assumed to exist with project access. It backs deployments
// where account management lives in the fronting layer.
type SelfDirectory struct{}

// PrincipalsFor returns the actor's username as the sole principal.
func (SelfDirectory) PrincipalsFor(_ context.Context, actor Actor) ([]string, error) {
	return []string{actor.Username}, nil
}

// UserExists always reports true.
func (SelfDirectory) UserExists(context.Context, string) (bool, error) {
	return true, nil
}

// HasProjectAccess always reports true.
func (SelfDirectory) HasProjectAccess(context.Context, string, uuid.UUID) (bool, error) {
	return true, nil
}
