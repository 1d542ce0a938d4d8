package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scope identifies the owner of a key: exactly one of an organization or a
// project.
type Scope struct {
	OrgID     *uuid.UUID
	ProjectID *uuid.UUID
}

// OrgScope returns a Scope owned by the given organization.
func OrgScope(orgID uuid.UUID) Scope {
	return Scope{OrgID: &orgID}
}

// ProjectScope returns a Scope owned by the given project.
func ProjectScope(projectID uuid.UUID) Scope {
	return Scope{ProjectID: &projectID}
}

// Validate checks that exactly one owner is set.
func (s Scope) Validate() error {
	if (s.OrgID == nil) == (s.ProjectID == nil) {
		return ErrInvalidScope
	}
	return nil
}

// Key represents a managed key in the hierarchy. Internal keys carry their
// material wrapped under the root key; external keys carry only a provider
// reference. Exactly one reserved key exists per (scope, intent) pair.
type Key struct {
	// ID is the unique identifier for this key.
	ID uuid.UUID
	// OrgID is set for organization-scoped keys.
	OrgID *uuid.UUID
	// ProjectID is set for project-scoped keys.
	ProjectID *uuid.UUID
	// Intent declares the allowed operations (encrypt-decrypt or sign-verify).
	Intent KeyIntent
	// Algorithm is the AEAD or signature algorithm, depending on intent.
	Algorithm string
	// Type distinguishes internal (wrapped locally) from external (delegated).
	Type KeyType
	// IsReserved marks the default key for its (scope, intent) pair.
	IsReserved bool
	// Version increments on rotation; prior versions stay decryptable.
	Version uint
	// WrappedMaterial is the key material encrypted under the root key.
	// Nil for external keys. No entity other than Key rows may persist
	// plaintext material.
	WrappedMaterial []byte
	// ExternalRef is the provider key URI for external keys.
	ExternalRef string
	// CreatedAt is the UTC timestamp when the key row was created.
	CreatedAt time.Time
}

// Scope returns the key's owning scope.
func (k *Key) Scope() Scope {
	return Scope{OrgID: k.OrgID, ProjectID: k.ProjectID}
}
