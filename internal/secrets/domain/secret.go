// Package domain defines the core domain models for secret management.
// Secret values are stored as encrypted blobs produced by the key hierarchy;
// this package never sees plaintext except in the transient Value field.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Secret represents an encrypted secret row with its tags and metadata.
type Secret struct {
	// ID is the unique identifier for this secret.
	ID uuid.UUID
	// ProjectID scopes the secret to a project.
	ProjectID uuid.UUID
	// FolderID optionally places the secret in a folder.
	FolderID *uuid.UUID
	// Key is the logical name used to access the secret (e.g., "DB_PASSWORD").
	Key string
	// KeyID references the hierarchy key used to encrypt this secret.
	KeyID uuid.UUID
	// EncryptedValue is the serialized encrypted blob of the secret value.
	EncryptedValue []byte
	// EncryptedComment is the serialized encrypted blob of the comment,
	// empty when no comment is set.
	EncryptedComment []byte
	// Version increments on every mutation of this row.
	Version uint
	// Tags are the labels attached to the secret.
	Tags []Tag
	// Metadata holds ordered key-value annotations.
	Metadata []MetadataEntry
	// Value holds the decrypted secret value in memory only; must be zeroed
	// after use.
	Value []byte `json:"-"`
	// Comment holds the decrypted comment in memory only.
	Comment []byte `json:"-"`
	// CreatedAt is the UTC timestamp when the secret was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last mutation.
	UpdatedAt time.Time
}

// Tag is a label attached to a secret.
type Tag struct {
	ID   uuid.UUID
	Name string
}

// MetadataEntry is a single key-value annotation on a secret.
type MetadataEntry struct {
	Key   string
	Value string
}

// ListQuery identifies a secret listing. Its signature feeds the cache key,
// so two queries with the same signature must be interchangeable.
type ListQuery struct {
	ProjectID uuid.UUID
	FolderID  *uuid.UUID
}

// Signature returns a stable string identifying the query shape.
func (q ListQuery) Signature() string {
	folder := "root"
	if q.FolderID != nil {
		folder = q.FolderID.String()
	}
	return fmt.Sprintf("list:%s:%s", q.ProjectID, folder)
}
