package dto

import (
	"encoding/base64"
	"time"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// KeyResponse represents a hierarchy key. Wrapped material never leaves the
// service.
type KeyResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	Intent      string    `json:"intent"`
	Algorithm   string    `json:"algorithm"`
	Type        string    `json:"type"`
	IsReserved  bool      `json:"is_reserved"`
	Version     uint      `json:"version"`
	ExternalRef string    `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EncryptResponse carries the encrypted blob.
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"` // Base64-encoded encrypted blob
}

// DecryptResponse carries the decrypted plaintext.
type DecryptResponse struct {
	Plaintext string `json:"plaintext"` // Base64-encoded plaintext
}

// SignResponse carries the signature.
type SignResponse struct {
	Signature string `json:"signature"` // Base64-encoded signature
}

// VerifyResponse reports signature validity.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// MapKeyResponse maps a domain key to its response form.
func MapKeyResponse(key *kmsDomain.Key) KeyResponse {
	response := KeyResponse{
		ID:          key.ID.String(),
		Intent:      string(key.Intent),
		Algorithm:   key.Algorithm,
		Type:        string(key.Type),
		IsReserved:  key.IsReserved,
		Version:     key.Version,
		ExternalRef: key.ExternalRef,
		CreatedAt:   key.CreatedAt,
	}
	if key.OrgID != nil {
		response.OrgID = key.OrgID.String()
	}
	if key.ProjectID != nil {
		response.ProjectID = key.ProjectID.String()
	}
	return response
}

// MapDecryptResponse base64-encodes the plaintext for transport.
func MapDecryptResponse(plaintext []byte) DecryptResponse {
	return DecryptResponse{Plaintext: base64.StdEncoding.EncodeToString(plaintext)}
}
