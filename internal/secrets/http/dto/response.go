package dto

import (
	"encoding/base64"
	"time"

	secretsDomain "github.com/keyloft/keyloft/internal/secrets/domain"
)

// MetadataEntryResponse is one ordered metadata pair of a secret.
type MetadataEntryResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SecretResponse represents a secret row without its plaintext. Listing
// responses never carry decrypted values.
type SecretResponse struct {
	ID        string                  `json:"id"`
	ProjectID string                  `json:"project_id"`
	FolderID  string                  `json:"folder_id,omitempty"`
	Key       string                  `json:"key"`
	Version   uint                    `json:"version"`
	Tags      []string                `json:"tags,omitempty"`
	Metadata  []MetadataEntryResponse `json:"metadata,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// SecretValueResponse extends SecretResponse with the decrypted value and
// comment, base64-encoded.
type SecretValueResponse struct {
	SecretResponse
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// ListSecretsResponse wraps a secret listing.
type ListSecretsResponse struct {
	Secrets []SecretResponse `json:"secrets"`
}

// MapSecretResponse maps a domain secret to its row representation.
func MapSecretResponse(secret *secretsDomain.Secret) SecretResponse {
	response := SecretResponse{
		ID:        secret.ID.String(),
		ProjectID: secret.ProjectID.String(),
		Key:       secret.Key,
		Version:   secret.Version,
		CreatedAt: secret.CreatedAt,
		UpdatedAt: secret.UpdatedAt,
	}
	if secret.FolderID != nil {
		response.FolderID = secret.FolderID.String()
	}
	for _, tag := range secret.Tags {
		response.Tags = append(response.Tags, tag.Name)
	}
	for _, entry := range secret.Metadata {
		response.Metadata = append(response.Metadata, MetadataEntryResponse{
			Key:   entry.Key,
			Value: entry.Value,
		})
	}
	return response
}

// MapSecretValueResponse maps a decrypted secret, base64-encoding the
// plaintext fields for transport.
func MapSecretValueResponse(secret *secretsDomain.Secret) SecretValueResponse {
	response := SecretValueResponse{
		SecretResponse: MapSecretResponse(secret),
		Value:          base64.StdEncoding.EncodeToString(secret.Value),
	}
	if len(secret.Comment) > 0 {
		response.Comment = base64.StdEncoding.EncodeToString(secret.Comment)
	}
	return response
}

// MapListSecretsResponse maps a listing to its response form.
func MapListSecretsResponse(secrets []*secretsDomain.Secret) ListSecretsResponse {
	response := ListSecretsResponse{Secrets: make([]SecretResponse, 0, len(secrets))}
	for _, secret := range secrets {
		response.Secrets = append(response.Secrets, MapSecretResponse(secret))
	}
	return response
}
