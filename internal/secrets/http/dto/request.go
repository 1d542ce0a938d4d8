// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// MetadataEntryRequest is one ordered metadata pair of a secret write.
type MetadataEntryRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validate checks if the metadata entry is valid.
func (r MetadataEntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// WriteSecretRequest contains the parameters for creating or updating a secret.
// Metadata entries keep their request order.
type WriteSecretRequest struct {
	FolderID string                 `json:"folder_id,omitempty"` // Optional folder UUID
	Value    string                 `json:"value"`               // Base64-encoded secret value
	Comment  string                 `json:"comment,omitempty"`   // Base64-encoded comment
	Tags     []string               `json:"tags,omitempty"`
	Metadata []MetadataEntryRequest `json:"metadata,omitempty"`
}

// Validate checks if the write secret request is valid.
func (r *WriteSecretRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FolderID,
			validation.When(r.FolderID != "", customValidation.UUID),
		),
		validation.Field(&r.Value,
			validation.Required,
			customValidation.Base64,
		),
		validation.Field(&r.Comment,
			customValidation.Base64,
		),
		validation.Field(&r.Tags,
			validation.Each(customValidation.NotBlank, validation.Length(1, 255)),
		),
		validation.Field(&r.Metadata),
	)
}
