// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// CreateKeyRequest contains the parameters for resolving or creating a
// reserved key.
type CreateKeyRequest struct {
	Intent    string `json:"intent"`              // "encrypt-decrypt" or "sign-verify"
	Algorithm string `json:"algorithm,omitempty"` // Optional; defaults per intent
}

// Validate checks if the create key request is valid.
func (r *CreateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Intent,
			validation.Required,
			customValidation.NotBlank,
			validation.By(validateIntent),
		),
		validation.Field(&r.Algorithm,
			validation.By(r.validateAlgorithmForIntent),
		),
	)
}

// validateAlgorithmForIntent checks an optional algorithm against the
// request's intent family. An unknown intent is left to the intent rule.
func (r *CreateKeyRequest) validateAlgorithmForIntent(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	switch kmsDomain.KeyIntent(r.Intent) {
	case kmsDomain.IntentEncryptDecrypt:
		if _, err := kmsDomain.ParseAlgorithm(s); err != nil {
			return validation.NewError("validation_key_algorithm", "must be a supported encryption algorithm")
		}
	case kmsDomain.IntentSignVerify:
		if _, err := kmsDomain.ParseSigningAlgorithm(s); err != nil {
			return validation.NewError("validation_key_algorithm", "must be a supported signing algorithm")
		}
	}
	return nil
}

// RotateKeyRequest contains the parameters for rotating a reserved key.
type RotateKeyRequest struct {
	Intent string `json:"intent"`
}

// Validate checks if the rotate key request is valid.
func (r *RotateKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Intent,
			validation.Required,
			customValidation.NotBlank,
			validation.By(validateIntent),
		),
	)
}

// ImportKeyRequest contains the parameters for importing key material.
type ImportKeyRequest struct {
	Intent    string `json:"intent"`
	Algorithm string `json:"algorithm"`
	Material  string `json:"material"` // Base64-encoded key material
}

// Validate checks if the import key request is valid.
func (r *ImportKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Intent,
			validation.Required,
			customValidation.NotBlank,
			validation.By(validateIntent),
		),
		validation.Field(&r.Algorithm,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Material,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
	)
}

// RegisterExternalKeyRequest contains the parameters for registering a
// provider-managed key.
type RegisterExternalKeyRequest struct {
	Ref string `json:"ref"` // Provider key URI
}

// Validate checks if the register external key request is valid.
func (r *RegisterExternalKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ref,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 2048),
		),
	)
}

// EncryptRequest contains the parameters for encrypting data.
type EncryptRequest struct {
	Plaintext string `json:"plaintext"`     // Base64-encoded plaintext
	AAD       string `json:"aad,omitempty"` // Base64-encoded associated data
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.Base64,
		),
		validation.Field(&r.AAD,
			customValidation.Base64,
		),
	)
}

// DecryptRequest contains the parameters for decrypting data.
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext"`    // Base64-encoded encrypted blob
	AAD        string `json:"aad,omitempty"` // Base64-encoded associated data
}

// Validate checks if the decrypt request is valid.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ciphertext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.AAD,
			customValidation.Base64,
		),
	)
}

// SignRequest contains the parameters for signing data.
type SignRequest struct {
	Data      string `json:"data"`                // Base64-encoded data to sign
	Algorithm string `json:"algorithm,omitempty"` // Optional; defaults to the key's scheme
}

// Validate checks if the sign request is valid.
func (r *SignRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.Algorithm,
			validation.By(validateOptionalSigningAlgorithm),
		),
	)
}

// VerifyRequest contains the parameters for verifying a signature.
type VerifyRequest struct {
	Data      string `json:"data"`                // Base64-encoded signed data
	Signature string `json:"signature"`           // Base64-encoded signature
	Algorithm string `json:"algorithm,omitempty"` // Optional; defaults to the key's scheme
}

// Validate checks if the verify request is valid.
func (r *VerifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.Signature,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.Algorithm,
			validation.By(validateOptionalSigningAlgorithm),
		),
	)
}

// validateOptionalSigningAlgorithm accepts an empty string or a known
// signature scheme.
func validateOptionalSigningAlgorithm(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := kmsDomain.ParseSigningAlgorithm(s); err != nil {
		return validation.NewError("validation_signing_algorithm", "must be a supported signing algorithm")
	}
	return nil
}

// validateIntent checks that the intent names a known key intent.
func validateIntent(value interface{}) error {
	s, _ := value.(string)
	if _, err := kmsDomain.ParseKeyIntent(s); err != nil {
		return validation.NewError("validation_key_intent", "must be encrypt-decrypt or sign-verify")
	}
	return nil
}
