// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/keyloft/keyloft/internal/validation"
)

// LoginMappingRequest is one login-user rule of a host registration.
type LoginMappingRequest struct {
	LoginUser         string   `json:"login_user"`
	AllowedPrincipals []string `json:"allowed_principals"`
}

// Validate checks if the login mapping is valid.
func (r LoginMappingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LoginUser,
			validation.Required,
			customValidation.LoginUser,
		),
		validation.Field(&r.AllowedPrincipals,
			validation.Required,
			validation.Each(customValidation.NotBlank, validation.Length(1, 255)),
		),
	)
}

// CreateHostRequest contains the fields for registering an SSH host.
type CreateHostRequest struct {
	Hostname           string                `json:"hostname"`
	UserCertTTLSeconds int64                 `json:"user_cert_ttl_seconds"`
	HostCertTTLSeconds int64                 `json:"host_cert_ttl_seconds"`
	LoginMappings      []LoginMappingRequest `json:"login_mappings"`
}

// Validate checks if the create host request is valid.
func (r *CreateHostRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Hostname,
			validation.Required,
			customValidation.Hostname,
		),
		validation.Field(&r.UserCertTTLSeconds,
			validation.Required,
			validation.Min(int64(60)),
		),
		validation.Field(&r.HostCertTTLSeconds,
			validation.Required,
			validation.Min(int64(60)),
		),
		validation.Field(&r.LoginMappings),
	)
}

// IssueUserCertRequest contains the fields for requesting a user certificate.
type IssueUserCertRequest struct {
	LoginUser string `json:"login_user"`
}

// Validate checks if the issue user certificate request is valid.
func (r *IssueUserCertRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LoginUser,
			validation.Required,
			customValidation.LoginUser,
		),
	)
}

// IssueHostCertRequest contains the fields for requesting a host certificate.
type IssueHostCertRequest struct {
	// PublicKey is the host key in OpenSSH authorized-key encoding.
	PublicKey string `json:"public_key"`
}

// Validate checks if the issue host certificate request is valid.
func (r *IssueHostCertRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PublicKey,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
