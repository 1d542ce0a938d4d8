// Package domain defines the entities of the SSH certificate authority:
// per-project CAs, registered hosts with their login mappings, and the
// append-only certificate audit records.
package domain

import (
	"time"

	"github.com/google/uuid"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// CARole distinguishes the CA signing user certificates from the CA signing
// host certificates. One CA exists per (project, role).
type CARole string

const (
	// CARoleUser signs certificates presented by users to hosts.
	CARoleUser CARole = "user"
	// CARoleHost signs certificates presented by hosts to users.
	CARoleHost CARole = "host"
)

// CertType is the SSH certificate type.
type CertType string

const (
	// CertTypeUser marks a user authentication certificate.
	CertTypeUser CertType = "user"
	// CertTypeHost marks a host identity certificate.
	CertTypeHost CertType = "host"
)

// ParseCertType converts a string to a CertType.
func ParseCertType(s string) (CertType, error) {
	switch CertType(s) {
	case CertTypeUser, CertTypeHost:
		return CertType(s), nil
	default:
		return "", ErrUnsupportedCertType
	}
}

// CertificateAuthority holds a project-scoped signing authority. Its private
// key is PKCS#8 DER encrypted under the project's reserved data key; no
// plaintext key material is ever persisted.
type CertificateAuthority struct {
	// ID is the unique identifier for this CA.
	ID uuid.UUID
	// ProjectID scopes the CA to a project.
	ProjectID uuid.UUID
	// Role is user or host.
	Role CARole
	// KeyAlgorithm is the signature scheme of the CA key pair.
	KeyAlgorithm kmsDomain.SigningAlgorithm
	// DataKeyID references the hierarchy key that encrypted the private key.
	DataKeyID uuid.UUID
	// EncryptedPrivateKey is the encrypted PKCS#8 DER of the CA private key.
	EncryptedPrivateKey []byte
	// CreatedAt is the UTC timestamp when the CA was created.
	CreatedAt time.Time
}

// LoginMapping grants certificate issuance for one login user to a set of
// named principals.
type LoginMapping struct {
	// ID is the unique identifier for this mapping.
	ID uuid.UUID
	// LoginUser is the remote account the certificate logs into.
	LoginUser string
	// AllowedPrincipals lists the usernames permitted to request a
	// certificate for LoginUser.
	AllowedPrincipals []string
}

// Host is a registered SSH host with its issuance policy.
type Host struct {
	// ID is the unique identifier for this host.
	ID uuid.UUID
	// ProjectID scopes the host to a project.
	ProjectID uuid.UUID
	// Hostname is unique within the project.
	Hostname string
	// UserCertTTL bounds the validity of user certificates for this host.
	UserCertTTL time.Duration
	// HostCertTTL bounds the validity of host certificates.
	HostCertTTL time.Duration
	// UserCAID references the CA signing user certificates.
	UserCAID uuid.UUID
	// HostCAID references the CA signing host certificates.
	HostCAID uuid.UUID
	// LoginMappings are owned by the host and cascade-deleted with it.
	LoginMappings []LoginMapping
	// CreatedAt is the UTC timestamp when the host was registered.
	CreatedAt time.Time
}

// AuthorizeLogin returns the principals a certificate for loginUser may
// carry, or ErrLoginUnauthorized when no mapping matches loginUser with a
// principal intersection.
func (h *Host) AuthorizeLogin(loginUser string, actorPrincipals []string) error {
	for _, mapping := range h.LoginMappings {
		if mapping.LoginUser != loginUser {
			continue
		}
		for _, allowed := range mapping.AllowedPrincipals {
			for _, principal := range actorPrincipals {
				if allowed == principal {
					return nil
				}
			}
		}
	}
	return ErrLoginUnauthorized
}

// Certificate is the append-only audit record of one issued certificate.
// Rows are never mutated after creation.
type Certificate struct {
	// ID is the unique identifier for this certificate.
	ID uuid.UUID
	// CAID references the signing CA.
	CAID uuid.UUID
	// HostID references the host the certificate was issued for.
	HostID uuid.UUID
	// SerialNumber is the random serial embedded in the certificate.
	SerialNumber uint64
	// CertType is user or host.
	CertType CertType
	// Principals is the certificate's principal list.
	Principals []string
	// KeyID is the identity string embedded in the certificate.
	KeyID string
	// NotBefore is the start of the validity window.
	NotBefore time.Time
	// NotAfter is the end of the validity window.
	NotAfter time.Time
	// DataKeyID references the hierarchy key that encrypted the body.
	DataKeyID uuid.UUID
	// EncryptedCertBody is the signed certificate encrypted under the
	// project data key.
	EncryptedCertBody []byte
	// CreatedAt is the UTC timestamp when the certificate was issued.
	CreatedAt time.Time
}
