// Package usecase implements the SSH certificate issuer: host registration
// with login mappings, lazy per-project certificate authorities, and
// short-lived user and host certificate issuance. CA private keys are sealed
// under the project data key and only exist in plaintext inside a single
// issuance.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// CARepository defines the interface for certificate authority persistence.
type CARepository interface {
	Create(ctx context.Context, ca *sshcaDomain.CertificateAuthority) error
	GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.CertificateAuthority, error)
	GetByProjectAndRole(ctx context.Context, projectID uuid.UUID, role sshcaDomain.CARole) (*sshcaDomain.CertificateAuthority, error)
}

// HostRepository defines the interface for SSH host persistence.
type HostRepository interface {
	Create(ctx context.Context, host *sshcaDomain.Host) error
	GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.Host, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*sshcaDomain.Host, error)
}

// CertificateRepository defines the interface for the append-only certificate
// audit log.
type CertificateRepository interface {
	Create(ctx context.Context, cert *sshcaDomain.Certificate) error
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]*sshcaDomain.Certificate, error)
}

// LoginMappingInput is one login-user rule of a host registration.
type LoginMappingInput struct {
	LoginUser         string
	AllowedPrincipals []string
}

// CreateHostInput carries the fields of a host registration.
type CreateHostInput struct {
	ProjectID     uuid.UUID
	Hostname      string
	UserCertTTL   time.Duration
	HostCertTTL   time.Duration
	LoginMappings []LoginMappingInput
}

// IssuedCertificate is the result of a certificate issuance. The private key
// is generated per issuance and never stored.
type IssuedCertificate struct {
	PrivateKeyPEM     []byte
	PublicKey         []byte
	SignedCertificate []byte
	SerialNumber      uint64
	Principals        []string
	TTL               time.Duration
}

// SSHUseCase defines the business logic of the SSH certificate issuer.
type SSHUseCase interface {
	// CreateHost registers a host, validating every login mapping and lazily
	// creating the project's user and host CAs. A duplicate hostname within
	// the project returns ErrConflict.
	CreateHost(ctx context.Context, actor authz.Actor, input CreateHostInput) (*sshcaDomain.Host, error)

	// GetHost returns a host with its login mappings.
	GetHost(ctx context.Context, actor authz.Actor, hostID uuid.UUID) (*sshcaDomain.Host, error)

	// ListHosts returns the project's hosts.
	ListHosts(ctx context.Context, actor authz.Actor, projectID uuid.UUID) ([]*sshcaDomain.Host, error)

	// IssueUserCertificate issues a short-lived user certificate for logging
	// in to the host as loginUser. The actor's principals must intersect the
	// mapping's allowed principals; otherwise ErrLoginUnauthorized is
	// returned and nothing is persisted.
	IssueUserCertificate(ctx context.Context, actor authz.Actor, hostID uuid.UUID, loginUser string) (*IssuedCertificate, error)

	// IssueHostCertificate signs the host's own public key for host
	// authentication, with the hostname as the sole principal.
	IssueHostCertificate(ctx context.Context, actor authz.Actor, hostID uuid.UUID, publicKey []byte) (*IssuedCertificate, error)

	// ListCertificates returns the host's issuance audit records, newest
	// first.
	ListCertificates(ctx context.Context, actor authz.Actor, hostID uuid.UUID) ([]*sshcaDomain.Certificate, error)
}
