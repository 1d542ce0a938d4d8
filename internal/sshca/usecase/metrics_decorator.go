package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/metrics"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// sshUseCaseWithMetrics decorates SSHUseCase with metrics instrumentation.
type sshUseCaseWithMetrics struct {
	next    SSHUseCase
	metrics metrics.BusinessMetrics
}

// NewSSHUseCaseWithMetrics wraps an SSHUseCase with metrics recording.
func NewSSHUseCaseWithMetrics(useCase SSHUseCase, m metrics.BusinessMetrics) SSHUseCase {
	return &sshUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the count and duration for one operation.
func (s *sshUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "sshca", operation, status)
	s.metrics.RecordDuration(ctx, "sshca", operation, time.Since(start), status)
}

// CreateHost records metrics for host registrations.
func (s *sshUseCaseWithMetrics) CreateHost(
	ctx context.Context,
	actor authz.Actor,
	input CreateHostInput,
) (*sshcaDomain.Host, error) {
	start := time.Now()
	host, err := s.next.CreateHost(ctx, actor, input)
	s.record(ctx, "host_create", start, err)
	return host, err
}

// GetHost records metrics for host retrieval.
func (s *sshUseCaseWithMetrics) GetHost(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
) (*sshcaDomain.Host, error) {
	start := time.Now()
	host, err := s.next.GetHost(ctx, actor, hostID)
	s.record(ctx, "host_get", start, err)
	return host, err
}

// ListHosts records metrics for host listings.
func (s *sshUseCaseWithMetrics) ListHosts(
	ctx context.Context,
	actor authz.Actor,
	projectID uuid.UUID,
) ([]*sshcaDomain.Host, error) {
	start := time.Now()
	hosts, err := s.next.ListHosts(ctx, actor, projectID)
	s.record(ctx, "host_list", start, err)
	return hosts, err
}

// IssueUserCertificate records metrics for user certificate issuance.
func (s *sshUseCaseWithMetrics) IssueUserCertificate(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
	loginUser string,
) (*IssuedCertificate, error) {
	start := time.Now()
	issued, err := s.next.IssueUserCertificate(ctx, actor, hostID, loginUser)
	s.record(ctx, "user_cert_issue", start, err)
	return issued, err
}

// IssueHostCertificate records metrics for host certificate issuance.
func (s *sshUseCaseWithMetrics) IssueHostCertificate(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
	publicKey []byte,
) (*IssuedCertificate, error) {
	start := time.Now()
	issued, err := s.next.IssueHostCertificate(ctx, actor, hostID, publicKey)
	s.record(ctx, "host_cert_issue", start, err)
	return issued, err
}

// ListCertificates records metrics for audit listings.
func (s *sshUseCaseWithMetrics) ListCertificates(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
) ([]*sshcaDomain.Certificate, error) {
	start := time.Now()
	certs, err := s.next.ListCertificates(ctx, actor, hostID)
	s.record(ctx, "cert_list", start, err)
	return certs, err
}
