package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/keyloft/keyloft/internal/authz"
	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
	kmsUsecase "github.com/keyloft/keyloft/internal/kms/usecase"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
	sshcaService "github.com/keyloft/keyloft/internal/sshca/service"
)

type sshUseCase struct {
	txManager    database.TxManager
	caRepo       CARepository
	hostRepo     HostRepository
	certRepo     CertificateRepository
	keyHierarchy kmsUsecase.KeyHierarchyUseCase
	authorizer   authz.Authorizer
	directory    authz.PrincipalDirectory
	caAlgorithm  kmsDomain.SigningAlgorithm
}

// NewSSHUseCase creates a new SSH certificate issuer use case instance.
// caAlgorithm is the signature algorithm used for newly created CAs.
func NewSSHUseCase(
	txManager database.TxManager,
	caRepo CARepository,
	hostRepo HostRepository,
	certRepo CertificateRepository,
	keyHierarchy kmsUsecase.KeyHierarchyUseCase,
	authorizer authz.Authorizer,
	directory authz.PrincipalDirectory,
	caAlgorithm kmsDomain.SigningAlgorithm,
) SSHUseCase {
	return &sshUseCase{
		txManager:    txManager,
		caRepo:       caRepo,
		hostRepo:     hostRepo,
		certRepo:     certRepo,
		keyHierarchy: keyHierarchy,
		authorizer:   authorizer,
		directory:    directory,
		caAlgorithm:  caAlgorithm,
	}
}

func (u *sshUseCase) CreateHost(ctx context.Context, actor authz.Actor, input CreateHostInput) (*sshcaDomain.Host, error) {
	if err := u.authorizer.Authorize(ctx, actor, input.ProjectID, authz.ActionEdit, authz.ResourceSSHHost); err != nil {
		return nil, err
	}

	// Mappings are validated in order, first failure wins, before any row
	// is written.
	for _, mapping := range input.LoginMappings {
		for _, principal := range mapping.AllowedPrincipals {
			exists, err := u.directory.UserExists(ctx, principal)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to verify principal")
			}
			if !exists {
				return nil, sshcaDomain.ErrUnknownPrincipal
			}
			hasAccess, err := u.directory.HasProjectAccess(ctx, principal, input.ProjectID)
			if err != nil {
				return nil, apperrors.Wrap(err, "failed to verify project access")
			}
			if !hasAccess {
				return nil, sshcaDomain.ErrPrincipalNoAccess
			}
		}
	}

	var host *sshcaDomain.Host
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		userCA, err := u.resolveOrCreateCA(ctx, input.ProjectID, sshcaDomain.CARoleUser)
		if err != nil {
			return err
		}
		hostCA, err := u.resolveOrCreateCA(ctx, input.ProjectID, sshcaDomain.CARoleHost)
		if err != nil {
			return err
		}

		mappings := make([]sshcaDomain.LoginMapping, 0, len(input.LoginMappings))
		for _, mapping := range input.LoginMappings {
			mappings = append(mappings, sshcaDomain.LoginMapping{
				ID:                uuid.Must(uuid.NewV7()),
				LoginUser:         mapping.LoginUser,
				AllowedPrincipals: mapping.AllowedPrincipals,
			})
		}

		host = &sshcaDomain.Host{
			ID:            uuid.Must(uuid.NewV7()),
			ProjectID:     input.ProjectID,
			Hostname:      input.Hostname,
			UserCertTTL:   input.UserCertTTL,
			HostCertTTL:   input.HostCertTTL,
			UserCAID:      userCA.ID,
			HostCAID:      hostCA.ID,
			LoginMappings: mappings,
			CreatedAt:     time.Now().UTC(),
		}
		return u.hostRepo.Create(ctx, host)
	})
	if err != nil {
		return nil, err
	}
	return host, nil
}

// resolveOrCreateCA returns the project's CA for the role, generating one on
// first use. The private key is sealed under the project data key before it
// is stored; a concurrent creator losing the insert race re-reads the winner.
func (u *sshUseCase) resolveOrCreateCA(
	ctx context.Context,
	projectID uuid.UUID,
	role sshcaDomain.CARole,
) (*sshcaDomain.CertificateAuthority, error) {
	ca, err := u.caRepo.GetByProjectAndRole(ctx, projectID, role)
	if err == nil {
		return ca, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	dataKey, err := u.keyHierarchy.ResolveOrCreateKey(ctx, kmsDomain.ProjectScope(projectID), kmsDomain.IntentEncryptDecrypt, "")
	if err != nil {
		return nil, err
	}

	privateDER, err := kmsService.GenerateSigningKey(u.caAlgorithm)
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(privateDER)

	sealed, err := u.keyHierarchy.Encrypt(ctx, dataKey.ID, privateDER, projectAAD(projectID))
	if err != nil {
		return nil, err
	}

	ca = &sshcaDomain.CertificateAuthority{
		ID:                  uuid.Must(uuid.NewV7()),
		ProjectID:           projectID,
		Role:                role,
		KeyAlgorithm:        u.caAlgorithm,
		DataKeyID:           dataKey.ID,
		EncryptedPrivateKey: sealed,
		CreatedAt:           time.Now().UTC(),
	}
	if err := u.caRepo.Create(ctx, ca); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return u.caRepo.GetByProjectAndRole(ctx, projectID, role)
		}
		return nil, err
	}
	return ca, nil
}

func (u *sshUseCase) GetHost(ctx context.Context, actor authz.Actor, hostID uuid.UUID) (*sshcaDomain.Host, error) {
	host, err := u.hostRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if err := u.authorizer.Authorize(ctx, actor, host.ProjectID, authz.ActionRead, authz.ResourceSSHHost); err != nil {
		return nil, err
	}
	return host, nil
}

func (u *sshUseCase) ListHosts(ctx context.Context, actor authz.Actor, projectID uuid.UUID) ([]*sshcaDomain.Host, error) {
	if err := u.authorizer.Authorize(ctx, actor, projectID, authz.ActionRead, authz.ResourceSSHHost); err != nil {
		return nil, err
	}
	return u.hostRepo.ListByProject(ctx, projectID)
}

func (u *sshUseCase) IssueUserCertificate(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
	loginUser string,
) (*IssuedCertificate, error) {
	host, err := u.hostRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if err := u.authorizer.Authorize(ctx, actor, host.ProjectID, authz.ActionRead, authz.ResourceSSHHost); err != nil {
		return nil, err
	}

	principals, err := u.directory.PrincipalsFor(ctx, actor)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to resolve actor principals")
	}
	// The login decision happens before any key generation or persistence;
	// a denied request leaves no trace beyond logs.
	if err := host.AuthorizeLogin(loginUser, principals); err != nil {
		return nil, err
	}

	pair, err := sshcaService.GenerateKeyPair(u.caAlgorithm)
	if err != nil {
		return nil, err
	}

	certPrincipals := append(principals, loginUser)
	return u.issue(ctx, host, host.UserCAID, issueParams{
		certType:   sshcaDomain.CertTypeUser,
		keyID:      actor.Username,
		principals: certPrincipals,
		publicKey:  pair.SSHPublicKey(),
		ttl:        host.UserCertTTL,
		pair:       pair,
	})
}

func (u *sshUseCase) IssueHostCertificate(
	ctx context.Context,
	actor authz.Actor,
	hostID uuid.UUID,
	publicKey []byte,
) (*IssuedCertificate, error) {
	host, err := u.hostRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if err := u.authorizer.Authorize(ctx, actor, host.ProjectID, authz.ActionEdit, authz.ResourceSSHHost); err != nil {
		return nil, err
	}

	parsed, err := sshcaService.ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	return u.issue(ctx, host, host.HostCAID, issueParams{
		certType:   sshcaDomain.CertTypeHost,
		keyID:      host.Hostname,
		principals: []string{host.Hostname},
		publicKey:  parsed,
		ttl:        host.HostCertTTL,
	})
}

func (u *sshUseCase) ListCertificates(ctx context.Context, actor authz.Actor, hostID uuid.UUID) ([]*sshcaDomain.Certificate, error) {
	host, err := u.hostRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if err := u.authorizer.Authorize(ctx, actor, host.ProjectID, authz.ActionRead, authz.ResourceSSHHost); err != nil {
		return nil, err
	}
	return u.certRepo.ListByHost(ctx, hostID)
}

// issueParams describes one certificate issuance for a host.
type issueParams struct {
	certType   sshcaDomain.CertType
	keyID      string
	principals []string
	publicKey  ssh.PublicKey
	ttl        time.Duration
	// pair is set for user issuance, where the key pair is generated here
	// and handed back to the caller.
	pair *sshcaService.KeyPair
}

// issue signs one certificate under the CA and appends the audit record. The
// CA private key is unsealed only for the duration of the signature.
func (u *sshUseCase) issue(
	ctx context.Context,
	host *sshcaDomain.Host,
	caID uuid.UUID,
	params issueParams,
) (*IssuedCertificate, error) {
	ca, err := u.caRepo.GetByID(ctx, caID)
	if err != nil {
		return nil, err
	}

	caPrivateDER, err := u.keyHierarchy.Decrypt(ctx, ca.DataKeyID, ca.EncryptedPrivateKey, projectAAD(host.ProjectID))
	if err != nil {
		return nil, err
	}
	defer kmsDomain.Zero(caPrivateDER)

	serial, err := sshcaService.RandomSerial()
	if err != nil {
		return nil, err
	}

	notBefore := time.Now().UTC()
	notAfter := notBefore.Add(params.ttl)

	signedCert, err := sshcaService.SignCertificate(caPrivateDER, params.publicKey, sshcaService.CertParams{
		CertType:   params.certType,
		KeyID:      params.keyID,
		Principals: params.principals,
		Serial:     serial,
		NotBefore:  notBefore,
		NotAfter:   notAfter,
	})
	if err != nil {
		return nil, err
	}

	sealedCert, err := u.keyHierarchy.Encrypt(ctx, ca.DataKeyID, signedCert, projectAAD(host.ProjectID))
	if err != nil {
		return nil, err
	}

	record := &sshcaDomain.Certificate{
		ID:                uuid.Must(uuid.NewV7()),
		CAID:              ca.ID,
		HostID:            host.ID,
		SerialNumber:      serial,
		CertType:          params.certType,
		Principals:        params.principals,
		KeyID:             params.keyID,
		NotBefore:         notBefore,
		NotAfter:          notAfter,
		DataKeyID:         ca.DataKeyID,
		EncryptedCertBody: sealedCert,
		CreatedAt:         time.Now().UTC(),
	}
	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		return u.certRepo.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	issued := &IssuedCertificate{
		SignedCertificate: signedCert,
		SerialNumber:      serial,
		Principals:        params.principals,
		TTL:               params.ttl,
	}
	if params.pair != nil {
		issued.PrivateKeyPEM = params.pair.PrivateKeyPEM
		issued.PublicKey = params.pair.PublicKey
	}
	return issued, nil
}

// projectAAD binds project-scoped ciphertexts to their project id.
func projectAAD(projectID uuid.UUID) []byte {
	return projectID[:]
}
