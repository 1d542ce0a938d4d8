package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// MySQLCARepository implements CertificateAuthority persistence for MySQL
// databases.
type MySQLCARepository struct {
	db *sql.DB
}

// NewMySQLCARepository creates a new MySQL CA repository instance.
func NewMySQLCARepository(db *sql.DB) *MySQLCARepository {
	return &MySQLCARepository{db: db}
}

// Create inserts a CA row. A duplicate (project_id, role) maps to
// ErrConflict so concurrent lazy creators can re-read the winner.
func (m *MySQLCARepository) Create(ctx context.Context, ca *sshcaDomain.CertificateAuthority) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO ssh_certificate_authorities (id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		ca.ID.String(),
		ca.ProjectID.String(),
		ca.Role,
		ca.KeyAlgorithm,
		ca.DataKeyID.String(),
		ca.EncryptedPrivateKey,
		ca.CreatedAt,
	)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create certificate authority")
	}
	return nil
}

// GetByID retrieves a CA by its id.
func (m *MySQLCARepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.CertificateAuthority, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at
			  FROM ssh_certificate_authorities
			  WHERE id = ?`

	return scanCA(querier.QueryRowContext(ctx, query, id.String()))
}

// GetByProjectAndRole retrieves the CA for a (project, role) pair.
func (m *MySQLCARepository) GetByProjectAndRole(
	ctx context.Context,
	projectID uuid.UUID,
	role sshcaDomain.CARole,
) (*sshcaDomain.CertificateAuthority, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at
			  FROM ssh_certificate_authorities
			  WHERE project_id = ? AND role = ?`

	return scanCA(querier.QueryRowContext(ctx, query, projectID.String(), role))
}

// MySQLHostRepository implements Host persistence for MySQL databases.
type MySQLHostRepository struct {
	db *sql.DB
}

// NewMySQLHostRepository creates a new MySQL Host repository instance.
func NewMySQLHostRepository(db *sql.DB) *MySQLHostRepository {
	return &MySQLHostRepository{db: db}
}

// Create inserts a host row with its login mappings. A duplicate
// (project_id, hostname) maps to ErrConflict.
func (m *MySQLHostRepository) Create(ctx context.Context, host *sshcaDomain.Host) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO ssh_hosts (id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		host.ID.String(),
		host.ProjectID.String(),
		host.Hostname,
		int64(host.UserCertTTL/time.Second),
		int64(host.HostCertTTL/time.Second),
		host.UserCAID.String(),
		host.HostCAID.String(),
		host.CreatedAt,
	)
	if err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create ssh host")
	}

	for _, mapping := range host.LoginMappings {
		principals, err := encodePrincipals(mapping.AllowedPrincipals)
		if err != nil {
			return err
		}
		_, err = querier.ExecContext(
			ctx,
			`INSERT INTO ssh_login_mappings (id, host_id, login_user, allowed_principals) VALUES (?, ?, ?, ?)`,
			mapping.ID.String(), host.ID.String(), mapping.LoginUser, principals,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create login mapping")
		}
	}
	return nil
}

// GetByID retrieves a host with its login mappings.
func (m *MySQLHostRepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.Host, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at
			  FROM ssh_hosts
			  WHERE id = ?`

	host, err := scanHost(querier.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		return nil, err
	}

	if err := m.attachMappings(ctx, querier, []*sshcaDomain.Host{host}); err != nil {
		return nil, err
	}
	return host, nil
}

// ListByProject retrieves the project's hosts with their login mappings.
func (m *MySQLHostRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*sshcaDomain.Host, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at
			  FROM ssh_hosts
			  WHERE project_id = ?
			  ORDER BY hostname`

	rows, err := querier.QueryContext(ctx, query, projectID.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list ssh hosts")
	}
	defer rows.Close()

	var hosts []*sshcaDomain.Host
	for rows.Next() {
		host, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, host)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list ssh hosts")
	}

	if err := m.attachMappings(ctx, querier, hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// attachMappings loads login mapping rows and nests them onto their hosts.
func (m *MySQLHostRepository) attachMappings(
	ctx context.Context,
	querier database.Querier,
	hosts []*sshcaDomain.Host,
) error {
	if len(hosts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*sshcaDomain.Host, len(hosts))
	args := make([]any, 0, len(hosts))
	for _, host := range hosts {
		byID[host.ID] = host
		args = append(args, host.ID.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hosts)), ", ")

	rows, err := querier.QueryContext(
		ctx,
		`SELECT host_id, id, login_user, allowed_principals FROM ssh_login_mappings WHERE host_id IN (`+placeholders+`) ORDER BY login_user`,
		args...,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to load login mappings")
	}
	defer rows.Close()

	for rows.Next() {
		var hostID uuid.UUID
		var mapping sshcaDomain.LoginMapping
		var principals string
		if err := rows.Scan(&hostID, &mapping.ID, &mapping.LoginUser, &principals); err != nil {
			return apperrors.Wrap(err, "failed to scan login mapping")
		}
		if mapping.AllowedPrincipals, err = decodePrincipals(principals); err != nil {
			return err
		}
		if host, ok := byID[hostID]; ok {
			host.LoginMappings = append(host.LoginMappings, mapping)
		}
	}
	return rows.Err()
}

// MySQLCertificateRepository implements append-only Certificate persistence
// for MySQL databases.
type MySQLCertificateRepository struct {
	db *sql.DB
}

// NewMySQLCertificateRepository creates a new MySQL Certificate repository
// instance.
func NewMySQLCertificateRepository(db *sql.DB) *MySQLCertificateRepository {
	return &MySQLCertificateRepository{db: db}
}

// Create appends a certificate audit row. There is no update or delete;
// certificate rows are immutable once written.
func (m *MySQLCertificateRepository) Create(ctx context.Context, cert *sshcaDomain.Certificate) error {
	querier := database.GetTx(ctx, m.db)

	principals, err := encodePrincipals(cert.Principals)
	if err != nil {
		return err
	}

	query := `INSERT INTO ssh_certificates (id, ca_id, host_id, serial_number, cert_type, principals, key_identity, not_before, not_after, data_key_id, encrypted_cert_body, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		cert.ID.String(),
		cert.CAID.String(),
		cert.HostID.String(),
		strconv.FormatUint(cert.SerialNumber, 10),
		cert.CertType,
		principals,
		cert.KeyID,
		cert.NotBefore,
		cert.NotAfter,
		cert.DataKeyID.String(),
		cert.EncryptedCertBody,
		cert.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create certificate")
	}
	return nil
}

// ListByHost retrieves the audit records for a host, newest first.
func (m *MySQLCertificateRepository) ListByHost(
	ctx context.Context,
	hostID uuid.UUID,
) ([]*sshcaDomain.Certificate, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, ca_id, host_id, serial_number, cert_type, principals, key_identity, not_before, not_after, data_key_id, encrypted_cert_body, created_at
			  FROM ssh_certificates
			  WHERE host_id = ?
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, hostID.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list certificates")
	}
	defer rows.Close()

	var certs []*sshcaDomain.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}
