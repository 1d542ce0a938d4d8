// Package repository implements data persistence for the SSH certificate
// authority. Repositories support both PostgreSQL and MySQL. Principal lists
// are stored as JSON text so both databases share one encoding, mapped in an
// explicit step next to the row scans.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/keyloft/keyloft/internal/database"
	apperrors "github.com/keyloft/keyloft/internal/errors"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// PostgreSQLCARepository implements CertificateAuthority persistence for
// PostgreSQL databases.
type PostgreSQLCARepository struct {
	db *sql.DB
}

// NewPostgreSQLCARepository creates a new PostgreSQL CA repository instance.
func NewPostgreSQLCARepository(db *sql.DB) *PostgreSQLCARepository {
	return &PostgreSQLCARepository{db: db}
}

// Create inserts a CA row. A duplicate (project_id, role) maps to
// ErrConflict so concurrent lazy creators can re-read the winner.
func (p *PostgreSQLCARepository) Create(ctx context.Context, ca *sshcaDomain.CertificateAuthority) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ssh_certificate_authorities (id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		ca.ID,
		ca.ProjectID,
		ca.Role,
		ca.KeyAlgorithm,
		ca.DataKeyID,
		ca.EncryptedPrivateKey,
		ca.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return apperrors.Wrap(err, "failed to create certificate authority")
	}
	return nil
}

// GetByID retrieves a CA by its id.
func (p *PostgreSQLCARepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.CertificateAuthority, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at
			  FROM ssh_certificate_authorities
			  WHERE id = $1`

	return scanCA(querier.QueryRowContext(ctx, query, id))
}

// GetByProjectAndRole retrieves the CA for a (project, role) pair.
func (p *PostgreSQLCARepository) GetByProjectAndRole(
	ctx context.Context,
	projectID uuid.UUID,
	role sshcaDomain.CARole,
) (*sshcaDomain.CertificateAuthority, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, role, key_algorithm, data_key_id, encrypted_private_key, created_at
			  FROM ssh_certificate_authorities
			  WHERE project_id = $1 AND role = $2`

	return scanCA(querier.QueryRowContext(ctx, query, projectID, role))
}

// PostgreSQLHostRepository implements Host persistence for PostgreSQL
// databases.
type PostgreSQLHostRepository struct {
	db *sql.DB
}

// NewPostgreSQLHostRepository creates a new PostgreSQL Host repository
// instance.
func NewPostgreSQLHostRepository(db *sql.DB) *PostgreSQLHostRepository {
	return &PostgreSQLHostRepository{db: db}
}

// Create inserts a host row with its login mappings. A duplicate
// (project_id, hostname) maps to ErrConflict.
func (p *PostgreSQLHostRepository) Create(ctx context.Context, host *sshcaDomain.Host) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO ssh_hosts (id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		host.ID,
		host.ProjectID,
		host.Hostname,
		int64(host.UserCertTTL/time.Second),
		int64(host.HostCertTTL/time.Second),
		host.UserCAID,
		host.HostCAID,
		host.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
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
			`INSERT INTO ssh_login_mappings (id, host_id, login_user, allowed_principals) VALUES ($1, $2, $3, $4)`,
			mapping.ID, host.ID, mapping.LoginUser, principals,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create login mapping")
		}
	}
	return nil
}

// GetByID retrieves a host with its login mappings.
func (p *PostgreSQLHostRepository) GetByID(ctx context.Context, id uuid.UUID) (*sshcaDomain.Host, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at
			  FROM ssh_hosts
			  WHERE id = $1`

	host, err := scanHost(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := p.attachMappings(ctx, querier, []*sshcaDomain.Host{host}); err != nil {
		return nil, err
	}
	return host, nil
}

// ListByProject retrieves the project's hosts with their login mappings.
func (p *PostgreSQLHostRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*sshcaDomain.Host, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, hostname, user_cert_ttl_seconds, host_cert_ttl_seconds, user_ca_id, host_ca_id, created_at
			  FROM ssh_hosts
			  WHERE project_id = $1
			  ORDER BY hostname`

	rows, err := querier.QueryContext(ctx, query, projectID)
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

	if err := p.attachMappings(ctx, querier, hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// attachMappings loads login mapping rows and nests them onto their hosts.
func (p *PostgreSQLHostRepository) attachMappings(
	ctx context.Context,
	querier database.Querier,
	hosts []*sshcaDomain.Host,
) error {
	if len(hosts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*sshcaDomain.Host, len(hosts))
	ids := make([]uuid.UUID, 0, len(hosts))
	for _, host := range hosts {
		byID[host.ID] = host
		ids = append(ids, host.ID)
	}

	rows, err := querier.QueryContext(
		ctx,
		`SELECT host_id, id, login_user, allowed_principals FROM ssh_login_mappings WHERE host_id = ANY($1) ORDER BY login_user`,
		pq.Array(ids),
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

// PostgreSQLCertificateRepository implements append-only Certificate
// persistence for PostgreSQL databases.
type PostgreSQLCertificateRepository struct {
	db *sql.DB
}

// NewPostgreSQLCertificateRepository creates a new PostgreSQL Certificate
// repository instance.
func NewPostgreSQLCertificateRepository(db *sql.DB) *PostgreSQLCertificateRepository {
	return &PostgreSQLCertificateRepository{db: db}
}

// Create appends a certificate audit row. There is no update or delete;
// certificate rows are immutable once written.
func (p *PostgreSQLCertificateRepository) Create(ctx context.Context, cert *sshcaDomain.Certificate) error {
	querier := database.GetTx(ctx, p.db)

	principals, err := encodePrincipals(cert.Principals)
	if err != nil {
		return err
	}

	query := `INSERT INTO ssh_certificates (id, ca_id, host_id, serial_number, cert_type, principals, key_identity, not_before, not_after, data_key_id, encrypted_cert_body, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.CAID,
		cert.HostID,
		strconv.FormatUint(cert.SerialNumber, 10),
		cert.CertType,
		principals,
		cert.KeyID,
		cert.NotBefore,
		cert.NotAfter,
		cert.DataKeyID,
		cert.EncryptedCertBody,
		cert.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create certificate")
	}
	return nil
}

// ListByHost retrieves the audit records for a host, newest first.
func (p *PostgreSQLCertificateRepository) ListByHost(
	ctx context.Context,
	hostID uuid.UUID,
) ([]*sshcaDomain.Certificate, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, ca_id, host_id, serial_number, cert_type, principals, key_identity, not_before, not_after, data_key_id, encrypted_cert_body, created_at
			  FROM ssh_certificates
			  WHERE host_id = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, hostID)
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

// scanCA maps a CA row into the domain entity.
func scanCA(row interface{ Scan(dest ...any) error }) (*sshcaDomain.CertificateAuthority, error) {
	var ca sshcaDomain.CertificateAuthority

	err := row.Scan(
		&ca.ID,
		&ca.ProjectID,
		&ca.Role,
		&ca.KeyAlgorithm,
		&ca.DataKeyID,
		&ca.EncryptedPrivateKey,
		&ca.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sshcaDomain.ErrCANotFound
		}
		return nil, apperrors.Wrap(err, "failed to get certificate authority")
	}
	return &ca, nil
}

// scanHost maps a host row into the domain entity, without mappings.
func scanHost(row interface{ Scan(dest ...any) error }) (*sshcaDomain.Host, error) {
	var host sshcaDomain.Host
	var userTTL, hostTTL int64

	err := row.Scan(
		&host.ID,
		&host.ProjectID,
		&host.Hostname,
		&userTTL,
		&hostTTL,
		&host.UserCAID,
		&host.HostCAID,
		&host.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sshcaDomain.ErrHostNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get ssh host")
	}

	host.UserCertTTL = time.Duration(userTTL) * time.Second
	host.HostCertTTL = time.Duration(hostTTL) * time.Second
	return &host, nil
}

// scanCertificate maps a certificate row into the domain entity.
func scanCertificate(row interface{ Scan(dest ...any) error }) (*sshcaDomain.Certificate, error) {
	var cert sshcaDomain.Certificate
	var serial string
	var principals string

	err := row.Scan(
		&cert.ID,
		&cert.CAID,
		&cert.HostID,
		&serial,
		&cert.CertType,
		&principals,
		&cert.KeyID,
		&cert.NotBefore,
		&cert.NotAfter,
		&cert.DataKeyID,
		&cert.EncryptedCertBody,
		&cert.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get certificate")
	}

	if cert.SerialNumber, err = strconv.ParseUint(serial, 10, 64); err != nil {
		return nil, apperrors.Wrap(err, "malformed certificate serial")
	}
	if cert.Principals, err = decodePrincipals(principals); err != nil {
		return nil, err
	}
	return &cert, nil
}

// encodePrincipals serializes a principal list for the text column.
func encodePrincipals(principals []string) (string, error) {
	encoded, err := json.Marshal(principals)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode principals")
	}
	return string(encoded), nil
}

// decodePrincipals deserializes a principal list from the text column.
func decodePrincipals(encoded string) ([]string, error) {
	var principals []string
	if err := json.Unmarshal([]byte(encoded), &principals); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode principals")
	}
	return principals, nil
}
