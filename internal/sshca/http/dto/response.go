package dto

import (
	"strconv"
	"time"

	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
	sshcaUseCase "github.com/keyloft/keyloft/internal/sshca/usecase"
)

// LoginMappingResponse is one login-user rule of a host.
type LoginMappingResponse struct {
	LoginUser         string   `json:"login_user"`
	AllowedPrincipals []string `json:"allowed_principals"`
}

// HostResponse represents a registered SSH host.
type HostResponse struct {
	ID                 string                 `json:"id"`
	ProjectID          string                 `json:"project_id"`
	Hostname           string                 `json:"hostname"`
	UserCertTTLSeconds int64                  `json:"user_cert_ttl_seconds"`
	HostCertTTLSeconds int64                  `json:"host_cert_ttl_seconds"`
	UserCAID           string                 `json:"user_ca_id"`
	HostCAID           string                 `json:"host_ca_id"`
	LoginMappings      []LoginMappingResponse `json:"login_mappings"`
	CreatedAt          time.Time              `json:"created_at"`
}

// ListHostsResponse represents a list of hosts.
type ListHostsResponse struct {
	Hosts []HostResponse `json:"hosts"`
}

// IssuedCertificateResponse carries a freshly issued certificate. The
// private key appears only on user issuance and is never stored server-side.
type IssuedCertificateResponse struct {
	PrivateKeyPEM     string   `json:"private_key_pem,omitempty"`
	PublicKey         string   `json:"public_key,omitempty"`
	SignedCertificate string   `json:"signed_certificate"`
	SerialNumber      string   `json:"serial_number"`
	Principals        []string `json:"principals"`
	TTLSeconds        int64    `json:"ttl_seconds"`
}

// CertificateResponse is one issuance audit record.
type CertificateResponse struct {
	ID           string    `json:"id"`
	CAID         string    `json:"ca_id"`
	HostID       string    `json:"host_id"`
	SerialNumber string    `json:"serial_number"`
	CertType     string    `json:"cert_type"`
	Principals   []string  `json:"principals"`
	KeyID        string    `json:"key_id"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListCertificatesResponse represents a host's audit records.
type ListCertificatesResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
}

// MapHostResponse maps a domain host to its response form.
func MapHostResponse(host *sshcaDomain.Host) HostResponse {
	mappings := make([]LoginMappingResponse, len(host.LoginMappings))
	for i, mapping := range host.LoginMappings {
		mappings[i] = LoginMappingResponse{
			LoginUser:         mapping.LoginUser,
			AllowedPrincipals: mapping.AllowedPrincipals,
		}
	}
	return HostResponse{
		ID:                 host.ID.String(),
		ProjectID:          host.ProjectID.String(),
		Hostname:           host.Hostname,
		UserCertTTLSeconds: int64(host.UserCertTTL / time.Second),
		HostCertTTLSeconds: int64(host.HostCertTTL / time.Second),
		UserCAID:           host.UserCAID.String(),
		HostCAID:           host.HostCAID.String(),
		LoginMappings:      mappings,
		CreatedAt:          host.CreatedAt,
	}
}

// MapListHostsResponse maps a list of domain hosts to the response form.
func MapListHostsResponse(hosts []*sshcaDomain.Host) ListHostsResponse {
	responses := make([]HostResponse, len(hosts))
	for i, host := range hosts {
		responses[i] = MapHostResponse(host)
	}
	return ListHostsResponse{Hosts: responses}
}

// MapIssuedCertificateResponse maps an issuance result to the response form.
// Serials are serialized as strings because they span the full uint64 range.
func MapIssuedCertificateResponse(issued *sshcaUseCase.IssuedCertificate) IssuedCertificateResponse {
	return IssuedCertificateResponse{
		PrivateKeyPEM:     string(issued.PrivateKeyPEM),
		PublicKey:         string(issued.PublicKey),
		SignedCertificate: string(issued.SignedCertificate),
		SerialNumber:      strconv.FormatUint(issued.SerialNumber, 10),
		Principals:        issued.Principals,
		TTLSeconds:        int64(issued.TTL / time.Second),
	}
}

// MapCertificateResponse maps an audit record to the response form. The
// encrypted certificate body stays server-side.
func MapCertificateResponse(cert *sshcaDomain.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:           cert.ID.String(),
		CAID:         cert.CAID.String(),
		HostID:       cert.HostID.String(),
		SerialNumber: strconv.FormatUint(cert.SerialNumber, 10),
		CertType:     string(cert.CertType),
		Principals:   cert.Principals,
		KeyID:        cert.KeyID,
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		CreatedAt:    cert.CreatedAt,
	}
}

// MapListCertificatesResponse maps audit records to the response form.
func MapListCertificatesResponse(certs []*sshcaDomain.Certificate) ListCertificatesResponse {
	responses := make([]CertificateResponse, len(certs))
	for i, cert := range certs {
		responses[i] = MapCertificateResponse(cert)
	}
	return ListCertificatesResponse{Certificates: responses}
}
