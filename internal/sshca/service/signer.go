// Package service implements SSH key pair generation and certificate
// signing. CA private keys arrive as PKCS#8 DER, are used for exactly one
// signing call, and are never retained.
package service

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

// userCertExtensions are the standard permissions granted on user
// certificates.
var userCertExtensions = map[string]string{
	"permit-X11-forwarding":   "",
	"permit-agent-forwarding": "",
	"permit-port-forwarding":  "",
	"permit-pty":              "",
	"permit-user-rc":          "",
}

// KeyPair is a freshly generated ephemeral SSH key pair.
type KeyPair struct {
	// PrivateKeyPEM is the PKCS#8 PEM encoding of the private key.
	PrivateKeyPEM []byte
	// PublicKey is the OpenSSH authorized-key encoding of the public key.
	PublicKey []byte
	// publicKey is the parsed form used for signing.
	publicKey ssh.PublicKey
}

// SSHPublicKey returns the parsed public key.
func (k *KeyPair) SSHPublicKey() ssh.PublicKey {
	return k.publicKey
}

// GenerateKeyPair generates an ephemeral key pair for the given algorithm.
// The private key is returned to the caller and never persisted.
func GenerateKeyPair(alg kmsDomain.SigningAlgorithm) (*KeyPair, error) {
	der, err := kmsService.GenerateSigningKey(alg)
	if err != nil {
		return nil, err
	}

	priv, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated key: %w", err)
	}

	signer, ok := priv.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("generated key does not implement crypto.Signer")
	}

	publicKey, err := ssh.NewPublicKey(signer.Public())
	if err != nil {
		return nil, fmt.Errorf("failed to derive ssh public key: %w", err)
	}

	return &KeyPair{
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		PublicKey:     ssh.MarshalAuthorizedKey(publicKey),
		publicKey:     publicKey,
	}, nil
}

// ParsePublicKey parses an OpenSSH authorized-key encoding.
func ParsePublicKey(authorizedKey []byte) (ssh.PublicKey, error) {
	publicKey, _, _, _, err := ssh.ParseAuthorizedKey(authorizedKey)
	if err != nil {
		return nil, sshcaDomain.ErrInvalidPublicKey
	}
	return publicKey, nil
}

// CertParams describes one certificate to sign.
type CertParams struct {
	CertType   sshcaDomain.CertType
	KeyID      string
	Principals []string
	Serial     uint64
	NotBefore  time.Time
	NotAfter   time.Time
}

// SignCertificate signs publicKey under the CA private key and returns the
// certificate in OpenSSH authorized-key encoding. The caller owns zeroing
// caPrivateDER afterwards.
func SignCertificate(caPrivateDER []byte, publicKey ssh.PublicKey, params CertParams) ([]byte, error) {
	caPriv, err := x509.ParsePKCS8PrivateKey(caPrivateDER)
	if err != nil {
		return nil, kmsDomain.ErrDecryptionFailed
	}

	signer, err := ssh.NewSignerFromKey(caPriv)
	if err != nil {
		return nil, fmt.Errorf("failed to build ca signer: %w", err)
	}

	cert := &ssh.Certificate{
		Key:             publicKey,
		Serial:          params.Serial,
		KeyId:           params.KeyID,
		ValidPrincipals: params.Principals,
		ValidAfter:      uint64(params.NotBefore.Unix()),
		ValidBefore:     uint64(params.NotAfter.Unix()),
	}
	switch params.CertType {
	case sshcaDomain.CertTypeUser:
		cert.CertType = ssh.UserCert
		cert.Permissions.Extensions = userCertExtensions
	case sshcaDomain.CertTypeHost:
		cert.CertType = ssh.HostCert
	default:
		return nil, sshcaDomain.ErrUnsupportedCertType
	}

	if err := cert.SignCert(rand.Reader, signer); err != nil {
		return nil, fmt.Errorf("failed to sign certificate: %w", err)
	}

	return ssh.MarshalAuthorizedKey(cert), nil
}

// RandomSerial returns a random certificate serial number.
func RandomSerial() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("failed to generate serial: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
