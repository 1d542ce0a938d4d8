package service

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
	kmsService "github.com/keyloft/keyloft/internal/kms/service"
	sshcaDomain "github.com/keyloft/keyloft/internal/sshca/domain"
)

func TestGenerateKeyPair(t *testing.T) {
	algorithms := []kmsDomain.SigningAlgorithm{
		kmsDomain.Ed25519,
		kmsDomain.ECDSAP256,
		kmsDomain.ECDSAP384,
		kmsDomain.RSA2048,
	}

	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			pair, err := GenerateKeyPair(alg)
			require.NoError(t, err)

			block, _ := pem.Decode(pair.PrivateKeyPEM)
			require.NotNil(t, block)
			assert.Equal(t, "PRIVATE KEY", block.Type)

			parsed, _, _, _, err := ssh.ParseAuthorizedKey(pair.PublicKey)
			require.NoError(t, err)
			assert.Equal(t, pair.SSHPublicKey().Type(), parsed.Type())
		})
	}
}

func TestGenerateKeyPair_UnknownAlgorithm(t *testing.T) {
	_, err := GenerateKeyPair("dsa-1024")
	assert.ErrorIs(t, err, kmsDomain.ErrUnsupportedAlgorithm)
}

func TestSignCertificate_UserCert(t *testing.T) {
	caDER, err := kmsService.GenerateSigningKey(kmsDomain.Ed25519)
	require.NoError(t, err)

	pair, err := GenerateKeyPair(kmsDomain.Ed25519)
	require.NoError(t, err)

	notBefore := time.Now().UTC().Truncate(time.Second)
	notAfter := notBefore.Add(8 * time.Hour)
	serial, err := RandomSerial()
	require.NoError(t, err)

	signed, err := SignCertificate(caDER, pair.SSHPublicKey(), CertParams{
		CertType:   sshcaDomain.CertTypeUser,
		KeyID:      "alice",
		Principals: []string{"alice", "ubuntu"},
		Serial:     serial,
		NotBefore:  notBefore,
		NotAfter:   notAfter,
	})
	require.NoError(t, err)

	parsed, _, _, _, err := ssh.ParseAuthorizedKey(signed)
	require.NoError(t, err)
	cert, ok := parsed.(*ssh.Certificate)
	require.True(t, ok)

	assert.Equal(t, uint32(ssh.UserCert), cert.CertType)
	assert.Equal(t, "alice", cert.KeyId)
	assert.Equal(t, []string{"alice", "ubuntu"}, cert.ValidPrincipals)
	assert.Equal(t, serial, cert.Serial)
	assert.Equal(t, uint64(notBefore.Unix()), cert.ValidAfter)
	assert.Equal(t, uint64(notAfter.Unix()), cert.ValidBefore)
	assert.Contains(t, cert.Permissions.Extensions, "permit-pty")
	assert.Contains(t, cert.Permissions.Extensions, "permit-port-forwarding")

	// The certificate checks out against the CA public key.
	checker := &ssh.CertChecker{
		IsUserAuthority: func(auth ssh.PublicKey) bool {
			caSigner, err := sshSignerFromDER(caDER)
			require.NoError(t, err)
			return bytes.Equal(auth.Marshal(), caSigner.PublicKey().Marshal())
		},
	}
	require.NoError(t, checker.CheckCert("ubuntu", cert))
}

func TestSignCertificate_HostCert(t *testing.T) {
	caDER, err := kmsService.GenerateSigningKey(kmsDomain.ECDSAP256)
	require.NoError(t, err)

	pair, err := GenerateKeyPair(kmsDomain.Ed25519)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	signed, err := SignCertificate(caDER, pair.SSHPublicKey(), CertParams{
		CertType:   sshcaDomain.CertTypeHost,
		KeyID:      "db1.internal",
		Principals: []string{"db1.internal"},
		Serial:     42,
		NotBefore:  now,
		NotAfter:   now.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	parsed, _, _, _, err := ssh.ParseAuthorizedKey(signed)
	require.NoError(t, err)
	cert, ok := parsed.(*ssh.Certificate)
	require.True(t, ok)

	assert.Equal(t, uint32(ssh.HostCert), cert.CertType)
	assert.Equal(t, []string{"db1.internal"}, cert.ValidPrincipals)
	assert.Empty(t, cert.Permissions.Extensions)
}

func TestSignCertificate_GarbageCAKey(t *testing.T) {
	pair, err := GenerateKeyPair(kmsDomain.Ed25519)
	require.NoError(t, err)

	_, err = SignCertificate([]byte("not a der key"), pair.SSHPublicKey(), CertParams{
		CertType:  sshcaDomain.CertTypeUser,
		NotBefore: time.Now(),
		NotAfter:  time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, kmsDomain.ErrDecryptionFailed)
}

func TestParsePublicKey(t *testing.T) {
	pair, err := GenerateKeyPair(kmsDomain.Ed25519)
	require.NoError(t, err)

	parsed, err := ParsePublicKey(pair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, pair.SSHPublicKey().Type(), parsed.Type())

	_, err = ParsePublicKey([]byte("garbage"))
	assert.ErrorIs(t, err, sshcaDomain.ErrInvalidPublicKey)
}

func TestRandomSerial(t *testing.T) {
	seen := make(map[uint64]bool)
	for range 16 {
		serial, err := RandomSerial()
		require.NoError(t, err)
		assert.False(t, seen[serial])
		seen[serial] = true
	}
}

// sshSignerFromDER builds an ssh.Signer from a PKCS#8 DER private key.
func sshSignerFromDER(der []byte) (ssh.Signer, error) {
	priv, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}
