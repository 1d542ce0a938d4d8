package domain

// EncryptedBlob is the self-describing output of the envelope cipher.
//
// Wire format (binary):
//
//	[1B format version][1B algorithm tag][1B nonce length][nonce][ciphertext+tag]
//
// The blob carries everything needed to decrypt except the key itself. Any
// parse failure is reported as ErrDecryptionFailed so a malformed blob is
// indistinguishable from a failed authentication check.
type EncryptedBlob struct {
	Algorithm  Algorithm
	Nonce      []byte
	Ciphertext []byte
}

const blobFormatVersion = 0x01

// Algorithm tags in the blob header. The tag namespace is append-only.
const (
	blobAlgAESGCM   = 0x01
	blobAlgChaCha20 = 0x02
)

// Bytes serializes the blob to its wire format.
func (b EncryptedBlob) Bytes() []byte {
	out := make([]byte, 0, 3+len(b.Nonce)+len(b.Ciphertext))
	out = append(out, blobFormatVersion, algorithmTag(b.Algorithm), byte(len(b.Nonce)))
	out = append(out, b.Nonce...)
	out = append(out, b.Ciphertext...)
	return out
}

// ParseEncryptedBlob deserializes a blob from its wire format. It fails
// closed: anything that does not parse exactly is ErrDecryptionFailed.
func ParseEncryptedBlob(data []byte) (EncryptedBlob, error) {
	if len(data) < 3 {
		return EncryptedBlob{}, ErrDecryptionFailed
	}
	if data[0] != blobFormatVersion {
		return EncryptedBlob{}, ErrDecryptionFailed
	}

	var alg Algorithm
	switch data[1] {
	case blobAlgAESGCM:
		alg = AESGCM
	case blobAlgChaCha20:
		alg = ChaCha20
	default:
		return EncryptedBlob{}, ErrDecryptionFailed
	}

	nonceLen := int(data[2])
	if nonceLen == 0 || len(data) < 3+nonceLen {
		return EncryptedBlob{}, ErrDecryptionFailed
	}

	return EncryptedBlob{
		Algorithm:  alg,
		Nonce:      data[3 : 3+nonceLen],
		Ciphertext: data[3+nonceLen:],
	}, nil
}

func algorithmTag(alg Algorithm) byte {
	switch alg {
	case ChaCha20:
		return blobAlgChaCha20
	default:
		return blobAlgAESGCM
	}
}
