package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	kmsDomain "github.com/keyloft/keyloft/internal/kms/domain"
)

// RunCreateRootKey generates a cryptographically secure 32-byte root key for
// the software root key provider and prints the environment variables to
// configure it. Key material is zeroed from memory after encoding.
//
// If keyID is empty, a default ID in format "root-key-YYYY-MM-DD" is used.
//
// Output format:
//   - ROOT_KEYS="<keyID>:<base64-key>"
//   - ACTIVE_ROOT_KEY_ID="<keyID>"
//
// Deployments using a cloud provider should set ROOT_KEY_PROVIDER=kms with
// ROOT_KEY_KMS_URI instead; no local root key material is needed there.
func RunCreateRootKey(io IOTuple, keyID string) error {
	if keyID == "" {
		keyID = fmt.Sprintf("root-key-%s", time.Now().Format("2006-01-02"))
	}

	rootKey := make([]byte, 32)
	if _, err := rand.Read(rootKey); err != nil {
		return fmt.Errorf("failed to generate root key: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString(rootKey)
	kmsDomain.Zero(rootKey)

	fmt.Fprintln(io.Writer, "# Root Key Configuration (software provider)")
	fmt.Fprintln(io.Writer, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(io.Writer)
	fmt.Fprintf(io.Writer, "ROOT_KEY_PROVIDER=\"software\"\n")
	fmt.Fprintf(io.Writer, "ROOT_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	fmt.Fprintf(io.Writer, "ACTIVE_ROOT_KEY_ID=\"%s\"\n", keyID)
	fmt.Fprintln(io.Writer)
	fmt.Fprintln(io.Writer, "# For rotation, append the new entry and switch the active id:")
	fmt.Fprintf(io.Writer, "# ROOT_KEYS=\"%s:%s,new-key:<base64-key>\"\n", keyID, encodedKey)
	fmt.Fprintln(io.Writer, "# ACTIVE_ROOT_KEY_ID=\"new-key\"")

	return nil
}
