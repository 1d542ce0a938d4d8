package domain

import (
	"github.com/keyloft/keyloft/internal/errors"
)

var (
	// ErrUnsupportedCertType indicates an unknown certificate type.
	ErrUnsupportedCertType = errors.Wrap(errors.ErrInvalidInput, "unsupported certificate type")

	// ErrHostNotFound indicates the referenced host does not exist.
	ErrHostNotFound = errors.Wrap(errors.ErrNotFound, "ssh host not found")

	// ErrCANotFound indicates no CA exists for the (project, role) pair.
	ErrCANotFound = errors.Wrap(errors.ErrNotFound, "certificate authority not found")

	// ErrLoginUnauthorized indicates no login mapping grants the actor a
	// certificate for the requested login user. The message does not reveal
	// which mappings exist.
	ErrLoginUnauthorized = errors.Wrap(errors.ErrUnauthorized, "not authorized for this login user")

	// ErrUnknownPrincipal indicates a login mapping names a username that
	// does not exist.
	ErrUnknownPrincipal = errors.Wrap(errors.ErrInvalidInput, "login mapping names an unknown username")

	// ErrPrincipalNoAccess indicates a mapped username does not hold access
	// to the project at insert time.
	ErrPrincipalNoAccess = errors.Wrap(errors.ErrInvalidInput, "login mapping names a username without project access")

	// ErrInvalidPublicKey indicates a caller-supplied public key that is not
	// a valid OpenSSH authorized key.
	ErrInvalidPublicKey = errors.Wrap(errors.ErrInvalidInput, "invalid ssh public key")
)
