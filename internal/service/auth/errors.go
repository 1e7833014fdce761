package auth

import "errors"

// Common authentication service errors
var (
	// ErrUnknownHashAlgorithm indicates a password hash algorithm that is not supported
	ErrUnknownHashAlgorithm = errors.New("unknown password hash algorithm")

	// ErrPasswordMismatch indicates a password does not match its stored hash
	ErrPasswordMismatch = errors.New("password does not match hash")

	// ErrNilStore indicates a credential binding was built without a preference store
	ErrNilStore = errors.New("preference store is nil")

	// ErrNilAuthenticator indicates a credential binding was built without an authenticator
	ErrNilAuthenticator = errors.New("authenticator is nil")

	// ErrNilHasher indicates a credential binding was built without a password hasher
	ErrNilHasher = errors.New("password hasher is nil")
)
