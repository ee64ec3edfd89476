package auth

import "errors"

var (
	// ErrInvalidCredential covers a wrong password, a bad assertion
	// signature, and a wrong audience. Callers surface it as one generic
	// unauthorized outcome; which of the causes occurred is never
	// disclosed.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpiredAssertion means the third-party assertion was validly
	// signed but past its expiry. Externally indistinguishable from
	// ErrInvalidCredential.
	ErrExpiredAssertion = errors.New("assertion expired")

	// ErrProviderUnreachable is a transport or availability failure while
	// contacting an external identity provider. Mid-login it is surfaced
	// with the same external shape as ErrInvalidCredential.
	ErrProviderUnreachable = errors.New("identity provider unreachable")

	// ErrAccountConflict is a directory uniqueness race that re-reading
	// could not resolve.
	ErrAccountConflict = errors.New("account conflict")

	// ErrDirectoryUnavailable is a storage failure. Fatal for the
	// request; never retried here.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)
