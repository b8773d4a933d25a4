// Package authn implements registration, password login and bearer token
// validation for GhostSwitch users.
//
// # Password Storage
//
// Passwords are stored as a hex digest together with a random per-user
// salt. The default "sha256" scheme is a single SHA-256 pass over
// password+salt, which keeps existing credential rows verifiable. The
// "argon2id" scheme stores a memory-hard digest prefixed with "argon2id$".
// Verification dispatches on the stored value, so switching the configured
// scheme only affects newly registered users; existing SHA-256 rows keep
// working until the user's password is reset.
//
// # Errors
//
// Registration failures are *ValidationError values with a Code and a
// user-facing message. Login failures are always ErrInvalidCredentials so
// a caller cannot tell an unknown username from a wrong password. Token
// failures are the session package's sentinel errors, or
// store.ErrUserNotFound when the token's user no longer exists.
package authn
