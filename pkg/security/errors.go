package security

import "errors"

// TLS 相关错误
var (
	ErrCertFileEmpty = errors.New("security: mTLS enabled but cert file not set")
	ErrKeyFileEmpty  = errors.New("security: mTLS enabled but key file not set")
	ErrCertLoad      = errors.New("security: load certificate")
	ErrCALoad        = errors.New("security: load CA certificate")
	ErrCAAppend      = errors.New("security: CA file contains no valid certificate")
)

// JWT 相关错误
var (
	ErrSecretKeyEmpty       = errors.New("security: secret key not set")
	ErrPublicKeyLoad        = errors.New("security: load public key")
	ErrPrivateKeyLoad       = errors.New("security: load private key")
	ErrPrivateKeyMissing    = errors.New("security: no signing key configured")
	ErrPublicKeyMissing     = errors.New("security: no verification key configured")
	ErrTokenInvalid         = errors.New("security: token invalid")
	ErrTokenExpired         = errors.New("security: token expired")
	ErrTokenNotValidYet     = errors.New("security: token not valid yet")
	ErrTokenMalformed       = errors.New("security: token malformed")
	ErrSignatureInvalid     = errors.New("security: token signature invalid")
	ErrAlgorithmUnsupported = errors.New("security: unsupported signing algorithm")
	ErrAlgorithmMismatch    = errors.New("security: token algorithm mismatch")
)
