package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHSManager(t *testing.T, secret string) *JWTManager {
	t.Helper()
	mgr, err := NewJWTManager(&JWTConfig{
		SecretKey: secret,
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)
	return mgr
}

func writeECKeyPair(t *testing.T) (privFile, pubFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privFile = filepath.Join(dir, "ec.key")
	pubFile = filepath.Join(dir, "ec.pub")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(privFile, privPEM, 0o600))
	require.NoError(t, os.WriteFile(pubFile, pubPEM, 0o600))
	return privFile, pubFile
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	mgr := newHSManager(t, "gateway-shared-secret")

	token, err := mgr.GenerateToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-9001"},
		Payload: map[string]any{
			"uid":    "9001",
			"device": "ios",
		},
	})
	require.NoError(t, err)

	got, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-9001", got.Subject)
	assert.Equal(t, "9001", got.Payload["uid"])
	assert.Equal(t, "ios", got.Payload["device"])
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt.Time, 5*time.Second)
}

func TestIssuerFilledFromConfig(t *testing.T) {
	mgr, err := NewJWTManager(&JWTConfig{
		SecretKey: "s3cret-long-enough",
		Issuer:    "xchat-gateway",
	})
	require.NoError(t, err)

	token, err := mgr.GenerateToken(&Claims{})
	require.NoError(t, err)

	got, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "xchat-gateway", got.Issuer)
}

func TestValidateExpiredToken(t *testing.T) {
	mgr := newHSManager(t, "expired-case-secret")

	token, err := mgr.GenerateToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	signer := newHSManager(t, "secret-a")
	verifier := newHSManager(t, "secret-b")

	token, err := signer.GenerateToken(&Claims{})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestValidateAlgorithmMismatch(t *testing.T) {
	hs256 := newHSManager(t, "shared-secret")
	hs384, err := NewJWTManager(&JWTConfig{
		SecretKey: "shared-secret",
		Algorithm: "HS384",
	})
	require.NoError(t, err)

	token, err := hs256.GenerateToken(&Claims{})
	require.NoError(t, err)

	_, err = hs384.ValidateToken(token)
	assert.ErrorIs(t, err, ErrAlgorithmMismatch)
}

func TestNewManagerRejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{
		SecretKey: "whatever",
		Algorithm: "none",
	})
	assert.ErrorIs(t, err, ErrAlgorithmUnsupported)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{Algorithm: "HS256"})
	assert.ErrorIs(t, err, ErrSecretKeyEmpty)
}

func TestNewManagerBadKeyFile(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{
		Algorithm:      "ES256",
		PrivateKeyFile: filepath.Join(t.TempDir(), "missing.pem"),
	})
	assert.ErrorIs(t, err, ErrPrivateKeyLoad)
}

func TestAlgorithmCaseInsensitive(t *testing.T) {
	mgr, err := NewJWTManager(&JWTConfig{
		SecretKey: "probe-secret",
		Algorithm: "hs512",
	})
	require.NoError(t, err)

	token, err := mgr.GenerateToken(&Claims{})
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	assert.NoError(t, err)
}

func TestES256RoundTrip(t *testing.T) {
	privFile, pubFile := writeECKeyPair(t)

	signer, err := NewJWTManager(&JWTConfig{
		Algorithm:      "ES256",
		PrivateKeyFile: privFile,
	})
	require.NoError(t, err)

	verifier, err := NewJWTManager(&JWTConfig{
		Algorithm:     "ES256",
		PublicKeyFile: pubFile,
	})
	require.NoError(t, err)

	token, err := signer.GenerateToken(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	})
	require.NoError(t, err)

	got, err := verifier.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.Subject)

	// 单侧配置：只有公钥不能签发，只有私钥不能验签
	_, err = verifier.GenerateToken(&Claims{})
	assert.ErrorIs(t, err, ErrPrivateKeyMissing)
	_, err = signer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrPublicKeyMissing)
}

func TestNewManagerAsymmetricRequiresKeyFile(t *testing.T) {
	_, err := NewJWTManager(&JWTConfig{Algorithm: "ES256"})
	assert.ErrorIs(t, err, ErrPrivateKeyMissing)
}

func TestInspectExpiry(t *testing.T) {
	mgr := newHSManager(t, "inspect-secret")

	token, err := mgr.GenerateToken(&Claims{})
	require.NoError(t, err)

	exp, err := InspectExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	// 无 exp 声明时返回零值
	bare, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"}).
		SignedString([]byte("inspect-secret"))
	require.NoError(t, err)
	exp, err = InspectExpiry(bare)
	require.NoError(t, err)
	assert.True(t, exp.IsZero())

	_, err = InspectExpiry("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
