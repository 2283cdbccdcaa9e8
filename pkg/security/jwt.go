package security

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lk2023060901/xchat/pkg/config"
)

// signingMethods 支持的签名算法
var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
	"RS256": jwt.SigningMethodRS256,
	"RS384": jwt.SigningMethodRS384,
	"RS512": jwt.SigningMethodRS512,
	"ES256": jwt.SigningMethodES256,
	"ES384": jwt.SigningMethodES384,
	"ES512": jwt.SigningMethodES512,
}

// JWTConfig JWT 配置
type JWTConfig struct {
	// SecretKey 对称密钥，HS 系列算法使用
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// PublicKeyFile 公钥文件路径，RS/ES 系列算法验签使用
	PublicKeyFile string `mapstructure:"public_key_file" json:"public_key_file"`

	// PrivateKeyFile 私钥文件路径，RS/ES 系列算法签发使用
	PrivateKeyFile string `mapstructure:"private_key_file" json:"private_key_file"`

	// Algorithm 签名算法，大小写不敏感，默认 HS256
	Algorithm string `mapstructure:"algorithm" json:"algorithm"`

	// ExpiresIn 令牌有效期，默认 24 小时
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"expires_in"`

	// Issuer 签发者，写入 iss 声明
	Issuer string `mapstructure:"issuer" json:"issuer"`
}

// DefaultJWTConfig 默认 JWT 配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm: "HS256",
		ExpiresIn: 24 * time.Hour,
	}
}

// Claims 令牌载荷，Payload 内容由调用方决定
type Claims struct {
	jwt.RegisteredClaims

	Payload map[string]any `json:"payload,omitempty"`
}

// JWTManager 负责令牌的签发与校验
type JWTManager struct {
	cfg       *JWTConfig
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewJWTManager 创建 JWT 管理器，算法不在支持列表时直接报错
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	merged, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}

	alg := strings.ToUpper(merged.Algorithm)
	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmUnsupported, merged.Algorithm)
	}
	merged.Algorithm = alg

	m := &JWTManager{
		cfg:    merged,
		method: method,
	}
	if err := m.loadKeys(alg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *JWTManager) loadKeys(alg string) error {
	if strings.HasPrefix(alg, "HS") {
		if m.cfg.SecretKey == "" {
			return ErrSecretKeyEmpty
		}
		key := []byte(m.cfg.SecretKey)
		m.signKey, m.verifyKey = key, key
		return nil
	}

	// RS/ES 允许只配置一侧：只签发或只验签
	if m.cfg.PrivateKeyFile != "" {
		key, err := parseKeyFile(m.cfg.PrivateKeyFile, alg, false)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrivateKeyLoad, err)
		}
		m.signKey = key
	}
	if m.cfg.PublicKeyFile != "" {
		key, err := parseKeyFile(m.cfg.PublicKeyFile, alg, true)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPublicKeyLoad, err)
		}
		m.verifyKey = key
	}
	if m.signKey == nil && m.verifyKey == nil {
		return ErrPrivateKeyMissing
	}
	return nil
}

func parseKeyFile(path, alg string, public bool) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(alg, "RS") && public:
		return jwt.ParseRSAPublicKeyFromPEM(data)
	case strings.HasPrefix(alg, "RS"):
		return jwt.ParseRSAPrivateKeyFromPEM(data)
	case public:
		return jwt.ParseECPublicKeyFromPEM(data)
	default:
		return jwt.ParseECPrivateKeyFromPEM(data)
	}
}

// GenerateToken 签发令牌，ExpiresAt 缺省时按配置的有效期填充
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	if m.signKey == nil {
		return "", ErrPrivateKeyMissing
	}

	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.cfg.ExpiresIn))
	}
	if claims.Issuer == "" {
		claims.Issuer = m.cfg.Issuer
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
}

// ValidateToken 校验令牌签名与时效，返回解析后的载荷
func (m *JWTManager) ValidateToken(token string) (*Claims, error) {
	if m.verifyKey == nil {
		return nil, ErrPublicKeyMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.cfg.Algorithm {
			return nil, fmt.Errorf("%w: token uses %s, expected %s",
				ErrAlgorithmMismatch, t.Method.Alg(), m.cfg.Algorithm)
		}
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// InspectExpiry 不验证签名，仅读取令牌的 exp 声明
// 客户端在携带令牌前预判是否已过期，无 exp 声明时返回零值时间
func InspectExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// classifyJWTError 把 jwt 库错误折叠为本包的哨兵错误
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
