package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/lk2023060901/xchat/pkg/config"
)

// TLSConfig 客户端 TLS 配置
type TLSConfig struct {
	// CertFile 客户端证书文件，mTLS 时必填
	CertFile string `mapstructure:"cert_file" json:"cert_file"`

	// KeyFile 客户端私钥文件，mTLS 时必填
	KeyFile string `mapstructure:"key_file" json:"key_file"`

	// CAFile 自定义 CA 证书文件，为空时使用系统根证书
	CAFile string `mapstructure:"ca_file" json:"ca_file"`

	// MutualTLS 是否启用双向认证
	MutualTLS bool `mapstructure:"mutual_tls" json:"mutual_tls"`

	// InsecureSkipVerify 跳过服务端证书校验，仅限测试环境
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"`

	// MinVersion 最低 TLS 版本，默认 TLS 1.2
	MinVersion uint16 `mapstructure:"min_version" json:"min_version"`

	// MaxVersion 最高 TLS 版本，默认 TLS 1.3
	MaxVersion uint16 `mapstructure:"max_version" json:"max_version"`

	// ServerName 校验服务端证书时使用的主机名，为空时取自连接地址
	ServerName string `mapstructure:"server_name" json:"server_name"`
}

// DefaultTLSConfig 默认 TLS 配置
func DefaultTLSConfig() *TLSConfig {
	return &TLSConfig{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}
}

// NewClientTLSConfig 构建客户端 tls.Config
func NewClientTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	merged, err := config.MergeConfig(DefaultTLSConfig(), cfg)
	if err != nil {
		return nil, err
	}

	out := &tls.Config{
		MinVersion:         merged.MinVersion,
		MaxVersion:         merged.MaxVersion,
		InsecureSkipVerify: merged.InsecureSkipVerify,
		ServerName:         merged.ServerName,
	}

	if merged.CAFile != "" {
		pool, err := loadCAPool(merged.CAFile)
		if err != nil {
			return nil, err
		}
		out.RootCAs = pool
	}

	if merged.MutualTLS {
		if merged.CertFile == "" {
			return nil, ErrCertFileEmpty
		}
		if merged.KeyFile == "" {
			return nil, ErrKeyFileEmpty
		}
		cert, err := tls.LoadX509KeyPair(merged.CertFile, merged.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCertLoad, err)
		}
		out.Certificates = []tls.Certificate{cert}
	}

	return out, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCALoad, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, ErrCAAppend
	}
	return pool, nil
}
