package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type gatewayTestConfig struct {
	Gateway struct {
		Endpoint       string        `mapstructure:"endpoint" validate:"required,url"`
		Token          string        `mapstructure:"token"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	} `mapstructure:"gateway"`
	Heartbeat struct {
		Enable   bool          `mapstructure:"enable"`
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"heartbeat"`
	Queue struct {
		MaxSize   int `mapstructure:"max_size"`
		RateLimit int `mapstructure:"rate_limit"`
	} `mapstructure:"queue"`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

const chatConfigYAML = `
gateway:
  endpoint: "https://chat.example.com"
  token: "dev-token"
  connect_timeout: 10s
heartbeat:
  enable: true
  interval: 30s
queue:
  max_size: 1000
  rate_limit: 60
`

func TestManagerLoadAndUnmarshal(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	var cfg gatewayTestConfig
	if err := mgr.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.Gateway.Endpoint != "https://chat.example.com" {
		t.Errorf("endpoint = %s", cfg.Gateway.Endpoint)
	}
	if cfg.Gateway.ConnectTimeout != 10*time.Second {
		t.Errorf("connect_timeout = %v", cfg.Gateway.ConnectTimeout)
	}
	if !cfg.Heartbeat.Enable || cfg.Heartbeat.Interval != 30*time.Second {
		t.Errorf("heartbeat = %+v", cfg.Heartbeat)
	}
	if cfg.Queue.MaxSize != 1000 {
		t.Errorf("queue.max_size = %d", cfg.Queue.MaxSize)
	}
}

func TestManagerLoadFileMissing(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile("/nonexistent/chat.yaml"); err == nil {
		t.Error("LoadFile() should fail for missing file")
	}
}

func TestManagerLoadSearchesPaths(t *testing.T) {
	dir := filepath.Dir(writeConfigFile(t, chatConfigYAML))

	// 第一个路径不存在文件，应继续搜索第二个
	mgr := NewManager(
		WithConfigName("chat"),
		WithConfigType("yaml"),
		WithConfigPaths(t.TempDir(), dir),
	)
	if err := mgr.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := mgr.GetString("gateway.endpoint"); got != "https://chat.example.com" {
		t.Errorf("endpoint = %s", got)
	}
}

func TestManagerLoadWithoutPaths(t *testing.T) {
	mgr := NewManager(WithConfigName("nope"), WithConfigType("yaml"), WithConfigPaths(t.TempDir()))
	if err := mgr.Load(); err == nil {
		t.Error("Load() should fail when no file is found")
	}
}

func TestManagerUnmarshalKey(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// 嵌套块
	var hb struct {
		Enable   bool          `mapstructure:"enable"`
		Interval time.Duration `mapstructure:"interval"`
	}
	if err := mgr.UnmarshalKey("heartbeat", &hb); err != nil {
		t.Fatalf("UnmarshalKey(heartbeat) error = %v", err)
	}
	if !hb.Enable || hb.Interval != 30*time.Second {
		t.Errorf("heartbeat = %+v", hb)
	}

	// 单个叶子值
	var maxSize int
	if err := mgr.UnmarshalKey("queue.max_size", &maxSize); err != nil {
		t.Fatalf("UnmarshalKey(queue.max_size) error = %v", err)
	}
	if maxSize != 1000 {
		t.Errorf("queue.max_size = %d", maxSize)
	}
}

func TestManagerGetters(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := mgr.GetString("gateway.endpoint"); got != "https://chat.example.com" {
		t.Errorf("GetString = %s", got)
	}
	if got := mgr.GetInt("queue.rate_limit"); got != 60 {
		t.Errorf("GetInt = %d", got)
	}
	if !mgr.GetBool("heartbeat.enable") {
		t.Error("GetBool(heartbeat.enable) = false")
	}
	if !mgr.IsSet("gateway.token") {
		t.Error("IsSet(gateway.token) = false")
	}
	if mgr.IsSet("gateway.proxy") {
		t.Error("IsSet(gateway.proxy) = true for unset key")
	}
	if mgr.Get("queue.max_size") == nil {
		t.Error("Get(queue.max_size) = nil")
	}
}

func TestManagerEnvOverride(t *testing.T) {
	t.Setenv("XCHATTEST_GATEWAY_ENDPOINT", "https://staging.example.com")
	t.Setenv("XCHATTEST_QUEUE_RATE_LIMIT", "10")

	mgr := NewManager()
	mgr.BindEnv("XCHATTEST")
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := mgr.GetString("gateway.endpoint"); got != "https://staging.example.com" {
		t.Errorf("env override lost: endpoint = %s", got)
	}
	if got := mgr.GetInt("queue.rate_limit"); got != 10 {
		t.Errorf("env override lost: rate_limit = %d", got)
	}
	// 未覆盖的 key 保持文件值
	if got := mgr.GetInt("queue.max_size"); got != 1000 {
		t.Errorf("file value lost: max_size = %d", got)
	}
}

func TestManagerDefaults(t *testing.T) {
	mgr := NewManager(WithDefaults(map[string]any{
		"gateway.endpoint":       "https://chat.example.com",
		"reconnect.max_attempts": 10,
	}))

	if got := mgr.GetString("gateway.endpoint"); got != "https://chat.example.com" {
		t.Errorf("default endpoint = %s", got)
	}
	if got := mgr.GetInt("reconnect.max_attempts"); got != 10 {
		t.Errorf("default max_attempts = %d", got)
	}
}

func TestManagerAllSettings(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	all := mgr.AllSettings()
	gw, ok := all["gateway"].(map[string]any)
	if !ok {
		t.Fatalf("gateway section type = %T", all["gateway"])
	}
	if gw["endpoint"] != "https://chat.example.com" {
		t.Errorf("gateway.endpoint = %v", gw["endpoint"])
	}
}

func TestManagerWatchRegistersMultipleCallbacks(t *testing.T) {
	mgr := NewManager()
	if err := mgr.LoadFile(writeConfigFile(t, chatConfigYAML)); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	// 重复注册不应报错，也不应重复启动监听
	if err := mgr.Watch(func() {}); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := mgr.Watch(func() {}); err != nil {
		t.Fatalf("second Watch() error = %v", err)
	}

	vm := mgr.(*viperManager)
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if len(vm.callbacks) != 2 {
		t.Errorf("callbacks = %d, want 2", len(vm.callbacks))
	}
}
