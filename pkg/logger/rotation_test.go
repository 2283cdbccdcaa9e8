package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNewRotationWriter(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "chat.log")

	tests := []struct {
		name   string
		config *RotationConfig
	}{
		{
			name:   "size rotation",
			config: &RotationConfig{Type: RotationBySize, MaxSize: 100, MaxBackups: 5, MaxAge: 7},
		},
		{
			name:   "time rotation",
			config: &RotationConfig{Type: RotationByTime, RotationTime: "24h", MaxAgeTime: "168h"},
		},
		{
			name:   "unknown type falls back to size",
			config: &RotationConfig{Type: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newRotationWriter(tt.config, outputPath)
			if err != nil {
				t.Fatalf("newRotationWriter() error = %v", err)
			}
			if w == nil {
				t.Fatal("newRotationWriter() returned nil writer")
			}
		})
	}
}

func TestSizeWriterConfig(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "size.log")
	cfg := &RotationConfig{
		Type:       RotationBySize,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}

	w := newSizeWriter(cfg, outputPath)
	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("writer type = %T, want *lumberjack.Logger", w)
	}

	if lj.Filename != outputPath {
		t.Errorf("Filename = %s", lj.Filename)
	}
	if lj.MaxSize != 10 || lj.MaxBackups != 3 || lj.MaxAge != 7 {
		t.Errorf("limits = size:%d backups:%d age:%d", lj.MaxSize, lj.MaxBackups, lj.MaxAge)
	}
	if !lj.Compress || !lj.LocalTime {
		t.Errorf("flags = compress:%v localtime:%v", lj.Compress, lj.LocalTime)
	}
}

func TestTimeWriterFallbacks(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "time.log")

	tests := []struct {
		name   string
		config *RotationConfig
	}{
		{
			name:   "valid durations",
			config: &RotationConfig{Type: RotationByTime, RotationTime: "1h", MaxAgeTime: "72h", RotationPattern: ".%Y%m%d%H"},
		},
		{
			name:   "bad interval uses daily default",
			config: &RotationConfig{Type: RotationByTime, RotationTime: "later", MaxAgeTime: "168h"},
		},
		{
			name:   "bad max age uses weekly default",
			config: &RotationConfig{Type: RotationByTime, RotationTime: "24h", MaxAgeTime: "forever"},
		},
		{
			name:   "empty pattern gets hourly suffix",
			config: &RotationConfig{Type: RotationByTime, RotationTime: "24h", MaxAgeTime: "168h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newTimeWriter(tt.config, outputPath)
			if err != nil {
				t.Fatalf("newTimeWriter() error = %v", err)
			}
			if w == nil {
				t.Fatal("newTimeWriter() returned nil writer")
			}
		})
	}
}

func TestRotationWriterWrite(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "write.log")
	cfg := &RotationConfig{Type: RotationBySize, MaxSize: 1, MaxBackups: 2, MaxAge: 1}

	w, err := newRotationWriter(cfg, outputPath)
	if err != nil {
		t.Fatalf("newRotationWriter() error = %v", err)
	}

	payload := []byte("connection established\n")
	n, err := w.Write(payload)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(payload) {
		t.Errorf("Write() = %d bytes, want %d", n, len(payload))
	}

	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}

	if lj, ok := w.(*lumberjack.Logger); ok {
		if err := lj.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestFileOutputEndToEnd(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "e2e.log")

	l, err := New(&Config{
		Level:         InfoLevel,
		Format:        JSONFormat,
		EnableConsole: false,
		EnableFile:    true,
		OutputPath:    outputPath,
		Rotation:      RotationConfig{Type: RotationBySize, MaxSize: 1},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("gateway connected", "endpoint", "wss://chat.example.com/ws")
	_ = l.Sync()

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "gateway connected") {
		t.Errorf("log entry missing from file: %s", data)
	}
}
