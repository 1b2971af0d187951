package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/castmux/transcoder/internal/config"
	"github.com/google/uuid"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "castmux.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("INFO")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_JobInfo_PrefixesShortID(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "castmux.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.MustParse("12345678-1234-1234-1234-123456789012")
	l.JobInfo(id, "processing %s", "clip.mkv")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("12345678")) || !bytes.Contains(b, []byte("processing clip.mkv")) {
		t.Errorf("log file content: %s", string(b))
	}
}
