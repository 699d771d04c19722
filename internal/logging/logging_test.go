package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewOffDiscards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "off.log")
	logger, closer, err := New("off", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Error("dropped")
	closer.Close()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file created while logging is off: %v", err)
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bucket.log")
	logger, closer, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("task postponed", "id", 3)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "task postponed") || !strings.Contains(string(data), "id=3") {
		t.Errorf("log = %q", data)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New("loud", filepath.Join(t.TempDir(), "x.log")); err == nil {
		t.Error("New accepted an unknown level")
	}
}
