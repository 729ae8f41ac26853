package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitRejectsBadLevel(t *testing.T) {
	if err := InitWithFileConfig("loud", FileConfig{}, false); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.log")
	cfg := DefaultFileConfig(path)
	cfg.Compress = false
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer func() { Log = zap.NewNop() }()

	Named("terrain").Info("patch shown", zap.Int("x", 3), zap.Int("z", -1))
	Log.Debug("debug line")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if entry["msg"] != "patch shown" || entry["logger"] != "terrain" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["x"] != float64(3) {
		t.Errorf("expected field x=3, got %v", entry["x"])
	}
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warn.log")
	if err := InitWithFileConfig("warn", FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
		t.Fatal(err)
	}
	defer func() { Log = zap.NewNop() }()

	Log.Info("dropped")
	Log.Warn("kept")
	Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), "kept") {
		t.Errorf("level filter not applied:\n%s", data)
	}
}
