package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":8000" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":8000")
	}
	if cfg.Detector.Confidence != 0.5 {
		t.Errorf("Detector.Confidence = %v, want 0.5", cfg.Detector.Confidence)
	}
	if cfg.Stream.Width != 640 || cfg.Stream.Height != 480 {
		t.Errorf("Stream size = %dx%d, want 640x480", cfg.Stream.Width, cfg.Stream.Height)
	}
	if cfg.Stream.JPEGQuality != 80 {
		t.Errorf("Stream.JPEGQuality = %d, want 80", cfg.Stream.JPEGQuality)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DETECTOR_CONFIDENCE", "0.7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":9090")
	}
	if cfg.Detector.Confidence != 0.7 {
		t.Errorf("Detector.Confidence = %v, want 0.7", cfg.Detector.Confidence)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	content := "http:\n  addr: \":7070\"\ndb:\n  path: \"/tmp/cams.db\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.HTTP.Addr, ":7070")
	}
	if cfg.DB.Path != "/tmp/cams.db" {
		t.Errorf("DB.Path = %q, want %q", cfg.DB.Path, "/tmp/cams.db")
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(path, []byte("http:\n  addr: \":7070\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Addr != ":6060" {
		t.Errorf("HTTP.Addr = %q, want %q (env must win over file)", cfg.HTTP.Addr, ":6060")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() with a missing file should return an error")
	}
}
