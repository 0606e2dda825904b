package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remoteplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultURL(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "wss://localhost:8889/player", cfg.Signaling.URL())
	assert.Equal(t, 150*time.Millisecond, cfg.PollInterval)
	assert.Len(t, cfg.Videos, 7)
	assert.Equal(t, time.Second, cfg.Signaling.CloseTimeout)
	require.NoError(t, cfg.Validate())
}

func TestPlainURL(t *testing.T) {
	s := SignalingConfig{Host: "10.0.0.5", Port: 9000, Path: "/player"}
	assert.Equal(t, "ws://10.0.0.5:9000/player", s.URL())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
signaling:
  host: media.example.org
  insecure_skip_verify: true
  close_timeout: 250ms
videos:
  - http://example.org/a.mp4
poll_interval: 300ms
seek_throttle_ms: "250"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "media.example.org", cfg.Signaling.Host)
	assert.Equal(t, 8889, cfg.Signaling.Port)
	assert.True(t, cfg.Signaling.InsecureSkipVerify)
	assert.Equal(t, 250*time.Millisecond, cfg.Signaling.CloseTimeout)
	assert.Equal(t, 10*time.Second, cfg.Signaling.WriteTimeout)
	assert.Equal(t, []string{"http://example.org/a.mp4"}, cfg.Videos)
	assert.Equal(t, 300*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "250", cfg.SeekThrottle)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "signalling:\n  host: typo\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Signaling.Host = ""
	cfg.Signaling.Port = 70000
	cfg.Videos = nil
	cfg.PollInterval = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "signaling.host")
	assert.ErrorContains(t, err, "signaling.port")
	assert.ErrorContains(t, err, "video")
	assert.ErrorContains(t, err, "poll_interval")
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "signaling:\n  host: from-file\n  port: 7000\n")
	cfg, err := Parse("test", []string{
		"--config", path,
		"--port", "9000",
		"--plain",
		"--video", "http://example.org/one.mp4",
		"--video", "http://example.org/two.mp4",
		"--seek-throttle", "abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "ws://from-file:9000/player", cfg.Signaling.URL())
	assert.Equal(t, []string{"http://example.org/one.mp4", "http://example.org/two.mp4"}, cfg.Videos)
	assert.Equal(t, "abc", cfg.SeekThrottle)
}

func TestParseRejectsInvalidResult(t *testing.T) {
	_, err := Parse("test", []string{"--port", "0"})
	assert.Error(t, err)

	_, err = Parse("test", []string{"--no-such-flag"})
	assert.Error(t, err)
}
