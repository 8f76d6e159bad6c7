package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.Render.FrameRate)
	assert.Equal(t, 0.05, cfg.Render.FadeDuration)
	assert.Equal(t, 8, cfg.Text.MinFontSize)
	assert.Equal(t, 100, cfg.Text.MaxFontSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "captioner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
render:
  timeout: 90s
  frame_rate: 24
text:
  font_family: Inter
queue:
  concurrency: 4
logging:
  format: json
`), 0o644))

	t.Setenv("CAPTIONER_FRAME_RATE", "60")
	t.Setenv("CAPTIONER_FADE_DURATION", "0.1")
	t.Setenv("CAPTIONER_QUEUE_POLL_INTERVAL", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 60, cfg.Render.FrameRate, "environment wins over the file")
	assert.Equal(t, 0.1, cfg.Render.FadeDuration)
	assert.Equal(t, "Inter", cfg.Text.FontFamily)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.PollInterval)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Binary, "unset values keep defaults")
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captioner.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"render": {"default_tier": "720p"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "720p", cfg.Render.DefaultTier)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("CAPTIONER_FRAME_RATE", "fast")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative timeout", func(c *Config) { c.Render.Timeout = -time.Second }},
		{"zero frame rate", func(c *Config) { c.Render.FrameRate = 0 }},
		{"inverted font bounds", func(c *Config) { c.Text.MinFontSize, c.Text.MaxFontSize = 50, 10 }},
		{"no workers", func(c *Config) { c.Queue.Concurrency = 0 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "json", &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("job", "42").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"job":"42"`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	_, err = NewLogger("loud", "json", &buf)
	assert.Error(t, err)
}
