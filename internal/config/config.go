// Package config loads captioner settings from defaults, an optional YAML or
// JSON file, a .env file and CAPTIONER_* environment variables, in that order.
package config

import (
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg" json:"ffmpeg"`
	Render  RenderConfig  `yaml:"render" json:"render"`
	Text    TextConfig    `yaml:"text" json:"text"`
	Queue   QueueConfig   `yaml:"queue" json:"queue"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

type FFmpegConfig struct {
	Binary string `yaml:"binary" json:"binary" env:"CAPTIONER_FFMPEG_BINARY"`
}

type RenderConfig struct {
	WorkDir      string        `yaml:"work_dir" json:"work_dir" env:"CAPTIONER_WORK_DIR"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" env:"CAPTIONER_RENDER_TIMEOUT"`
	FrameRate    int           `yaml:"frame_rate" json:"frame_rate" env:"CAPTIONER_FRAME_RATE"`
	FadeDuration float64       `yaml:"fade_duration" json:"fade_duration" env:"CAPTIONER_FADE_DURATION"`
	DefaultTier  string        `yaml:"default_tier" json:"default_tier" env:"CAPTIONER_DEFAULT_TIER"`
}

type TextConfig struct {
	FontFile    string  `yaml:"font_file" json:"font_file" env:"CAPTIONER_FONT_FILE"`
	FontFamily  string  `yaml:"font_family" json:"font_family" env:"CAPTIONER_FONT_FAMILY"`
	LineSpacing int     `yaml:"line_spacing" json:"line_spacing" env:"CAPTIONER_LINE_SPACING"`
	MinFontSize int     `yaml:"min_font_size" json:"min_font_size" env:"CAPTIONER_MIN_FONT_SIZE"`
	MaxFontSize int     `yaml:"max_font_size" json:"max_font_size" env:"CAPTIONER_MAX_FONT_SIZE"`
	Padding     float64 `yaml:"padding" json:"padding" env:"CAPTIONER_TEXT_PADDING"`
}

type QueueConfig struct {
	RedisURL      string        `yaml:"redis_url" json:"redis_url" env:"REDIS_URL"`
	JobsKey       string        `yaml:"jobs_key" json:"jobs_key" env:"CAPTIONER_QUEUE_JOBS_KEY"`
	ProcessingKey string        `yaml:"processing_key" json:"processing_key" env:"CAPTIONER_QUEUE_PROCESSING_KEY"`
	ResultsKey    string        `yaml:"results_key" json:"results_key" env:"CAPTIONER_QUEUE_RESULTS_KEY"`
	Concurrency   int           `yaml:"concurrency" json:"concurrency" env:"CAPTIONER_QUEUE_CONCURRENCY"`
	PollInterval  time.Duration `yaml:"poll_interval" json:"poll_interval" env:"CAPTIONER_QUEUE_POLL_INTERVAL"`
}

type StoreConfig struct {
	// DatabasePath is the sqlite export history; empty disables it.
	DatabasePath string `yaml:"database_path" json:"database_path" env:"CAPTIONER_DATABASE_PATH"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"CAPTIONER_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"CAPTIONER_LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FFmpeg: FFmpegConfig{
			Binary: "ffmpeg",
		},
		Render: RenderConfig{
			WorkDir:      DefaultWorkDir(),
			Timeout:      10 * time.Minute,
			FrameRate:    30,
			FadeDuration: 0.05,
			DefaultTier:  "1080p",
		},
		Text: TextConfig{
			MinFontSize: 8,
			MaxFontSize: 100,
			Padding:     DefaultTextPadding,
		},
		Queue: QueueConfig{
			RedisURL:      "redis://localhost:6379/0",
			JobsKey:       "captioner:jobs",
			ProcessingKey: "captioner:processing",
			ResultsKey:    "captioner:results",
			Concurrency:   2,
			PollInterval:  5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration. A missing .env file is not an error; a
// missing config file is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "error loading .env file")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		// YAML is a superset of JSON, so both file kinds decode here
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := loadFromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, errors.Wrap(err, "failed to load config from environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate rejects settings no export could run with.
func (c *Config) Validate() error {
	if c.Render.Timeout < 0 {
		return errors.Errorf("invalid render timeout: %s", c.Render.Timeout)
	}
	if c.Render.FrameRate <= 0 {
		return errors.Errorf("invalid frame rate: %d", c.Render.FrameRate)
	}
	if c.Render.FadeDuration < 0 {
		return errors.Errorf("invalid fade duration: %g", c.Render.FadeDuration)
	}
	if c.Text.MinFontSize <= 0 || c.Text.MaxFontSize < c.Text.MinFontSize {
		return errors.Errorf("invalid font size bounds: [%d, %d]", c.Text.MinFontSize, c.Text.MaxFontSize)
	}
	if c.Text.Padding < 0 {
		return errors.Errorf("invalid text padding: %g", c.Text.Padding)
	}
	if c.Queue.Concurrency < 1 {
		return errors.Errorf("invalid worker concurrency: %d", c.Queue.Concurrency)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("unsupported log format: %s", c.Logging.Format)
	}
	return nil
}

// loadFromEnv overrides fields tagged env with the variables that are set.
func loadFromEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		value, ok := os.LookupEnv(envTag)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return errors.Wrapf(err, "%s", envTag)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return errors.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}
