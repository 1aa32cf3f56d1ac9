// Package config handles application configuration: a yaml profile file
// with environment-variable overrides.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/captiocr/captiocr/internal/errors"
)

// Defaults
const (
	DefaultHTTPAddr            = ":8000"
	DefaultLanguage            = "eng"
	DefaultMinInterval         = 3.0
	DefaultMaxInterval         = 6.0
	DefaultMaxSimilarCaptures  = 1
	DefaultSimilarityThreshold = 0.8
	DefaultAreaCheckEvery      = 5
	DefaultMaxPixels           = 1_000_000
	DefaultFrameWindow         = 3
	DefaultDedupEnter          = 0.85
	DefaultDedupExit           = 0.55
	DefaultMinLengthRatio      = 0.5
	DefaultMinNewWords         = 3
	DefaultMinSentenceWords    = 3
	DefaultCapturesDir         = "captures"
	DefaultCatalogFile         = "captiocr.sqlite"
	DefaultOCRBinary           = "tesseract"
)

// Capture holds live capture-loop settings.
type Capture struct {
	MinInterval         float64 `yaml:"min_interval"`
	MaxInterval         float64 `yaml:"max_interval"`
	MaxSimilarCaptures  int     `yaml:"max_similar_captures"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	AreaCheckEvery      int     `yaml:"area_check_every"`
	MaxPixels           int     `yaml:"max_pixels"`
}

// OCR holds the tesseract adapter settings.
type OCR struct {
	Binary      string `yaml:"binary"`
	TessdataDir string `yaml:"tessdata_dir"`
	Language    string `yaml:"language"`
}

// Pipeline holds post-processing tunables.
type Pipeline struct {
	FrameWindow      int     `yaml:"frame_window"`
	DedupEnter       float64 `yaml:"dedup_enter"`
	DedupExit        float64 `yaml:"dedup_exit"`
	MinLengthRatio   float64 `yaml:"min_length_ratio"`
	MinNewWords      int     `yaml:"min_new_words"`
	MinSentenceWords int     `yaml:"min_sentence_words"`
}

// Storage holds output locations.
type Storage struct {
	CapturesDir string `yaml:"captures_dir"`
	CatalogPath string `yaml:"catalog_path"`
}

// Config is the application configuration.
type Config struct {
	HTTPAddr string   `yaml:"http_addr"`
	Capture  Capture  `yaml:"capture"`
	OCR      OCR      `yaml:"ocr"`
	Pipeline Pipeline `yaml:"pipeline"`
	Storage  Storage  `yaml:"storage"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr: DefaultHTTPAddr,
		Capture: Capture{
			MinInterval:         DefaultMinInterval,
			MaxInterval:         DefaultMaxInterval,
			MaxSimilarCaptures:  DefaultMaxSimilarCaptures,
			SimilarityThreshold: DefaultSimilarityThreshold,
			AreaCheckEvery:      DefaultAreaCheckEvery,
			MaxPixels:           DefaultMaxPixels,
		},
		OCR: OCR{
			Binary:   DefaultOCRBinary,
			Language: DefaultLanguage,
		},
		Pipeline: Pipeline{
			FrameWindow:      DefaultFrameWindow,
			DedupEnter:       DefaultDedupEnter,
			DedupExit:        DefaultDedupExit,
			MinLengthRatio:   DefaultMinLengthRatio,
			MinNewWords:      DefaultMinNewWords,
			MinSentenceWords: DefaultMinSentenceWords,
		},
		Storage: Storage{
			CapturesDir: DefaultCapturesDir,
			CatalogPath: DefaultCatalogFile,
		},
	}
}

// Load reads the profile at path (missing file is fine: defaults apply),
// applies env overrides, and validates. Interval bound errors are fatal;
// a broken hysteresis band is reset to defaults with a warning.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, errors.CodeConfigInvalid, "parse config profile")
			}
		case os.IsNotExist(err):
			slog.Info("config profile not found, using defaults", "path", path)
		default:
			return nil, errors.Wrap(err, errors.CodeConfigInvalid, "read config profile")
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration as a yaml profile.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "marshal config profile")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "create config directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeStorageFailed, "write config profile")
	}
	return nil
}

// Validate checks tunables, normalizing the recoverable ones.
func (c *Config) Validate() error {
	if c.Capture.MinInterval >= c.Capture.MaxInterval {
		return errors.Newf(errors.CodeConfigInvalid,
			"min_interval %.1f must be smaller than max_interval %.1f",
			c.Capture.MinInterval, c.Capture.MaxInterval)
	}
	if c.Capture.MinInterval < 0.5 {
		return errors.Newf(errors.CodeConfigInvalid,
			"min_interval %.1f cannot be less than 0.5s", c.Capture.MinInterval)
	}
	if c.Capture.SimilarityThreshold <= 0 || c.Capture.SimilarityThreshold > 1 {
		c.Capture.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.Capture.MaxSimilarCaptures < 1 {
		c.Capture.MaxSimilarCaptures = DefaultMaxSimilarCaptures
	}
	if c.Capture.AreaCheckEvery < 1 {
		c.Capture.AreaCheckEvery = DefaultAreaCheckEvery
	}
	if c.Capture.MaxPixels < 1 {
		c.Capture.MaxPixels = DefaultMaxPixels
	}

	// Hysteresis requires exit < enter; a violating profile is reset to
	// defaults rather than rejected.
	if c.Pipeline.DedupExit >= c.Pipeline.DedupEnter {
		slog.Warn("invalid dedup hysteresis band, resetting to defaults",
			"enter", c.Pipeline.DedupEnter, "exit", c.Pipeline.DedupExit)
		c.Pipeline.DedupEnter = DefaultDedupEnter
		c.Pipeline.DedupExit = DefaultDedupExit
	}
	if c.Pipeline.FrameWindow < 2 {
		c.Pipeline.FrameWindow = 2
	}
	if c.Pipeline.FrameWindow > 5 {
		c.Pipeline.FrameWindow = 5
	}
	if c.Pipeline.MinLengthRatio <= 0 || c.Pipeline.MinLengthRatio >= 1 {
		c.Pipeline.MinLengthRatio = DefaultMinLengthRatio
	}
	if c.Pipeline.MinNewWords < 1 {
		c.Pipeline.MinNewWords = DefaultMinNewWords
	}
	if c.Pipeline.MinSentenceWords < 1 {
		c.Pipeline.MinSentenceWords = DefaultMinSentenceWords
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.Capture.MinInterval = getEnvFloat("CAPTURE_MIN_INTERVAL", c.Capture.MinInterval)
	c.Capture.MaxInterval = getEnvFloat("CAPTURE_MAX_INTERVAL", c.Capture.MaxInterval)
	c.Capture.SimilarityThreshold = getEnvFloat("CAPTURE_SIMILARITY_THRESHOLD", c.Capture.SimilarityThreshold)
	c.Capture.MaxSimilarCaptures = getEnvInt("CAPTURE_MAX_SIMILAR", c.Capture.MaxSimilarCaptures)
	c.OCR.Binary = getEnv("OCR_BINARY", c.OCR.Binary)
	c.OCR.TessdataDir = getEnv("OCR_TESSDATA_DIR", c.OCR.TessdataDir)
	c.OCR.Language = getEnv("OCR_LANGUAGE", c.OCR.Language)
	c.Pipeline.DedupEnter = getEnvFloat("PIPELINE_DEDUP_ENTER", c.Pipeline.DedupEnter)
	c.Pipeline.DedupExit = getEnvFloat("PIPELINE_DEDUP_EXIT", c.Pipeline.DedupExit)
	c.Pipeline.FrameWindow = getEnvInt("PIPELINE_FRAME_WINDOW", c.Pipeline.FrameWindow)
	c.Storage.CapturesDir = getEnv("CAPTURES_DIR", c.Storage.CapturesDir)
	c.Storage.CatalogPath = getEnv("CATALOG_PATH", c.Storage.CatalogPath)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}
