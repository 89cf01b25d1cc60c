// Package config loads fragmenter settings from an optional .env file and
// FRAGMENTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/PhantomInTheWire/image-fragmenter/pkg/label"
	"github.com/PhantomInTheWire/image-fragmenter/pkg/split"
	"github.com/PhantomInTheWire/image-fragmenter/pkg/storage"
)

// Prefix is prepended to every environment variable name.
const Prefix = "FRAGMENTER"

// DefaultEnvFile is read when present; its absence is not an error.
const DefaultEnvFile = ".env"

// Config holds all fragmenter settings.
type Config struct {
	// SourcePath is the image to split.
	// Env: FRAGMENTER_SOURCE_PATH (default: assets/spider_man.png)
	SourcePath string `envconfig:"SOURCE_PATH" default:"assets/spider_man.png"`

	// OutputDir receives fragment_<n> files.
	// Env: FRAGMENTER_OUTPUT_DIR (default: assets/fragments)
	OutputDir string `envconfig:"OUTPUT_DIR" default:"assets/fragments"`

	// Env: FRAGMENTER_ROWS (default: 2)
	Rows int `envconfig:"ROWS" default:"2"`

	// Env: FRAGMENTER_COLS (default: 2)
	Cols int `envconfig:"COLS" default:"2"`

	// FontPath is the preferred label font. The built-in face is used when
	// it cannot be loaded.
	// Env: FRAGMENTER_FONT_PATH (default: arial.ttf)
	FontPath string `envconfig:"FONT_PATH" default:"arial.ttf"`

	// Env: FRAGMENTER_FONT_SIZE (default: 30)
	FontSize float64 `envconfig:"FONT_SIZE" default:"30"`

	// Env: FRAGMENTER_LABEL_OFFSET_X (default: 10)
	LabelOffsetX int `envconfig:"LABEL_OFFSET_X" default:"10"`

	// Env: FRAGMENTER_LABEL_OFFSET_Y (default: 10)
	LabelOffsetY int `envconfig:"LABEL_OFFSET_Y" default:"10"`

	// LabelColor is an SVG colour name or #rrggbb.
	// Env: FRAGMENTER_LABEL_COLOR (default: red)
	LabelColor string `envconfig:"LABEL_COLOR" default:"red"`

	// Remainder is discard or distribute.
	// Env: FRAGMENTER_REMAINDER (default: discard)
	Remainder string `envconfig:"REMAINDER" default:"discard"`

	// Format is the output encoding, chosen by file extension.
	// Env: FRAGMENTER_FORMAT (default: png)
	Format string `envconfig:"FORMAT" default:"png"`

	// Env: FRAGMENTER_WORKERS (default: 1)
	Workers int `envconfig:"WORKERS" default:"1"`

	// OnWriteError is abort or collect.
	// Env: FRAGMENTER_ON_WRITE_ERROR (default: abort)
	OnWriteError string `envconfig:"ON_WRITE_ERROR" default:"abort"`

	// Env: FRAGMENTER_LOG_LEVEL (default: info)
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// S3 configures publishing.
	S3 S3Env `envconfig:"S3"`
}

// S3Env holds the object store settings used by publish.
type S3Env struct {
	// Env: FRAGMENTER_S3_ENDPOINT
	Endpoint string `envconfig:"ENDPOINT"`
	// Env: FRAGMENTER_S3_REGION (default: us-east-1)
	Region string `envconfig:"REGION" default:"us-east-1"`
	// Env: FRAGMENTER_S3_ACCESS_KEY
	AccessKey string `envconfig:"ACCESS_KEY"`
	// Env: FRAGMENTER_S3_SECRET_KEY
	SecretKey string `envconfig:"SECRET_KEY"`
	// Env: FRAGMENTER_S3_BUCKET
	Bucket string `envconfig:"BUCKET"`
	// Env: FRAGMENTER_S3_PREFIX
	Prefix string `envconfig:"PREFIX"`
	// PublicBaseURL is used to build manifest URLs. Defaults to
	// <endpoint>/<bucket>.
	// Env: FRAGMENTER_S3_PUBLIC_BASE_URL
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`
	// ManifestPath defaults to fragments_manifest.json next to the output dir.
	// Env: FRAGMENTER_S3_MANIFEST_PATH
	ManifestPath string `envconfig:"MANIFEST_PATH"`
}

// Load reads envFile (DefaultEnvFile when empty) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", split.ErrConfig, err)
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks every field that Split and the CLI depend on.
func (c Config) Validate() error {
	var errs []error
	if c.Rows < 1 || c.Cols < 1 {
		errs = append(errs, fmt.Errorf("grid %dx%d: rows and cols must be >= 1", c.Rows, c.Cols))
	}
	if c.SourcePath == "" {
		errs = append(errs, errors.New("source path is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output dir is empty"))
	}
	switch split.Remainder(c.Remainder) {
	case split.RemainderDiscard, split.RemainderDistribute:
	default:
		errs = append(errs, fmt.Errorf("remainder %q: want discard or distribute", c.Remainder))
	}
	switch split.WriteErrorMode(c.OnWriteError) {
	case split.WriteErrorAbort, split.WriteErrorCollect:
	default:
		errs = append(errs, fmt.Errorf("on write error %q: want abort or collect", c.OnWriteError))
	}
	if _, err := imaging.FormatFromExtension(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format %q: %v", c.Format, err))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d must be >= 1", c.Workers))
	}
	if _, err := label.ParseColor(c.LabelColor); err != nil {
		errs = append(errs, err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %v", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %v", split.ErrConfig, err)
	}
	return nil
}

// Level is the parsed log level, info when unparsable.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// SplitOptions converts the config into split.Options. Call Validate first.
func (c Config) SplitOptions() (split.Options, error) {
	clr, err := label.ParseColor(c.LabelColor)
	if err != nil {
		return split.Options{}, fmt.Errorf("%w: %v", split.ErrConfig, err)
	}
	return split.Options{
		SourcePath:   c.SourcePath,
		OutputDir:    c.OutputDir,
		Grid:         split.Grid{Rows: c.Rows, Cols: c.Cols},
		Remainder:    split.Remainder(c.Remainder),
		Format:       strings.TrimPrefix(strings.ToLower(c.Format), "."),
		Font:         label.FontSpec{Path: c.FontPath, Size: c.FontSize},
		LabelOffset:  image.Pt(c.LabelOffsetX, c.LabelOffsetY),
		LabelColor:   clr,
		Workers:      c.Workers,
		OnWriteError: split.WriteErrorMode(c.OnWriteError),
	}, nil
}

// Storage converts the S3 settings, filling in derived defaults.
func (c Config) Storage() storage.S3Config {
	s := storage.S3Config{
		Endpoint:      c.S3.Endpoint,
		Region:        c.S3.Region,
		AccessKey:     c.S3.AccessKey,
		SecretKey:     c.S3.SecretKey,
		Bucket:        c.S3.Bucket,
		Prefix:        c.S3.Prefix,
		PublicBaseURL: c.S3.PublicBaseURL,
		ManifestPath:  c.S3.ManifestPath,
	}
	if s.PublicBaseURL == "" && s.Endpoint != "" && s.Bucket != "" {
		s.PublicBaseURL = strings.TrimRight(s.Endpoint, "/") + "/" + s.Bucket
	}
	if s.ManifestPath == "" {
		s.ManifestPath = filepath.Join(filepath.Dir(filepath.Clean(c.OutputDir)), "fragments_manifest.json")
	}
	return s
}
