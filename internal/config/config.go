package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage providers understood by the storage package.
const (
	ProviderS3    = "s3"
	ProviderGCS   = "gcs"
	ProviderMinIO = "minio"
)

// Database drivers understood by the database package.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// AuditDisabled turns the scheduled gallery audit off.
const AuditDisabled = "off"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Object storage
	StorageProvider    string `env:"STORAGE_PROVIDER" envDefault:"s3"`
	BucketName         string `env:"S3_BUCKET_NAME"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint         string `env:"S3_ENDPOINT"`

	GCSCredentialsFile   string `env:"GCS_CREDENTIALS_FILE"`
	GCSSigningEmail      string `env:"GCS_SIGNING_EMAIL"`
	GCSSigningPrivateKey string `env:"GCS_SIGNING_PRIVATE_KEY"`

	MinIOEndpoint string `env:"MINIO_ENDPOINT"`
	MinIOUseSSL   bool   `env:"MINIO_USE_SSL" envDefault:"true"`

	// Student store
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	StudentsTable  string `env:"STUDENTS_TABLE" envDefault:"\"User\""`

	// Gallery
	SignedURLTTL     time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`
	SignConcurrency  int           `env:"SIGN_CONCURRENCY" envDefault:"8"`
	ProgramsFile     string        `env:"PROGRAMS_FILE"`
	NormalizeCareers bool          `env:"NORMALIZE_CAREERS" envDefault:"false"`
	AuditSchedule    string        `env:"AUDIT_SCHEDULE" envDefault:"@every 5m"`

	// Display
	PageTitle       string        `env:"PAGE_TITLE" envDefault:"GRADUADOS"`
	PageTerm        string        `env:"PAGE_TERM" envDefault:"2026-1"`
	RefreshInterval time.Duration `env:"DISPLAY_REFRESH_INTERVAL" envDefault:"10s"`
	AdvanceInterval time.Duration `env:"DISPLAY_ADVANCE_INTERVAL" envDefault:"8s"`
	GalleryURL      string        `env:"GALLERY_URL" envDefault:"http://localhost:8080"`
	SlideshowLog    string        `env:"SLIDESHOW_LOG_FILE" envDefault:"slideshow.log"`

	// Tracing
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

var tableNamePattern = regexp.MustCompile(`^("[A-Za-z_][A-Za-z0-9_]*"|[A-Za-z_][A-Za-z0-9_]*)(\.("[A-Za-z_][A-Za-z0-9_]*"|[A-Za-z_][A-Za-z0-9_]*))?$`)

// Load reads an optional .env file and the process environment. Malformed
// values panic; a missing bucket name does not, the gallery degrades to an
// empty result instead.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Sprintf("invalid .env file: %v", err))
	}

	cfg, err := Parse()
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Parse reads the environment into a validated Config.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.BucketName = strings.TrimSpace(cfg.BucketName)
	cfg.StorageProvider = strings.ToLower(strings.TrimSpace(cfg.StorageProvider))
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c Config) Validate() error {
	switch c.StorageProvider {
	case ProviderS3, ProviderGCS, ProviderMinIO:
	default:
		return fmt.Errorf("invalid STORAGE_PROVIDER %q: must be one of s3, gcs, minio", c.StorageProvider)
	}

	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite", c.DatabaseDriver)
	}

	if !tableNamePattern.MatchString(c.StudentsTable) {
		return fmt.Errorf("invalid STUDENTS_TABLE %q", c.StudentsTable)
	}
	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("invalid SIGNED_URL_TTL: must be positive")
	}
	if c.RefreshInterval <= 0 || c.AdvanceInterval <= 0 {
		return fmt.Errorf("invalid display intervals: must be positive")
	}
	if c.SignConcurrency < 1 {
		return fmt.Errorf("invalid SIGN_CONCURRENCY: must be at least 1")
	}
	if c.StorageProvider == ProviderMinIO && strings.TrimSpace(c.MinIOEndpoint) == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_PROVIDER=minio")
	}
	return nil
}

// AuditEnabled reports whether the scheduled audit should run.
func (c Config) AuditEnabled() bool {
	s := strings.TrimSpace(c.AuditSchedule)
	return s != "" && !strings.EqualFold(s, AuditDisabled)
}
