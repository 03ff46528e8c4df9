package blob

import (
	"context"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"kennelcore/internal/infra/blob/fs"
	"kennelcore/internal/infra/blob/memory"
	"kennelcore/internal/infra/blob/s3"
)

// S3Config configures the S3 driver.
type S3Config = s3.Config

// Config selects and configures a blob driver.
type Config struct {
	Driver Driver   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// Validate checks the driver and its required settings.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.In(Driver(""), DriverFilesystem, DriverS3, DriverMemory)),
		validation.Field(&c.S3, validation.By(func(any) error {
			if c.Driver == DriverS3 && c.S3.Bucket == "" {
				return fmt.Errorf("bucket required for the s3 driver")
			}
			return nil
		})),
	)
}

// ConfigFromEnv reads the blob settings from the environment.
//
//	KENNELCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	KENNELCORE_BLOB_FS_ROOT: directory for the fs driver (default ./blobdata)
//	KENNELCORE_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PATH_STYLE: s3 driver
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN: optional static keys
func ConfigFromEnv() Config {
	return Config{
		Driver: Driver(os.Getenv("KENNELCORE_BLOB_DRIVER")),
		FSRoot: os.Getenv("KENNELCORE_BLOB_FS_ROOT"),
		S3: S3Config{
			Bucket:          os.Getenv("KENNELCORE_BLOB_S3_BUCKET"),
			Region:          os.Getenv("KENNELCORE_BLOB_S3_REGION"),
			Endpoint:        os.Getenv("KENNELCORE_BLOB_S3_ENDPOINT"),
			PathStyle:       strings.EqualFold(os.Getenv("KENNELCORE_BLOB_S3_PATH_STYLE"), "true"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		},
	}
}

// Open constructs the configured blob store. The filesystem driver is the
// default.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("blob config: %w", err)
	}
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an in-memory store for tests.
func NewMemory() Store { return memory.New() }

// NewMockS3 returns an S3 store backed by an in-process fake bucket.
func NewMockS3() Store { return s3.NewMock() }
