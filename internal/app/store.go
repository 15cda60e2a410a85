package app

import (
	"context"

	"cloud.google.com/go/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/dropzone/internal/config"
	"github.com/vango-dev/dropzone/internal/errors"
	"github.com/vango-dev/dropzone/pkg/upload"
)

// NewStore builds the upload store selected by cfg.Storage.Driver.
func NewStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	st := cfg.Storage
	maxSize := cfg.Upload.MaxFileSize

	switch st.Driver {
	case config.DriverDisk, "":
		store, err := upload.NewDiskStore(cfg.UploadDir(), maxSize)
		if err != nil {
			return nil, errors.New(errors.CodeStorageInit).
				WithDetail("disk: " + cfg.UploadDir()).
				Wrap(err)
		}
		return store.WithExpiry(cfg.Upload.TempExpiry), nil

	case config.DriverS3:
		if st.Bucket == "" {
			return nil, errors.New(errors.CodeStorageBucket).WithDetail("driver s3")
		}
		client, err := newS3Client(ctx, st)
		if err != nil {
			return nil, errors.New(errors.CodeStorageInit).WithDetail("s3").Wrap(err)
		}
		return upload.NewS3Store(client, st.Bucket, st.Prefix, maxSize).
			WithExpiry(cfg.Upload.TempExpiry), nil

	case config.DriverGCS:
		if st.Bucket == "" {
			return nil, errors.New(errors.CodeStorageBucket).WithDetail("driver gcs")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, errors.New(errors.CodeStorageInit).WithDetail("gcs").Wrap(err)
		}
		return upload.NewGCSStore(client, st.Bucket, st.Prefix, maxSize).
			WithExpiry(cfg.Upload.TempExpiry), nil

	default:
		return nil, errors.New(errors.CodeStorageDriver).WithDetail("driver " + st.Driver)
	}
}

func newS3Client(ctx context.Context, st config.StorageConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if st.Region != "" {
		opts = append(opts, awsconfig.WithRegion(st.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if st.Endpoint != "" {
			o.BaseEndpoint = &st.Endpoint
			o.UsePathStyle = true
		}
	}), nil
}
