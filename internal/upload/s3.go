package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/observability"
)

// ObjectPutter is the part of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies run artifacts to a bucket, flat under a key prefix.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *observability.Logger
}

// NewS3Uploader builds a client from the default AWS credential chain with
// optional region, profile and path-style overrides.
func NewS3Uploader(ctx context.Context, cfg config.UploadConfig, logger *observability.Logger) (*Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewUploader(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func NewUploader(client ObjectPutter, bucket, prefix string, logger *observability.Logger) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "upload"),
	}
}

// Key is the object key a local file is stored under.
func (u *Uploader) Key(file string) string {
	return path.Join(strings.TrimSuffix(u.prefix, "/"), filepath.Base(file))
}

// UploadFiles uploads every file, continuing past failures. It returns how
// many succeeded and the joined errors of the rest.
func (u *Uploader) UploadFiles(ctx context.Context, files []string) (int, error) {
	var (
		uploaded int
		errs     []error
	)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := u.put(ctx, file); err != nil {
			u.logger.Warn("Upload failed", "file", file, "error", err.Error())
			errs = append(errs, err)
			continue
		}
		uploaded++
	}

	u.logger.Info("Upload finished", "bucket", u.bucket, "uploaded", uploaded, "failed", len(errs))
	return uploaded, errors.Join(errs...)
}

func (u *Uploader) put(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer func() { _ = f.Close() }()

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.Key(file)),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := u.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put %s: %w", *in.Key, err)
	}
	return nil
}
