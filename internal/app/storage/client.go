package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/randx"
)

// objectPutter is the part of manager.Uploader the S3 host needs.
type objectPutter interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// s3Client implements Uploader for S3-compatible storage.
type s3Client struct {
	cfg      ServiceConfig
	uploader objectPutter
	logger   zerolog.Logger
}

// newS3Client initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ErrAssetHostUnavailable, fmt.Errorf("load aws sdk config: %w", err))
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		uploader: manager.NewUploader(client),
		logger:   logx.Component("storage"),
	}, nil
}

// Upload puts the image under a fresh key and returns its public URL.
func (c *s3Client) Upload(ctx context.Context, asset event.Asset) (string, error) {
	key := randx.AssetKey(asset.FileName)

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.S3BucketName),
		Key:         aws.String(key),
		Body:        asset.Body,
		ContentType: aws.String(asset.ContentType),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("S3 upload failed.")
		return "", errs.Wrap(errs.ErrAssetUploadFailed, err)
	}

	c.logger.Info().Str("key", key).Int64("size", asset.Size).Msg("Image uploaded.")
	return c.publicURL(key), nil
}

// publicURL is the browser-facing address of key: the configured public base when
// set, the path-style endpoint URL otherwise.
func (c *s3Client) publicURL(key string) string {
	base := strings.TrimRight(c.cfg.S3PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimRight(c.cfg.S3Endpoint, "/") + "/" + c.cfg.S3BucketName
	}
	return base + "/" + key
}
