/*
Package storage uploads event images to the configured asset host and returns the
public URL the backend stores with the event.

Two hosts are supported: a Cloudinary-style unsigned multipart endpoint and any
S3-compatible bucket. The returned URL is opaque to the rest of the client.
*/
package storage

import (
	"context"
	"net/http"
	"time"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
)

const (
	// HostCloudinary selects the unsigned multipart upload host.
	HostCloudinary = "cloudinary"

	// HostS3 selects an S3-compatible bucket.
	HostS3 = "s3"

	// DefaultCloudinaryBaseURL is the public Cloudinary API root.
	DefaultCloudinaryBaseURL = "https://api.cloudinary.com"

	// uploadTimeout bounds a single image upload.
	uploadTimeout = 60 * time.Second
)

// ServiceConfig holds the configuration required to connect to the asset host.
type ServiceConfig struct {
	Host string

	CloudinaryBaseURL      string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string

	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	// HTTPClient overrides the client used for Cloudinary uploads.
	HTTPClient *http.Client
}

// Uploader defines the public interface for the asset host.
type Uploader interface {
	// Upload stores the asset and returns its public URL.
	Upload(ctx context.Context, asset event.Asset) (string, error)
}

// NewUploader is the factory function for Uploader.
// It returns ErrAssetHostUnavailable when the selected host is not fully configured.
func NewUploader(cfg ServiceConfig) (Uploader, error) {
	switch cfg.Host {
	case HostS3:
		if cfg.S3BucketName == "" || cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, errs.NewError(errs.ErrAssetHostUnavailable)
		}
		client, err := newS3Client(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case HostCloudinary, "":
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryUploadPreset == "" {
			return nil, errs.NewError(errs.ErrAssetHostUnavailable)
		}
		return newCloudinaryClient(cfg), nil
	default:
		return nil, errs.NewError(errs.ErrAssetHostUnavailable)
	}
}
