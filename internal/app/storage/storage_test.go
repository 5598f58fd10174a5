package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
)

func pngAsset(body string) event.Asset {
	return event.Asset{
		FileName:    "poster.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestValidateAsset(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		asset event.Asset
		code  int
	}{
		{name: "valid png", asset: pngAsset("data")},
		{name: "mime with parameters", asset: event.Asset{FileName: "a.JPG", ContentType: "image/jpeg; charset=binary", Size: 3, Body: strings.NewReader("abc")}},
		{name: "empty file", asset: event.Asset{FileName: "a.png", ContentType: "image/png", Size: 0, Body: strings.NewReader("")}, code: errs.ErrInvalidParams},
		{name: "too large", asset: event.Asset{FileName: "a.png", ContentType: "image/png", Size: MaxAssetSize + 1, Body: strings.NewReader("x")}, code: errs.ErrFileSizeTooLarge},
		{name: "not an image", asset: event.Asset{FileName: "a.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("abc")}, code: errs.ErrFileTypeInvalid},
		{name: "extension mismatch", asset: event.Asset{FileName: "a.gif", ContentType: "image/png", Size: 3, Body: strings.NewReader("abc")}, code: errs.ErrFileTypeInvalid},
		{name: "no body", asset: event.Asset{FileName: "a.png", ContentType: "image/png", Size: 3}, code: errs.ErrInvalidParams},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAsset(tc.asset)
			if tc.code == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Code != tc.code {
				t.Fatalf("expected code %d, got %v", tc.code, err)
			}
		})
	}

	if err := ValidateFileSize(MaxAssetSize + 1); err.Message != "Image is too large (max 5 MB)." {
		t.Fatalf("unexpected message %q", err.Message)
	}
}

func TestCloudinaryUpload(t *testing.T) {
	t.Parallel()

	t.Run("multipart fields and secure url", func(t *testing.T) {
		var gotPath, gotPreset, gotCloud, gotFile, gotFileName string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				return
			}
			gotPreset = r.FormValue("upload_preset")
			gotCloud = r.FormValue("cloud_name")
			f, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("form file: %v", err)
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			gotFile, gotFileName = string(b), header.Filename
			_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example.com/poster.png","url":"http://cdn.example.com/poster.png"}`))
		}))
		defer srv.Close()

		up, err := NewUploader(ServiceConfig{
			Host:                   HostCloudinary,
			CloudinaryBaseURL:      srv.URL,
			CloudinaryCloudName:    "demo",
			CloudinaryUploadPreset: "unsigned",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		url, err := up.Upload(context.Background(), pngAsset("imagebytes"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != "https://cdn.example.com/poster.png" {
			t.Fatalf("expected secure url, got %s", url)
		}
		if gotPath != "/v1_1/demo/image/upload" {
			t.Fatalf("unexpected path %s", gotPath)
		}
		if gotPreset != "unsigned" || gotCloud != "demo" {
			t.Fatalf("unexpected fields preset=%q cloud=%q", gotPreset, gotCloud)
		}
		if gotFile != "imagebytes" || gotFileName != "poster.png" {
			t.Fatalf("unexpected file %q %q", gotFileName, gotFile)
		}
	})

	t.Run("falls back to url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"url":"http://cdn.example.com/a.png"}`))
		}))
		defer srv.Close()

		up := newCloudinaryClient(ServiceConfig{CloudinaryBaseURL: srv.URL, CloudinaryCloudName: "demo", CloudinaryUploadPreset: "p"})
		url, err := up.Upload(context.Background(), pngAsset("x"))
		if err != nil || url != "http://cdn.example.com/a.png" {
			t.Fatalf("expected url fallback, got %q %v", url, err)
		}
	})

	t.Run("rejection carries host message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
		}))
		defer srv.Close()

		up := newCloudinaryClient(ServiceConfig{CloudinaryBaseURL: srv.URL, CloudinaryCloudName: "demo", CloudinaryUploadPreset: "p"})
		_, err := up.Upload(context.Background(), pngAsset("x"))
		customErr, ok := errs.As(err)
		if !ok || customErr.Code != errs.ErrAssetUploadFailed || customErr.Message != "Upload preset not found" {
			t.Fatalf("expected rejection with host message, got %v", err)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		base := srv.URL
		srv.Close()

		up := newCloudinaryClient(ServiceConfig{CloudinaryBaseURL: base, CloudinaryCloudName: "demo", CloudinaryUploadPreset: "p"})
		_, err := up.Upload(context.Background(), pngAsset("x"))
		customErr, ok := errs.As(err)
		if !ok || customErr.Message != "Network error during upload" || customErr.Kind != errs.KindNetworkFailure {
			t.Fatalf("expected network upload failure, got %v", err)
		}
	})
}

type fakePutter struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakePutter) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	t.Parallel()

	t.Run("public base url", func(t *testing.T) {
		putter := &fakePutter{}
		c := &s3Client{
			cfg:      ServiceConfig{S3BucketName: "assets", S3Endpoint: "https://s3.example.com", S3PublicBaseURL: "https://img.example.com/"},
			uploader: putter,
		}

		url, err := c.Upload(context.Background(), pngAsset("x"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		key := *putter.input.Key
		if !strings.HasPrefix(key, "events/") || !strings.HasSuffix(key, ".png") {
			t.Fatalf("unexpected key %s", key)
		}
		if *putter.input.Bucket != "assets" || *putter.input.ContentType != "image/png" {
			t.Fatalf("unexpected put input %+v", putter.input)
		}
		if url != "https://img.example.com/"+key {
			t.Fatalf("unexpected url %s", url)
		}
	})

	t.Run("path style fallback", func(t *testing.T) {
		c := &s3Client{
			cfg:      ServiceConfig{S3BucketName: "assets", S3Endpoint: "https://s3.example.com/"},
			uploader: &fakePutter{},
		}
		url, err := c.Upload(context.Background(), pngAsset("x"))
		if err != nil || !strings.HasPrefix(url, "https://s3.example.com/assets/events/") {
			t.Fatalf("unexpected url %q %v", url, err)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c := &s3Client{cfg: ServiceConfig{S3BucketName: "assets"}, uploader: &fakePutter{err: errors.New("timeout")}}
		_, err := c.Upload(context.Background(), pngAsset("x"))
		if !errs.IsCode(err, errs.ErrAssetUploadFailed) {
			t.Fatalf("expected ErrAssetUploadFailed, got %v", err)
		}
	})
}

func TestNewUploader_Unconfigured(t *testing.T) {
	t.Parallel()

	cases := map[string]ServiceConfig{
		"cloudinary without preset": {Host: HostCloudinary, CloudinaryCloudName: "demo"},
		"s3 without credentials":    {Host: HostS3, S3BucketName: "assets", S3Endpoint: "https://s3.example.com"},
		"unknown host":              {Host: "ftp"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			up, err := NewUploader(cfg)
			if up != nil || !errs.IsCode(err, errs.ErrAssetHostUnavailable) {
				t.Fatalf("expected ErrAssetHostUnavailable, got %v %v", up, err)
			}
		})
	}
}
