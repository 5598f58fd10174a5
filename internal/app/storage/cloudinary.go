package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
	"gatherlocal/internal/pkg/logx"
	"gatherlocal/internal/pkg/randx"
)

// cloudinaryClient uploads through an unsigned upload preset.
type cloudinaryClient struct {
	endpoint  string
	cloudName string
	preset    string
	http      *http.Client
	logger    zerolog.Logger
}

func newCloudinaryClient(cfg ServiceConfig) *cloudinaryClient {
	base := strings.TrimRight(cfg.CloudinaryBaseURL, "/")
	if base == "" {
		base = DefaultCloudinaryBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: uploadTimeout, Transport: &logx.Transport{}}
	}

	return &cloudinaryClient{
		endpoint:  fmt.Sprintf("%s/v1_1/%s/image/upload", base, cfg.CloudinaryCloudName),
		cloudName: cfg.CloudinaryCloudName,
		preset:    cfg.CloudinaryUploadPreset,
		http:      httpClient,
		logger:    logx.Component("storage"),
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload posts the image as multipart form data with the file, upload_preset and
// cloud_name fields.
func (c *cloudinaryClient) Upload(ctx context.Context, asset event.Asset) (string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, asset.FileName))
	header.Set("Content-Type", asset.ContentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	if _, err := io.Copy(part, asset.Body); err != nil {
		return "", errs.Wrap(errs.ErrInvalidParams, err)
	}
	if err := form.WriteField("upload_preset", c.preset); err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	if err := form.WriteField("cloud_name", c.cloudName); err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	if err := form.Close(); err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", errs.Wrap(errs.ErrUnknown, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Request-ID", randx.RequestID())

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("file_name", asset.FileName).Msg("Image upload failed.")
		return "", errs.Wrap(errs.ErrAssetUploadFailed, err)
	}
	defer res.Body.Close()

	var out cloudinaryResponse
	decodeErr := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&out)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		customErr := errs.NewError(errs.ErrAssetUploadFailed).WithKind(errs.KindServerRejected)
		if decodeErr == nil && out.Error != nil {
			customErr = customErr.FromServer(out.Error.Message)
		}
		c.logger.Warn().Int("status", res.StatusCode).Str("reason", customErr.Message).Msg("Image upload rejected.")
		return "", customErr
	}
	if decodeErr != nil {
		return "", errs.Wrap(errs.ErrMalformedResponse, decodeErr)
	}

	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	if url == "" {
		return "", errs.NewError(errs.ErrMalformedResponse)
	}

	c.logger.Info().Str("file_name", asset.FileName).Int64("size", asset.Size).Msg("Image uploaded.")
	return url, nil
}
