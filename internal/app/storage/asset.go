package storage

import (
	"path/filepath"
	"strings"

	"gatherlocal/internal/app/event"
	"gatherlocal/internal/pkg/errs"
)

const (
	// MaxAssetSizeMB is the maximum allowed image size in megabytes.
	MaxAssetSizeMB = 5

	// MaxAssetSize is the maximum allowed image size in bytes.
	MaxAssetSize = MaxAssetSizeMB * 1024 * 1024
)

// AllowedMIMETypes defines the set of permitted MIME types for event images.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateAsset checks an image before any upload is attempted.
func ValidateAsset(asset event.Asset) *errs.CustomError {
	if asset.Body == nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := ValidateFileSize(asset.Size); err != nil {
		return err
	}
	return ValidateFileType(asset.FileName, asset.ContentType)
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAssetSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAssetSizeMB)
	}

	return nil
}

// ValidateFileType checks that the extension is an allowed image type and agrees
// with the declared MIME type.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(lowerMimeType, ';'); i >= 0 {
		lowerMimeType = strings.TrimSpace(lowerMimeType[:i])
	}

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}
