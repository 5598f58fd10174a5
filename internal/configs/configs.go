/*
Package configs is responsible for loading and parsing the application's configuration settings.

It reads operating system environment variables for the running environment, the local bridge
port and allowed UI origins, the backend API root, the asset host account, the payment
provider script and the device location fallbacks.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// AssetHostCloudinary uploads event images with an unsigned Cloudinary preset.
	AssetHostCloudinary = "cloudinary"

	// AssetHostS3 uploads event images to an S3-compatible bucket.
	AssetHostS3 = "s3"

	// DefaultPaymentScriptURL is the provider checkout script the widget needs.
	DefaultPaymentScriptURL = "https://checkout.razorpay.com/v1/checkout.js"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Settings
	Environment string
	Port        int
	StateDir    string

	// Bridge Settings
	AllowedOrigins []string

	// Backend Settings
	APIRoot      string
	APITimeout   time.Duration
	APIRateLimit float64
	APIRateBurst int

	// Asset Host Settings
	AssetHost              string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	S3BucketName           string
	S3Endpoint             string
	S3AccessKeyID          string
	S3SecretAccessKey      string
	S3PublicBaseURL        string

	// Payment Settings
	PaymentScriptURL string
	MerchantName     string
	ThemeColor       string

	// Discovery Settings
	FeedRadiusKm int
	DeviceLat    *float64
	DeviceLng    *float64
	GeoIPURL     string
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// It applies defaults, converts types and validates the values that must be supplied externally.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 5173)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	cfg.StateDir = os.Getenv("STATE_DIR")
	if cfg.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("STATE_DIR is not set and no user config directory is available: %w", err)
		}
		cfg.StateDir = filepath.Join(dir, "gatherlocal")
	}

	// --- Bridge Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	// --- Backend Settings ---
	cfg.APIRoot = strings.TrimRight(os.Getenv("API_ROOT"), "/")
	if cfg.APIRoot == "" {
		return nil, fmt.Errorf("API_ROOT environment variable is required")
	}
	if u, err := url.Parse(cfg.APIRoot); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API_ROOT must be an absolute URL, got %q", cfg.APIRoot)
	}

	timeoutStr := os.Getenv("API_TIMEOUT")
	if timeoutStr == "" {
		timeoutStr = "30s"
	}
	cfg.APITimeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT environment variable: %w", err)
	}

	rateStr := os.Getenv("API_RATE_LIMIT")
	if rateStr == "" {
		rateStr = "10"
	}
	cfg.APIRateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil || cfg.APIRateLimit <= 0 {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT environment variable %q", rateStr)
	}

	cfg.APIRateBurst, err = intEnv("API_RATE_BURST", 20)
	if err != nil {
		return nil, err
	}

	// --- Asset Host Settings ---
	cfg.AssetHost = strings.ToLower(os.Getenv("ASSET_HOST"))
	if cfg.AssetHost == "" {
		cfg.AssetHost = AssetHostCloudinary
	}

	switch cfg.AssetHost {
	case AssetHostCloudinary:
		cfg.CloudinaryCloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
		cfg.CloudinaryUploadPreset = os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	case AssetHostS3:
		cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
		cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
		cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
		cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
		cfg.S3PublicBaseURL = strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/")

		if cfg.S3BucketName == "" || cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "" {
			return nil, fmt.Errorf("ASSET_HOST=s3 requires S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY")
		}
	default:
		return nil, fmt.Errorf("unsupported ASSET_HOST %q (want %s or %s)", cfg.AssetHost, AssetHostCloudinary, AssetHostS3)
	}

	// --- Payment Settings ---
	cfg.PaymentScriptURL = os.Getenv("PAYMENT_SCRIPT_URL")
	if cfg.PaymentScriptURL == "" {
		cfg.PaymentScriptURL = DefaultPaymentScriptURL
	}

	cfg.MerchantName = os.Getenv("MERCHANT_NAME")
	if cfg.MerchantName == "" {
		cfg.MerchantName = "GatherLocal"
	}

	cfg.ThemeColor = os.Getenv("THEME_COLOR")
	if cfg.ThemeColor == "" {
		cfg.ThemeColor = "#6366F1"
	}

	// --- Discovery Settings ---
	cfg.FeedRadiusKm, err = intEnv("FEED_RADIUS_KM", 10)
	if err != nil {
		return nil, err
	}
	if cfg.FeedRadiusKm <= 0 {
		return nil, fmt.Errorf("FEED_RADIUS_KM must be positive, got %d", cfg.FeedRadiusKm)
	}

	latStr, lngStr := os.Getenv("DEVICE_LAT"), os.Getenv("DEVICE_LNG")
	if (latStr == "") != (lngStr == "") {
		return nil, fmt.Errorf("DEVICE_LAT and DEVICE_LNG must be set together")
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid DEVICE_LAT %q", latStr)
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil || lng < -180 || lng > 180 {
			return nil, fmt.Errorf("invalid DEVICE_LNG %q", lngStr)
		}
		cfg.DeviceLat, cfg.DeviceLng = &lat, &lng
	}

	cfg.GeoIPURL = os.Getenv("GEOIP_URL")

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
