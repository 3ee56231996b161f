// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the static configuration loaded once at process start.
type Config struct {
	// Auth service. BasicAuth credentials are derived from the three parts
	// AppName@VendorName:AppSecret; the grant fields ride in the body.
	TokenURL      string
	AppName       string
	VendorName    string
	AppSecret     string
	GrantUsername string
	GrantPassword string

	// File service.
	FileAPIVersion string

	// Recognizer + sentiment services.
	RecognizerURL string
	LanguageCode  string
	SentimentURL  string

	// Object store.
	Region string
	Bucket string

	// Listener.
	Port        string
	WebhookPath string

	// Zero means no client timeout; hung upstreams are not cancelled.
	HTTPTimeout time.Duration
}

// MustLoad reads the environment and returns a Config, panicking on any
// missing required value.
func MustLoad() Config {
	timeoutSec, _ := strconv.Atoi(get("HTTP_TIMEOUT_SEC", "0"))
	return Config{
		TokenURL:       must("TOKEN_URL"),
		AppName:        must("APP_NAME"),
		VendorName:     must("VENDOR_NAME"),
		AppSecret:      must("APP_SECRET"),
		GrantUsername:  must("GRANT_USERNAME"),
		GrantPassword:  must("GRANT_PASSWORD"),
		FileAPIVersion: get("FILE_API_VERSION", "v20.0"),
		RecognizerURL:  must("RECOGNIZER_URL"),
		LanguageCode:   get("LANGUAGE_CODE", "en-US"),
		SentimentURL:   must("SENTIMENT_URL"),
		Region:         get("AWS_REGION", "us-east-1"),
		Bucket:         must("S3_BUCKET"),
		Port:           get("PORT", "8080"),
		WebhookPath:    get("WEBHOOK_PATH", "/recording"),
		HTTPTimeout:    time.Duration(timeoutSec) * time.Second,
	}
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
