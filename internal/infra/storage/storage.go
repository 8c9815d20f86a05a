package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Storage is a destination for generated reports.
type Storage interface {
	Upload(ctx context.Context, key string, data io.Reader) error
}

// Target is a resolved report destination.
type Target struct {
	Storage Storage
	Key     string
}

const s3Scheme = "s3://"

// Resolve maps a configured location to a Target. Locations of the form
// s3://bucket/key go to S3, anything else is treated as a local file path.
func Resolve(location string, s3cfg S3Config) (Target, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return Target{Storage: NewLocalStorage(), Key: location}, nil
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return Target{}, fmt.Errorf("invalid s3 location %q: expected s3://bucket/key", location)
	}
	s, err := NewS3Storage(s3cfg, bucket)
	if err != nil {
		return Target{}, err
	}
	return Target{Storage: s, Key: key}, nil
}

// TimestampedKey inserts _YYYYMMDD-HHMM before the extension of key.
func TimestampedKey(key string, now time.Time) string {
	ext := filepath.Ext(key)
	return strings.TrimSuffix(key, ext) + "_" + now.Format("20060102-1504") + ext
}
