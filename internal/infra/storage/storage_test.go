package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampedKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "shared/q_report_20250601-0905.csv", TimestampedKey("shared/q_report.csv", now))
	assert.Equal(t, "report_20250601-0905", TimestampedKey("report", now))
}

func TestResolve_Local(t *testing.T) {
	target, err := Resolve("/mnt/share/report.csv", S3Config{})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, target.Storage)
	assert.Equal(t, "/mnt/share/report.csv", target.Key)
}

func TestResolve_S3(t *testing.T) {
	target, err := Resolve("s3://reports/quarterly/q_report.csv", S3Config{Region: "ap-east-1"})
	require.NoError(t, err)
	s, ok := target.Storage.(*S3Storage)
	require.True(t, ok)
	assert.Equal(t, "reports", s.bucket)
	assert.Equal(t, "quarterly/q_report.csv", target.Key)
}

func TestResolve_InvalidS3(t *testing.T) {
	_, err := Resolve("s3://bucket-only", S3Config{})
	assert.Error(t, err)
}

func TestLocalStorage_Upload(t *testing.T) {
	key := filepath.Join(t.TempDir(), "nested", "report.csv")

	err := NewLocalStorage().Upload(context.Background(), key, strings.NewReader("a,b\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(key)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}
