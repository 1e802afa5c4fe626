package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "", endpointURL("", true))
	assert.Equal(t, "http://minio:9000", endpointURL("minio:9000", false))
	assert.Equal(t, "https://s3.example.com", endpointURL("s3.example.com", true))
	assert.Equal(t, "http://localhost:9000", endpointURL("http://localhost:9000", true))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.GeneratePresignedDownloadURL(ctx, "plans/a.json", time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, s.PutObject(ctx, "plans/a.json", "application/json", []byte(`{}`)))
	url, err := s.GeneratePresignedDownloadURL(ctx, "plans/a.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory://plans/a.json?expires=60", url)

	require.NoError(t, s.DeleteObject(ctx, "plans/a.json"))
	_, ok := s.Object("plans/a.json")
	assert.False(t, ok)
}
