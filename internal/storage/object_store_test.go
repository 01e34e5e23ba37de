package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("image/png")
	require.True(t, strings.HasPrefix(key, "images/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.NotEqual(t, key, ObjectKey("image/png"))

	require.False(t, strings.Contains(ObjectKey("application/octet-stream"), "."))
}

func TestPublicURL(t *testing.T) {
	require.Equal(t, "https://cdn.example.com/images/a.png", PublicURL("https://cdn.example.com/", "/images/a.png"))
}
