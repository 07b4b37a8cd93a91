package assets

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RootRouteIsEntry(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(t.TempDir(), "elsewhere", "main.html")
	r := NewResolver(root, entry)

	path, err := r.Resolve("/")
	require.NoError(t, err)
	assert.Equal(t, entry, path)
}

func TestResolver_JoinsOntoRoot(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, filepath.Join(root, "index.html"))

	tests := []struct {
		request  string
		expected string
	}{
		{"/app.js", filepath.Join(root, "app.js")},
		{"/css/site.css", filepath.Join(root, "css", "site.css")},
		{"/index.html", filepath.Join(root, "index.html")},
		{"/a..b/c.txt", filepath.Join(root, "a..b", "c.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			path, err := r.Resolve(tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
			assert.True(t, strings.HasPrefix(path, root))
		})
	}
}

func TestResolver_RejectsParentSegments(t *testing.T) {
	r := NewResolver(t.TempDir(), "/entry.html")

	for _, p := range []string{"/../secret", "/a/../../etc/passwd", "/..", `/a\..\b`} {
		t.Run(p, func(t *testing.T) {
			_, err := r.Resolve(p)
			assert.ErrorIs(t, err, ErrOutsideRoot)
		})
	}
}

func TestContentType(t *testing.T) {
	assert.True(t, strings.HasPrefix(ContentType("index.html", nil), "text/html"))
	assert.True(t, strings.HasPrefix(ContentType("site.css", nil), "text/css"))
	assert.Equal(t, "image/png", ContentType("logo.png", nil))

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", ContentType("logo", png))
	assert.Equal(t, "application/octet-stream", ContentType("blob.unknownext", []byte{0x00, 0x01, 0x02, 0xff}))
}
