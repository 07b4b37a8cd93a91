// Package assets maps bridge request paths onto the UI's static files.
package assets

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrOutsideRoot is returned for request paths containing a ".." segment.
var ErrOutsideRoot = errors.New("path escapes asset root")

// Resolver resolves request paths against an asset root. The root route
// always maps to the entry document.
type Resolver struct {
	root  string
	entry string
}

// NewResolver returns a Resolver for the given asset root and entry document.
// Both are expected to be absolute and are never modified afterwards.
func NewResolver(root, entry string) *Resolver {
	return &Resolver{root: root, entry: entry}
}

// Root returns the asset root directory.
func (r *Resolver) Root() string { return r.root }

// Entry returns the entry document path.
func (r *Resolver) Entry() string { return r.entry }

// Resolve returns the filesystem path for a request path. "/" resolves to the
// entry document; anything else has its leading separator stripped and is
// joined onto the root.
func (r *Resolver) Resolve(requestPath string) (string, error) {
	if requestPath == "/" {
		return r.entry, nil
	}
	rel := strings.TrimPrefix(requestPath, "/")
	segments := strings.FieldsFunc(rel, func(c rune) bool { return c == '/' || c == '\\' })
	for _, seg := range segments {
		if seg == ".." {
			return "", ErrOutsideRoot
		}
	}
	return filepath.Join(r.root, filepath.FromSlash(rel)), nil
}

// ContentType infers a MIME type from the file extension, falling back to
// sniffing the content.
func ContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}
