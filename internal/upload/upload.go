// Package upload moves files from multipart form requests into a temporary
// directory on local disk.
//
// TWO-HOP UPLOAD FLOW:
// Browsers send images as multipart form data. The handler first lands the
// file in a temp directory (this package), then the service ships the temp
// file to the external media host and deletes it. Landing on disk first
// keeps request memory bounded and gives the media client a plain file path
// to work with.
package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// SaveFile extracts the named file field from a parsed multipart form and
// writes it into tempDir under a unique name.
//
// Returns the temp file path, or "" with a nil error when the field is
// simply absent — optional files (the cover image) flow through as "", and
// the caller decides whether absence is an error (the avatar is required).
//
// FILENAME SCHEME:
// "My Photo.png" becomes "My_Photo_<xid>.png": spaces collapse to
// underscores and a unique suffix prevents two uploads of the same filename
// from clobbering each other in the shared temp directory.
func SaveFile(r *http.Request, field, tempDir string) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return "", nil
	}
	header := files[0]

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("upload: opening %s part: %w", field, err)
	}
	defer src.Close()

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("upload: creating temp dir %s: %w", tempDir, err)
	}

	path := filepath.Join(tempDir, tempName(header.Filename))

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("upload: creating temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path) // don't leave a half-written file behind
		return "", fmt.Errorf("upload: writing temp file: %w", err)
	}

	return path, nil
}

// tempName builds the unique on-disk name for an uploaded file.
func tempName(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	base = strings.Join(strings.Fields(base), "_")
	if base == "" {
		base = "upload"
	}
	return base + "_" + xid.New().String() + ext
}
