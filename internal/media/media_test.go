package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rlbk/nodejs-backend/internal/config"
)

func TestContentTypeFor(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"avatar.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"}, // extension match is case-insensitive
		{"anim.gif", "image/gif"},
		{"modern.webp", "image/webp"},
		{"icon.svg", "image/svg+xml"},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tc := range cases {
		if got := contentTypeFor(tc.path); got != tc.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestObjectNameFor(t *testing.T) {
	name := objectNameFor("/tmp/uploads/avatar_abc.png")

	// The key keeps the original base name (debuggable in the bucket) with a
	// unique prefix (no cross-user clobbering).
	if !strings.HasSuffix(name, "_avatar_abc.png") {
		t.Errorf("objectNameFor() = %q, want suffix _avatar_abc.png", name)
	}
	if strings.Contains(name, "/") {
		t.Errorf("objectNameFor() = %q, must not contain path separators", name)
	}
	if name == objectNameFor("/tmp/uploads/avatar_abc.png") {
		t.Error("objectNameFor() must be unique per call")
	}
}

func TestObjectURL(t *testing.T) {
	s := &Storage{bucket: "media", endpoint: "cdn.example.com:9000"}
	if got := s.objectURL("abc_avatar.png"); got != "http://cdn.example.com:9000/media/abc_avatar.png" {
		t.Errorf("objectURL() = %q", got)
	}

	s.useSSL = true
	if got := s.objectURL("abc_avatar.png"); !strings.HasPrefix(got, "https://") {
		t.Errorf("objectURL() with SSL = %q, want https scheme", got)
	}
}

// =========================================================================
// INTEGRATION TEST
//
// Needs a live S3-compatible host; set MEDIA_TEST_ENDPOINT to run, e.g.:
//
//	docker run -p 9000:9000 minio/minio server /data
//	MEDIA_TEST_ENDPOINT=localhost:9000 go test ./internal/media/
// =========================================================================

func TestUploadFile_Integration(t *testing.T) {
	endpoint := os.Getenv("MEDIA_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("set MEDIA_TEST_ENDPOINT to run the media integration test")
	}

	storage, err := New(config.MediaConfig{
		Endpoint:        endpoint,
		AccessKeyID:     envOr("MEDIA_TEST_ACCESS_KEY", "minioadmin"),
		SecretAccessKey: envOr("MEDIA_TEST_SECRET_KEY", "minioadmin"),
		Bucket:          "media-test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	local := filepath.Join(t.TempDir(), "avatar.png")
	if err := os.WriteFile(local, []byte("fake image bytes"), 0o644); err != nil {
		t.Fatalf("writing local file: %v", err)
	}

	url, err := storage.UploadFile(context.Background(), local)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if !strings.Contains(url, "media-test") {
		t.Errorf("UploadFile() = %q, want a URI inside the bucket", url)
	}

	// The local temp file must be gone after the upload.
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Error("UploadFile() must remove the local file")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
