// Package media is the client for the external media host.
//
// THE COLLABORATOR CONTRACT:
// Callers hand over a LOCAL file path (a temp file written by the upload
// helper) and get back a hosted URI — or an error. Either way, the local
// file is gone afterwards: the temp file is removed on both the success and
// the failure path, so a failed upload can't leak disk space request after
// request.
//
// The host is any S3-compatible object store (MinIO, S3, R2, ...). FPutObject
// streams straight from the file path, which is exactly the shape of this
// app's flow: multipart form → temp file → media host.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"github.com/rlbk/nodejs-backend/internal/config"
)

// Storage uploads files to an S3-compatible media host.
type Storage struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// New creates a media storage client and ensures the bucket exists.
func New(cfg config.MediaConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("media: creating client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("media: checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("media: creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Storage{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
	}, nil
}

// UploadFile uploads the file at localPath to the media host and returns its
// hosted URI.
//
// The local file is ALWAYS removed before this function returns — success,
// upload error, even a missing file. Deleting a temp file that failed to
// upload is the whole point; deleting one that uploaded is just hygiene.
func (s *Storage) UploadFile(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", fmt.Errorf("media: empty file path")
	}
	defer os.Remove(localPath)

	objectName := objectNameFor(localPath)

	_, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("media: uploading %s: %w", filepath.Base(localPath), err)
	}

	return s.objectURL(objectName), nil
}

// objectURL builds the public URI for an uploaded object.
func (s *Storage) objectURL(objectName string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, objectName)
}

// objectNameFor derives a collision-free object key from a local file name.
// The xid prefix means two users uploading "avatar.png" never overwrite each
// other's object.
func objectNameFor(localPath string) string {
	return xid.New().String() + "_" + filepath.Base(localPath)
}

// contentTypeFor maps a file extension to a MIME type. Unknown extensions
// fall back to application/octet-stream — the host stores them fine, the
// browser just won't render them inline.
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
