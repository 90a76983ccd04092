// Package storage backs the photo/avatar upload endpoint. Small installs
// keep files on local disk; larger ones point S3_BUCKET at object storage.
package storage

import "context"

// FileStore saves uploaded files and returns the URL to serve them from.
type FileStore interface {
	Save(ctx context.Context, key string, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}
