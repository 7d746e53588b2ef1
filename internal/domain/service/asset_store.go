package service

import "context"

// Asset is the result of a successful upload: the durable, publicly
// reachable URL of the stored object.
type Asset struct {
	URL string
}

// AssetStore defines the interface for exchanging a transient local file for
// a durably hosted asset. The caller owns the local file and is responsible
// for cleaning it up after the upload.
type AssetStore interface {
	// Upload stores the file at localPath and returns its durable URL.
	Upload(ctx context.Context, localPath string) (*Asset, error)
}
