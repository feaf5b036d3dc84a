package contracts

import "context"

// AssetStore accepts raw asset payloads and returns a public retrieval URL.
// It is invoked only from the upload path; messages merely carry the URL.
type AssetStore interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}
