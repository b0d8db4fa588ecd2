package interfaces

import "context"

// AttachmentStorage keeps attachment bytes outside of the case document
type AttachmentStorage interface {
	Put(ctx context.Context, key, mimeType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
