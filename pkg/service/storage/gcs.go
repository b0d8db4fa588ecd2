package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/utils/safe"
)

// GCS stores attachments as objects of a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.AttachmentStorage = &GCS{}

func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (x *GCS) objectName(key string) string {
	if x.prefix == "" {
		return key
	}
	return x.prefix + "/" + key
}

func (x *GCS) Put(ctx context.Context, key, mimeType string, data []byte) error {
	w := x.client.Bucket(x.bucket).Object(x.objectName(key)).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close object writer", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	return nil
}

func (x *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := x.client.Bucket(x.bucket).Object(x.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "attachment object not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	return data, nil
}

// Delete ignores objects that no longer exist
func (x *GCS) Delete(ctx context.Context, key string) error {
	err := x.client.Bucket(x.bucket).Object(x.objectName(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete object", goerr.V("bucket", x.bucket), goerr.V("key", key))
	}
	return nil
}

func (x *GCS) Close() error {
	return x.client.Close()
}
