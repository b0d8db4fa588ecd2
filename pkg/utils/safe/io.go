package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// Close closes closer and logs a failure. nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close resource", "error", err)
	}
}

// Write writes data to w and logs a failure. It is meant for response
// bodies where the caller has nothing left to do with the error.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write response", "error", err, "size", len(data))
	}
}
