package safe_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
	"github.com/secmon-lab/casedesk/pkg/utils/safe"
)

type failingCloser struct{ called bool }

func (x *failingCloser) Close() error {
	x.called = true
	return errors.New("boom")
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New(&buf, slog.LevelDebug))

	closer := &failingCloser{}
	safe.Close(ctx, closer)
	gt.B(t, closer.called).True()
	gt.String(t, buf.String()).Contains("failed to close resource")

	safe.Close(ctx, nil)
}

func TestWrite(t *testing.T) {
	var out bytes.Buffer
	safe.Write(context.Background(), &out, []byte("hello"))
	gt.Value(t, out.String()).Equal("hello")

	safe.Write(context.Background(), nil, []byte("ignored"))
}
