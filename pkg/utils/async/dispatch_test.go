package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/casedesk/pkg/utils/async"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

func TestDispatcher(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(logging.With(context.Background(), logging.New(&buf, slog.LevelDebug)))

	var d async.Dispatcher
	var calls atomic.Int32
	var canceled atomic.Bool

	cancel()
	d.Dispatch(ctx, "ok", func(ctx context.Context) error {
		calls.Add(1)
		canceled.Store(ctx.Err() != nil)
		return nil
	})
	d.Dispatch(ctx, "failing", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("sink unavailable")
	})
	d.Dispatch(ctx, "panicking", func(ctx context.Context) error {
		calls.Add(1)
		panic("unexpected")
	})
	d.Wait()

	gt.Value(t, calls.Load()).Equal(int32(3))
	// handlers are detached from the caller's cancellation
	gt.B(t, canceled.Load()).False()
	gt.String(t, buf.String()).Contains("sink unavailable")
	gt.String(t, buf.String()).Contains("panic in async handler")
}
