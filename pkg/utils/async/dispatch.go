package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/utils/errutil"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// Dispatcher runs fire-and-forget handlers in their own goroutines. Handlers
// get a context detached from the caller's cancellation that keeps the
// caller's logger. Wait blocks until every dispatched handler returned.
type Dispatcher struct {
	wg sync.WaitGroup
}

// Dispatch starts handler in a new goroutine. Errors and panics are logged
// and reported, never propagated.
func (x *Dispatcher) Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx))

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("handler", name), goerr.V("panic", r)), "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Handle(bgCtx, goerr.Wrap(err, "async handler failed", goerr.V("handler", name)), "async handler failed")
		}
	}()
}

// Wait blocks until all dispatched handlers finished
func (x *Dispatcher) Wait() {
	x.wg.Wait()
}
