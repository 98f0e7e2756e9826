package ircloop

import (
	"context"
	"errors"
	"fmt"
)

// runInit is the one-shot pipeline that turns a Config into either an open
// transport or a terminal cause, reported back to the worker as
// TransportInitFinished. It never touches state directly.
func runInit(w *Worker) {
	ctx := w.ownerCtx

	creds, err := w.cfg.Credentials.GetCredentials(ctx)
	if err != nil {
		w.deliver(Command{Kind: KindTransportInitFinished, InitResult: InitResult{
			Err: NewSharedError(fmt.Errorf("%w: %v", ErrLogin, err)),
		}})
		return
	}

	permit, err := w.cfg.Limiter.Acquire(ctx)
	if err != nil {
		// Owner went away while waiting for a slot; nothing left to report to.
		return
	}

	connectCtx, cancel := context.WithTimeout(ctx, w.cfg.ConnectTimeout)
	defer cancel()
	tr, dialErr := w.cfg.Dial(connectCtx)
	if dialErr != nil {
		permit.Release()
		if errors.Is(connectCtx.Err(), context.DeadlineExceeded) {
			w.deliver(Command{Kind: KindTransportInitFinished, InitResult: InitResult{
				Err: NewSharedError(fmt.Errorf("%w: %v", ErrConnectTimeout, dialErr)),
			}})
			return
		}
		w.deliver(Command{Kind: KindTransportInitFinished, InitResult: InitResult{
			Err: NewSharedError(fmt.Errorf("%w: %v", ErrConnect, dialErr)),
		}})
		return
	}

	permit.ReleaseAfter(w.cfg.NewConnectionEvery)

	w.deliver(Command{Kind: KindTransportInitFinished, InitResult: InitResult{
		Transport:   tr,
		Credentials: creds,
	}})
}
