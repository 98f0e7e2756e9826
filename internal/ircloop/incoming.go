package ircloop

import (
	"context"
	"fmt"

	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

// runIncoming reads frames off the transport's read half and forwards them
// as IncomingMessage commands until EOF, a transport-level error, or the
// kill signal.
func runIncoming(w *Worker, in transport.Incoming, kill <-chan struct{}) {
	ctx, cancel := deriveKillable(w.ownerCtx, kill)
	defer cancel()

	for {
		select {
		case <-kill:
			return
		case <-w.ownerCtx.Done():
			return
		default:
		}

		msg, err, eof := in.Next(ctx)

		select {
		case <-kill:
			return
		case <-w.ownerCtx.Done():
			return
		default:
		}

		if eof {
			w.deliver(Command{Kind: KindIncomingMessage, IncomingEOF: true})
			return
		}
		if err != nil {
			w.deliver(Command{Kind: KindIncomingMessage, IncomingErr: classifyIncomingErr(err)})
			return
		}
		w.deliver(Command{Kind: KindIncomingMessage, IncomingFrame: msg})
	}
}

func classifyIncomingErr(err error) *SharedError {
	if transport.IsParseError(err) {
		return NewSharedError(fmt.Errorf("%w: %v", ErrIRCParse, err))
	}
	return NewSharedError(fmt.Errorf("%w: %v", ErrIncoming, err))
}

// deriveKillable returns a context that is cancelled whenever parent is
// done or kill fires, whichever comes first.
func deriveKillable(parent context.Context, kill <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-kill:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
