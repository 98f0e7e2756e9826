package ircloop

import (
	"fmt"

	"github.com/kstaniek/go-twitch-irc/internal/metrics"
	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

// runOutgoing owns the transport's write half. It exits once reqs is closed
// (which the worker does exactly once, on leaving Open) and the requests
// still buffered in it have been sent.
func runOutgoing(w *Worker, out transport.Outgoing, reqs <-chan outgoingRequest) {
	for req := range reqs {
		err := out.Send(w.ownerCtx, req.frame)
		if err != nil {
			shared := NewSharedError(fmt.Errorf("%w: %v", ErrOutgoing, err))
			w.deliver(Command{Kind: KindSendError, SendErr: shared})
			replyTo(req.reply, shared)
			continue
		}
		metrics.IncMessagesSent(req.frame.Command)
		replyTo(req.reply, nil)
	}
}

func replyTo(reply chan<- error, err error) {
	if reply == nil {
		return
	}
	select {
	case reply <- err:
	default:
	}
}
