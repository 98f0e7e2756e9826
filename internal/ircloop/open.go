package ircloop

import (
	"fmt"
	"sync"

	"github.com/kstaniek/go-twitch-irc/internal/command"
	"github.com/kstaniek/go-twitch-irc/internal/irc"
	"github.com/kstaniek/go-twitch-irc/internal/metrics"
	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

// outgoingRequest pairs a frame with its optional reply slot on the way to
// the outgoing forwarder.
type outgoingRequest struct {
	frame irc.Message
	reply chan<- error
}

// outgoingBuffer bounds how many in-flight sends the worker will buffer
// for the forwarder before treating further sends as lost; a stand-in for
// the reference implementation's unbounded channel, since an unbounded
// buffer isn't available as a ready-made Go primitive.
const outgoingBuffer = 256

// openState owns the live transport halves indirectly, through the
// auxiliary tasks it spawned, plus the two kill signals that bound their
// shutdown.
type openState struct {
	outgoingCh   chan outgoingRequest
	killIncoming chan struct{}
	killPing     chan struct{}
	pongReceived bool
	closeOnce    sync.Once
}

func newOpenState(w *Worker, incoming transport.Incoming, outgoing transport.Outgoing) *openState {
	s := &openState{
		outgoingCh:   make(chan outgoingRequest, outgoingBuffer),
		killIncoming: make(chan struct{}),
		killPing:     make(chan struct{}),
	}
	go runIncoming(w, incoming, s.killIncoming)
	go runOutgoing(w, outgoing, s.outgoingCh)
	go runPing(w, s.killPing)
	return s
}

func (s *openState) handle(w *Worker, cmd Command) connState {
	switch cmd.Kind {
	case KindSendMessage:
		s.sendFrame(cmd.SendFrame, cmd.ReplySlot)
		return s
	case KindSendError:
		return s.toClosed(w, cmd.SendErr)
	case KindIncomingMessage:
		return s.onIncomingMessage(w, cmd)
	case KindSendPing:
		s.pongReceived = false
		s.sendFrame(irc.New("PING", "tmi.twitch.tv"), nil)
		metrics.IncPingSent()
		return s
	case KindCheckPong:
		if !s.pongReceived {
			metrics.IncPingTimeout()
			return s.toClosed(w, NewSharedError(ErrPingTimeout))
		}
		return s
	default:
		// TransportInitFinished cannot legitimately arrive twice; absorb it.
		return s
	}
}

func (s *openState) onIncomingMessage(w *Worker, cmd Command) connState {
	if cmd.IncomingEOF {
		return s.toClosed(w, NewSharedError(ErrRemoteClosed))
	}
	if cmd.IncomingErr != nil {
		return s.toClosed(w, cmd.IncomingErr)
	}

	metrics.IncMessagesReceived(cmd.IncomingFrame.Command)
	decoded, err := command.Decode(cmd.IncomingFrame)
	if err != nil {
		metrics.IncError(metrics.ErrIRCParse)
		decoded = command.NewGeneric(cmd.IncomingFrame)
	}
	w.emit(IncomingEvent{Kind: EventIncomingMessage, Message: decoded})

	switch decoded.(type) {
	case command.PingMessage:
		s.sendFrame(irc.New("PONG", "tmi.twitch.tv"), nil)
	case command.PongMessage:
		s.pongReceived = true
	case command.ReconnectMessage:
		return s.toClosed(w, NewSharedError(ErrReconnectCmd))
	}
	return s
}

// sendFrame forwards a frame to the outgoing forwarder without blocking.
// If the buffer is full — the forwarder is not keeping up, for example
// because it is blocked in a transport write — the frame itself is lost,
// but any reply slot is still resolved so it is never left dangling.
func (s *openState) sendFrame(frame irc.Message, reply chan<- error) {
	select {
	case s.outgoingCh <- outgoingRequest{frame: frame, reply: reply}:
	default:
		if reply != nil {
			select {
			case reply <- fmt.Errorf("%w: outgoing forwarder unavailable", ErrOutgoing):
			default:
			}
		}
	}
}

// toClosed is the single funnel every exit path from Open runs through, so
// the kill signals fire exactly once regardless of which command triggered
// the transition.
func (s *openState) toClosed(w *Worker, cause *SharedError) connState {
	s.closeOnce.Do(func() {
		close(s.killIncoming)
		close(s.killPing)
		close(s.outgoingCh)
	})
	w.emit(IncomingEvent{Kind: EventStateClosed, Cause: cause})
	w.closeEvents()
	return newClosedState(cause)
}
