package ircloop

import (
	"github.com/kstaniek/go-twitch-irc/internal/irc"
	"github.com/kstaniek/go-twitch-irc/internal/login"
)

type pendingSend struct {
	frame irc.Message
	reply chan<- error
}

// initializingState buffers sends issued before the transport is ready.
type initializingState struct {
	pending []pendingSend
}

func newInitializingState() *initializingState {
	return &initializingState{}
}

func (s *initializingState) handle(w *Worker, cmd Command) connState {
	switch cmd.Kind {
	case KindSendMessage:
		s.pending = append(s.pending, pendingSend{frame: cmd.SendFrame, reply: cmd.ReplySlot})
		return s
	case KindTransportInitFinished:
		return s.onTransportInitFinished(w, cmd.InitResult)
	case KindSendError:
		return s.toClosed(w, cmd.SendErr)
	case KindIncomingMessage, KindSendPing, KindCheckPong:
		// Unreachable by construction: nothing spawns the forwarder or ping
		// task before a transport exists. Treated as a no-op rather than a
		// panic, since a stricter stance is brittle against any future
		// scheduling change.
		return s
	default:
		return s
	}
}

func (s *initializingState) onTransportInitFinished(w *Worker, result InitResult) connState {
	if result.Err != nil {
		return s.toClosed(w, result.Err)
	}

	incoming, outgoing := result.Transport.Split()
	open := newOpenState(w, incoming, outgoing)

	w.emit(IncomingEvent{Kind: EventStateOpen})

	for _, frame := range buildHandshake(result.Credentials) {
		open.sendFrame(frame, nil)
	}
	for _, p := range s.pending {
		open.sendFrame(p.frame, p.reply)
	}
	s.pending = nil

	return open
}

func (s *initializingState) toClosed(w *Worker, cause *SharedError) connState {
	s.drain(cause)
	w.emit(IncomingEvent{Kind: EventStateClosed, Cause: cause})
	w.closeEvents()
	return newClosedState(cause)
}

func (s *initializingState) drain(cause *SharedError) {
	for _, p := range s.pending {
		if p.reply == nil {
			continue
		}
		select {
		case p.reply <- cause:
		default:
		}
	}
	s.pending = nil
}

// buildHandshake returns the three handshake frames in the fixed order the
// protocol requires, omitting PASS entirely when no token is configured.
func buildHandshake(creds login.CredentialsPair) []irc.Message {
	frames := []irc.Message{irc.New("CAP", "REQ", "twitch.tv/tags twitch.tv/commands")}
	if creds.Token != "" {
		frames = append(frames, irc.New("PASS", "oauth:"+creds.Token))
	}
	frames = append(frames, irc.New("NICK", creds.Login))
	return frames
}
