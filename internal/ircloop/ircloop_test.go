package ircloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kstaniek/go-twitch-irc/internal/command"
	"github.com/kstaniek/go-twitch-irc/internal/irc"
	"github.com/kstaniek/go-twitch-irc/internal/login"
	"github.com/kstaniek/go-twitch-irc/internal/ratelimit"
	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

func testConfig(t *testing.T, creds login.Source, fake *transport.Fake, dialErr error) Config {
	t.Helper()
	return Config{
		Credentials:        creds,
		Limiter:            ratelimit.NewSemaphore(4),
		ConnectTimeout:     time.Second,
		NewConnectionEvery: time.Millisecond,
		PingInterval:       30 * time.Millisecond,
		PongWindow:         10 * time.Millisecond,
		Dial: func(ctx context.Context) (transport.Transport, error) {
			if dialErr != nil {
				return nil, dialErr
			}
			return fake, nil
		},
	}
}

func collectFrames(t *testing.T, fake *transport.Fake, n int) []irc.Message {
	t.Helper()
	var frames []irc.Message
	deadline := time.After(time.Second)
	for len(frames) < n {
		select {
		case f := <-fake.FromClient:
			frames = append(frames, f)
		case <-deadline:
			t.Fatalf("timed out waiting for %d frames, got %d: %v", n, len(frames), frames)
		}
	}
	return frames
}

func waitEvent(t *testing.T, events <-chan IncomingEvent, kind EventKind) IncomingEvent {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestHappyPathHandshakeWithToken(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	frames := collectFrames(t, fake, 3)

	want := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:abcd",
		"NICK alice",
	}
	for i, wantFrame := range want {
		if got := frames[i].Raw(); got != wantFrame {
			t.Fatalf("frame %d: got %q, want %q", i, got, wantFrame)
		}
	}
}

func TestNoTokenOmitsPass(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	frames := collectFrames(t, fake, 2)

	if frames[0].Raw() != "CAP REQ :twitch.tv/tags twitch.tv/commands" {
		t.Fatalf("unexpected first frame: %s", frames[0].Raw())
	}
	if frames[1].Raw() != "NICK alice" {
		t.Fatalf("unexpected second frame: %s", frames[1].Raw())
	}
	select {
	case extra := <-fake.FromClient:
		t.Fatalf("unexpected extra frame sent: %s", extra.Raw())
	case <-time.After(20 * time.Millisecond):
	}
}

type failingSource struct{ err error }

func (f failingSource) GetCredentials(context.Context) (login.CredentialsPair, error) {
	return login.CredentialsPair{}, f.err
}

func TestLoginFailureClosesAndAnswersPendingSends(t *testing.T) {
	fake := transport.NewFake(8)
	loginErr := errors.New("boom")
	cfg := testConfig(t, failingSource{err: loginErr}, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	reply := make(chan error, 1)
	w.Send(irc.New("PRIVMSG", "#chan", "hi"), reply)

	ev := waitEvent(t, w.Events(), EventStateClosed)
	if !errors.Is(ev.Cause, ErrLogin) {
		t.Fatalf("expected cause wrapping ErrLogin, got %v", ev.Cause)
	}

	select {
	case err := <-reply:
		if !errors.Is(err, ErrLogin) {
			t.Fatalf("expected reply error wrapping ErrLogin, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reply slot never resolved")
	}
}

func TestPingTimeoutClosesConnection(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3) // handshake

	// Never reply with PONG; expect a PING then a close.
	pingFrame := collectFrames(t, fake, 1)[0]
	if pingFrame.Command != "PING" {
		t.Fatalf("expected PING, got %s", pingFrame.Raw())
	}

	ev := waitEvent(t, w.Events(), EventStateClosed)
	if !errors.Is(ev.Cause, ErrPingTimeout) {
		t.Fatalf("expected ErrPingTimeout, got %v", ev.Cause)
	}
}

func TestServerPingGetsPonged(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3) // handshake

	fake.ToClient <- irc.New("PING", "tmi.twitch.tv")

	deadline := time.After(time.Second)
	for {
		select {
		case f := <-fake.FromClient:
			if f.Command == "PONG" {
				if f.Raw() != "PONG tmi.twitch.tv" {
					t.Fatalf("unexpected pong: %s", f.Raw())
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for PONG")
		}
	}
}

func TestReconnectCommandClosesConnection(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3)

	fake.ToClient <- irc.New("RECONNECT")

	ev := waitEvent(t, w.Events(), EventStateClosed)
	if !errors.Is(ev.Cause, ErrReconnectCmd) {
		t.Fatalf("expected ErrReconnectCmd, got %v", ev.Cause)
	}
}

func TestMalformedPrivmsgFallsBackToGeneric(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3)

	raw, err := irc.Parse(":x!x@x PRIVMSG")
	if err != nil {
		t.Fatalf("unexpected parse error building fixture: %v", err)
	}
	fake.ToClient <- raw

	ev := waitEvent(t, w.Events(), EventIncomingMessage)
	if _, ok := ev.Message.(command.GenericMessage); !ok {
		t.Fatalf("expected GenericMessage fallback, got %T", ev.Message)
	}

	// Connection must still be open: a subsequent well-formed PING still gets ponged.
	fake.ToClient <- irc.New("PING", "tmi.twitch.tv")
	deadline := time.After(time.Second)
	for {
		select {
		case f := <-fake.FromClient:
			if f.Command == "PONG" {
				return
			}
		case <-deadline:
			t.Fatal("connection appears closed after malformed frame")
		}
	}
}

func TestRemoteCloseTransitionsToClosed(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3)

	fake.CloseRemote()

	ev := waitEvent(t, w.Events(), EventStateClosed)
	if !errors.Is(ev.Cause, ErrRemoteClosed) {
		t.Fatalf("expected ErrRemoteClosed, got %v", ev.Cause)
	}
}

func TestSendAfterCloseResolvesWithTerminalCause(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3)

	fake.CloseRemote()
	waitEvent(t, w.Events(), EventStateClosed)

	reply := make(chan error, 1)
	w.Send(irc.New("PRIVMSG", "#chan", "too late"), reply)

	select {
	case err := <-reply:
		if !errors.Is(err, ErrRemoteClosed) {
			t.Fatalf("expected terminal cause ErrRemoteClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reply slot never resolved after close")
	}
}

func TestAtMostOneStateClosedEvent(t *testing.T) {
	fake := transport.NewFake(8)
	creds := login.NewStatic("alice", "abcd")
	cfg := testConfig(t, creds, fake, nil)

	w := Start(context.Background(), cfg)
	defer w.Close()

	waitEvent(t, w.Events(), EventStateOpen)
	collectFrames(t, fake, 3)

	fake.CloseRemote()
	waitEvent(t, w.Events(), EventStateClosed)

	// Events channel must close after StateClosed; draining it must not
	// yield a second StateClosed.
	closedCount := 0
	for ev := range w.Events() {
		if ev.Kind == EventStateClosed {
			closedCount++
		}
	}
	if closedCount != 0 {
		t.Fatalf("observed %d additional StateClosed events after the first", closedCount)
	}
}
