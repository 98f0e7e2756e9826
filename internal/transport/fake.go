package transport

import (
	"context"
	"sync"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

// Fake is an in-memory Transport for tests, grounded on the teacher's
// dummySend/fakeErrPort style test doubles: channels stand in for the wire,
// and a test can script exactly what the "remote" sends and observe exactly
// what the core writes back.
type Fake struct {
	// ToClient is fed by the test to simulate frames arriving from the server.
	ToClient chan irc.Message
	// FromClient receives every frame the core writes out.
	FromClient chan irc.Message

	mu       sync.Mutex
	closed   bool
	closedCh chan struct{}

	sendErr error // if set, Outgoing.Send always fails with this
}

// NewFake builds a Fake with buffered channels of the given capacity.
func NewFake(buf int) *Fake {
	return &Fake{
		ToClient:   make(chan irc.Message, buf),
		FromClient: make(chan irc.Message, buf),
		closedCh:   make(chan struct{}),
	}
}

// CloseRemote simulates the server closing the connection: the next Next
// call on the Incoming half reports eof.
func (f *Fake) CloseRemote() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closedCh)
	}
}

// FailSend makes every subsequent Outgoing.Send fail with err.
func (f *Fake) FailSend(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *Fake) Split() (Incoming, Outgoing) {
	return &fakeIncoming{f: f}, &fakeOutgoing{f: f}
}

type fakeIncoming struct{ f *Fake }

func (in *fakeIncoming) Next(ctx context.Context) (irc.Message, error, bool) {
	select {
	case m := <-in.f.ToClient:
		return m, nil, false
	case <-in.f.closedCh:
		return irc.Message{}, nil, true
	case <-ctx.Done():
		return irc.Message{}, NewTransportError(ctx.Err()), false
	}
}

type fakeOutgoing struct{ f *Fake }

func (out *fakeOutgoing) Send(ctx context.Context, m irc.Message) error {
	out.f.mu.Lock()
	err := out.f.sendErr
	out.f.mu.Unlock()
	if err != nil {
		return err
	}
	select {
	case out.f.FromClient <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
