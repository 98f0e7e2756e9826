package command

import (
	"errors"
	"testing"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

func TestDecodePing(t *testing.T) {
	raw := irc.New("PING", "tmi.twitch.tv")
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ping, ok := msg.(PingMessage)
	if !ok {
		t.Fatalf("got %T, want PingMessage", msg)
	}
	if ping.Argument != "tmi.twitch.tv" {
		t.Fatalf("argument = %q", ping.Argument)
	}
}

func TestDecodePrivmsgWithBits(t *testing.T) {
	raw, err := irc.Parse("@bits=100 :ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #ronni :Cheer100 great stream")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	priv, ok := msg.(PrivmsgMessage)
	if !ok {
		t.Fatalf("got %T, want PrivmsgMessage", msg)
	}
	if priv.Channel != "ronni" || priv.SenderLogin != "ronni" || priv.Bits != 100 {
		t.Fatalf("priv = %+v", priv)
	}
	if priv.Text != "Cheer100 great stream" {
		t.Fatalf("text = %q", priv.Text)
	}
}

func TestDecodePrivmsgMissingChannelFails(t *testing.T) {
	raw, err := irc.Parse(":x!x@x PRIVMSG")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = Decode(raw)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !errors.Is(err, ErrMissingParam) {
		t.Fatalf("expected wrapped ErrMissingParam, got %v", err)
	}
}

func TestDecodeClearmsgRequiresTags(t *testing.T) {
	raw, err := irc.Parse(":tmi.twitch.tv CLEARMSG #ronni :bad word")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = Decode(raw)
	if !errors.Is(err, ErrMissingTag) {
		t.Fatalf("expected wrapped ErrMissingTag, got %v", err)
	}
}

func TestDecodeJoin(t *testing.T) {
	raw, err := irc.Parse(":ronni!ronni@ronni.tmi.twitch.tv JOIN #dallas")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	join, ok := msg.(JoinMessage)
	if !ok {
		t.Fatalf("got %T, want JoinMessage", msg)
	}
	if join.Channel != "dallas" || join.UserLogin != "ronni" {
		t.Fatalf("join = %+v", join)
	}
}

func TestDecodeUnknownCommandFallsBackToGeneric(t *testing.T) {
	raw := irc.New("001", "ronni", "Welcome")
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := msg.(GenericMessage); !ok {
		t.Fatalf("got %T, want GenericMessage", msg)
	}
}

func TestMalformedChannelRejected(t *testing.T) {
	raw, err := irc.Parse(":ronni!ronni@ronni.tmi.twitch.tv JOIN dallas")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = Decode(raw)
	if !errors.Is(err, ErrMalformedChannel) {
		t.Fatalf("expected wrapped ErrMalformedChannel, got %v", err)
	}
}
