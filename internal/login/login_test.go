package login

import (
	"context"
	"errors"
	"testing"
)

func TestStaticSourceReturnsFixedPair(t *testing.T) {
	src := NewStatic("alice", "abcd")
	creds, err := src.GetCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Login != "alice" || creds.Token != "abcd" {
		t.Fatalf("creds = %+v", creds)
	}
}

func TestEnvSourceMissingLoginFails(t *testing.T) {
	t.Setenv("TEST_LOGIN_VAR", "")
	t.Setenv("TEST_TOKEN_VAR", "whatever")
	src := EnvSource{LoginVar: "TEST_LOGIN_VAR", TokenVar: "TEST_TOKEN_VAR"}
	if _, err := src.GetCredentials(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}

func TestEnvSourceStripsOauthPrefix(t *testing.T) {
	t.Setenv("TEST_LOGIN_VAR", "alice")
	t.Setenv("TEST_TOKEN_VAR", "oauth:abcd")
	src := EnvSource{LoginVar: "TEST_LOGIN_VAR", TokenVar: "TEST_TOKEN_VAR"}
	creds, err := src.GetCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.Token != "abcd" {
		t.Fatalf("token = %q, want abcd", creds.Token)
	}
}
