// Package login provides the credential sources the connection core's init
// task consumes. Acquiring credentials is treated as an async fallible
// operation so a Source can hit a token refresh endpoint, a secrets
// manager, or simply return a fixed pair.
package login

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrNoCredentials is returned by EnvSource when the required environment
// variable carrying the login name is unset or empty.
var ErrNoCredentials = errors.New("login: no credentials configured")

// CredentialsPair is a resolved (login, token) pair. Token is empty for an
// anonymous (read-only, justinfan-style) connection, in which case the core
// omits the PASS handshake frame entirely.
type CredentialsPair struct {
	Login string
	Token string
}

// Source resolves credentials asynchronously, once per connection attempt.
type Source interface {
	GetCredentials(ctx context.Context) (CredentialsPair, error)
}

// StaticSource always returns the same fixed credentials.
type StaticSource struct {
	Pair CredentialsPair
}

// NewStatic builds a Source returning a fixed login/token pair.
func NewStatic(loginName, token string) StaticSource {
	return StaticSource{Pair: CredentialsPair{Login: loginName, Token: token}}
}

func (s StaticSource) GetCredentials(_ context.Context) (CredentialsPair, error) {
	return s.Pair, nil
}

// EnvSource reads credentials from environment variables, following the
// flag-wins-over-env precedence convention used elsewhere in this module:
// it is meant to be consulted only when no flag-provided credentials exist.
type EnvSource struct {
	LoginVar string
	TokenVar string
}

// NewEnvSource builds an EnvSource reading TWITCH_CHAT_LOGIN and
// TWITCH_CHAT_OAUTH_TOKEN by default.
func NewEnvSource() EnvSource {
	return EnvSource{LoginVar: "TWITCH_CHAT_LOGIN", TokenVar: "TWITCH_CHAT_OAUTH_TOKEN"}
}

func (s EnvSource) GetCredentials(_ context.Context) (CredentialsPair, error) {
	loginName := strings.TrimSpace(os.Getenv(s.LoginVar))
	if loginName == "" {
		return CredentialsPair{}, ErrNoCredentials
	}
	token := strings.TrimSpace(os.Getenv(s.TokenVar))
	token = strings.TrimPrefix(token, "oauth:")
	return CredentialsPair{Login: loginName, Token: token}, nil
}
