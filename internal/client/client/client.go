// Package client talks to the idkeeper HTTP API on behalf of the CLI.
//
// Transport failures surface as ErrUnavailable; non-2xx responses are
// mapped to the other sentinels in errors.go and carry the server's
// "error" message, so callers can both match with errors.Is and print
// something useful.
package client

import (
	"context"
	"time"
)

// Account mirrors the public account shape returned by the server.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Client interface {
	Register(ctx context.Context, name, email string, password []byte) (*Account, error)
	Login(ctx context.Context, email string, password []byte) (string, error)
	Me(ctx context.Context, token string) (*Account, error)
	Users(ctx context.Context, token string) ([]Account, error)
	Ping(ctx context.Context) error
}
