// Package remote is the client side of the market data service.
//
// A Client is cheap to copy: every handle derived from the same dial shares
// one connection, and deriving a handle with a new token (WithToken) leaves
// the original untouched. Handles are safe for concurrent use.
package remote

import (
	"context"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
)

// Client is a handle to the market data service.
type Client interface {
	ListEntities(ctx context.Context) ([]market.Entity, error)
	FetchSeries(ctx context.Context, id string, g market.Granularity) ([]market.Bar, error)
	// FetchPrediction returns at most length values continuing channel.
	FetchPrediction(ctx context.Context, channel []float64, length int) ([]float64, error)
	FetchMetadata(ctx context.Context, id string) (*market.Metadata, error)

	Login(ctx context.Context, username, password string) (*auth.Token, error)
	Register(ctx context.Context, username, password string) error

	// WithToken derives a handle that authenticates as token.
	WithToken(token string) Client
	// Endpoint is the address the handle talks to.
	Endpoint() string
	// Close releases the shared connection. Only the owner of the dial
	// should call it.
	Close() error
}

var _ auth.Authenticator = Client(nil)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies mws so that the first one is outermost.
func Wrap(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
