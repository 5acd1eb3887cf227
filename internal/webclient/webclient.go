package webclient

import (
	"context"
	"errors"
)

var (
	ErrNilRequest   = errors.New("request cannot be nil")
	ErrClientClosed = errors.New("webclient is closed")
)

// WebClient is the capability every request mechanism provides. A
// transport-level failure (DNS, refused connection, reset) is returned as an
// error; any HTTP status, including 4xx and 5xx, is a successful round trip.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
