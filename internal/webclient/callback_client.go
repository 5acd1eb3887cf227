package webclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/raysh454/postdesk/internal/logging"
)

// Handlers receive the result of Send. Exactly one of them fires per Send,
// from a background goroutine.
type Handlers struct {
	OnLoad  func(*Response)
	OnError func(error)
}

// CallbackClient is the event-driven request mechanism: Send returns at once
// and the outcome is delivered through Handlers, the way an XMLHttpRequest
// reports through onload and onerror.
type CallbackClient struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewCallbackClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*CallbackClient, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientCallback)})

	if httpClient == nil {
		var err error
		httpClient, err = newDefaultHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	componentLogger.Debug("created callback webclient",
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()})

	return &CallbackClient{
		client:    httpClient,
		userAgent: cfg.UserAgent,
		logger:    componentLogger,
	}, nil
}

// Send schedules req and returns immediately.
func (c *CallbackClient) Send(ctx context.Context, req *Request, h Handlers) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		go fireError(h, ErrClientClosed)
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		if req == nil {
			fireError(h, ErrNilRequest)
			return
		}
		resp, err := roundTrip(ctx, c.client, req, c.userAgent, c.logger)
		if err != nil {
			fireError(h, err)
			return
		}
		if h.OnLoad != nil {
			h.OnLoad(resp)
		}
	}()
}

func fireError(h Handlers, err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Do adapts Send to the blocking WebClient contract.
func (c *CallbackClient) Do(ctx context.Context, req *Request) (*Response, error) {
	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	c.Send(ctx, req, Handlers{
		OnLoad:  func(r *Response) { done <- result{resp: r} },
		OnError: func(err error) { done <- result{err: err} },
	})
	r := <-done
	return r.resp, r.err
}

func (c *CallbackClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

// Close rejects new sends and waits for in-flight ones to report.
func (c *CallbackClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.inflight.Wait()
	c.logger.Debug("closing callback webclient")
	c.client.CloseIdleConnections()
	return nil
}
