// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/presenter"
	"github.com/raysh454/postdesk/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many error lines were logged.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// ErrDummyTransport is what DummyWebClient returns when Fail is set.
var ErrDummyTransport = errors.New("dummy transport failure")

// DummyWebClient implements webclient.WebClient.
// By default it answers 200 with Body (or "{}" when Body is nil).
// Set Fail to simulate a transport failure, or Handler to script per request.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Status        int
	Body          []byte
	Fail          bool
	Handler       func(req *webclient.Request) (*webclient.Response, error)

	mu       sync.Mutex
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.Handler != nil {
		return d.Handler(req)
	}
	if d.Fail {
		return nil, ErrDummyTransport
	}

	status := d.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := d.Body
	if body == nil {
		body = []byte("{}")
	}
	return &webclient.Response{
		Request:    req,
		Body:       body,
		StatusCode: status,
		StatusText: http.StatusText(status),
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// RequestCount returns how many requests reached the client.
func (d *DummyWebClient) RequestCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// LastRequest returns the most recent request, or nil.
func (d *DummyWebClient) LastRequest() *webclient.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Requests) == 0 {
		return nil
	}
	return d.Requests[len(d.Requests)-1]
}

// ─── Display ───────────────────────────────────────────────────────────

// RecordingDisplay implements presenter.Display and keeps every message.
type RecordingDisplay struct {
	mu       sync.Mutex
	Messages []presenter.DisplayMessage
	shown    chan struct{}
}

func NewRecordingDisplay() *RecordingDisplay {
	return &RecordingDisplay{shown: make(chan struct{}, 64)}
}

func (r *RecordingDisplay) Show(m presenter.DisplayMessage) {
	r.mu.Lock()
	r.Messages = append(r.Messages, m)
	r.mu.Unlock()
	select {
	case r.shown <- struct{}{}:
	default:
	}
}

// WaitFor blocks until n messages have been shown or the timeout passes.
func (r *RecordingDisplay) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		r.mu.Lock()
		got := len(r.Messages)
		r.mu.Unlock()
		if got >= n {
			return true
		}
		select {
		case <-r.shown:
		case <-deadline:
			return false
		}
	}
}

// Last returns the most recent message.
func (r *RecordingDisplay) Last() (presenter.DisplayMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return presenter.DisplayMessage{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
