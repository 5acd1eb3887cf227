// Package invoker turns a user's request intent into a classified Outcome.
// It validates write intents before any network activity, sends exactly one
// request through the configured webclient backend, and maps the result to
// success, server error or network error.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/webclient"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrMalformedPayload means the server answered with a success status
	// but the body is not JSON. No Outcome kind covers this; callers decide
	// how to surface it.
	ErrMalformedPayload = errors.New("response body is not valid JSON")
)

type Invoker struct {
	wc     webclient.WebClient
	logger logging.Logger
}

func New(wc webclient.WebClient, logger logging.Logger) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Invoker{
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "invoker"}),
	}
}

// Invoke runs the intent. Transport and HTTP failures come back as Outcomes
// with a nil error; the error return is reserved for conditions no Outcome
// describes (unsupported method, malformed success body).
func (inv *Invoker) Invoke(ctx context.Context, in Intent) (Outcome, error) {
	method, err := normalizeMethod(in.Method)
	if err != nil {
		return Outcome{}, err
	}
	target := in.Target()

	req := &webclient.Request{Method: method, URL: target}
	if method != http.MethodGet {
		if in.missingFields(method) {
			inv.logger.Debug("rejected intent with missing fields",
				logging.Field{Key: "method", Value: method})
			return ClientError(method, target, MissingFieldsMessage), nil
		}
		body, err := in.encodePayload()
		if err != nil {
			return Outcome{}, err
		}
		req.Body = body
		req.Headers = http.Header{"Content-Type": []string{"application/json"}}
	}

	start := time.Now()
	resp, err := inv.wc.Do(ctx, req)
	if err != nil {
		inv.logger.Warn("request did not reach the server",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err.Error()})
		return NetworkError(method, target), nil
	}

	inv.logger.Debug("response received",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})

	if resp.StatusCode >= http.StatusBadRequest {
		return ServerError(method, target, resp.StatusCode, resp.StatusText), nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, resp.Body); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return Success(method, target, compact.Bytes()), nil
}
