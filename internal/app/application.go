package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/postdesk/internal/invoker"
	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/metrics"
	"github.com/raysh454/postdesk/internal/presenter"
	"github.com/raysh454/postdesk/internal/webclient"
)

var (
	ErrUnknownAction      = errors.New("unknown action")
	ErrApplicationStopped = errors.New("application is shut down")
)

// Form carries the three named inputs of the front-ends.
type Form struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Application is the runtime state shared by the front-ends: config, the
// display every action renders to, and one cached client per backend.
// Pass it to front-ends instead of using package-level variables.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Display presenter.Display
	Metrics *metrics.Metrics

	clientsMu sync.Mutex
	clients   map[webclient.Client]webclient.WebClient
	closed    bool

	// stateMu orders inflight.Add against the Wait in Shutdown.
	stateMu  sync.Mutex
	stopped  bool
	inflight sync.WaitGroup

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication constructs an Application from already-built parts. nil
// parts get working defaults.
func NewApplication(cfg *Config, logger logging.Logger, display presenter.Display, m *metrics.Metrics) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if display == nil {
		display = &presenter.Slot{}
	}
	if m == nil {
		m = metrics.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		Config:  cfg,
		Logger:  logger.With(logging.Field{Key: "component", Value: "app"}),
		Display: display,
		Metrics: m,
		clients: map[webclient.Client]webclient.WebClient{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// UseClient installs wc as the client for backend, replacing any cached one.
func (a *Application) UseClient(backend webclient.Client, wc webclient.WebClient) {
	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	a.clients[backend] = wc
}

// client returns the cached client for backend, building it on first use.
func (a *Application) client(backend webclient.Client) (webclient.WebClient, error) {
	if backend == "" {
		backend = a.Config.WebClient.Client
	}
	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	if a.closed {
		return nil, ErrApplicationStopped
	}
	if wc, ok := a.clients[backend]; ok {
		return wc, nil
	}
	cfg := a.Config.WebClient
	cfg.Client = backend
	wc, err := webclient.NewWebClient(cfg, a.Logger)
	if err != nil {
		return nil, err
	}
	a.clients[backend] = wc
	return wc, nil
}

func (a *Application) binding(action string) (ActionBinding, error) {
	b, ok := a.Config.Actions[action]
	if !ok {
		return ActionBinding{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return b, nil
}

func (a *Application) intent(b ActionBinding, f Form) invoker.Intent {
	return invoker.Intent{
		Method:  b.Method,
		BaseURL: a.Config.BaseURL + b.Path,
		ID:      f.ID,
		Title:   f.Title,
		Body:    f.Body,
	}
}

// Trigger schedules the action and returns at once with a request id. The
// invocation outlives ctx cancellation; it renders to Display when done.
// Concurrent triggers are not serialized: the last one to finish wins.
func (a *Application) Trigger(ctx context.Context, action string, form Form) (string, error) {
	b, err := a.binding(action)
	if err != nil {
		return "", err
	}
	a.stateMu.Lock()
	if a.stopped {
		a.stateMu.Unlock()
		return "", ErrApplicationStopped
	}
	a.inflight.Add(1)
	a.stateMu.Unlock()
	requestID := uuid.NewString()

	go func() {
		defer a.inflight.Done()
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(a.ctx, cancel)
		defer stop()

		a.Display.Show(a.execute(runCtx, requestID, action, b, form))
	}()

	a.Logger.Debug("action triggered",
		logging.Field{Key: "request_id", Value: requestID},
		logging.Field{Key: "action", Value: action})
	return requestID, nil
}

// Run executes the action synchronously, renders it and returns the message.
func (a *Application) Run(ctx context.Context, action string, form Form) (presenter.DisplayMessage, error) {
	b, err := a.binding(action)
	if err != nil {
		return presenter.DisplayMessage{}, err
	}
	msg := a.execute(ctx, uuid.NewString(), action, b, form)
	a.Display.Show(msg)
	return msg, nil
}

// Compare runs the action through its bound backend and through against,
// without rendering either result.
func (a *Application) Compare(ctx context.Context, action string, against webclient.Client, form Form) (bound, other presenter.DisplayMessage, err error) {
	b, err := a.binding(action)
	if err != nil {
		return bound, other, err
	}
	bound = a.execute(ctx, uuid.NewString(), action, b, form)
	b.Backend = against
	other = a.execute(ctx, uuid.NewString(), action, b, form)
	return bound, other, nil
}

// execute invokes one action and presents the result. Every failure is
// turned into a message; nothing escapes to the caller.
func (a *Application) execute(ctx context.Context, requestID, action string, b ActionBinding, form Form) presenter.DisplayMessage {
	backend := b.Backend
	if backend == "" {
		backend = a.Config.WebClient.Client
	}
	logger := a.Logger.With(
		logging.Field{Key: "request_id", Value: requestID},
		logging.Field{Key: "action", Value: action},
		logging.Field{Key: "backend", Value: string(backend)})

	wc, err := a.client(backend)
	if err != nil {
		logger.Error("building transport backend", logging.Field{Key: "error", Value: err})
		a.Metrics.ObserveOutcome(action, string(backend), "invalid")
		return presenter.PresentError(err)
	}

	in := a.intent(b, form)
	start := time.Now()
	out, err := invoker.New(wc, logger).Invoke(ctx, in)
	elapsed := time.Since(start)
	a.Metrics.ObserveDuration(string(backend), elapsed)

	if err != nil {
		kind := "invalid"
		if errors.Is(err, invoker.ErrMalformedPayload) {
			kind = metrics.KindMalformed
		}
		logger.Error("action failed without an outcome",
			logging.Field{Key: "method", Value: in.Method},
			logging.Field{Key: "url", Value: in.Target()},
			logging.Field{Key: "kind", Value: kind},
			logging.Field{Key: "error", Value: err})
		a.Metrics.ObserveOutcome(action, string(backend), kind)
		return presenter.PresentError(err)
	}

	logger.Info("action completed",
		logging.Field{Key: "method", Value: out.Method},
		logging.Field{Key: "url", Value: out.URL},
		logging.Field{Key: "kind", Value: string(out.Kind)},
		logging.Field{Key: "duration", Value: elapsed.String()})
	a.Metrics.ObserveOutcome(action, string(backend), string(out.Kind))
	return presenter.Present(out)
}

// Wait blocks until every triggered action has rendered.
func (a *Application) Wait() {
	a.inflight.Wait()
}

// Shutdown waits for in-flight actions until ctx expires, cancels whatever is
// left and closes the backend clients.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	a.stateMu.Lock()
	a.stopped = true
	a.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn("shutdown deadline reached, canceling in-flight actions")
	}
	a.cancel()
	<-done

	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	var errs []error
	for backend, wc := range a.clients {
		if err := wc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", backend, err))
		}
	}
	a.clients = map[webclient.Client]webclient.WebClient{}
	a.closed = true
	return errors.Join(errs...)
}
