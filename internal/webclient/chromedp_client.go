package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/postdesk/internal/logging"
)

// ChromedpClient issues requests with fetch() inside a headless Chrome tab,
// so they go through a real browser network stack, CORS included. The page
// is about:blank, which means the target must answer with CORS headers.
type ChromedpClient struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	timeout time.Duration
	logger  logging.Logger
}

// NewChromedpClient starts the browser. It fails when no Chrome binary is
// available.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientChromedp)})

	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if cfg.ShowBrowser {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so a missing binary surfaces here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "timeout", Value: cfg.timeout().String()},
		logging.Field{Key: "show_browser", Value: cfg.ShowBrowser})

	return &ChromedpClient{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		timeout:       cfg.timeout(),
		logger:        componentLogger,
	}, nil
}

type fetchRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

type fetchResult struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
	Error      string            `json:"error"`
}

const fetchScript = `(async (req) => {
  try {
    const init = { method: req.method, headers: req.headers };
    if (req.body !== "") init.body = req.body;
    const r = await fetch(req.url, init);
    const body = await r.text();
    const headers = {};
    r.headers.forEach((v, k) => { headers[k] = v; });
    return { status: r.status, statusText: r.statusText, body: body, headers: headers, error: "" };
  } catch (e) {
    return { status: 0, statusText: "", body: "", headers: {}, error: String((e && e.message) || e) };
  }
})(%s)`

func buildFetchScript(req *Request) (string, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	fr := fetchRequest{
		Method:  method,
		URL:     req.URL,
		Headers: make(map[string]string, len(req.Headers)),
		Body:    string(req.Body),
	}
	for k, vs := range req.Headers {
		fr.Headers[k] = strings.Join(vs, ", ")
	}
	arg, err := json.Marshal(fr)
	if err != nil {
		return "", fmt.Errorf("encode fetch request: %w", err)
	}
	return fmt.Sprintf(fetchScript, arg), nil
}

// Do runs one fetch() in a fresh tab.
func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if c.browserCtx.Err() != nil {
		return nil, ErrClientClosed
	}

	script, err := buildFetchScript(req)
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	c.logger.Debug("sending browser fetch",
		logging.Field{Key: "method", Value: req.Method},
		logging.Field{Key: "url", Value: req.URL})

	var res fetchResult
	err = chromedp.Run(tabCtx, chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		c.logger.Warn("browser fetch failed",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("evaluate fetch: %w", err)
	}
	if res.Error != "" {
		c.logger.Warn("browser fetch rejected",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: res.Error})
		return nil, fmt.Errorf("fetch %s: %s", req.URL, res.Error)
	}

	headers := make(http.Header, len(res.Headers))
	for k, v := range res.Headers {
		headers.Set(k, v)
	}

	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(res.Body),
		StatusCode: res.Status,
		StatusText: reasonPhrase(res.StatusText, res.Status),
		FetchedAt:  time.Now(),
	}, nil
}

func (c *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

// Close shuts the browser down.
func (c *ChromedpClient) Close() error {
	c.logger.Debug("closing chromedp webclient")
	c.browserCancel()
	c.allocCancel()
	return nil
}
