// Package frontend serves the browser surface: a form with one button per
// action, an endpoint that triggers actions, and a websocket stream of the
// display.
package frontend

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/logging"
)

//go:embed page.html
var pageHTML string

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

// maxBodyBytes bounds a request body; forms are three short strings.
const maxBodyBytes = 64 << 10

var actionLabels = map[string]string{
	app.ActionFetch: "Get Data (Fetch)",
	app.ActionXHR:   "Get Data (XHR)",
	app.ActionPost:  "Send Data (POST)",
	app.ActionPut:   "Update Data (PUT)",
}

// Server is the HTTP + WebSocket surface. Its Hub must be the display the
// Application renders to.
type Server struct {
	app      *app.Application
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer builds the routes for a. hub should be a.Display (directly or
// inside a presenter.Multi).
func NewServer(a *app.Application, hub *Hub, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		app:    a,
		hub:    hub,
		router: chi.NewRouter(),
		logger: logger.With(logging.Field{Key: "component", Value: "frontend"}),
		// A nil CheckOrigin rejects upgrades whose Origin host differs from r.Host.
		upgrader: websocket.Upgrader{},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/actions", s.optionsHandler("GET"))
	r.Options("/actions/{action}", s.optionsHandler("POST"))
	r.Options("/display", s.optionsHandler("GET"))

	r.Get("/", s.handleIndex)
	r.Get("/actions", s.handleListActions)
	r.Post("/actions/{action}", s.handleTrigger)
	r.Get("/display", s.handleDisplay)
	r.Get("/ws", s.handleDisplayWS)
	r.Handle("/metrics", s.app.Metrics.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	s.logger.Info("http_request", fields...)

	if r.Body != nil && r.Method == http.MethodPost {
		bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "reading request body failed")
			return
		}
		s.logger.Debug("http_request_body", append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})...)
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

type actionView struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Method  string `json:"method"`
	Backend string `json:"backend"`
}

func (s *Server) actionViews() []actionView {
	cfg := s.app.Config
	views := make([]actionView, 0, len(cfg.Actions))
	for _, name := range cfg.ActionNames() {
		b := cfg.Actions[name]
		label, ok := actionLabels[name]
		if !ok {
			label = name
		}
		backend := b.Backend
		if backend == "" {
			backend = cfg.WebClient.Client
		}
		views = append(views, actionView{Name: name, Label: label, Method: b.Method, Backend: string(backend)})
	}
	return views
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		BaseURL string
		Actions []actionView
	}{s.app.Config.BaseURL, s.actionViews()})
	if err != nil {
		s.logger.Error("rendering page", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "rendering page failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.actionViews())
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	var form app.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("decoding action form", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	requestID, err := s.app.Trigger(r.Context(), action, form)
	switch {
	case errors.Is(err, app.ErrUnknownAction):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, app.ErrApplicationStopped):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("triggered action",
		logging.Field{Key: "action", Value: action},
		logging.Field{Key: "request_id", Value: requestID})
	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.hub.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// WebSockets

func (s *Server) handleDisplayWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	updates, cancel := s.hub.Subscribe()
	defer cancel()

	// The client never sends; reading only notices when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-updates:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
