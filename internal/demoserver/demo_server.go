package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/postdesk/internal/logging"
)

// DemoServer is a small stand-in for the public placeholder posts API, so
// every action can be exercised offline.
type DemoServer struct {
	cfg    Config
	store  *Store
	router chi.Router
	logger logging.Logger
}

// NewDemoServer opens the store, seeds it and builds the routes.
func NewDemoServer(ctx context.Context, cfg Config, logger logging.Logger) (*DemoServer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	store, err := OpenStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	seeded, err := store.Seed(ctx, cfg.SeedPosts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	s := &DemoServer{
		cfg:    cfg,
		store:  store,
		router: chi.NewRouter(),
		logger: logger.With(logging.Field{Key: "component", Value: "demoserver"}),
	}
	s.routes()
	s.logger.Info("demo store ready",
		logging.Field{Key: "db_path", Value: cfg.DBPath},
		logging.Field{Key: "seeded", Value: seeded})
	return s, nil
}

func (s *DemoServer) routes() {
	r := s.router
	r.Use(corsMiddleware)

	r.Options("/posts", optionsHandler("GET, POST"))
	r.Options("/posts/{id}", optionsHandler("GET, PUT"))

	r.Get("/posts", s.handleListPosts)
	r.Post("/posts", s.handleCreatePost)
	r.Get("/posts/{id}", s.handleGetPost)
	r.Put("/posts/{id}", s.handleUpdatePost)

	// Registered after the catch-all so preflight keeps its own handler.
	r.HandleFunc("/status/{code}", s.handleStatus)
	r.Options("/status/{code}", optionsHandler("GET, POST, PUT"))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *DemoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// Start listens on the configured port until ctx is done.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.logger.Info("demo server listening", logging.Field{Key: "addr", Value: srv.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("demo server: %w", err)
	}
	return nil
}

func (s *DemoServer) Close() error { return s.store.Close() }

func (s *DemoServer) Store() *Store { return s.store }

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type postInput struct {
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// --- handlers ---

func (s *DemoServer) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing posts", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *DemoServer) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, ErrPostNotFound) {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	if err != nil {
		s.logger.Error("getting post", logging.Field{Key: "id", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *DemoServer) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.logger.Warn("decoding create post body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := s.store.Create(r.Context(), Post{UserID: in.UserID, Title: in.Title, Body: in.Body})
	if err != nil {
		s.logger.Error("creating post", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("created post", logging.Field{Key: "id", Value: p.ID})
	writeJSON(w, http.StatusCreated, p)
}

func (s *DemoServer) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	var in postInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.logger.Warn("decoding update post body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := s.store.Update(r.Context(), Post{ID: id, UserID: in.UserID, Title: in.Title, Body: in.Body})
	if errors.Is(err, ErrPostNotFound) {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	if err != nil {
		s.logger.Error("updating post", logging.Field{Key: "id", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("updated post", logging.Field{Key: "id", Value: p.ID})
	writeJSON(w, http.StatusOK, p)
}

// handleStatus answers with the status code named in the path so error
// rendering can be demonstrated against a live server.
func (s *DemoServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 200 || code > 599 {
		writeError(w, http.StatusBadRequest, "status must be between 200 and 599")
		return
	}
	writeJSON(w, code, map[string]any{"status": code, "statusText": http.StatusText(code)})
}
