// Package server exposes games over a JSON HTTP API and pushes position
// updates to WebSocket clients.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hailam/tilechess/internal/game"
	"github.com/hailam/tilechess/internal/storage"
)

var log = slog.Default().With("package", "server")

const maxJSONBodyBytes int64 = 1 << 20

func stdoutLogger(next http.Handler) http.Handler {
	return handlers.LoggingHandler(os.Stdout, next)
}

// session is a live game plus the bookkeeping the server keeps for it.
type session struct {
	game     *game.Game
	created  time.Time
	recorded bool   // statistics written
	savedID  string // storage id of the last save, reused by later saves
}

// Server routes API requests to live games.
type Server struct {
	router   *mux.Router
	upgrader websocket.Upgrader
	store    *storage.Storage // nil disables saving and statistics
	defaults game.Options

	gamesMu sync.Mutex
	games   map[string]*session
	nextID  atomic.Uint64

	hub *hub

	srvMu sync.Mutex
	srv   *http.Server
}

// New builds a Server. store may be nil.
func New(store *storage.Storage, defaults game.Options) *Server {
	s := &Server{
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		store:    store,
		defaults: defaults,
		games:    make(map[string]*session),
		hub:      newHub(),
	}
	s.router.NotFoundHandler = stdoutLogger(http.HandlerFunc(notFoundHandler))
	s.router.Use(stdoutLogger)
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(withJSON)

	api.HandleFunc("/games", s.handleCreateGame).Methods(http.MethodPost)
	api.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/moves", s.handleLegalMoves).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/moves", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/ai", s.handleAIMove).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/pgn", s.handlePGN).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/saved", s.handleListSaved).Methods(http.MethodGet)
	api.HandleFunc("/saved/{id}", s.handleDeleteSaved).Methods(http.MethodDelete)
	api.HandleFunc("/saved/{id}/load", s.handleLoadSaved).Methods(http.MethodPost)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	allowMethods(api, "/api")

	s.router.HandleFunc("/ws", s.wsHandler)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Listen serves on addr until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	log.Info("HTTP listening", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the HTTP server down and drops all WebSocket clients.
func (s *Server) Close(ctx context.Context) error {
	s.hub.closeAll()

	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) addGame(g *game.Game) string {
	id := strconv.FormatUint(s.nextID.Add(1), 10)
	s.gamesMu.Lock()
	s.games[id] = &session{game: g, created: time.Now()}
	s.gamesMu.Unlock()
	return id
}

func (s *Server) lookup(id string) (*session, bool) {
	s.gamesMu.Lock()
	defer s.gamesMu.Unlock()
	sess, ok := s.games[id]
	return sess, ok
}

// afterMove pushes the new state to WebSocket clients and records the
// result once the game is over.
func (s *Server) afterMove(id string, sess *session) {
	state := sess.game.Snapshot()
	s.hub.broadcast(event{Type: "state", GameID: id, State: &state})

	out := sess.game.Outcome()
	if !out.IsOver() || s.store == nil {
		return
	}

	s.gamesMu.Lock()
	done := sess.recorded
	sess.recorded = true
	s.gamesMu.Unlock()
	if done {
		return
	}

	opts := sess.game.Options()
	if opts.Mode != game.HumanVsAI {
		return
	}
	result := storage.GameResult{
		Won:        out.Winner == opts.AIColor.Other(),
		Draw:       out.IsDraw(),
		Kind:       out.Result.String(),
		Mode:       opts.Mode.String(),
		Difficulty: opts.Difficulty.String(),
		Duration:   time.Since(sess.created),
	}
	if err := s.store.RecordGame(result); err != nil {
		log.Error("record game", "id", id, "error", err)
	}
}

// allowMethods registers a catch-all after the routes of r so that a known
// path requested with an unregistered method gets 405 and an Allow header.
// mux forgets the method mismatch once a later route's prefix matches, so
// the router's own MethodNotAllowedHandler never fires inside a subrouter.
func allowMethods(r *mux.Router, prefix string) {
	allowed := make(map[string][]string)
	var paths []string
	_ = r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		if _, ok := allowed[tpl]; !ok {
			paths = append(paths, tpl)
		}
		allowed[tpl] = append(allowed[tpl], methods...)
		return nil
	})

	for _, tpl := range paths {
		allow := strings.Join(allowed[tpl], ", ")
		r.HandleFunc(strings.TrimPrefix(tpl, prefix), func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", allow)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "File Not Found", http.StatusNotFound)
}
