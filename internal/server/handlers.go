package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/engine"
	"github.com/hailam/tilechess/internal/game"
	"github.com/hailam/tilechess/internal/storage"
)

// ---- JSON helpers ----

func withJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

// decodeBody reads an optional JSON body into v. An empty body is fine.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "request too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid json")
	return false
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrTimeExpired),
		errors.Is(err, game.ErrNotAITurn):
		return http.StatusConflict
	case errors.Is(err, board.ErrIllegalMove),
		errors.Is(err, board.ErrOutOfBounds),
		errors.Is(err, board.ErrInvalidPosition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) findSession(w http.ResponseWriter, r *http.Request) (string, *session, bool) {
	id := mux.Vars(r)["id"]
	sess, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no game "+id)
	}
	return id, sess, ok
}

// ---- API: games ----

type createBody struct {
	FEN         string `json:"fen"`
	Mode        string `json:"mode"`
	AIColor     string `json:"aiColor"`
	Difficulty  string `json:"difficulty"`
	Depth       int    `json:"depth"`
	TimeControl *int   `json:"timeControl"` // seconds per side, 0 disables
}

type gameResponse struct {
	ID     string       `json:"id"`
	State  game.State   `json:"state"`
	Played *game.Played `json:"played,omitempty"`
	Reply  *game.Played `json:"reply,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !decodeBody(w, r, &body) {
		return
	}

	opts := s.defaults
	opts.FEN = strings.TrimSpace(body.FEN)
	if body.Mode != "" {
		opts.Mode = game.ParseMode(body.Mode)
	}
	if body.AIColor != "" {
		c, err := board.ParseColor(body.AIColor)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.AIColor = c
	}
	if body.Difficulty != "" {
		opts.Difficulty = engine.ParseDifficulty(body.Difficulty)
	}
	if body.Depth > 0 {
		opts.Depth = body.Depth
	}
	if body.TimeControl != nil {
		opts.TimeControl = time.Duration(*body.TimeControl) * time.Second
	}

	g, err := game.New(opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	id := s.addGame(g)
	sess, _ := s.lookup(id)

	resp := gameResponse{ID: id}
	if g.IsAITurn() {
		p, err := g.PlayAI(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		resp.Reply = &p
	}
	s.afterMove(id, sess)

	resp.State = g.Snapshot()
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, resp)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.gamesMu.Lock()
	ids := maps.Keys(s.games)
	s.gamesMu.Unlock()
	slices.SortFunc(ids, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
	writeJSON(w, map[string]any{"games": ids})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, gameResponse{ID: id, State: sess.game.Snapshot()})
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	from := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("from")))
	moves, err := sess.game.LegalMoves(from)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if moves == nil {
		moves = []string{}
	}
	writeJSON(w, map[string]any{"moves": moves})
}

type moveBody struct {
	Move      string `json:"move"` // UCI, e.g. "e7e8q"
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (b moveBody) uci() string {
	if b.Move != "" {
		return strings.ToLower(strings.TrimSpace(b.Move))
	}
	uci := strings.ToLower(strings.TrimSpace(b.From) + strings.TrimSpace(b.To))
	if p := strings.TrimSpace(b.Promotion); p != "" {
		uci += strings.ToLower(p[:1])
	}
	return uci
}

// handleMove plays the human move and, in a game against the engine,
// the engine's reply.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	var body moveBody
	if !decodeBody(w, r, &body) {
		return
	}

	g := sess.game
	if g.IsAITurn() {
		writeError(w, http.StatusConflict, "engine to move")
		return
	}
	played, err := g.Play(body.uci())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	resp := gameResponse{ID: id, Played: &played}
	s.afterMove(id, sess)

	if g.IsAITurn() {
		reply, err := g.PlayAI(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		resp.Reply = &reply
		s.afterMove(id, sess)
	}

	resp.State = g.Snapshot()
	writeJSON(w, resp)
}

func (s *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	played, err := sess.game.PlayAI(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.afterMove(id, sess)
	writeJSON(w, gameResponse{ID: id, State: sess.game.Snapshot(), Played: &played})
}

func (s *Server) handlePGN(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	pgn, err := sess.game.PGN()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn; charset=utf-8")
	_, _ = io.WriteString(w, pgn)
}

// ---- API: storage ----

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage disabled")
		return false
	}
	return true
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.findSession(w, r)
	if !ok || !s.requireStore(w) {
		return
	}

	g := sess.game
	state := g.Snapshot()
	opts := g.Options()
	s.gamesMu.Lock()
	savedID := sess.savedID
	s.gamesMu.Unlock()

	saved := &storage.SavedGame{
		ID:       savedID,
		StartFEN: g.StartFEN(),
		Moves:    state.Moves,
		FEN:      state.FEN,
		Result:   state.Result,
		Status:   state.Status,
		Mode:     opts.Mode.String(),
	}
	if opts.Mode == game.HumanVsAI {
		saved.AIColor = opts.AIColor.String()
	}
	if err := s.store.SaveGame(saved); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.gamesMu.Lock()
	sess.savedID = saved.ID
	s.gamesMu.Unlock()

	log.Info("game saved", "game", id, "id", saved.ID, "moves", len(saved.Moves))
	writeJSON(w, saved)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	games, err := s.store.ListGames()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if games == nil {
		games = []*storage.SavedGame{}
	}
	writeJSON(w, map[string]any{"games": games})
}

// handleLoadSaved replays a saved game into a new live game. The clock
// starts afresh.
func (s *Server) handleLoadSaved(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	saved, err := s.store.LoadGame(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	opts := s.defaults
	opts.Mode = game.ParseMode(saved.Mode)
	if c, err := board.ParseColor(saved.AIColor); err == nil {
		opts.AIColor = c
	}
	g, err := game.Restore(opts, saved.StartFEN, saved.Moves)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	id := s.addGame(g)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, gameResponse{ID: id, State: g.Snapshot()})
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteGame(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	log.Info("saved game deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	stats, err := s.store.LoadStats()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, map[string]any{"stats": stats, "winRate": stats.GetWinRate()})
}
