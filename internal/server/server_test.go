package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chess "github.com/corentings/chess/v2"
	"github.com/gorilla/websocket"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/engine"
	"github.com/hailam/tilechess/internal/game"
	"github.com/hailam/tilechess/internal/storage"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	var store *storage.Storage
	if withStore {
		var err error
		store, err = storage.Open(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
	}
	return New(store, game.Options{
		Mode:       game.HumanVsHuman,
		AIColor:    board.Black,
		Difficulty: engine.Easy,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func createGame(t *testing.T, h http.Handler, body string) gameResponse {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/games", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create game: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp gameResponse
	decode(t, rr, &resp)
	return resp
}

func TestCreateAndMove(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, "")
	if g.ID == "" || g.State.FEN != board.StartFEN {
		t.Fatalf("created %+v", g)
	}

	rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"from":"e2","to":"e4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("move: status %d: %s", rr.Code, rr.Body.String())
	}
	var resp gameResponse
	decode(t, rr, &resp)
	if resp.Played == nil || resp.Played.SAN != "e4" {
		t.Errorf("played %+v", resp.Played)
	}
	if resp.Reply != nil {
		t.Errorf("engine replied in a human game: %+v", resp.Reply)
	}
	if resp.State.SideToMove != "Black" {
		t.Errorf("side to move %s", resp.State.SideToMove)
	}

	rr = do(t, srv, http.MethodGet, "/api/games/"+g.ID, "")
	decode(t, rr, &resp)
	if len(resp.State.Moves) != 1 || resp.State.Moves[0] != "e2e4" {
		t.Errorf("GET state moves %v", resp.State.Moves)
	}
}

func TestMoveErrors(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, `{"timeControl":0}`)

	tests := []struct {
		path, body string
		want       int
	}{
		{"/api/games/" + g.ID + "/moves", `{"move":"e2e5"}`, http.StatusBadRequest},
		{"/api/games/" + g.ID + "/moves", `{"move":"e7e5"}`, http.StatusBadRequest},
		{"/api/games/" + g.ID + "/moves", `not json`, http.StatusBadRequest},
		{"/api/games/999/moves", `{"move":"e2e4"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := do(t, srv, http.MethodPost, tt.path, tt.body); rr.Code != tt.want {
			t.Errorf("POST %s %s: status %d, want %d", tt.path, tt.body, rr.Code, tt.want)
		}
	}
	rr := do(t, srv, http.MethodDelete, "/api/games/"+g.ID, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != http.MethodGet {
		t.Errorf("DELETE Allow header %q", got)
	}
	rr = do(t, srv, http.MethodPut, "/api/games/"+g.ID+"/moves", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT moves status %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "GET, POST" {
		t.Errorf("PUT moves Allow header %q", got)
	}
	if rr := do(t, srv, http.MethodGet, "/api/nowhere", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status %d", rr.Code)
	}
}

func TestCreateRejectsBadFEN(t *testing.T) {
	srv := newTestServer(t, false)
	rr := do(t, srv, http.MethodPost, "/api/games", `{"fen":"not a fen"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLegalMoves(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, "")

	rr := do(t, srv, http.MethodGet, "/api/games/"+g.ID+"/moves?from=g1", "")
	var body struct {
		Moves []string `json:"moves"`
	}
	decode(t, rr, &body)
	if strings.Join(body.Moves, ",") != "g1f3,g1h3" {
		t.Errorf("moves from g1 = %v", body.Moves)
	}

	rr = do(t, srv, http.MethodGet, "/api/games/"+g.ID+"/moves", "")
	decode(t, rr, &body)
	if len(body.Moves) != 20 {
		t.Errorf("%d moves, want 20", len(body.Moves))
	}
}

func TestEngineReplies(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, `{"mode":"ai","aiColor":"black","difficulty":"easy"}`)

	rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"d2d4"}`)
	var resp gameResponse
	decode(t, rr, &resp)
	if resp.Reply == nil {
		t.Fatalf("no engine reply: %s", rr.Body.String())
	}
	if len(resp.State.Moves) != 2 || resp.State.SideToMove != "White" {
		t.Errorf("state after reply %+v", resp.State)
	}

	// Engine playing White moves on creation.
	g = createGame(t, srv, `{"mode":"ai","aiColor":"white","difficulty":"easy"}`)
	if g.Reply == nil || len(g.State.Moves) != 1 {
		t.Errorf("engine did not open: %+v", g)
	}
	if rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/ai", ""); rr.Code != http.StatusConflict {
		t.Errorf("engine moved on the human's turn: %d", rr.Code)
	}
}

func TestPGNAndGameOver(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, "")
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		if rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"`+mv+`"}`); rr.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", mv, rr.Code, rr.Body.String())
		}
	}
	if rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"e2e4"}`); rr.Code != http.StatusConflict {
		t.Errorf("move after mate: status %d", rr.Code)
	}

	rr := do(t, srv, http.MethodGet, "/api/games/"+g.ID+"/pgn", "")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/x-chess-pgn") {
		t.Errorf("content type %q", ct)
	}
	if _, err := chess.PGN(strings.NewReader(rr.Body.String())); err != nil {
		t.Errorf("PGN does not parse: %v\n%s", err, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "0-1") {
		t.Errorf("PGN result missing:\n%s", rr.Body.String())
	}
}

func TestSaveAndLoad(t *testing.T) {
	srv := newTestServer(t, true)
	g := createGame(t, srv, "")
	do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"e2e4"}`)
	do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"c7c5"}`)

	rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/save", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("save: %d %s", rr.Code, rr.Body.String())
	}
	var saved storage.SavedGame
	decode(t, rr, &saved)
	if saved.ID == "" {
		t.Fatalf("save returned no id: %s", rr.Body.String())
	}

	// Saving the same game again updates its record.
	do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"g1f3"}`)
	rr = do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/save", "")
	var again storage.SavedGame
	decode(t, rr, &again)
	if again.ID != saved.ID {
		t.Errorf("second save got id %q, want %q", again.ID, saved.ID)
	}

	rr = do(t, srv, http.MethodGet, "/api/saved", "")
	var list struct {
		Games []storage.SavedGame `json:"games"`
	}
	decode(t, rr, &list)
	if len(list.Games) != 1 || list.Games[0].ID != saved.ID {
		t.Fatalf("saved list %+v", list.Games)
	}

	rr = do(t, srv, http.MethodPost, "/api/saved/"+saved.ID+"/load", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("load: %d %s", rr.Code, rr.Body.String())
	}
	var loaded gameResponse
	decode(t, rr, &loaded)
	if loaded.ID == g.ID || strings.Join(loaded.State.Moves, " ") != "e2e4 c7c5 g1f3" {
		t.Errorf("loaded %+v", loaded)
	}

	if rr := do(t, srv, http.MethodPost, "/api/saved/nope/load", ""); rr.Code != http.StatusNotFound {
		t.Errorf("loading a missing game: %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/saved/"+saved.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/saved/"+saved.ID+"/load", ""); rr.Code != http.StatusNotFound {
		t.Errorf("loading a deleted game: %d", rr.Code)
	}
}

func TestSavesSurviveRestart(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	opts := game.Options{Mode: game.HumanVsHuman, Difficulty: engine.Easy}

	// Both servers hand out session id 1 to their first game.
	var ids []string
	for _, first := range []string{"e2e4", "d2d4"} {
		srv := New(store, opts)
		g := createGame(t, srv, "")
		do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"`+first+`"}`)
		rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/save", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("save: %d %s", rr.Code, rr.Body.String())
		}
		var saved storage.SavedGame
		decode(t, rr, &saved)
		ids = append(ids, saved.ID)
	}
	if ids[0] == ids[1] {
		t.Fatalf("both saves got id %q", ids[0])
	}

	games, err := store.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 {
		t.Fatalf("store holds %d games, want 2", len(games))
	}
	first, err := store.LoadGame(ids[0])
	if err != nil || strings.Join(first.Moves, " ") != "e2e4" {
		t.Errorf("first save = %+v, %v", first, err)
	}
}

func TestStorageDisabled(t *testing.T) {
	srv := newTestServer(t, false)
	g := createGame(t, srv, "")
	if rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/save", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("save without storage: %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/stats", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("stats without storage: %d", rr.Code)
	}
}

func TestStatsRecordedOnce(t *testing.T) {
	srv := newTestServer(t, true)
	// Fool's mate against an engine playing White: the human wins.
	g := createGame(t, srv, `{"mode":"ai","aiColor":"white","fen":"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2"}`)
	rr := do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"d8h4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("mating move: %d %s", rr.Code, rr.Body.String())
	}
	do(t, srv, http.MethodGet, "/api/games/"+g.ID, "")

	rr = do(t, srv, http.MethodGet, "/api/stats", "")
	var body struct {
		Stats   storage.GameStats `json:"stats"`
		WinRate float64           `json:"winRate"`
	}
	decode(t, rr, &body)
	if body.Stats.GamesPlayed != 1 || body.Stats.Wins != 1 || body.WinRate != 100 {
		t.Errorf("stats %+v rate %.0f", body.Stats, body.WinRate)
	}
}

func TestListGames(t *testing.T) {
	srv := newTestServer(t, false)
	for i := 0; i < 11; i++ {
		createGame(t, srv, "")
	}
	rr := do(t, srv, http.MethodGet, "/api/games", "")
	var body struct {
		Games []string `json:"games"`
	}
	decode(t, rr, &body)
	if len(body.Games) != 11 || body.Games[1] != "2" || body.Games[10] != "11" {
		t.Errorf("games %v", body.Games)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	srv := newTestServer(t, false)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev event
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != "hello" {
		t.Fatalf("hello: %+v %v", ev, err)
	}

	g := createGame(t, srv, "")
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	do(t, srv, http.MethodPost, "/api/games/"+g.ID+"/moves", `{"move":"e2e4"}`)
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "state" || ev.GameID != g.ID || ev.State == nil || len(ev.State.Moves) != 1 {
		t.Errorf("event %+v", ev)
	}
}
