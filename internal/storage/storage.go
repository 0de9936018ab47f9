package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/exp/slices"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	prefixGame     = "game/"
	keyGameSeq     = "seq/game"
)

// ErrNotFound is returned for a saved game that does not exist.
var ErrNotFound = errors.New("not found")

// Preferences stores the defaults for new games.
type Preferences struct {
	Difficulty  string        `json:"difficulty"`
	Mode        string        `json:"mode"`
	AIColor     string        `json:"ai_color"`
	TimeControl time.Duration `json:"time_control"`
	LastPlayed  time.Time     `json:"last_played"`
}

// DefaultPreferences returns a human-vs-engine game at medium strength with
// the engine on Black and ten minutes per side.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Difficulty:  "medium",
		Mode:        "ai",
		AIColor:     "black",
		TimeControl: 10 * time.Minute,
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByMode     map[string]int `json:"wins_by_mode"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	ResultsByKind  map[string]int `json:"results_by_kind"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByMode:    make(map[string]int),
		WinsByDiff:    make(map[string]int),
		ResultsByKind: make(map[string]int),
	}
}

// GameResult describes a finished game from the human player's side.
type GameResult struct {
	Won        bool
	Draw       bool
	Kind       string // checkmate, stalemate, timeout, ...
	Mode       string
	Difficulty string
	Duration   time.Duration
}

// SavedGame is a game stored for later replay: its start position plus
// the moves played.
type SavedGame struct {
	ID       string    `json:"id"`
	StartFEN string    `json:"start_fen"`
	Moves    []string  `json:"moves"`
	FEN      string    `json:"fen"`
	Result   string    `json:"result"`
	Status   string    `json:"status"`
	Mode     string    `json:"mode"`
	AIColor  string    `json:"ai_color,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (creating if needed) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", dir, err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes key into v and reports whether it existed.
func (s *Storage) get(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	_, err := s.get(keyPreferences, prefs)
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	_, err := s.get(keyStats, stats)
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration
	if result.Kind != "" {
		stats.ResultsByKind[result.Kind]++
	}

	if result.Draw {
		stats.Draws++
		stats.CurrentStreak = 0
	} else if result.Won {
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsByMode[result.Mode]++
		stats.WinsByDiff[result.Difficulty]++
	} else {
		stats.Losses++
		stats.CurrentStreak = 0
	}

	return s.SaveStats(stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// SaveGame stores g under its ID, replacing any earlier save with that ID.
// A game without an ID is given the next unused one from a counter kept in
// the database, so saves made by earlier runs are never replaced.
func (s *Storage) SaveGame(g *SavedGame) error {
	if g.SavedAt.IsZero() {
		g.SavedAt = time.Now()
	}
	if g.ID != "" {
		return s.put(prefixGame+g.ID, g)
	}

	for {
		var id string
		err := s.db.Update(func(txn *badger.Txn) error {
			var err error
			if id, err = nextGameID(txn); err != nil {
				return err
			}
			stored := *g
			stored.ID = id
			data, err := json.Marshal(&stored)
			if err != nil {
				return err
			}
			return txn.Set([]byte(prefixGame+id), data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("save game: %w", err)
		}
		g.ID = id
		return nil
	}
}

// nextGameID advances the saved-game counter past any key already taken.
func nextGameID(txn *badger.Txn) (string, error) {
	var n uint64
	item, err := txn.Get([]byte(keyGameSeq))
	switch {
	case err == nil:
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt game counter: %d bytes", len(val))
			}
			n = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return "", err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return "", err
	}

	for {
		n++
		id := strconv.FormatUint(n, 10)
		_, err := txn.Get([]byte(prefixGame + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			buf := binary.BigEndian.AppendUint64(nil, n)
			return id, txn.Set([]byte(keyGameSeq), buf)
		}
		if err != nil {
			return "", err
		}
	}
}

// LoadGame returns the saved game with the given ID or ErrNotFound.
func (s *Storage) LoadGame(id string) (*SavedGame, error) {
	var g SavedGame
	found, err := s.get(prefixGame+id, &g)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return &g, nil
}

// DeleteGame removes a saved game. Deleting a missing game is not an error.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixGame + id))
	})
}

// ListGames returns every saved game, newest first.
func (s *Storage) ListGames() ([]*SavedGame, error) {
	var games []*SavedGame
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			g := new(SavedGame)
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, g)
			}); err != nil {
				return err
			}
			games = append(games, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(games, func(a, b *SavedGame) int {
		return b.SavedAt.Compare(a.SavedAt)
	})
	return games, nil
}
