package game

import (
	"fmt"
	"strings"
	"time"

	chess "github.com/corentings/chess/v2"

	"github.com/hailam/tilechess/internal/board"
)

// exportPGN replays sans from startFEN through corentings/chess and
// stamps the result.
func exportPGN(startFEN string, sans []string, out board.Outcome, date time.Time) (string, error) {
	var opts []func(*chess.Game)
	if startFEN != board.StartFEN {
		f, err := chess.FEN(startFEN)
		if err != nil {
			return "", fmt.Errorf("pgn: start position: %w", err)
		}
		opts = append(opts, f)
	}

	cg := chess.NewGame(opts...)
	for i, san := range sans {
		if err := cg.PushMove(san, &chess.PushMoveOptions{ForceMainline: true}); err != nil {
			return "", fmt.Errorf("pgn: move %d %q: %w", i+1, san, err)
		}
	}

	switch out.Result {
	case board.Timeout:
		cg.Resign(toChessColor(out.Winner.Other()))
	case board.FiftyMoveDraw:
		if err := cg.Draw(chess.FiftyMoveRule); err != nil {
			return "", fmt.Errorf("pgn: %w", err)
		}
	}

	cg.AddTagPair("Event", "tilechess game")
	cg.AddTagPair("Site", "tilechess")
	cg.AddTagPair("Date", date.Format("2006.01.02"))
	cg.AddTagPair("Result", out.PGNResult())
	if out.Result == board.Timeout {
		cg.AddTagPair("Termination", "time forfeit")
	}
	if startFEN != board.StartFEN {
		cg.AddTagPair("SetUp", "1")
		cg.AddTagPair("FEN", startFEN)
	}
	pgn := cg.String()
	if out.Result == board.Checkmate && len(sans) > 0 {
		pgn = markMate(pgn, sans[len(sans)-1])
	}
	return pgn, nil
}

// markMate rewrites the check suffix of the final move as "#". The
// corentings encoder writes "+" for every checking move, mates included.
func markMate(pgn, last string) string {
	base := strings.TrimRight(last, "+#")
	i := strings.LastIndex(pgn, base)
	if base == "" || i < 0 {
		return pgn
	}
	end := i + len(base)
	rest := strings.TrimPrefix(pgn[end:], "+")
	rest = strings.TrimPrefix(rest, "#")
	return pgn[:end] + "#" + rest
}

func toChessColor(c board.Color) chess.Color {
	switch c {
	case board.White:
		return chess.White
	case board.Black:
		return chess.Black
	}
	return chess.NoColor
}
