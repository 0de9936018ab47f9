package engine

import (
	"time"
)

// minMoveTime is the least time ever allocated to a move.
const minMoveTime = 10 * time.Millisecond

// AllocateMoveTime splits the remaining clock time over the expected rest
// of the game. ply is the current game ply (half-move number); movesToGo
// of 0 means sudden death.
func AllocateMoveTime(timeLeft, inc time.Duration, movesToGo, ply int) time.Duration {
	if timeLeft <= 0 {
		return 0
	}

	// Estimate moves to go
	mtg := movesToGo
	if mtg == 0 {
		// Early game: more moves expected, late game: fewer
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
	}

	// Base time per move plus most of the increment
	moveTime := timeLeft/time.Duration(mtg) + inc*9/10

	// Safety margin: never use more than 80% of remaining time
	if limit := timeLeft * 8 / 10; moveTime > limit {
		moveTime = limit
	}
	if moveTime < minMoveTime {
		moveTime = minMoveTime
	}
	return moveTime
}

// deadlineFor returns the instant at which a search bounded by limits must
// stop, or the zero time if it is unbounded.
func deadlineFor(start time.Time, limits Limits, us int, ply int) time.Time {
	if limits.Infinite {
		return time.Time{}
	}
	if limits.MoveTime > 0 {
		return start.Add(limits.MoveTime)
	}
	if limits.Time[us] > 0 {
		return start.Add(AllocateMoveTime(limits.Time[us], limits.Inc[us], limits.MovesToGo, ply))
	}
	return time.Time{}
}
