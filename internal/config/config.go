// Package config reads command-line flags with TILECHESS_* environment
// fallbacks.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/engine"
	"github.com/hailam/tilechess/internal/game"
	"github.com/hailam/tilechess/internal/storage"
)

// Config is the runtime configuration shared by the binaries.
type Config struct {
	Addr        string
	DataDir     string
	NoStore     bool
	Depth       int // fixed search depth; 0 uses Difficulty
	Difficulty  string
	Mode        string
	AIColor     string
	TimeControl time.Duration

	// explicit holds the flags set on the command line or through the
	// environment; preferences never override them.
	explicit map[string]bool
}

// Load parses args into a Config. Each flag falls back to its TILECHESS_*
// variable, then to the built-in default.
func Load(name string, args []string) (*Config, error) {
	c := &Config{explicit: make(map[string]bool)}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&c.Addr, "addr", c.getenv("addr", "TILECHESS_ADDR", ":8080"), "listen address")
	fs.StringVar(&c.DataDir, "data", c.getenv("data", storage.DataDirEnv, ""), "data directory (default: platform data dir)")
	fs.BoolVar(&c.NoStore, "no-store", c.getenb("no-store", "TILECHESS_NO_STORE", false), "run without persistent storage")
	fs.IntVar(&c.Depth, "depth", c.getenvInt("depth", "TILECHESS_DEPTH", 0), "fixed search depth (0 = use difficulty)")
	fs.StringVar(&c.Difficulty, "difficulty", c.getenv("difficulty", "TILECHESS_DIFFICULTY", "medium"), "engine strength: casual, easy, medium, hard")
	fs.StringVar(&c.Mode, "mode", c.getenv("mode", "TILECHESS_MODE", "ai"), "game mode: ai or human")
	fs.StringVar(&c.AIColor, "ai-color", c.getenv("ai-color", "TILECHESS_AI_COLOR", "black"), "color the engine plays")
	fs.DurationVar(&c.TimeControl, "clock", c.getenvDuration("clock", "TILECHESS_CLOCK", game.DefaultTimeControl), "time per side (0 disables the clock)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { c.explicit[f.Name] = true })

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.Difficulty {
	case "casual", "easy", "medium", "hard":
	default:
		return fmt.Errorf("invalid difficulty %q; valid: casual, easy, medium, hard", c.Difficulty)
	}
	switch c.Mode {
	case "ai", "human":
	default:
		return fmt.Errorf("invalid mode %q; valid: ai, human", c.Mode)
	}
	if _, err := board.ParseColor(c.AIColor); err != nil {
		return fmt.Errorf("invalid ai-color: %w", err)
	}
	if c.Depth < 0 || c.Depth > engine.MaxPly {
		return fmt.Errorf("invalid depth %d", c.Depth)
	}
	if c.TimeControl < 0 {
		return fmt.Errorf("invalid clock %v", c.TimeControl)
	}
	return nil
}

// ApplyPreferences fills every setting that was not given explicitly from
// the stored preferences.
func (c *Config) ApplyPreferences(p *storage.Preferences) {
	if p == nil {
		return
	}
	if !c.explicit["difficulty"] && p.Difficulty != "" {
		c.Difficulty = p.Difficulty
	}
	if !c.explicit["mode"] && p.Mode != "" {
		c.Mode = p.Mode
	}
	if !c.explicit["ai-color"] && p.AIColor != "" {
		c.AIColor = p.AIColor
	}
	if !c.explicit["clock"] && p.TimeControl > 0 {
		c.TimeControl = p.TimeControl
	}
}

// Preferences converts the game settings back into storable form.
func (c *Config) Preferences() *storage.Preferences {
	return &storage.Preferences{
		Difficulty:  c.Difficulty,
		Mode:        c.Mode,
		AIColor:     c.AIColor,
		TimeControl: c.TimeControl,
	}
}

// GameOptions returns the defaults for new games.
func (c *Config) GameOptions() game.Options {
	color, err := board.ParseColor(c.AIColor)
	if err != nil {
		color = board.Black
	}
	return game.Options{
		Mode:        game.ParseMode(c.Mode),
		AIColor:     color,
		TimeControl: c.TimeControl,
		Difficulty:  engine.ParseDifficulty(c.Difficulty),
		Depth:       c.Depth,
	}
}

func (c *Config) getenv(flagName, key, def string) string {
	if v := os.Getenv(key); v != "" {
		c.explicit[flagName] = true
		return v
	}
	return def
}

func (c *Config) getenb(flagName, key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			c.explicit[flagName] = true
			return true
		case "0", "false", "f", "no", "n", "off":
			c.explicit[flagName] = true
			return false
		}
	}
	return def
}

func (c *Config) getenvInt(flagName, key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.explicit[flagName] = true
			return n
		}
	}
	return def
}

func (c *Config) getenvDuration(flagName, key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			c.explicit[flagName] = true
			return d
		}
	}
	return def
}
