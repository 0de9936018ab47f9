// Command tilechess-server serves games over HTTP and WebSocket.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hailam/tilechess/internal/config"
	"github.com/hailam/tilechess/internal/server"
	"github.com/hailam/tilechess/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var store *storage.Storage
	if !cfg.NoStore {
		store, err = openStore(cfg.DataDir)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		defer store.Close()

		prefs, err := store.LoadPreferences()
		if err != nil {
			log.Printf("Warning: preferences not loaded: %v", err)
		} else {
			cfg.ApplyPreferences(prefs)
		}
		if err := store.SavePreferences(cfg.Preferences()); err != nil {
			log.Printf("Warning: preferences not saved: %v", err)
		}
	} else {
		log.Printf("Storage disabled; games and statistics will not persist")
	}

	srv := server.New(store, cfg.GameOptions())

	errc := make(chan error, 1)
	go func() {
		log.Printf("HTTP listening on %s (difficulty=%s mode=%s ai=%s clock=%v)",
			cfg.Addr, cfg.Difficulty, cfg.Mode, cfg.AIColor, cfg.TimeControl)
		errc <- srv.Listen(cfg.Addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			log.Printf("listen: %v", err)
		}
	case s := <-sig:
		log.Printf("Received %v, shutting down", s)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// openStore opens the database under dir, or in the platform data
// directory when dir is empty.
func openStore(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, err
	}
	return storage.Open(dbDir)
}
