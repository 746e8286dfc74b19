package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sketchrelay/sketchrelay/internal/client"
	"github.com/sketchrelay/sketchrelay/internal/transport"
)

// mirror is a headless collaborator: it joins a whiteboard session, applies
// every remote drawing event to an offscreen surface and periodically writes
// the rendered board to a PNG file.
func main() {
	godotenv.Load()

	var (
		relayURL     = flag.String("relay", envOr("RELAY_URL", "ws://localhost:8080"), "relay base URL")
		token        = flag.String("token", os.Getenv("RELAY_TOKEN"), "bearer token")
		whiteboardID = flag.String("whiteboard", os.Getenv("WHITEBOARD_ID"), "whiteboard session id")
		output       = flag.String("out", "board.png", "output PNG path")
		interval     = flag.Duration("interval", 5*time.Second, "export interval")
		width        = flag.Int("width", 1280, "surface width")
		height       = flag.Int("height", 720, "surface height")
	)
	flag.Parse()

	if *token == "" || *whiteboardID == "" {
		log.Fatal("both -token and -whiteboard are required")
	}

	ctrl := client.NewController(client.Config{
		Width:   *width,
		Height:  *height,
		BaseURL: *relayURL,
		Token:   *token,
		OnStatus: func(s transport.Status) {
			log.Printf("channel status: %s", s)
		},
	})
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Join(ctx, client.Session{ID: *whiteboardID}); err != nil {
		log.Fatalf("Failed to join session: %v", err)
	}
	log.Printf("Mirroring whiteboard %s to %s every %s", *whiteboardID, *output, *interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := export(ctrl, *output); err != nil {
				log.Printf("Export failed: %v", err)
			}
		case <-sigChan:
			log.Println("Shutting down mirror...")
			ctrl.Leave()
			return
		}
	}
}

func export(ctrl *client.Controller, path string) error {
	snapshot, err := ctrl.Surface().Snapshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, snapshot, 0o644)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
