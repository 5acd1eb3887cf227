// Command demoserver serves a local posts collection for postdesk to talk to.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/postdesk/internal/demoserver"
	"github.com/raysh454/postdesk/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if path := os.Getenv("POSTDESK_DEMO_DB"); path != "" {
		cfg.DBPath = path
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := demoserver.NewDemoServer(ctx, cfg, logging.NewStdoutLogger("demoserver"))
	if err != nil {
		log.Fatalf("Demo server: %v", err)
	}
	defer server.Close()

	fmt.Printf("Posts collection on http://localhost:%d/posts (%d seeded)\n", cfg.Port, cfg.SeedPosts)
	fmt.Printf("Try: postdesk --base-url http://localhost:%d/posts run fetch\n", cfg.Port)
	if err := server.Start(ctx); err != nil {
		log.Printf("Server error: %v", err)
		return
	}
}
