// Command chatcli talks to the assistant from a terminal using the same
// controller, booking flow and completion provider as the API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/wolfman30/marketier-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conv, err := bootstrap.BuildConversation(ctx, cfg, bootstrap.ConversationDeps{
		Store:     conversation.NewMemorySessionStore(cfg.SessionTTL),
		Observers: bootstrap.BuildBookingObservers(ctx, cfg, nil, logger),
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("build conversation: %v", err)
	}

	fmt.Fprintf(os.Stdout, "completion: %s, booking: %s\n", conv.CompletionProvider, conv.Controller.BookingProvider())
	if err := runREPL(ctx, conv.Service, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("chat: %v", err)
	}
}
