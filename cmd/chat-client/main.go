package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatsync/internal/di"
	"chatsync/internal/transport"
)

func main() {
	log.Println("Starting Chat Client...")

	token := os.Getenv("CHAT_SESSION_TOKEN")
	if token == "" {
		log.Fatal("CHAT_SESSION_TOKEN is not set")
	}

	app, cleanup, err := di.InitializeApp(token)
	if err != nil {
		log.Fatalf("Failed to initialize chat client: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Migrations happen here, once, before anything touches the store.
	if err := app.Store.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}
	log.Println("✅ Local store ready")

	app.Transport.On(transport.EventChatMessage, app.Chat.HandleEvent)
	app.Transport.On(transport.EventPresence, app.Roster.HandleEvent)

	if err := app.Transport.Connect(ctx, app.Session.Token, app.Session.TenantID); err != nil {
		log.Fatalf("Failed to connect realtime transport: %v", err)
	}
	log.Printf("✅ Connected as %s (%s)", app.Session.DisplayName, app.Session.UserID)

	if app.Config.Diagnostics.Enabled {
		go func() {
			log.Printf("Diagnostics server on port %s", app.Config.Diagnostics.Port)
			if err := app.Diag.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Diagnostics server failed: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Chat Client...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if app.Config.Diagnostics.Enabled {
		if err := app.Diag.Shutdown(shutdownCtx); err != nil {
			log.Printf("Diagnostics shutdown: %v", err)
		}
	}
	if err := app.Transport.Close(); err != nil {
		log.Printf("Transport close: %v", err)
	}
	log.Println("Chat Client stopped")
}
