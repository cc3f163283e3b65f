// Command chat runs the conversation in the terminal against the local snapshot store.
package main

import (
	"context"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/minimalist-ai/backend/internal/bootstrap"
	"github.com/zhouzirui/minimalist-ai/backend/internal/config"
	"github.com/zhouzirui/minimalist-ai/backend/internal/tui"
)

func main() {
	// .env is optional for the terminal client.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize conversation store: %v", err)
	}

	// Log lines would corrupt the alt screen; keep them only when asked to.
	if cfg.DebugLog != "" {
		f, err := tea.LogToFile(cfg.DebugLog, "chat")
		if err != nil {
			log.Fatalf("failed to open debug log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	if _, err := tea.NewProgram(tui.New(app.Chat), tea.WithAltScreen()).Run(); err != nil {
		log.Printf("terminal ui: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Close(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
