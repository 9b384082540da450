package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/display"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
)

func main() {
	cfg := config.Load()

	logger.Init("slideshow")
	logger.SetLevel(cfg.LogLevel)

	// The terminal belongs to the viewer; logs go to a file.
	logFile, err := os.OpenFile(cfg.SlideshowLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()
	logger.SetOutput(logFile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := display.NewClient(cfg.GalleryURL)
	logger.Info(ctx, "starting slideshow viewer", logger.Fields{"endpoint": client.Endpoint()})

	p := tea.NewProgram(
		newSlideshowModel(cfg.PageTitle, cfg.PageTerm, client.Endpoint()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	show := display.New(client, display.Options{
		Refresh:  cfg.RefreshInterval,
		Advance:  cfg.AdvanceInterval,
		OnChange: func(s display.Snapshot) { p.Send(snapshotMsg(s)) },
	})
	go func() {
		if err := show.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(ctx, "slideshow error", err)
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error(ctx, "viewer error", err)
		cancel()
		log.Fatalf("viewer error: %v", err)
	}
	cancel()
	logger.Info(context.Background(), "slideshow viewer stopped")
}
