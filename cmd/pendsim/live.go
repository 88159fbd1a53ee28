package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/pendsim/internal/stream"
	"github.com/san-kum/pendsim/internal/viz"
)

var (
	tickHz      int
	frameRate   int
	theme       string
	addr        string
	broadcastHz int
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	hz, fps := cfg.Render.TickHz, cfg.Render.FPS
	if cmd.Flags().Changed("tick-hz") {
		hz = tickHz
	}
	if cmd.Flags().Changed("fps") {
		fps = frameRate
	}

	r1, r2 := cfg.Radii()
	m := viz.NewModel(viz.Options{
		Title:   cfg.Name,
		Config:  cfg.PendulumConfig(),
		Radius1: r1,
		Radius2: r2,
		TickHz:  hz,
		FPS:     fps,
		Trail:   cfg.Render.Trail,
		Theme:   theme,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	hz := cfg.Render.TickHz
	if cmd.Flags().Changed("tick-hz") {
		hz = tickHz
	}

	hub := stream.NewHub(cfg.PendulumConfig(), stream.Options{
		TickHz:      hz,
		BroadcastHz: broadcastHz,
		Logger:      logger.With("component", "hub"),
	})

	ctx, cancel := signalContext()
	defer cancel()
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("streaming %s on %s (ws endpoint: /ws)\n", cfg.Name, addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
