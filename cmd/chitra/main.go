package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/chitra/internal/app"
	"github.com/ayusman/chitra/internal/capture"
	"github.com/ayusman/chitra/internal/config"
	"github.com/ayusman/chitra/internal/detector"
	"github.com/ayusman/chitra/internal/display"
	"github.com/ayusman/chitra/internal/server"
	"github.com/ayusman/chitra/internal/store"
	"github.com/ayusman/chitra/internal/tray"
)

func main() {
	fmt.Println("Chitra - Gesture Painter")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the store
	var st *store.Store
	if cfg.Store.Enabled {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()
	}

	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err != nil {
		log.Printf("MediaPipe detector unavailable (%v), painting without hand tracking", err)
		det = detector.NewMockDetector()
	} else {
		det = mp
	}

	var disp display.Display
	if cfg.Window.Show {
		disp = display.NewWindow(cfg.Window.Title)
	} else {
		disp = display.NewHeadless()
	}

	monitor := app.NewMonitor()
	painter, err := app.New(app.Config{
		Camera:   capture.NewCamera(cfg.Camera.ID, cfg.Camera.Width, cfg.Camera.Height),
		Detector: det,
		Display:  disp,
		Backend:  cfg.Backend(),
		Palette:  cfg.PaintPalette(),
		Policy:   cfg.CursorPolicy(),
		Mirror:   cfg.Camera.Mirror,
		QuitKey:  cfg.QuitKey(),
		ShowFPS:  cfg.Window.ShowFPS,
		Monitor:  monitor,
		Store:    st,
		CameraID: cfg.Camera.ID,
	})
	if err != nil {
		log.Fatalf("Failed to create painter: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Addr != "" {
		webDir := findWebDir()
		if webDir != "" {
			fmt.Printf("Serving static files from: %s\n", webDir)
		}

		srv := server.New(server.Config{
			StaticDir:  webDir,
			Store:      st,
			Source:     monitor,
			Controller: painter,
		})

		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		go func() {
			if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
				log.Printf("Server stopped: %v", err)
			}
		}()
	}

	if !cfg.Tray.Enabled {
		if err := painter.Run(ctx); err != nil {
			log.Fatalf("Painter failed: %v", err)
		}
		return
	}

	// The tray owns the main thread; the frame loop runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New()
	t.OnToggle(painter.SetEnabled)
	t.OnQuit(cancel)
	if cfg.Server.Addr != "" {
		url := "http://" + cfg.Server.Addr
		t.OnOpen(func() { fmt.Printf("Live view at %s\n", url) })
	}
	go t.Watch(ctx, monitor)

	runErr := make(chan error, 1)
	go func() {
		err := painter.Run(ctx)
		t.Quit()
		runErr <- err
	}()

	t.Run()
	cancel()
	if err := <-runErr; err != nil {
		log.Fatalf("Painter failed: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.chitra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
