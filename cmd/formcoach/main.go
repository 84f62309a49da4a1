package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ayusman/formcoach/internal/app"
	"github.com/ayusman/formcoach/internal/config"
	"github.com/ayusman/formcoach/internal/server"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
	"github.com/ayusman/formcoach/internal/tray"
	"github.com/ayusman/formcoach/internal/voice"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	fmt.Println("FormCoach - Workout Form Tracking")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	var announcer *voice.Announcer
	if cfg.Voice.Enabled {
		announcer = voice.NewAnnouncer(cfg.Voice.Command, cfg.Voice.TimeoutMs)
	}

	a := app.New(app.Config{
		Store:              st,
		CameraID:           cfg.Camera.DeviceID,
		MotionThresh:       cfg.Camera.MotionThreshold,
		MinVisibility:      cfg.Evaluation.MinVisibility,
		FeedbackIntervalMs: cfg.Evaluation.FeedbackIntervalMs,
		DwellMs:            cfg.Evaluation.DwellMs,
		FlushThreshold:     cfg.Evaluation.FlushThreshold,
		Announcer:          announcer,
	})

	live := server.NewLiveHandler()
	a.AddListener(live.Notify)

	// Find web directory
	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Live:      live,
		Workout:   a,
	})

	if err := a.Start(); err != nil {
		log.Printf("Detection pipeline unavailable: %v", err)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Update the tray's last-session line as sessions end.
	t := tray.New()
	a.AddListener(func(ev session.Event) {
		if ev.Type == session.EventSessionEnded && ev.Record != nil {
			t.SetLastSession(string(ev.Record.ExerciseType), ev.Record.TotalReps, ev.Record.AverageScore)
		}
	})
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	t.OnDashboard(func() {
		openBrowser("http://localhost" + cfg.Server.Addr)
	})
	t.OnQuit(func() {
		a.Stop()
	})

	// Blocks until Quit is selected from the tray menu.
	t.Run()
}

// loadConfig loads the YAML config from the given path, falling back to
// ~/.formcoach/config.yaml and finally to built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return config.Default(), nil
	}

	defaultPath := filepath.Join(homeDir, ".formcoach", "config.yaml")
	if _, err := os.Stat(defaultPath); err == nil {
		return config.Load(defaultPath)
	}

	return config.Default(), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.formcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
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

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".formcoach", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	if err := exec.Command("open", url).Start(); err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}
