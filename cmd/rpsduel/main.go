package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dberml/rpsduel/internal/announce"
	"github.com/dberml/rpsduel/internal/capture"
	"github.com/dberml/rpsduel/internal/config"
	"github.com/dberml/rpsduel/internal/game"
	"github.com/dberml/rpsduel/internal/server"
	"github.com/dberml/rpsduel/internal/store"
	"github.com/dberml/rpsduel/internal/tracker"
	"github.com/dberml/rpsduel/internal/tray"
)

func main() {
	configPath := flag.String("config", "rpsduel.json", "path to the configuration file")
	addr := flag.String("addr", "", "results server address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	useTray := flag.Bool("tray", false, "run with a system tray menu")
	flag.Parse()

	fmt.Println("RPS Duel - camera referee for rock paper scissors")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Results.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.Results.DBPath = *dbPath
	}

	st, err := store.New(cfg.Results.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	trk, err := tracker.New(cfg.ColorSpecs(), cfg.TrackerParams())
	if err != nil {
		log.Fatalf("Failed to build tracker: %v", err)
	}

	cam := buildCamera(cfg.Camera)
	if err := cam.Open(); err != nil {
		log.Fatalf("Failed to open camera: %v", err)
	}
	defer cam.Close()

	srv := server.New(server.Config{
		Store:     st,
		StaticDir: cfg.Results.StaticDir,
		Colors:    cfg.DisplayColors(),
	})
	go func() {
		log.Printf("Results server listening on %s", cfg.Results.ListenAddr)
		if err := srv.ListenAndServe(cfg.Results.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	session, err := buildSession(cfg, cam, trk, st, srv)
	if err != nil {
		log.Fatalf("Failed to build session: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down")
		cancel()
	}()

	if *useTray {
		runWithTray(ctx, cancel, cfg, session)
	} else if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Session failed: %v", err)
	}

	reportFinalScore(session)
}

// buildCamera opens a device index or a stream URL depending on the
// configured source.
func buildCamera(cc config.CameraConfig) capture.Camera {
	if id, err := strconv.Atoi(cc.Source); err == nil {
		return capture.NewCamera(id)
	}
	return capture.NewStreamCamera(cc.Source)
}

// buildSession wires the match loop from the configuration.
func buildSession(cfg *config.Config, cam capture.Camera, trk *tracker.Tracker,
	st *store.Store, srv *server.Server) (*game.Session, error) {

	lockCfg, err := cfg.LockConfig()
	if err != nil {
		return nil, err
	}

	sc := game.DefaultSessionConfig()
	sc.LockEnabled = cfg.Lock.Enabled
	sc.Lock = lockCfg
	if cfg.Game.HideFrames > 0 {
		sc.HideFrames = cfg.Game.HideFrames
	}
	if cfg.Game.StableFrames > 0 {
		sc.StableFrames = cfg.Game.StableFrames
	}
	if cfg.Game.RoundTimeoutSec > 0 {
		sc.RoundTimeout = time.Duration(cfg.Game.RoundTimeoutSec * float64(time.Second))
	}
	if cfg.Game.CountdownStepSec > 0 {
		sc.CountdownStep = time.Duration(cfg.Game.CountdownStepSec * float64(time.Second))
	}
	sc.MaxRounds = cfg.Game.MaxRounds

	opts := []game.SessionOption{
		game.WithStore(st),
		game.WithPublisher(srv.Publish),
		game.WithAnnouncer(announce.Logger{}),
	}
	if len(cfg.Camera.Intrinsics) > 0 {
		und, err := capture.NewUndistorter(cfg.Camera.Intrinsics, cfg.Camera.Distortion, cfg.Camera.Alpha)
		if err != nil {
			return nil, err
		}
		opts = append(opts, game.WithUndistorter(und))
	}

	return game.NewSession(sc, cam, trk, cfg.Players[0], cfg.Players[1], opts...)
}

// runWithTray runs the session in the background while the tray owns the
// main thread, as the tray library requires.
func runWithTray(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, session *game.Session) {
	t := tray.New()
	t.OnQuit(cancel)
	t.OnToggle(session.SetRunning)
	t.OnOpenResults(func() {
		openBrowser("http://localhost" + cfg.Results.ListenAddr + "/chart")
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := session.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Session failed: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p1, p2 := session.Ledger().Players()
				score := session.Ledger().Score()
				t.SetScore(fmt.Sprintf("%s %d - %d %s", p1, score.Wins[p1], score.Wins[p2], p2))
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	t.Run()
	cancel()
	<-done
}

// openBrowser opens a URL with the platform launcher, best effort.
func openBrowser(url string) {
	for _, launcher := range []string{"xdg-open", "open"} {
		if _, err := exec.LookPath(launcher); err == nil {
			_ = exec.Command(launcher, url).Start()
			return
		}
	}
	log.Printf("Open %s in a browser", url)
}

// reportFinalScore logs the standings at shutdown.
func reportFinalScore(session *game.Session) {
	p1, p2 := session.Ledger().Players()
	score := session.Ledger().Score()
	log.Printf("Final score after %d rounds: %s %d - %d %s (draws %d, nulls %d)",
		session.Ledger().Rounds(), p1, score.Wins[p1], score.Wins[p2], p2,
		score.Draws, score.Nulls)
}
