package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/gridsnake/config"
	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/input"
	"github.com/brensch/gridsnake/logging"
	"github.com/brensch/gridsnake/pacer"
	"github.com/brensch/gridsnake/session"
	"github.com/brensch/gridsnake/sound"
	"github.com/brensch/gridsnake/spectate"
	"github.com/brensch/gridsnake/store"
	"github.com/brensch/gridsnake/tui"
)

func main() {
	cfgPath := config.PathFromArgs(os.Args[1:])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fs := flag.NewFlagSet("snake", flag.ExitOnError)
	fs.String("config", cfgPath, "Path to an ini config file (SNAKE_CONFIG)")
	writeConfig := fs.String("write-config", "", "Write the effective config to this path and exit")
	cfg.Bind(fs)
	_ = fs.Parse(os.Args[1:])

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Config written to %s\n", *writeConfig)
		return
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	best, closeStore, err := store.Open(cfg.Store.Backend, cfg.Store.Path, logger)
	if err != nil {
		log.Fatalf("Failed to open best score store: %v", err)
	}
	defer func() { _ = closeStore() }()

	ctrl := session.New(game.DefaultConfig, best,
		session.WithLogger(logger),
		session.WithDifficulty(game.ParseDifficulty(cfg.Game.Difficulty)),
	)

	logger.Info("snake starting",
		"store", cfg.Store.Backend,
		"store_path", cfg.Store.Path,
		"replay_dir", cfg.Store.ReplayDir,
		"spectate", cfg.Spectate.Addr,
		"difficulty", ctrl.Difficulty().String(),
		"best", ctrl.Best(),
		"headless", cfg.Game.Headless,
	)

	var recorder *store.Recorder
	if cfg.Store.ReplayDir != "" {
		recorder = store.NewRecorder(cfg.Store.ReplayDir, logger)
		ctrl.AddListener(recorder)
	}

	var server *spectate.Server
	if cfg.Spectate.Addr != "" {
		hub := spectate.NewHub(logger)
		ctrl.AddListener(hub)
		server, err = spectate.Listen(cfg.Spectate.Addr, hub, logger)
		if err != nil {
			log.Fatalf("Failed to start spectator server: %v", err)
		}
	}

	var player *sound.Player
	if cfg.Game.Sound {
		player = sound.NewPlayer(logger)
		ctrl.AddListener(player)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Game.Headless {
		runHeadless(ctx, ctrl, os.Stdin, logger)
	} else {
		p := tea.NewProgram(tui.New(ctrl),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion(),
			tea.WithContext(ctx),
		)
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			logger.Error("terminal ui failed", "err", err)
		}
	}

	// Shutdown runs on the goroutine that drove the controller.
	if recorder != nil {
		_ = recorder.Close()
	}
	if player != nil {
		player.Close()
	}
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("spectator shutdown", "err", err)
		}
		cancel()
	}
	logger.Info("snake stopped", "best", ctrl.Best())
}

// openLogger sends structured logs to the configured file since the
// terminal belongs to the game. An empty path or "-" means stderr.
func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	opts := logging.Options{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	}
	if cfg.Log.File == "" || cfg.Log.File == "-" {
		return logging.New(os.Stderr, opts), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.New(f, opts), func() { _ = f.Close() }, nil
}

// runHeadless drives the controller without a terminal UI. Frames come from
// a pacer.Ticker; commands are key names read one per line from in ("space",
// "up", "r", "3", ...). It returns when ctx is done, on "q" or when in closes
// after the game has ended.
func runHeadless(ctx context.Context, ctrl *session.Controller, in io.Reader, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := pacer.NewTicker(0)
	go ticker.Run(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	router := input.NewRouter(ctrl, 0)
	ctrl.Render()
	ticker.SetToken(ctrl.Token())

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-ticker.Frames():
			ctrl.Frame(f.Token, f.At)

		case line, ok := <-lines:
			if !ok {
				lines = nil
				if ctrl.Status() != game.Running {
					return
				}
				continue
			}
			if line == "" {
				continue
			}
			if router.Key(line) == input.ActionQuit {
				return
			}
			logger.Debug("headless input", "key", line, "status", ctrl.Status().String())
		}

		ticker.SetToken(ctrl.Token())
		if lines == nil && ctrl.Status() != game.Running {
			return
		}
	}
}
