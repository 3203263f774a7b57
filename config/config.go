// Package config gathers the runtime options of the snake binaries.
//
// Game constants (board size, speeds, scoring) are fixed in game.Config and
// are not configurable here. This package only covers where things are
// stored, served and logged. Sources are layered: built-in defaults, then an
// optional ini file, then SNAKE_* environment variables, then command-line
// flags registered by the caller with Bind.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultPath is the ini file looked up when none is given.
const DefaultPath = "snake.ini"

type Config struct {
	Game struct {
		Difficulty string `ini:"difficulty"`
		Sound      bool   `ini:"sound"`
		Headless   bool   `ini:"headless"`
	} `ini:"game"`

	Store struct {
		Backend   string `ini:"backend"`
		Path      string `ini:"path"`
		ReplayDir string `ini:"replay_dir"`
	} `ini:"store"`

	Spectate struct {
		Addr string `ini:"addr"`
	} `ini:"spectate"`

	Log struct {
		Level  string `ini:"level"`
		File   string `ini:"file"`
		Pretty bool   `ini:"pretty"`
	} `ini:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Game.Difficulty = "normal"
	c.Store.Backend = "file"
	c.Store.Path = "snake-data/best_score.txt"
	c.Store.ReplayDir = "snake-data/replays"
	c.Log.Level = "info"
	c.Log.File = "snake-data/snake.log"
	return c
}

// Load builds a Config from defaults, the ini file at path (if it exists)
// and the environment. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			f, err := ini.Load(path)
			if err != nil {
				return c, fmt.Errorf("load %s: %w", path, err)
			}
			if err := f.MapTo(&c); err != nil {
				return c, fmt.Errorf("map %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return c, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

// Save writes c as an ini file.
func Save(path string, c Config) error {
	f := ini.Empty()
	if err := ini.ReflectFrom(f, &c); err != nil {
		return fmt.Errorf("reflect config: %w", err)
	}
	return f.SaveTo(path)
}

func (c *Config) applyEnv() {
	c.Game.Difficulty = getEnvOrDefault("SNAKE_DIFFICULTY", c.Game.Difficulty)
	c.Game.Sound = getEnvBoolOrDefault("SNAKE_SOUND", c.Game.Sound)
	c.Game.Headless = getEnvBoolOrDefault("SNAKE_HEADLESS", c.Game.Headless)
	c.Store.Backend = getEnvOrDefault("SNAKE_STORE", c.Store.Backend)
	c.Store.Path = getEnvOrDefault("SNAKE_STORE_PATH", c.Store.Path)
	c.Store.ReplayDir = getEnvOrDefault("SNAKE_REPLAY_DIR", c.Store.ReplayDir)
	c.Spectate.Addr = getEnvOrDefault("SNAKE_SPECTATE_ADDR", c.Spectate.Addr)
	c.Log.Level = getEnvOrDefault("SNAKE_LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvOrDefault("SNAKE_LOG_FILE", c.Log.File)
	c.Log.Pretty = getEnvBoolOrDefault("SNAKE_LOG_PRETTY", c.Log.Pretty)
}

// Bind registers a flag per option on fs, defaulting to the current values,
// so flags override everything loaded before.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Game.Difficulty, "difficulty", c.Game.Difficulty, "Starting difficulty: easy, normal, hard, hell")
	fs.BoolVar(&c.Game.Sound, "sound", c.Game.Sound, "Play audio cues on level up and game over")
	fs.BoolVar(&c.Game.Headless, "headless", c.Game.Headless, "Run without a terminal UI (spectator stream only)")
	fs.StringVar(&c.Store.Backend, "store", c.Store.Backend, "Best score backend: memory, file, log, duckdb")
	fs.StringVar(&c.Store.Path, "store-path", c.Store.Path, "Best score file or database path")
	fs.StringVar(&c.Store.ReplayDir, "replay-dir", c.Store.ReplayDir, "Directory for session replay .parquet files (empty disables)")
	fs.StringVar(&c.Spectate.Addr, "spectate", c.Spectate.Addr, "Listen address for the spectator stream, e.g. :8080 (empty disables)")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&c.Log.File, "log-file", c.Log.File, "Log file (the terminal belongs to the game)")
	fs.BoolVar(&c.Log.Pretty, "log-pretty", c.Log.Pretty, "Indent JSON log records")
}

// PathFromArgs finds a -config/--config value in args, falling back to
// SNAKE_CONFIG and then DefaultPath. It lets the ini file be read before
// the flags that override it are parsed.
func PathFromArgs(args []string) string {
	for i, a := range args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasVal {
			return val
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return getEnvOrDefault("SNAKE_CONFIG", DefaultPath)
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}
