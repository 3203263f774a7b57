package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/brensch/gridsnake/config"
	"github.com/brensch/gridsnake/history"
	"github.com/brensch/gridsnake/store"
)

var (
	colorTitle = color.New(color.FgGreen, color.Bold)
	colorLabel = color.New(color.FgHiBlack)
	colorScore = color.New(color.FgYellow)
	colorOver  = color.New(color.FgRed)
)

func main() {
	cfgPath := config.PathFromArgs(os.Args[1:])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fs := flag.NewFlagSet("snake-stats", flag.ExitOnError)
	fs.String("config", cfgPath, "Path to an ini config file (SNAKE_CONFIG)")
	replayDir := fs.String("replay-dir", cfg.Store.ReplayDir, "Directory of session replay .parquet files")
	limit := fs.Int("n", 10, "Number of recent sessions to list (0 = all)")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	_ = fs.Parse(os.Args[1:])

	if *noColor {
		color.NoColor = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := history.Open(*replayDir)
	if err != nil {
		log.Fatalf("Failed to open replays: %v", err)
	}
	defer db.Close()

	sum, err := db.Summarize(ctx)
	if err != nil {
		log.Fatalf("Failed to summarize: %v", err)
	}

	best, err := store.ReadBest(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		log.Printf("Failed to read stored best score: %v", err)
	}
	colorTitle.Println("Best score")
	fmt.Printf("  %s %s\n", colorLabel.Sprint("stored: "), colorScore.Sprint(best))
	fmt.Printf("  %s %s\n\n", colorLabel.Sprint("replays:"), colorScore.Sprint(sum.BestScore))

	if sum.Games == 0 {
		color.Yellow("No replays in %s", *replayDir)
		return
	}

	colorTitle.Println("Totals")
	fmt.Printf("  %s %d\n", colorLabel.Sprint("games:     "), sum.Games)
	fmt.Printf("  %s %d\n", colorLabel.Sprint("food eaten:"), sum.TotalFood)
	fmt.Printf("  %s %d\n", colorLabel.Sprint("ticks:     "), sum.TotalTicks)
	printCounts("by difficulty", sum.ByDifficulty)
	printCounts("by cause", sum.ByCause)
	fmt.Println()

	sessions, err := db.Sessions(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}

	colorTitle.Println("Recent sessions")
	for _, s := range sessions {
		cause := s.Cause
		if cause == "" || cause == "none" {
			cause = "-"
		}
		fmt.Printf("  %s  %s  %-6s  lvl %d  len %3d  %6s  %s\n",
			colorLabel.Sprint(s.Started.Format("2006-01-02 15:04:05")),
			colorScore.Sprintf("%5d", s.Score),
			s.Difficulty,
			s.Level,
			s.Length,
			s.Duration.Round(time.Second),
			colorOver.Sprint(cause),
		)
	}
}

func printCounts(title string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("  %s", colorLabel.Sprintf("%-11s", title+":"))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "?"
		}
		fmt.Printf(" %s=%d", name, m[k])
	}
	fmt.Println()
}
