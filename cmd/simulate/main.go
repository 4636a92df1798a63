// Package main provides a headless batch simulator: it runs one seeded session
// for a span of simulated time and prints the final snapshot as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/sim"
)

type options struct {
	duration   time.Duration
	step       time.Duration
	autoBoss   bool
	autoLoot   bool
	prestigeAt int
}

// summary is printed alongside the snapshot.
type summary struct {
	Floor      int     `json:"floor"`
	Highest    int     `json:"highest_floor"`
	Gold       int     `json:"gold"`
	Kills      int     `json:"kills"`
	BossKills  int     `json:"boss_kills"`
	Prestiges  int     `json:"prestiges"`
	Echoes     int     `json:"echoes"`
	Elapsed    float64 `json:"elapsed_seconds"`
	Wipes      int     `json:"wipes"`
	LevelUps   int     `json:"level_ups"`
	ItemsFound int     `json:"items_found"`
}

type result struct {
	Summary  summary        `json:"summary"`
	Snapshot state.Snapshot `json:"snapshot"`
}

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults")
	seed := flag.Uint64("seed", 1, "random seed; 0 selects a crypto source")
	duration := flag.Duration("duration", time.Hour, "simulated time to run")
	step := flag.Duration("step", time.Second, "simulated time per tick")
	autoBoss := flag.Bool("auto-boss", true, "challenge bosses automatically")
	autoLoot := flag.Bool("auto-loot", true, "collect loot automatically")
	prestigeAt := flag.Int("prestige-at", 0, "prestige on reaching this floor; 0 disables")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.Simulation.Seed = *seed
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	cat, err := content.Open(cfg.Simulation.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	opts := options{duration: *duration, step: *step, autoBoss: *autoBoss, autoLoot: *autoLoot, prestigeAt: *prestigeAt}
	if err := run(context.Background(), cat, cfg.Simulation, opts, logger, os.Stdout); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromViper(config.Defaults())
	}
	return config.Load(path)
}

// run simulates one fresh profile for opts.duration and writes the result to w.
//
// Precondition: opts.step must be > 0.
func run(ctx context.Context, cat *content.Catalog, simCfg config.SimulationConfig, opts options, logger *zap.Logger, w io.Writer) error {
	if opts.step <= 0 {
		return fmt.Errorf("step must be > 0, got %s", opts.step)
	}
	simCfg.AutosaveInterval = 0
	sess, err := sim.NewSession("batch", state.PermanentRecord{}, sim.Deps{Catalog: cat, Logger: logger}, simCfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	var sum summary
	bus := sess.Bus()
	bus.On(event.DungeonStatusChanged, func(p any) {
		if p.(event.StatusChangedPayload).To == string(state.StatusPartyWipe) {
			sum.Wipes++
		}
	})
	bus.On(event.HeroLeveledUp, func(any) { sum.LevelUps++ })
	bus.On(event.ItemDropped, func(any) { sum.ItemsFound++ })
	bus.On(event.PrestigeReset, func(any) { sum.Prestiges++ })

	sess.SetOption(sim.OptionAutoBoss, opts.autoBoss)
	sess.SetOption(sim.OptionAutoLoot, opts.autoLoot)

	for remaining := opts.duration; remaining > 0; remaining -= opts.step {
		sess.Tick(ctx, min(opts.step, remaining))
		if opts.prestigeAt > 0 {
			var deep bool
			sess.View(func(st *state.GameState) { deep = st.HighestFloor >= opts.prestigeAt })
			if deep {
				sess.Prestige(ctx)
			}
		}
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return err
	}
	sum.Floor = snap.Floor
	sum.Highest = snap.HighestFloor
	sum.Gold = snap.Gold
	sum.Kills = snap.Stats.Kills
	sum.BossKills = snap.Stats.BossKills
	sum.Echoes = snap.Permanent.Echoes
	sum.Elapsed = snap.Elapsed
	logger.Info("simulation finished",
		zap.Int("floor", sum.Floor),
		zap.Int("kills", sum.Kills),
		zap.Int("wipes", sum.Wipes),
		zap.Int("prestiges", sum.Prestiges),
	)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result{Summary: sum, Snapshot: snap}); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
