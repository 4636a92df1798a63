// Package sim drives game sessions: it owns each GameState, splits wall-clock
// deltas into bounded simulation steps, serializes player commands against the
// tick, and autosaves through a state.Store.
package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/prestige"
	"github.com/cory-johannsen/delve/internal/game/shop"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/unlock"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/scripting"
)

// Deps are the collaborators shared by every session of a process.
type Deps struct {
	Catalog *content.Catalog
	// Store is optional; a nil Store disables saving.
	Store  state.Store
	Logger *zap.Logger
}

// Session is one player's running game.
//
// All methods are safe for concurrent use. Event handlers registered on Bus run
// while the session lock is held and must not call back into the Session.
type Session struct {
	id  string
	cfg config.SimulationConfig

	mu        sync.Mutex
	state     *state.GameState
	bus       *event.Bus
	cat       *content.Catalog
	roller    *dice.Roller
	dungeon   *dungeon.Manager
	shop      *shop.Manager
	prestige  *prestige.Manager
	unlocks   *unlock.Manager
	eval      *scripting.Evaluator
	store     state.Store
	logger    *zap.Logger
	sinceSave float64
	closed    bool
}

// NewSession starts a fresh run for profileID from rec.
//
// Precondition: deps.Catalog and deps.Logger must be non-nil.
// Postcondition: Returns a session whose unlock rules were already evaluated once.
func NewSession(profileID string, rec state.PermanentRecord, deps Deps, cfg config.SimulationConfig) (*Session, error) {
	sess, err := assemble(profileID, deps, cfg)
	if err != nil {
		return nil, err
	}
	sess.state = state.New(rec, deps.Catalog, sess.prestige.Meta(rec.PrestigeLevels))
	sess.bootstrap()
	sess.logger.Info("session started", zap.Int("echoes", rec.Echoes), zap.Int("prestige_count", rec.PrestigeCount))
	return sess, nil
}

// RestoreSession resumes the run captured in snap.
//
// Postcondition: Unknown heroes, items and enemy templates in snap are skipped with
// warnings; derived stats are recomputed and HP clamped to the new maxima.
func RestoreSession(profileID string, snap state.Snapshot, deps Deps, cfg config.SimulationConfig) (*Session, error) {
	sess, err := assemble(profileID, deps, cfg)
	if err != nil {
		return nil, err
	}
	meta := sess.prestige.Meta(snap.Permanent.PrestigeLevels)
	s, err := state.Hydrate(snap, deps.Catalog, meta, sess.logger)
	if err != nil {
		sess.eval.Close()
		return nil, fmt.Errorf("restoring session %q: %w", profileID, err)
	}
	sess.state = s
	sess.bootstrap()
	sess.logger.Info("session restored", zap.Int("floor", s.Floor), zap.Float64("elapsed", s.Elapsed))
	return sess, nil
}

// Load resumes profileID from deps.Store: the saved run if there is one, otherwise a
// fresh run from the saved permanent record, otherwise a brand new profile.
//
// Precondition: deps.Store must be non-nil.
func Load(ctx context.Context, profileID string, deps Deps, cfg config.SimulationConfig) (*Session, error) {
	snap, err := deps.Store.LoadRun(ctx, profileID)
	if err == nil {
		return RestoreSession(profileID, snap, deps, cfg)
	}
	if !errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("loading run %q: %w", profileID, err)
	}
	rec, err := deps.Store.LoadPermanent(ctx, profileID)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("loading permanent record %q: %w", profileID, err)
	}
	return NewSession(profileID, rec, deps, cfg)
}

func assemble(profileID string, deps Deps, cfg config.SimulationConfig) (*Session, error) {
	cat := deps.Catalog
	logger := observability.ForSession(deps.Logger, profileID, cfg.Seed)
	roller := dice.NewLoggedRoller(dice.NewSource(cfg.Seed), logger)
	gen := item.NewGenerator(cat.Items(), roller)
	eval := scripting.NewEvaluator(0, logger)
	unlocks, err := unlock.NewManager(cat.Rules(), eval, logger)
	if err != nil {
		eval.Close()
		return nil, fmt.Errorf("session %q: %w", profileID, err)
	}
	return &Session{
		id:       profileID,
		cfg:      cfg,
		bus:      event.NewBus(logger),
		cat:      cat,
		roller:   roller,
		dungeon:  dungeon.NewManager(enemy.NewSpawner(cat.Templates(), roller), gen, roller, cat.BuffPool(), logger),
		shop:     shop.NewManager(gen, logger),
		prestige: prestige.NewManager(cat.Upgrades(), logger),
		unlocks:  unlocks,
		eval:     eval,
		store:    deps.Store,
		logger:   logger,
	}, nil
}

func (s *Session) bootstrap() {
	s.unlocks.Subscribe(s.bus, func() *state.GameState { return s.state })
	s.unlocks.Evaluate(s.state, s.bus)
}

// ID returns the profile ID of the session.
func (s *Session) ID() string { return s.id }

// Bus returns the session's event bus.
func (s *Session) Bus() *event.Bus { return s.bus }

// Close releases the script evaluator. Calling Close again is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.eval.Close()
}

// Tick advances the session by dt of wall-clock time.
//
// Precondition: dt <= 0 is a no-op.
// Postcondition: At most cfg.MaxCatchUp is simulated, in steps of at most cfg.MaxStep.
// An autosave runs once cfg.AutosaveInterval of simulated time has accumulated; a
// failed autosave is logged and retried on the next interval.
func (s *Session) Tick(ctx context.Context, dt time.Duration) {
	if dt <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxCatchUp > 0 && dt > s.cfg.MaxCatchUp {
		s.logger.Info("clamping catch-up", zap.Duration("requested", dt), zap.Duration("applied", s.cfg.MaxCatchUp))
		dt = s.cfg.MaxCatchUp
	}
	step := s.cfg.MaxStep.Seconds()
	remaining := dt.Seconds()
	if step <= 0 {
		step = remaining
	}
	for remaining > 0 {
		d := min(step, remaining)
		s.step(d)
		remaining -= d
	}

	if s.store == nil || s.cfg.AutosaveInterval <= 0 {
		return
	}
	s.sinceSave += dt.Seconds()
	if s.sinceSave < s.cfg.AutosaveInterval.Seconds() {
		return
	}
	s.sinceSave = 0
	if err := s.save(ctx); err != nil {
		s.logger.Error("autosave failed", zap.Error(err))
	}
}

func (s *Session) step(dt float64) {
	s.shop.Update(s.state, dt, s.bus)
	s.dungeon.Update(s.state, dt, s.bus)
	s.checkBossUnlock()
}

// checkBossUnlock raises the boss intent flag and announces the boss once per floor.
func (s *Session) checkBossUnlock() {
	st := s.state
	if !st.BossUnlocked() {
		st.UI.BossUnlockReached = false
		return
	}
	st.UI.BossUnlockReached = true
	if st.UI.BossAnnouncedFloor == st.Floor {
		return
	}
	st.UI.BossAnnouncedFloor = st.Floor
	s.bus.Emit(event.BossUnlocked, event.BossUnlockedPayload{Floor: st.Floor})
	s.bus.Notify(event.SeverityInfo, "The boss of floor %d can now be challenged.", st.Floor)
}

// Save writes the run snapshot and the permanent record to the store.
//
// Postcondition: Returns nil without writing when the session has no store.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveRun(ctx, s.id, s.state.Snapshot()); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	if err := s.store.SavePermanent(ctx, s.id, s.state.Permanent()); err != nil {
		return fmt.Errorf("saving permanent record: %w", err)
	}
	s.logger.Debug("session saved", zap.Float64("elapsed", s.state.Elapsed))
	return nil
}

// Snapshot returns a deep copy of the run that is independent of later ticks.
func (s *Session) Snapshot() (state.Snapshot, error) {
	s.mu.Lock()
	data, err := json.Marshal(s.state.Snapshot())
	s.mu.Unlock()
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	var out state.Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return state.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return out, nil
}

// View calls fn with the live state under the session lock.
//
// Precondition: fn must not retain s or call back into the Session.
func (s *Session) View(fn func(st *state.GameState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// ClearUIFlags resets the renderer intent flags after they were shown and returns
// the flags as they were before the reset.
//
// Postcondition: BossUnlockReached and BossAnnouncedFloor are left alone; the tick owns them.
func (s *Session) ClearUIFlags() state.UIFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state.UI
	s.state.UI.InventoryFull = false
	s.state.UI.ShopRefreshed = false
	return prev
}

// Watch registers fn to observe every event the session emits.
//
// Precondition: fn runs under the session lock and must not call back into the Session.
// Postcondition: Calling the returned function removes fn.
func (s *Session) Watch(fn event.TapHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove := s.bus.Tap(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		remove()
	}
}
