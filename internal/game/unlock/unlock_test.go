package unlock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/stats"
	"github.com/cory-johannsen/delve/internal/game/unlock"
	"github.com/cory-johannsen/delve/internal/scripting"
)

func newManager(t *testing.T, cat *content.Catalog) *unlock.Manager {
	t.Helper()
	eval := scripting.NewEvaluator(0, zap.NewNop())
	t.Cleanup(eval.Close)
	m, err := unlock.NewManager(cat.Rules(), eval, zap.NewNop())
	require.NoError(t, err)
	return m
}

func fixture(t *testing.T) (*content.Catalog, *unlock.Manager, *state.GameState, *event.Bus) {
	t.Helper()
	cat, err := content.Default()
	require.NoError(t, err)
	return cat, newManager(t, cat), state.New(state.PermanentRecord{}, cat, stats.Meta{}), event.NewBus(zap.NewNop())
}

func TestRule_Validate(t *testing.T) {
	assert.NoError(t, (&unlock.Rule{HeroID: "mage", MinGold: 10}).Validate())
	assert.Error(t, (&unlock.Rule{}).Validate())
	assert.Error(t, (&unlock.Rule{HeroID: "mage", MinFloor: -1}).Validate())
}

func TestNewManager_RejectsBadScript(t *testing.T) {
	eval := scripting.NewEvaluator(0, zap.NewNop())
	defer eval.Close()
	_, err := unlock.NewManager([]*unlock.Rule{{HeroID: "mage", Script: "gold >="}}, eval, zap.NewNop())
	assert.Error(t, err)
}

func TestEvaluate_FloorRule(t *testing.T) {
	_, m, s, bus := fixture(t)
	var unlocked []string
	bus.On(event.HeroUnlocked, func(p any) { unlocked = append(unlocked, p.(event.HeroUnlockedPayload).HeroID) })

	assert.Empty(t, m.Evaluate(s, bus))
	assert.Equal(t, state.Locked, s.HeroUnlocks["priest"])

	s.HighestFloor = 3
	assert.Equal(t, []string{"priest"}, m.Evaluate(s, bus))
	assert.Equal(t, state.Available, s.HeroUnlocks["priest"])
	assert.Equal(t, []string{"priest"}, unlocked)

	assert.Empty(t, m.Evaluate(s, bus), "already available")
}

func TestEvaluate_CombinedRuleNeedsEveryCondition(t *testing.T) {
	_, m, s, bus := fixture(t)
	s.Gold = 1000
	s.HighestFloor = 4
	assert.NotContains(t, m.Evaluate(s, bus), "mage")

	s.HighestFloor = 5
	assert.Contains(t, m.Evaluate(s, bus), "mage")
}

func TestEvaluate_BestFloorEverCounts(t *testing.T) {
	_, m, s, bus := fixture(t)
	s.BestFloorEver = 3
	assert.Contains(t, m.Evaluate(s, bus), "priest")
}

func TestEvaluate_ScriptRule(t *testing.T) {
	_, m, s, bus := fixture(t)
	s.PrestigeCount = 1
	s.BestFloorEver = 9
	assert.NotContains(t, m.Evaluate(s, bus), "duelist")

	s.Echoes = 20
	assert.Contains(t, m.Evaluate(s, bus), "duelist")
}

func TestEvaluate_NeverReverts(t *testing.T) {
	_, m, s, bus := fixture(t)
	s.Gold = 500
	s.HighestFloor = 6
	m.Evaluate(s, bus)
	require.Equal(t, state.Available, s.HeroUnlocks["mage"])

	s.Gold = 0
	s.HighestFloor = 1
	m.Evaluate(s, bus)
	assert.Equal(t, state.Available, s.HeroUnlocks["mage"])
}

func TestSubscribe_EvaluatesOnGoldChange(t *testing.T) {
	_, m, s, bus := fixture(t)
	m.Subscribe(bus, func() *state.GameState { return s })
	s.HighestFloor = 5
	s.AddGold(400, bus)
	assert.Equal(t, state.Available, s.HeroUnlocks["mage"])
}

func TestRecruit(t *testing.T) {
	cat, _, s, bus := fixture(t)
	var warns []string
	bus.On(event.NotificationRequested, func(p any) {
		if n := p.(event.Notification); n.Severity == event.SeverityWarning {
			warns = append(warns, n.Message)
		}
	})
	priest, ok := cat.Hero("priest")
	require.True(t, ok)

	assert.False(t, unlock.Recruit(s, cat, "priest", bus), "locked")
	s.HeroUnlocks["priest"] = state.Available
	s.Gold = priest.RecruitCost - 1
	assert.False(t, unlock.Recruit(s, cat, "priest", bus), "too poor")
	assert.False(t, unlock.Recruit(s, cat, "ghost", bus))
	assert.Len(t, warns, 3)

	s.Gold = priest.RecruitCost + 5
	size := len(s.Heroes)
	require.True(t, unlock.Recruit(s, cat, "priest", bus))
	assert.Equal(t, 5, s.Gold)
	assert.Len(t, s.Heroes, size+1)
	assert.Equal(t, state.Recruited, s.HeroUnlocks["priest"])
	h, ok := s.Hero("priest")
	require.True(t, ok)
	assert.Equal(t, 1, h.Level)

	assert.False(t, unlock.Recruit(s, cat, "priest", bus), "already recruited")
	assert.Len(t, warns, 4)
}

func TestPropertyUnlocksAreMonotonic(t *testing.T) {
	cat, err := content.Default()
	require.NoError(t, err)
	m := newManager(t, cat)
	bus := event.NewBus(zap.NewNop())
	rapid.Check(t, func(rt *rapid.T) {
		s := state.New(state.PermanentRecord{}, cat, stats.Meta{})
		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			s.Gold = rapid.IntRange(0, 2000).Draw(rt, "gold")
			s.HighestFloor = rapid.IntRange(1, 30).Draw(rt, "floor")
			before := make(map[string]state.Unlock, len(s.HeroUnlocks))
			for k, v := range s.HeroUnlocks {
				before[k] = v
			}
			m.Evaluate(s, bus)
			for id, was := range before {
				if was != state.Locked && s.HeroUnlocks[id] != was {
					rt.Fatalf("hero %s went from %s to %s", id, was, s.HeroUnlocks[id])
				}
			}
		}
	})
}
