package prestige_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/prestige"
	"github.com/cory-johannsen/delve/internal/game/state"
)

func setup(t *testing.T) (*content.Catalog, *prestige.Manager, *state.GameState, *event.Bus) {
	t.Helper()
	cat, err := content.Default()
	require.NoError(t, err)
	m := prestige.NewManager(cat.Upgrades(), zap.NewNop())
	s := state.New(state.PermanentRecord{}, cat, m.Meta(nil))
	return cat, m, s, event.NewBus(zap.NewNop())
}

func TestAward(t *testing.T) {
	assert.Equal(t, 0, prestige.Award(0))
	assert.Equal(t, 0, prestige.Award(1))
	assert.Equal(t, 1, prestige.Award(2))
	assert.Equal(t, 15, prestige.Award(10))
	assert.Equal(t, 29, prestige.Award(15))
}

func TestUpgradeCost(t *testing.T) {
	u := &prestige.Upgrade{ID: "x", BaseCost: 5, CostScale: 1.5, MaxLevel: 3}
	assert.Equal(t, 5, u.Cost(0))
	assert.Equal(t, 7, u.Cost(1))
	assert.Equal(t, 11, u.Cost(2))
}

func TestMeta_CapsLevelsAndIgnoresUnknown(t *testing.T) {
	ups := []*prestige.Upgrade{
		{ID: "dmg", Effect: prestige.EffectDamagePct, PerLevel: 0.05, MaxLevel: 4},
		{ID: "gold", Effect: prestige.EffectStartGold, PerLevel: 50, MaxLevel: 10},
	}
	m := prestige.Meta(ups, map[string]int{"dmg": 9, "gold": 2, "ghost": 5})
	assert.InDelta(t, 0.2, m.DamagePct, 1e-9)
	assert.InDelta(t, 100, m.StartGold, 1e-9)
	assert.Zero(t, m.HPPct)
}

func TestPropertyMetaMonotonic(t *testing.T) {
	ups := []*prestige.Upgrade{{ID: "hp", Effect: prestige.EffectHPPct, PerLevel: 0.05, MaxLevel: 20}}
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(-5, 40).Draw(t, "a")
		b := rapid.IntRange(a, 40).Draw(t, "b")
		ma := prestige.Meta(ups, map[string]int{"hp": a})
		mb := prestige.Meta(ups, map[string]int{"hp": b})
		if mb.HPPct < ma.HPPct {
			t.Fatalf("meta decreased: %d -> %v, %d -> %v", a, ma.HPPct, b, mb.HPPct)
		}
		if mb.HPPct > 1+1e-9 {
			t.Fatalf("meta exceeds cap: %v", mb.HPPct)
		}
	})
}

func TestPurchase(t *testing.T) {
	_, m, s, bus := setup(t)
	before := s.Heroes[0].Stats().Damage
	s.Echoes = 100

	require.True(t, m.Purchase(s, "sharpened_blades", bus))
	assert.Equal(t, 95, s.Echoes)
	assert.Equal(t, 1, s.PrestigeLevels["sharpened_blades"])
	assert.InDelta(t, 0.05, s.Meta.DamagePct, 1e-9)
	assert.Greater(t, s.Heroes[0].Stats().Damage, before)

	require.True(t, m.Purchase(s, "sharpened_blades", bus))
	assert.Equal(t, 88, s.Echoes)
}

func TestPurchase_Refusals(t *testing.T) {
	_, m, s, bus := setup(t)
	var warns []string
	bus.On(event.NotificationRequested, func(p any) { warns = append(warns, p.(event.Notification).Message) })

	s.Echoes = 1
	assert.False(t, m.Purchase(s, "sharpened_blades", bus))
	assert.False(t, m.Purchase(s, "nonexistent", bus))

	u, ok := m.Upgrade("quickened")
	require.True(t, ok)
	s.Echoes = 1_000_000
	s.PrestigeLevels["quickened"] = u.MaxLevel
	assert.False(t, m.Purchase(s, "quickened", bus))
	assert.Equal(t, 1_000_000, s.Echoes)
	assert.Len(t, warns, 3)
}

func TestReset(t *testing.T) {
	cat, m, s, bus := setup(t)
	var got []event.PrestigeResetPayload
	bus.On(event.PrestigeReset, func(p any) { got = append(got, p.(event.PrestigeResetPayload)) })

	held := s
	s.Echoes = 3
	s.PrestigeLevels["war_chest"] = 2
	s.Floor = 15
	s.HighestFloor = 15
	s.Gold = 9999
	s.HeroUnlocks["priest"] = state.Available
	s.Options.AutoBoss = true
	priest, _ := cat.Hero("priest")
	s.Recruit(priest)

	require.True(t, m.Reset(s, cat, bus))
	assert.Same(t, held, s)
	assert.Equal(t, 32, s.Echoes)
	assert.Equal(t, 1, s.PrestigeCount)
	assert.Equal(t, 15, s.BestFloorEver)
	assert.Equal(t, 1, s.Floor)
	assert.Equal(t, 100, s.Gold, "two levels of war chest")
	assert.Equal(t, state.Available, s.HeroUnlocks["priest"])
	assert.True(t, s.Options.AutoBoss)
	for _, h := range s.Heroes {
		assert.Equal(t, 1, h.Level)
		assert.NotEqual(t, "priest", h.ID())
	}
	assert.Equal(t, []event.PrestigeResetPayload{{Earned: 29, Total: 32}}, got)
}

func TestReset_BlockedWithoutAward(t *testing.T) {
	cat, m, s, bus := setup(t)
	var warns int
	bus.On(event.NotificationRequested, func(any) { warns++ })
	s.Gold = 42

	assert.False(t, m.Reset(s, cat, bus))
	assert.Equal(t, 42, s.Gold)
	assert.Equal(t, 0, s.PrestigeCount)
	assert.Equal(t, 1, warns)
}

func TestPropertyAwardMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.IntRange(1, 500).Draw(t, "floor")
		a, b := prestige.Award(f), prestige.Award(f+1)
		if b < a {
			t.Fatalf("award decreased from %d to %d", a, b)
		}
		want := int(math.Floor(math.Pow(float64(f), 1.5) / 2))
		if a != want {
			t.Fatalf("Award(%d) = %d, want %d", f, a, want)
		}
	})
}
