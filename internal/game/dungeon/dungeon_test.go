package dungeon_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/content"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/dungeon"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/event"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/state"
	"github.com/cory-johannsen/delve/internal/game/stats"
)

type world struct {
	s   *state.GameState
	m   *dungeon.Manager
	bus *event.Bus

	statuses []event.StatusChangedPayload
	floors   []int
	warnings []string
}

func newWorld(t testing.TB, seed uint64) *world {
	t.Helper()
	cat, err := content.Default()
	require.NoError(t, err)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
	w := &world{
		s: state.New(state.PermanentRecord{}, cat, stats.Meta{}),
		m: dungeon.NewManager(
			enemy.NewSpawner(cat.Templates(), roller),
			item.NewGenerator(cat.Items(), roller),
			roller,
			cat.BuffPool(),
			zap.NewNop(),
		),
		bus: event.NewBus(zap.NewNop()),
	}
	w.bus.On(event.DungeonStatusChanged, func(p any) {
		w.statuses = append(w.statuses, p.(event.StatusChangedPayload))
	})
	w.bus.On(event.FloorAdvanced, func(p any) { w.floors = append(w.floors, p.(event.FloorAdvancedPayload).Floor) })
	w.bus.On(event.NotificationRequested, func(p any) {
		if n := p.(event.Notification); n.Severity == event.SeverityWarning {
			w.warnings = append(w.warnings, n.Message)
		}
	})
	return w
}

func (w *world) run(seconds, step float64) {
	for elapsed := 0.0; elapsed < seconds; elapsed += step {
		w.m.Update(w.s, step, w.bus)
	}
}

func TestUpdate_CooldownStartsEncounter(t *testing.T) {
	w := newWorld(t, 1)
	require.Equal(t, state.StatusCooldown, w.s.Status)

	w.m.Update(w.s, 1, w.bus)
	w.m.Update(w.s, 1, w.bus)
	assert.Equal(t, state.StatusCooldown, w.s.Status)
	assert.Nil(t, w.s.Enemy)

	w.m.Update(w.s, 1, w.bus)
	assert.Equal(t, state.StatusFighting, w.s.Status)
	require.NotNil(t, w.s.Enemy)
	assert.False(t, w.s.Enemy.IsBoss())
	require.Len(t, w.statuses, 1)
	assert.Equal(t, event.StatusChangedPayload{From: string(state.StatusCooldown), To: string(state.StatusFighting)}, w.statuses[0])
}

func TestUpdate_NonPositiveDeltaIsNoop(t *testing.T) {
	w := newWorld(t, 1)
	before := w.s.CooldownTimer
	w.m.Update(w.s, 0, w.bus)
	w.m.Update(w.s, -5, w.bus)
	assert.InDelta(t, before, w.s.CooldownTimer, 1e-12)
	assert.Zero(t, w.s.Elapsed)
}

func TestUpdate_RegularVictoryGrantsRewards(t *testing.T) {
	w := newWorld(t, 2)
	var defeated []event.EnemyDefeatedPayload
	w.bus.On(event.EnemyDefeated, func(p any) { defeated = append(defeated, p.(event.EnemyDefeatedPayload)) })

	w.s.Status = state.StatusFighting
	w.s.Enemy = enemy.NewMonsterGroup("rat", "Rat x1", 1, 1, 1, 0, 1, enemy.Rewards{Gold: 7, XP: 60})
	w.m.Update(w.s, 2, w.bus)

	assert.Equal(t, state.StatusCooldown, w.s.Status)
	assert.Nil(t, w.s.Enemy)
	assert.Equal(t, 7, w.s.Gold)
	assert.Equal(t, 1, w.s.EncounterIndex)
	assert.Equal(t, 1, w.s.Stats.Kills)
	assert.InDelta(t, w.s.EncounterCooldown(), w.s.CooldownTimer, 1e-9)
	for _, h := range w.s.Heroes {
		assert.Equal(t, 2, h.Level, "XP goes to every hero")
	}
	require.Len(t, defeated, 1)
	assert.Equal(t, 7, defeated[0].Gold)
	assert.False(t, defeated[0].Boss)
}

func TestUpdate_EncounterIndexCapsAtBossUnlock(t *testing.T) {
	w := newWorld(t, 3)
	for range state.EncountersPerFloor + 3 {
		w.s.Status = state.StatusFighting
		w.s.Enemy = enemy.NewMonsterGroup("rat", "Rat x1", 1, 1, 1, 0, 1, enemy.Rewards{Gold: 1, XP: 1})
		w.m.Update(w.s, 2, w.bus)
	}
	assert.Equal(t, state.EncountersPerFloor, w.s.EncounterIndex)
	assert.True(t, w.s.BossUnlocked())
	assert.Equal(t, 1, w.s.Floor)
}

func TestUpdate_BossVictoryAdvancesFloor(t *testing.T) {
	w := newWorld(t, 4)
	w.s.EncounterIndex = state.EncountersPerFloor
	w.s.UI.BossUnlockReached = true
	w.s.Status = state.StatusFighting
	w.s.Enemy = enemy.NewBoss("Ulmok the Pale", 1, 1, 0, enemy.Rewards{Gold: 100, XP: 80})

	w.m.Update(w.s, 2, w.bus)

	assert.Equal(t, 2, w.s.Floor)
	assert.Equal(t, 2, w.s.HighestFloor)
	assert.Equal(t, 2, w.s.BestFloorEver)
	assert.Equal(t, 0, w.s.EncounterIndex)
	assert.False(t, w.s.UI.BossUnlockReached)
	assert.Equal(t, 1, w.s.Stats.BossKills)
	assert.Equal(t, []int{2}, w.floors)
	assert.Len(t, w.s.Loot, enemy.BossDrops)
	for _, it := range w.s.Loot {
		assert.Equal(t, 1, it.Level)
	}
}

func TestUpdate_AutoLootFillsInventory(t *testing.T) {
	w := newWorld(t, 5)
	w.s.Options.AutoLoot = true
	w.s.Status = state.StatusFighting
	w.s.Enemy = enemy.NewBoss("Kazrak the Hollow King", 1, 1, 0, enemy.Rewards{})
	w.m.Update(w.s, 2, w.bus)
	assert.Equal(t, enemy.BossDrops, w.s.Inventory.Len())
	assert.Empty(t, w.s.Loot)
}

func TestUpdate_AutoLootOverflowsToPool(t *testing.T) {
	w := newWorld(t, 6)
	w.s.Options.AutoLoot = true
	for i := range item.DefaultCapacity - 1 {
		w.s.Inventory.Add(&item.Item{ID: string(rune('A' + i))})
	}
	w.s.Status = state.StatusFighting
	w.s.Enemy = enemy.NewBoss("Vesska the Ashen", 1, 1, 0, enemy.Rewards{})
	w.m.Update(w.s, 2, w.bus)
	assert.True(t, w.s.Inventory.Full())
	assert.Len(t, w.s.Loot, 1)
	assert.True(t, w.s.UI.InventoryFull)
}

func TestUpdate_WipeAndRecovery(t *testing.T) {
	w := newWorld(t, 7)
	w.s.Status = state.StatusFighting
	w.s.Enemy = enemy.NewBoss("Morgul the Devourer", 1, 1e9, 1e6, enemy.Rewards{})
	w.s.BossFightPending = true

	w.m.Update(w.s, 2, w.bus)
	require.Equal(t, state.StatusPartyWipe, w.s.Status)
	assert.Nil(t, w.s.Enemy)
	assert.False(t, w.s.BossFightPending)
	for _, h := range w.s.Heroes {
		assert.Equal(t, hero.Incapacitated, h.Status)
		assert.Zero(t, h.HP)
	}

	steps := 0
	for w.s.Status == state.StatusPartyWipe && steps < 20 {
		w.m.Update(w.s, 1, w.bus)
		steps++
	}
	assert.GreaterOrEqual(t, steps, 10, "recovery runs at 10%% of max HP per second")
	require.Equal(t, state.StatusCooldown, w.s.Status)
	last := w.statuses[len(w.statuses)-1]
	assert.True(t, last.FullHeal)
	assert.Equal(t, string(state.StatusPartyWipe), last.From)
	for _, h := range w.s.Heroes {
		assert.Equal(t, hero.Fighting, h.Status)
		assert.Equal(t, h.MaxHP(), h.HP)
	}
}

func TestUpdate_DownedHeroRecoversDuringCooldown(t *testing.T) {
	w := newWorld(t, 8)
	k := w.s.Heroes[0]
	k.TakeDamage(1e9)
	require.Equal(t, hero.Incapacitated, k.Status)
	w.s.CooldownTimer = 1000

	w.run(5, 1)
	assert.Equal(t, hero.Incapacitated, k.Status)
	assert.InDelta(t, k.MaxHP()*0.5, k.HP, 1e-6)

	w.run(6, 1)
	assert.Equal(t, hero.Fighting, k.Status)
	assert.Equal(t, k.MaxHP(), k.HP)
}

func TestChallengeBoss(t *testing.T) {
	w := newWorld(t, 9)
	assert.False(t, w.m.ChallengeBoss(w.s, w.bus))
	assert.Len(t, w.warnings, 1)
	assert.False(t, w.s.BossFightPending)

	w.s.EncounterIndex = state.EncountersPerFloor
	require.True(t, w.m.ChallengeBoss(w.s, w.bus))
	assert.True(t, w.s.BossFightPending)

	w.run(3, 0.5)
	require.Equal(t, state.StatusFighting, w.s.Status)
	require.NotNil(t, w.s.Enemy)
	assert.True(t, w.s.Enemy.IsBoss())
	assert.False(t, w.s.BossFightPending)
	assert.Contains(t, w.s.Enemy.Name(), " the ")

	assert.False(t, w.m.ChallengeBoss(w.s, w.bus), "already fighting the boss")
}

func TestAutoBossSpawnsWhenUnlocked(t *testing.T) {
	w := newWorld(t, 10)
	w.s.Options.AutoBoss = true
	w.s.EncounterIndex = state.EncountersPerFloor
	w.run(3, 0.5)
	require.NotNil(t, w.s.Enemy)
	assert.True(t, w.s.Enemy.IsBoss())
}

func TestRetreat(t *testing.T) {
	w := newWorld(t, 11)
	assert.False(t, w.m.Retreat(w.s, w.bus))

	w.run(3, 0.5)
	require.Equal(t, state.StatusFighting, w.s.Status)
	gold := w.s.Gold
	require.True(t, w.m.Retreat(w.s, w.bus))
	assert.Equal(t, state.StatusCooldown, w.s.Status)
	assert.Nil(t, w.s.Enemy)
	assert.Equal(t, gold, w.s.Gold)
	assert.Equal(t, 0, w.s.EncounterIndex)
	assert.InDelta(t, w.s.EncounterCooldown(), w.s.CooldownTimer, 1e-9)
}

func TestLongRunInvariants(t *testing.T) {
	w := newWorld(t, 12)
	w.s.Options.AutoBoss = true
	for i := 0; i < 6000; i++ {
		w.m.Update(w.s, 0.1, w.bus)
		require.LessOrEqual(t, w.s.EncounterIndex, state.EncountersPerFloor)
		require.GreaterOrEqual(t, w.s.Gold, 0)
		require.GreaterOrEqual(t, w.s.HighestFloor, w.s.Floor)
		for _, h := range w.s.Heroes {
			require.GreaterOrEqual(t, h.HP, 0.0)
			require.LessOrEqual(t, h.HP, h.MaxHP())
		}
		if w.s.Status == state.StatusFighting {
			require.NotNil(t, w.s.Enemy)
		}
		require.LessOrEqual(t, len(w.s.Loot), state.LootPoolCap)
	}
	assert.Positive(t, w.s.Stats.Kills)
	assert.Positive(t, w.s.Gold)
}

func TestDeterminism(t *testing.T) {
	a := newWorld(t, 42)
	b := newWorld(t, 42)
	for _, w := range []*world{a, b} {
		w.s.Options.AutoBoss = true
		w.run(300, 0.25)
	}
	ja, err := json.Marshal(a.s.Snapshot())
	require.NoError(t, err)
	jb, err := json.Marshal(b.s.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
	assert.Equal(t, a.statuses, b.statuses)
}
