package enemy

import (
	"fmt"
	"math"
)

// Variant tags the concrete enemy type in snapshots.
type Variant string

const (
	VariantGroup Variant = "group"
	VariantBoss  Variant = "boss"
)

// Boss constants.
const (
	BossBaseHP      = 600.0
	BossBaseDamage  = 30.0
	BossAttackSpeed = 0.8
	BossBaseGold    = 100.0
	BossBaseXP      = 80.0
	// BossFocusEvery is the attack cadence at which a boss puts all its damage on one hero.
	BossFocusEvery = 4
	// GroupEngagementCap bounds how many heroes a monster group attacks at once.
	GroupEngagementCap = 3
)

// Rewards is what the party earns for a kill.
type Rewards struct {
	Gold int
	XP   int
}

// Enemy is the closed set of opponents the party can face: *MonsterGroup or *Boss.
type Enemy interface {
	Name() string
	Level() int
	HP() float64
	MaxHP() float64
	// AttackDamage is the total damage of one attack at the current strength.
	AttackDamage() float64
	AttackSpeed() float64
	AttackTimer() float64
	SetAttackTimer(v float64)
	// TakeDamage removes up to d HP and returns the amount removed.
	TakeDamage(d float64) float64
	IsAlive() bool
	IsBoss() bool
	Rewards() Rewards
	// Engaged returns how many of the fighting heroes this attack hits.
	Engaged(fighting int) int
	// NextAttackFocused reports whether the attack about to land targets a single hero.
	// It advances the enemy's attack counter.
	NextAttackFocused() bool
	Snapshot() Snapshot
}

// Snapshot is the serialisable form of an Enemy.
type Snapshot struct {
	Variant       Variant `json:"variant"`
	TemplateID    string  `json:"template_id,omitempty"`
	Name          string  `json:"name"`
	Level         int     `json:"level"`
	HP            float64 `json:"hp"`
	MaxHP         float64 `json:"max_hp"`
	Count         int     `json:"count,omitempty"`
	PerUnitHP     float64 `json:"per_unit_hp,omitempty"`
	PerUnitDamage float64 `json:"per_unit_damage,omitempty"`
	Damage        float64 `json:"damage,omitempty"`
	AttackSpeed   float64 `json:"attack_speed"`
	AttackTimer   float64 `json:"attack_timer"`
	Attacks       int     `json:"attacks,omitempty"`
	Gold          int     `json:"gold"`
	XP            int     `json:"xp"`
}

// Restore rebuilds a live Enemy from its snapshot.
//
// Postcondition: Returns an error for an unknown variant or non-positive max HP;
// HP is clamped to [0, MaxHP].
func Restore(s Snapshot) (Enemy, error) {
	if s.MaxHP <= 0 {
		return nil, fmt.Errorf("enemy %q: max_hp must be > 0", s.Name)
	}
	c := core{
		name:        s.Name,
		level:       s.Level,
		hp:          math.Min(s.MaxHP, math.Max(0, s.HP)),
		maxHP:       s.MaxHP,
		attackSpeed: s.AttackSpeed,
		timer:       s.AttackTimer,
		rewards:     Rewards{Gold: s.Gold, XP: s.XP},
	}
	switch s.Variant {
	case VariantGroup:
		if s.PerUnitHP <= 0 || s.Count < 1 {
			return nil, fmt.Errorf("enemy group %q: per_unit_hp and count must be positive", s.Name)
		}
		return &MonsterGroup{core: c, templateID: s.TemplateID, perUnitHP: s.PerUnitHP, perUnitDamage: s.PerUnitDamage, count: s.Count}, nil
	case VariantBoss:
		return &Boss{core: c, damage: s.Damage, attacks: s.Attacks}, nil
	default:
		return nil, fmt.Errorf("enemy %q: unknown variant %q", s.Name, s.Variant)
	}
}

// core holds the state shared by both variants.
type core struct {
	name        string
	level       int
	hp          float64
	maxHP       float64
	attackSpeed float64
	timer       float64
	rewards     Rewards
}

func (c *core) Name() string             { return c.name }
func (c *core) Level() int               { return c.level }
func (c *core) HP() float64              { return c.hp }
func (c *core) MaxHP() float64           { return c.maxHP }
func (c *core) AttackSpeed() float64     { return c.attackSpeed }
func (c *core) AttackTimer() float64     { return c.timer }
func (c *core) SetAttackTimer(v float64) { c.timer = v }
func (c *core) IsAlive() bool            { return c.hp > 0 }
func (c *core) Rewards() Rewards         { return c.rewards }

func (c *core) TakeDamage(d float64) float64 {
	if d <= 0 || c.hp <= 0 {
		return 0
	}
	dealt := math.Min(c.hp, d)
	c.hp -= dealt
	if c.hp < 1e-9 {
		c.hp = 0
	}
	return dealt
}

// MonsterGroup is a pack of identical monsters sharing one HP pool.
type MonsterGroup struct {
	core
	templateID    string
	perUnitHP     float64
	perUnitDamage float64
	count         int
}

// NewMonsterGroup creates a full-strength group.
//
// Precondition: perUnitHP > 0; count >= 1.
func NewMonsterGroup(templateID, name string, level, count int, perUnitHP, perUnitDamage, attackSpeed float64, rewards Rewards) *MonsterGroup {
	return &MonsterGroup{
		core: core{
			name:        name,
			level:       level,
			hp:          perUnitHP * float64(count),
			maxHP:       perUnitHP * float64(count),
			attackSpeed: attackSpeed,
			rewards:     rewards,
		},
		templateID:    templateID,
		perUnitHP:     perUnitHP,
		perUnitDamage: perUnitDamage,
		count:         count,
	}
}

// TemplateID returns the template the group was spawned from.
func (g *MonsterGroup) TemplateID() string { return g.templateID }

// Count returns the group size at spawn.
func (g *MonsterGroup) Count() int { return g.count }

// PerUnitHP returns one member's HP.
func (g *MonsterGroup) PerUnitHP() float64 { return g.perUnitHP }

// CurrentCount returns how many members are still standing.
//
// Postcondition: result == ceil(HP/PerUnitHP) within [0, Count]; result == 0 iff HP == 0.
func (g *MonsterGroup) CurrentCount() int {
	return UnitsRemaining(g.hp, g.perUnitHP, g.count)
}

// UnitsRemaining computes ceil(hp/perUnit) bounded to [1, count] for any positive hp,
// tolerating float error when hp is an exact multiple of perUnit.
func UnitsRemaining(hp, perUnit float64, count int) int {
	if hp <= 0 || perUnit <= 0 {
		return 0
	}
	n := int(math.Ceil(hp/perUnit - 1e-9))
	return max(1, min(count, n))
}

// AttackDamage is perUnitDamage times the members still standing.
func (g *MonsterGroup) AttackDamage() float64 {
	return g.perUnitDamage * float64(g.CurrentCount())
}

// IsBoss is false for groups.
func (g *MonsterGroup) IsBoss() bool { return false }

// Engaged returns min(GroupEngagementCap, CurrentCount, fighting).
func (g *MonsterGroup) Engaged(fighting int) int {
	return min(GroupEngagementCap, g.CurrentCount(), fighting)
}

// NextAttackFocused is always false for groups.
func (g *MonsterGroup) NextAttackFocused() bool { return false }

// Snapshot returns the serialisable form of g.
func (g *MonsterGroup) Snapshot() Snapshot {
	return Snapshot{
		Variant:       VariantGroup,
		TemplateID:    g.templateID,
		Name:          g.name,
		Level:         g.level,
		HP:            g.hp,
		MaxHP:         g.maxHP,
		Count:         g.count,
		PerUnitHP:     g.perUnitHP,
		PerUnitDamage: g.perUnitDamage,
		AttackSpeed:   g.attackSpeed,
		AttackTimer:   g.timer,
		Gold:          g.rewards.Gold,
		XP:            g.rewards.XP,
	}
}

// Boss is a floor guardian. It attacks every fighting hero and periodically focuses
// its whole attack on one of them.
type Boss struct {
	core
	damage  float64
	attacks int
}

// NewBoss creates a full-strength boss.
func NewBoss(name string, level int, hp, damage float64, rewards Rewards) *Boss {
	return &Boss{
		core: core{
			name:        name,
			level:       level,
			hp:          hp,
			maxHP:       hp,
			attackSpeed: BossAttackSpeed,
			rewards:     rewards,
		},
		damage: damage,
	}
}

// AttackDamage returns the boss's fixed per-attack damage.
func (b *Boss) AttackDamage() float64 { return b.damage }

// IsBoss is true for bosses.
func (b *Boss) IsBoss() bool { return true }

// Engaged returns every fighting hero.
func (b *Boss) Engaged(fighting int) int { return fighting }

// NextAttackFocused is true on every BossFocusEvery-th attack.
func (b *Boss) NextAttackFocused() bool {
	b.attacks++
	return b.attacks%BossFocusEvery == 0
}

// Snapshot returns the serialisable form of b.
func (b *Boss) Snapshot() Snapshot {
	return Snapshot{
		Variant:     VariantBoss,
		Name:        b.name,
		Level:       b.level,
		HP:          b.hp,
		MaxHP:       b.maxHP,
		Damage:      b.damage,
		AttackSpeed: b.attackSpeed,
		AttackTimer: b.timer,
		Attacks:     b.attacks,
		Gold:        b.rewards.Gold,
		XP:          b.rewards.XP,
	}
}
