package event

import "github.com/cory-johannsen/delve/internal/game/item"

// Event names emitted by the simulation.
const (
	EnemyDefeated         Name = "enemy.defeated"
	ItemDropped           Name = "item.dropped"
	DungeonStatusChanged  Name = "dungeon.status"
	FloorAdvanced         Name = "floor.advanced"
	HeroLeveledUp         Name = "hero.leveled"
	NotificationRequested Name = "notification"
	OptionChanged         Name = "option.changed"
	HeroUnlocked          Name = "hero.unlocked"
	BossUnlocked          Name = "boss.unlocked"
	ShopRefreshed         Name = "shop.refreshed"
	PrestigeReset         Name = "prestige.reset"
	GoldChanged           Name = "gold.changed"
)

// Severity grades a Notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// EnemyDefeatedPayload reports the rewards granted for a kill.
type EnemyDefeatedPayload struct {
	Name  string
	Boss  bool
	Gold  int
	XP    int
	Floor int
}

// ItemDroppedPayload carries an item added to the loot pool.
type ItemDroppedPayload struct {
	Item *item.Item
}

// StatusChangedPayload reports a dungeon state transition.
// FullHeal is true when the transition restored every hero to max HP.
type StatusChangedPayload struct {
	From     string
	To       string
	FullHeal bool
}

// FloorAdvancedPayload carries the floor just entered.
type FloorAdvancedPayload struct {
	Floor int
}

// HeroLeveledPayload identifies the hero and its new level.
type HeroLeveledPayload struct {
	HeroID string
	Level  int
}

// Notification is a user-facing message.
type Notification struct {
	Severity Severity
	Message  string
}

// OptionChangedPayload carries a changed option.
type OptionChangedPayload struct {
	Key   string
	Value string
}

// HeroUnlockedPayload identifies a hero that became available for recruitment.
type HeroUnlockedPayload struct {
	HeroID string
}

// BossUnlockedPayload identifies the floor whose boss can now be challenged.
type BossUnlockedPayload struct {
	Floor int
}

// ShopRefreshedPayload reports the item level of the new stock.
type ShopRefreshedPayload struct {
	Level int
}

// PrestigeResetPayload reports the echoes earned by a reset and the new total.
type PrestigeResetPayload struct {
	Earned int
	Total  int
}

// GoldChangedPayload reports a change to the party's gold.
type GoldChangedPayload struct {
	Gold  int
	Delta int
}
