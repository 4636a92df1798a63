package item

import (
	"math"

	"github.com/cory-johannsen/delve/internal/game/stats"
)

// Rarity grades an item. Higher rarities carry more affixes and larger values.
type Rarity string

const (
	Common Rarity = "common"
	Magic  Rarity = "magic"
	Rare   Rarity = "rare"
)

// Multiplier returns the value multiplier for r.
func (r Rarity) Multiplier() float64 {
	switch r {
	case Magic:
		return 1.25
	case Rare:
		return 1.5
	default:
		return 1.0
	}
}

// CostMultiplier returns the price multiplier for r.
func (r Rarity) CostMultiplier() float64 {
	switch r {
	case Magic:
		return 2
	case Rare:
		return 4
	default:
		return 1
	}
}

// AffixKind distinguishes flat bonuses from fractional ones.
type AffixKind string

const (
	Flat    AffixKind = "flat"
	Percent AffixKind = "percent"
)

// Affix is one rolled stat bonus on an item.
type Affix struct {
	Stat  stats.Stat `json:"stat"`
	Kind  AffixKind  `json:"kind"`
	Value float64    `json:"value"`
}

// Item is a generated piece of equipment.
// Every field except Locked is fixed at generation time.
type Item struct {
	ID            string   `json:"id"`
	BaseID        string   `json:"base_id"`
	Name          string   `json:"name"`
	Kind          Kind     `json:"kind"`
	Level         int      `json:"level"`
	RequiredLevel int      `json:"required_level"`
	Rarity        Rarity   `json:"rarity"`
	Primary       Affix    `json:"primary"`
	Affixes       []Affix  `json:"affixes"`
	Classes       []string `json:"classes,omitempty"`
	Cost          int      `json:"cost"`
	Locked        bool     `json:"locked"`
}

// Modifiers returns the stat bonuses granted by the item.
func (it *Item) Modifiers() stats.Modifiers {
	m := stats.NewModifiers()
	m.Add(it.Primary.Stat, it.Primary.Value)
	for _, a := range it.Affixes {
		m.Add(a.Stat, a.Value)
	}
	return m
}

// AllowedFor reports whether the hero with definition ID heroID may equip the item.
func (it *Item) AllowedFor(heroID string) bool {
	return classAllowed(it.Classes, heroID)
}

// SellRatio is the fraction of cost refunded when selling.
const SellRatio = 0.25

// SellValue returns the gold refunded when the item is sold.
//
// Postcondition: result == floor(Cost * SellRatio).
func (it *Item) SellValue() int {
	return int(math.Floor(float64(it.Cost) * SellRatio))
}
