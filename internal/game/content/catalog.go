package content

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/cory-johannsen/delve/internal/game/buff"
	"github.com/cory-johannsen/delve/internal/game/enemy"
	"github.com/cory-johannsen/delve/internal/game/hero"
	"github.com/cory-johannsen/delve/internal/game/item"
	"github.com/cory-johannsen/delve/internal/game/prestige"
	"github.com/cory-johannsen/delve/internal/game/unlock"
)

// Catalog is the validated, cross-referenced set of all static definitions.
// It is immutable after Load returns.
type Catalog struct {
	heroes    map[string]*hero.Definition
	heroList  []*hero.Definition
	templates map[string]*enemy.Template
	tmplList  []*enemy.Template
	buffs     *buff.Registry
	items     *item.Registry
	upgrades  []*prestige.Upgrade
	rules     []*unlock.Rule
}

// Load reads every definition kind from fsys and cross-checks references.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns a non-nil Catalog, or an error listing every violation found.
func Load(fsys fs.FS) (*Catalog, error) {
	heroes, err := loadKind[hero.Definition](fsys, HeroesDir)
	if err != nil {
		return nil, err
	}
	templates, err := loadKind[enemy.Template](fsys, EnemiesDir)
	if err != nil {
		return nil, err
	}
	affixes, err := loadKind[item.AffixDef](fsys, AffixesDir)
	if err != nil {
		return nil, err
	}
	bases, err := loadKind[item.BaseDef](fsys, ItemsDir)
	if err != nil {
		return nil, err
	}
	buffs, err := loadKind[buff.Definition](fsys, BuffsDir)
	if err != nil {
		return nil, err
	}
	upgrades, err := loadKind[prestige.Upgrade](fsys, UpgradesDir)
	if err != nil {
		return nil, err
	}
	rules, err := loadKind[unlock.Rule](fsys, UnlocksDir)
	if err != nil {
		return nil, err
	}
	return build(heroes, templates, affixes, bases, buffs, upgrades, rules)
}

func build(
	heroes []*hero.Definition,
	templates []*enemy.Template,
	affixes []*item.AffixDef,
	bases []*item.BaseDef,
	buffs []*buff.Definition,
	upgrades []*prestige.Upgrade,
	rules []*unlock.Rule,
) (*Catalog, error) {
	c := &Catalog{
		heroes:    make(map[string]*hero.Definition, len(heroes)),
		templates: make(map[string]*enemy.Template, len(templates)),
		buffs:     buff.NewRegistry(),
		items:     item.NewRegistry(),
	}
	var errs []error

	starters := 0
	for _, h := range heroes {
		if _, dup := c.heroes[h.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate hero %q", h.ID))
			continue
		}
		c.heroes[h.ID] = h
		c.heroList = append(c.heroList, h)
		if h.Starter {
			starters++
		}
	}
	if starters == 0 {
		errs = append(errs, errors.New("at least one starter hero is required"))
	}

	floorOne := false
	for _, t := range templates {
		if _, dup := c.templates[t.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate enemy %q", t.ID))
			continue
		}
		c.templates[t.ID] = t
		c.tmplList = append(c.tmplList, t)
		if t.UnlockFloor <= 1 {
			floorOne = true
		}
	}
	if !floorOne {
		errs = append(errs, errors.New("at least one enemy must be eligible on floor 1"))
	}

	for _, a := range affixes {
		if err := c.items.RegisterAffix(a); err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range bases {
		if err := c.items.RegisterBase(b); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, cls := range b.Classes {
			if _, ok := c.heroes[cls]; !ok {
				errs = append(errs, fmt.Errorf("item %q restricted to unknown hero %q", b.ID, cls))
			}
		}
	}
	if len(c.items.Bases()) == 0 {
		errs = append(errs, errors.New("at least one item base is required"))
	}

	for _, b := range buffs {
		if err := c.buffs.Register(b); err != nil {
			errs = append(errs, err)
		}
	}

	seenUpgrade := make(map[string]bool, len(upgrades))
	for _, u := range upgrades {
		if seenUpgrade[u.ID] {
			errs = append(errs, fmt.Errorf("duplicate upgrade %q", u.ID))
			continue
		}
		seenUpgrade[u.ID] = true
		c.upgrades = append(c.upgrades, u)
	}

	seenRule := make(map[string]bool, len(rules))
	for _, r := range rules {
		h, ok := c.heroes[r.HeroID]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("unlock rule for unknown hero %q", r.HeroID))
		case h.Starter:
			errs = append(errs, fmt.Errorf("unlock rule for starter hero %q", r.HeroID))
		case seenRule[r.HeroID]:
			errs = append(errs, fmt.Errorf("duplicate unlock rule for hero %q", r.HeroID))
		default:
			seenRule[r.HeroID] = true
			c.rules = append(c.rules, r)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("content validation failed: %w", errors.Join(errs...))
	}

	slices.SortFunc(c.heroList, func(a, b *hero.Definition) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(c.tmplList, func(a, b *enemy.Template) int {
		if a.UnlockFloor != b.UnlockFloor {
			return a.UnlockFloor - b.UnlockFloor
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(c.upgrades, func(a, b *prestige.Upgrade) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(c.rules, func(a, b *unlock.Rule) int { return strings.Compare(a.HeroID, b.HeroID) })
	return c, nil
}

// Hero returns the hero definition with the given ID.
func (c *Catalog) Hero(id string) (*hero.Definition, bool) {
	d, ok := c.heroes[id]
	return d, ok
}

// Heroes returns every hero definition sorted by ID.
func (c *Catalog) Heroes() []*hero.Definition { return slices.Clone(c.heroList) }

// Template returns the enemy template with the given ID.
func (c *Catalog) Template(id string) (*enemy.Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// Templates returns every enemy template ordered by unlock floor, then ID.
func (c *Catalog) Templates() []*enemy.Template { return slices.Clone(c.tmplList) }

// Buff returns the buff definition with the given ID.
func (c *Catalog) Buff(id string) (*buff.Definition, bool) { return c.buffs.Get(id) }

// BuffPool returns the buffs a priest may cast, sorted by ID.
func (c *Catalog) BuffPool() []*buff.Definition { return c.buffs.Pool() }

// Items returns the item base and affix registry.
func (c *Catalog) Items() *item.Registry { return c.items }

// Upgrades returns every prestige upgrade sorted by ID.
func (c *Catalog) Upgrades() []*prestige.Upgrade { return slices.Clone(c.upgrades) }

// Rules returns every hero unlock rule sorted by hero ID.
func (c *Catalog) Rules() []*unlock.Rule { return slices.Clone(c.rules) }
