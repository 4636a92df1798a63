// Package content loads the static game definitions (heroes, enemies, item
// bases, affixes, buffs, prestige upgrades, and unlock rules) from YAML and
// exposes them as a single read-only Catalog.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults
var defaults embed.FS

// Directory names under a content root.
const (
	HeroesDir   = "heroes"
	EnemiesDir  = "enemies"
	AffixesDir  = "affixes"
	ItemsDir    = "items"
	BuffsDir    = "buffs"
	UpgradesDir = "upgrades"
	UnlocksDir  = "unlocks"
)

// validator is satisfied by every definition type the loader decodes.
type validator interface {
	Validate() error
}

// loadKind decodes every *.yaml file in dir as a T, one definition per file.
// A missing directory yields no definitions.
//
// Precondition: fsys must be non-nil.
// Postcondition: Returns the definitions in file-name order, or the first decode or
// validation error annotated with the offending path.
func loadKind[T any, P interface {
	*T
	validator
}](fsys fs.FS, dir string) ([]*T, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s dir: %w", dir, err)
	}
	var out []*T
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		def := new(T)
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		if err := P(def).Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", p, err)
		}
		out = append(out, def)
	}
	return out, nil
}

// Default returns the Catalog built from the embedded definitions.
//
// Postcondition: Returns a non-nil Catalog or an error if the embedded content is invalid.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaults, "defaults")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return Load(sub)
}

// LoadDirectory builds a Catalog from a content directory on disk laid out like
// the embedded defaults.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %q is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Open returns LoadDirectory(dir) when dir is set, and Default otherwise.
func Open(dir string) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	return LoadDirectory(dir)
}
