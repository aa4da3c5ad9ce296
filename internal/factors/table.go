package factors

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ConcreteMaterial is the material name that routes a line item to the
// concrete sub-model instead of the generic material lookup.
const ConcreteMaterial = "Concrete"

// SupportedVersions is the semver constraint a factor table file must satisfy.
const SupportedVersions = "^1.0.0"

// Table loading errors.
var (
	ErrIncompatibleVersion = errors.New("incompatible factor table version")
	ErrDuplicateEntry      = errors.New("duplicate factor table entry")
	ErrEmptyName           = errors.New("factor table entry has an empty name")
)

//go:embed default_factors.yaml
var defaultTableYAML []byte

// Entry is one named emission factor.
type Entry struct {
	Name   string  `yaml:"name"   json:"name"`
	Factor float64 `yaml:"factor" json:"factor"`
	Unit   string  `yaml:"unit"   json:"unit"`
}

// subTable is an ordered list of entries with a name index.
type subTable struct {
	entries []Entry
	index   map[string]int
}

func newSubTable(section string, entries []Entry) (subTable, error) {
	st := subTable{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return subTable{}, fmt.Errorf("%w in section %q", ErrEmptyName, section)
		}
		if _, dup := st.index[name]; dup {
			return subTable{}, fmt.Errorf("%w: %q in section %q", ErrDuplicateEntry, name, section)
		}
		e.Name = name
		st.index[name] = len(st.entries)
		st.entries = append(st.entries, e)
	}
	return st, nil
}

func (st subTable) lookup(name string) (Entry, bool) {
	i, ok := st.index[strings.TrimSpace(name)]
	if !ok {
		return Entry{}, false
	}
	return st.entries[i], true
}

func (st subTable) list() []Entry {
	out := make([]Entry, len(st.entries))
	copy(out, st.entries)
	return out
}

// Table is an immutable set of emission factor sub-tables: one per category,
// plus the concrete-mix and rebar tables used by the concrete sub-model.
type Table struct {
	version    *semver.Version
	categories [numCategories]subTable
	concrete   subTable
	rebar      subTable
}

// tableFile is the on-disk YAML shape of a factor table.
type tableFile struct {
	Version        string  `yaml:"version"`
	Materials      []Entry `yaml:"materials"`
	Manufacturing  []Entry `yaml:"manufacturing"`
	Implementation []Entry `yaml:"implementation"`
	Transport      []Entry `yaml:"transport"`
	EndOfLife      []Entry `yaml:"end_of_life"`
	Concrete       []Entry `yaml:"concrete"`
	Rebar          []Entry `yaml:"rebar"`
}

// Parse builds a Table from YAML data.
// The version field must satisfy SupportedVersions and names must be unique
// within each section.
func Parse(data []byte) (*Table, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing factor table: %w", err)
	}

	v, err := checkVersion(tf.Version)
	if err != nil {
		return nil, err
	}

	t := &Table{version: v}
	sections := [numCategories][]Entry{
		Materials:      tf.Materials,
		Manufacturing:  tf.Manufacturing,
		Implementation: tf.Implementation,
		Transport:      tf.Transport,
		EndOfLife:      tf.EndOfLife,
	}
	for _, c := range All() {
		st, stErr := newSubTable(c.String(), sections[c])
		if stErr != nil {
			return nil, stErr
		}
		t.categories[c] = st
	}

	if t.concrete, err = newSubTable("concrete", tf.Concrete); err != nil {
		return nil, err
	}
	if t.rebar, err = newSubTable("rebar", tf.Rebar); err != nil {
		return nil, err
	}
	return t, nil
}

func checkVersion(raw string) (*semver.Version, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: version is required", ErrIncompatibleVersion)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrIncompatibleVersion, raw, err)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, fmt.Errorf("parsing supported version constraint: %w", err)
	}
	if !constraint.Check(v) {
		return nil, fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleVersion, v, SupportedVersions)
	}
	return v, nil
}

// Load reads and parses a factor table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading factor table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading factor table %s: %w", path, err)
	}
	return t, nil
}

//nolint:gochecknoglobals // The embedded table is parsed once per process.
var defaultTable = sync.OnceValues(func() (*Table, error) {
	return Parse(defaultTableYAML)
})

// Default returns the embedded default table. The same instance is returned
// on every call.
func Default() *Table {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("factors: embedded default table is invalid: %v", err))
	}
	return t
}

// Version returns the table's semantic version.
func (t *Table) Version() string {
	return t.version.String()
}

// Entries returns a copy of the entries for a category, in table order.
func (t *Table) Entries(c Category) []Entry {
	if !c.Valid() {
		return nil
	}
	return t.categories[c].list()
}

// Lookup resolves a name within a category's sub-table.
func (t *Table) Lookup(c Category, name string) (Entry, bool) {
	if !c.Valid() {
		return Entry{}, false
	}
	return t.categories[c].lookup(name)
}

// FactorOf returns the factor for name in category c, or 0 when the name does
// not resolve.
func (t *Table) FactorOf(c Category, name string) float64 {
	e, _ := t.Lookup(c, name)
	return e.Factor
}

// ConcreteTypes returns a copy of the concrete-mix sub-table.
func (t *Table) ConcreteTypes() []Entry {
	return t.concrete.list()
}

// ConcreteFactor returns the per-kg-cement factor of a concrete type.
func (t *Table) ConcreteFactor(name string) (float64, bool) {
	e, ok := t.concrete.lookup(name)
	return e.Factor, ok
}

// IsConcreteType reports whether name is a known concrete type.
func (t *Table) IsConcreteType(name string) bool {
	_, ok := t.concrete.lookup(name)
	return ok
}

// RebarGrades returns a copy of the rebar sub-table.
func (t *Table) RebarGrades() []Entry {
	return t.rebar.list()
}

// RebarFactor returns the factor of a named rebar grade.
func (t *Table) RebarFactor(name string) (float64, bool) {
	e, ok := t.rebar.lookup(name)
	return e.Factor, ok
}

// RebarGradeFor returns the first rebar grade whose factor equals f within
// tolerance. Reports false when no grade matches.
func (t *Table) RebarGradeFor(f, tolerance float64) (string, bool) {
	for _, e := range t.rebar.entries {
		d := e.Factor - f
		if d <= tolerance && d >= -tolerance {
			return e.Name, true
		}
	}
	return "", false
}
