// Package hardfork exposes the single monotonic hardfork counter every
// other component gates on, per spec.md §4.10 and Design Note "Hardfork
// conditionals": "expose a single monotonic hardfork_level() and let each
// evaluator feature-gate on numeric thresholds."
package hardfork

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"chainforge/core/objectstore"
)

// Activation describes one numbered, time-gated protocol change.
type Activation struct {
	Number  uint32 `yaml:"number"`
	Version [3]uint16 `yaml:"version"`
	Time    uint64 `yaml:"time"` // unix seconds
}

// Table is the ordered, immutable list of hardforks this build knows how
// to apply, sorted by Number.
type Table struct {
	Activations []Activation `yaml:"hardforks"`
}

// LoadTable reads a hardfork activation table from a YAML file.
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	sort.Slice(t.Activations, func(i, j int) bool { return t.Activations[i].Number < t.Activations[j].Number })
	return &t, nil
}

// Migration is a one-shot state migration run exactly once when its
// hardfork activates.
type Migration func(db *objectstore.Database) error

// Gate ties activation data to the migration it triggers.
type Gate struct {
	Activation Activation
	Migrate    Migration
}

// Manager tracks which hardforks are due and have been applied.
type Manager struct {
	gates []Gate
}

// NewManager builds a Manager from a table and a registry of migrations
// keyed by hardfork number. A hardfork with no registered migration is
// still tracked (its activation is recorded) but runs no migration —
// useful for hardforks that only flip a feature-gate threshold that
// evaluators consult directly via Level().
func NewManager(table *Table, migrations map[uint32]Migration) *Manager {
	gates := make([]Gate, len(table.Activations))
	for i, a := range table.Activations {
		gates[i] = Gate{Activation: a, Migrate: migrations[a.Number]}
	}
	return &Manager{gates: gates}
}

// Level returns the highest hardfork number processed so far.
func Level(props *objectstore.HardforkProperties) uint32 { return props.LastHardfork }

// HasHardfork reports whether hardfork n has been applied, the universal
// conditional spec.md §4.10 calls for.
func HasHardfork(props *objectstore.HardforkProperties, n uint32) bool {
	return props.LastHardfork >= n
}

// ApplyDue applies, in order, every hardfork whose activation time has
// passed and whose number is exactly one past the last applied — matching
// "hardforks... activate sequentially". Returns the numbers applied.
func (m *Manager) ApplyDue(db *objectstore.Database, headBlockTime uint64) ([]uint32, error) {
	props := db.HardforkSingleton()
	applied := make([]uint32, 0)
	for _, gate := range m.gates {
		if gate.Activation.Number != props.LastHardfork+1 {
			continue
		}
		if gate.Activation.Time > headBlockTime {
			break
		}
		if gate.Migrate != nil {
			if err := gate.Migrate(db); err != nil {
				return applied, err
			}
		}
		db.Hardfork.Modify(props, func(p *objectstore.HardforkProperties) {
			p.LastHardfork = gate.Activation.Number
			p.ProcessedHardforks = append(p.ProcessedHardforks, gate.Activation.Time)
			p.CurrentHardforkVersion = gate.Activation.Version
		})
		applied = append(applied, gate.Activation.Number)
	}
	return applied, nil
}

// NextActivation returns the next not-yet-applied hardfork, if any.
func (m *Manager) NextActivation(props *objectstore.HardforkProperties) (Activation, bool) {
	for _, gate := range m.gates {
		if gate.Activation.Number == props.LastHardfork+1 {
			return gate.Activation, true
		}
	}
	return Activation{}, false
}
