// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package loader

import (
	"sort"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// Symbol declares one entry point of a tier. Symbols with a non-empty
// Extension are only required when that extension is enabled.
type Symbol struct {
	Name      string
	Extension string
}

// Resolver looks up an entry point within a scope (zero, an instance or a device).
// A zero return means the symbol could not be found.
type Resolver interface {
	Resolve(scope uintptr, name string) uintptr
}

// ResolverFunc adapts a function to a Resolver
type ResolverFunc func(scope uintptr, name string) uintptr

// Resolve implements Resolver
func (f ResolverFunc) Resolve(scope uintptr, name string) uintptr {
	return f(scope, name)
}

// Table maps symbol names to resolved entry point addresses for one tier
type Table struct {
	tier    string
	entries map[string]uintptr
}

// NewTable creates an empty table for the named tier
func NewTable(tier string) *Table {
	return &Table{
		tier:    tier,
		entries: make(map[string]uintptr),
	}
}

// Tier returns the tier name the table was built for
func (t *Table) Tier() string {
	return t.tier
}

// Lookup returns the address of a resolved symbol
func (t *Table) Lookup(name string) (uintptr, bool) {
	if t == nil {
		return 0, false
	}
	addr, ok := t.entries[name]
	return addr, ok
}

// Has reports whether the symbol is present in the table
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Len returns the number of resolved symbols
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names returns the resolved symbol names in sorted order
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveTier resolves every symbol in the list that is not gated behind an
// extension. The first missing symbol fails the whole tier and no table is returned.
func ResolveTier(tier string, r Resolver, scope uintptr, symbols []Symbol) (*Table, error) {
	table := NewTable(tier)
	for _, sym := range symbols {
		if sym.Extension != "" {
			continue
		}
		addr := r.Resolve(scope, sym.Name)
		if addr == 0 {
			log.WithFields(log.Fields{
				"func":   "loader.ResolveTier",
				"tier":   tier,
				"symbol": sym.Name,
			}).Error("failed to resolve symbol")
			return nil, errors.Wrapf(ErrSymbolNotFound, "%s tier: %s", tier, sym.Name)
		}
		table.entries[sym.Name] = addr
	}
	return table, nil
}

// ResolveExtensionGated adds the extension gated symbols of the list to the table.
// A symbol whose extension is not enabled is skipped and stays absent. A symbol
// whose extension is enabled but cannot be resolved fails the call and leaves the
// table untouched.
func (t *Table) ResolveExtensionGated(r Resolver, scope uintptr, symbols []Symbol, enabled []string) error {
	resolved := make(map[string]uintptr)
	for _, sym := range symbols {
		if sym.Extension == "" {
			continue
		}
		if !contains(enabled, sym.Extension) {
			continue
		}
		addr := r.Resolve(scope, sym.Name)
		if addr == 0 {
			log.WithFields(log.Fields{
				"func":      "loader.Table.ResolveExtensionGated",
				"tier":      t.tier,
				"symbol":    sym.Name,
				"extension": sym.Extension,
			}).Error("enabled extension is missing a symbol")
			return errors.Wrapf(ErrSymbolNotFound, "%s tier: %s (%s)", t.tier, sym.Name, sym.Extension)
		}
		resolved[sym.Name] = addr
	}
	for name, addr := range resolved {
		t.entries[name] = addr
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Tables holds the three capability tiers
type Tables struct {
	Global   *Table
	Instance *Table
	Device   *Table
}

// Require returns the address of a symbol from the most specific tier that has it.
// It fails with ErrSymbolNotLoaded when no tier resolved the symbol.
func (t *Tables) Require(name string) (uintptr, error) {
	if t != nil {
		for _, table := range []*Table{t.Device, t.Instance, t.Global} {
			if addr, ok := table.Lookup(name); ok {
				return addr, nil
			}
		}
	}
	return 0, errors.Wrap(ErrSymbolNotLoaded, name)
}
