package bus

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Table maps logical resource ids to physical bus names, and imported export
// names to bus names. It is built once at startup and only read afterwards.
type Table struct {
	logical  map[string]string
	imported map[string]string
}

// NewTable copies the given maps into a Table. Either map may be nil.
func NewTable(logical, imported map[string]string) *Table {
	t := &Table{
		logical:  make(map[string]string, len(logical)),
		imported: make(map[string]string, len(imported)),
	}
	for k, v := range logical {
		t.logical[k] = v
	}
	for k, v := range imported {
		t.imported[k] = v
	}
	return t
}

// Logical returns the physical name of a logical bus id.
func (t *Table) Logical(id string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.logical[id]
	return name, ok && name != ""
}

// Imported returns the bus name configured for an import.
func (t *Table) Imported(export string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.imported[export]
	return name, ok && name != ""
}

// Names returns every known physical bus name, sorted and de-duplicated.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	seen := map[string]bool{}
	for _, n := range t.logical {
		seen[n] = true
	}
	for _, n := range t.imported {
		seen[n] = true
	}
	delete(seen, "")
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Resolver compares declared bus references with entry bus names.
type Resolver struct {
	table *Table
}

// NewResolver returns a Resolver backed by table. A nil table resolves no
// logical or imported references.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the physical name a reference points to.
func (r *Resolver) Resolve(ref Ref) (string, bool) {
	switch ref.Kind {
	case RefLiteral:
		return ref.Value, true
	case RefLogical:
		return r.table.Logical(ref.Value)
	case RefImport:
		return r.table.Imported(ref.Value)
	default:
		return "", false
	}
}

// Matches reports whether the declared reference designates entryBus.
//
// Names are compared loosely: a match is a containment in either direction, so
// "orders" matches "orders-prod" and an ARN declaration matches the plain bus
// name. Unresolvable references never match.
func (r *Resolver) Matches(ref Ref, entryBus string) bool {
	name, ok := r.Resolve(ref)
	if !ok {
		log.Debug().Str("bus", entryBus).Str("ref", ref.String()).Msg("Bus reference not resolvable")
		return false
	}
	return looseEqual(name, entryBus)
}

func looseEqual(declared, entryBus string) bool {
	if declared == "" || entryBus == "" {
		return declared == entryBus
	}
	return strings.Contains(entryBus, declared) || strings.Contains(declared, entryBus)
}
