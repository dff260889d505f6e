package schema

import (
	"fmt"
	"strings"
)

// BaselineTable is the fallback when a question names no table at all.
const BaselineTable = "contacts"

// Column is one allow-listed column. Physical is the name emitted in SQL;
// empty means it matches the logical name.
type Column struct {
	Name     string
	Physical string
}

// Table is one entry in the curated allow-list. Columns map the logical
// names the interpreter produces to the physical names emitted in SQL.
// Required lists columns every generated WHERE clause must bind and always
// includes tenant_id. Synonyms are the business nouns that resolve to this
// table.
type Table struct {
	Name     string
	Columns  []Column
	Required []string
	Synonyms []string
}

// MatchWords returns the canonical name plus synonyms, in declaration order.
func (t Table) MatchWords() []string {
	words := make([]string, 0, len(t.Synonyms)+1)
	words = append(words, t.Name)
	words = append(words, t.Synonyms...)
	return words
}

// Registry is the process-wide query allow-list. It is built once at startup
// from curated definitions, never from live database introspection, and is
// read-only afterwards. Iteration order is fixed by declaration order.
type Registry struct {
	tables   []Table
	index    map[string]int
	columns  map[string]map[string]string
	subjects map[string]string
}

// New validates the table definitions and builds a registry. Every table
// must carry a tenant_id column; tenant_id is appended to Required when the
// definition omits it.
func New(tables ...Table) (*Registry, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("schema: registry needs at least one table")
	}

	r := &Registry{
		index:    make(map[string]int, len(tables)),
		columns:  make(map[string]map[string]string, len(tables)),
		subjects: make(map[string]string),
	}

	for _, t := range tables {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			return nil, fmt.Errorf("schema: table with empty name")
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("schema: duplicate table %q", name)
		}

		cols := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			logical := strings.ToLower(c.Name)
			if logical == "" {
				return nil, fmt.Errorf("schema: table %q has a column with empty name", name)
			}
			physical := c.Physical
			if physical == "" {
				physical = logical
			}
			if _, dup := cols[logical]; dup {
				return nil, fmt.Errorf("schema: table %q declares column %q twice", name, logical)
			}
			cols[logical] = physical
		}
		if _, ok := cols[TenantColumn]; !ok {
			return nil, fmt.Errorf("schema: table %q missing %s column", name, TenantColumn)
		}

		t.Name = name
		if !contains(t.Required, TenantColumn) {
			t.Required = append([]string{TenantColumn}, t.Required...)
		}
		for _, req := range t.Required {
			if _, ok := cols[req]; !ok {
				return nil, fmt.Errorf("schema: table %q requires unknown column %q", name, req)
			}
		}

		r.index[name] = len(r.tables)
		r.tables = append(r.tables, t)
		r.columns[name] = cols
		for _, w := range t.Synonyms {
			r.subjects[strings.ToLower(w)] = name
		}
		r.subjects[name] = name
	}

	return r, nil
}

// MustNew is New for curated definitions that are fixed at compile time.
func MustNew(tables ...Table) *Registry {
	r, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return r
}

// Tables returns the allow-listed tables in declaration order.
func (r *Registry) Tables() []Table {
	out := make([]Table, len(r.tables))
	copy(out, r.tables)
	return out
}

// Names returns the table names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.tables))
	for i, t := range r.tables {
		out[i] = t.Name
	}
	return out
}

// Lookup finds a table by canonical name.
func (r *Registry) Lookup(name string) (Table, bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Table{}, false
	}
	return r.tables[i], true
}

// Has reports whether name is an allow-listed table.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[strings.ToLower(name)]
	return ok
}

// TableForSubject maps a business noun (a table name or synonym) to its
// table.
func (r *Registry) TableForSubject(word string) (string, bool) {
	t, ok := r.subjects[strings.ToLower(word)]
	return t, ok
}

// ResolveColumn maps a logical column reference to the physical name for
// table. The shared alias list is applied first, then the table's own
// columns. A false return means the reference is outside the allow-list.
func (r *Registry) ResolveColumn(table, logical string) (string, bool) {
	cols, ok := r.columns[strings.ToLower(table)]
	if !ok {
		return "", false
	}
	logical = strings.ToLower(logical)
	if alias, ok := columnAliases[logical]; ok {
		logical = alias
	}
	physical, ok := cols[logical]
	return physical, ok
}

// HasColumn reports whether table exposes the logical column, aliases
// included.
func (r *Registry) HasColumn(table, logical string) bool {
	_, ok := r.ResolveColumn(table, logical)
	return ok
}

// DateColumn returns the physical name of the first date-capable column the
// table exposes, following the shared priority order. ok is false when the
// table has none and a timeframe cannot be applied.
func (r *Registry) DateColumn(table string) (string, bool) {
	for _, logical := range datePriority {
		if physical, ok := r.ResolveColumn(table, logical); ok {
			return physical, true
		}
	}
	return "", false
}

// OrderColumn returns the physical sort column for the table, following the
// shared priority order.
func (r *Registry) OrderColumn(table string) (string, bool) {
	for _, logical := range orderPriority {
		if physical, ok := r.ResolveColumn(table, logical); ok {
			return physical, true
		}
	}
	return "", false
}

// DefaultProjection returns the physical fallback SELECT list for the
// table. Columns the table does not expose are left out.
func (r *Registry) DefaultProjection(table string) []string {
	out := make([]string, 0, len(defaultProjection))
	for _, logical := range defaultProjection {
		if physical, ok := r.ResolveColumn(table, logical); ok {
			out = append(out, physical)
		}
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
