package source

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the active marketplace adapters. A source that is not
// registered does not exist; there are no optional-method checks at call
// time.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register keeps first registration order for deterministic fan-out task
// lists; re-registering a name replaces the adapter in place.
func (r *Registry) Register(a Adapter) {
	name := strings.ToLower(a.Name())
	if _, ok := r.adapters[name]; !ok {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[strings.ToLower(name)]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) Len() int { return len(r.adapters) }

// Select resolves a requested source list; empty means every registered
// adapter, in registration order. Unknown names are an error so typos
// surface instead of silently searching nothing.
func (r *Registry) Select(names []string) ([]Adapter, error) {
	if len(names) == 0 {
		all := make([]Adapter, 0, len(r.order))
		for _, name := range r.order {
			all = append(all, r.adapters[name])
		}
		return all, nil
	}

	seen := make(map[string]bool)
	var selected []Adapter
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		a, ok := r.adapters[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (have %s)", ErrNotFound, name, strings.Join(r.sortedNames(), ", "))
		}
		seen[name] = true
		selected = append(selected, a)
	}
	return selected, nil
}

func (r *Registry) sortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}
