package http

import "strings"

// Headers maps header names to values without regard to letter case. The
// original spelling of the last write is kept for serialization, and names
// iterate in first-insertion order. A repeated name overwrites the previous
// value.
type Headers struct {
	values map[string]string // folded name -> value
	names  map[string]string // folded name -> spelling of the last write
	order  []string          // folded names, first-insertion order
}

func NewHeaders() *Headers {
	return &Headers{
		values: make(map[string]string),
		names:  make(map[string]string),
	}
}

func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = value
	h.names[key] = name
}

// Get returns the value for name, or the empty string when absent.
func (h *Headers) Get(name string) string {
	return h.values[strings.ToLower(name)]
}

// Lookup reports the value for name and whether it is present at all, which
// Get cannot distinguish from a stored empty value.
func (h *Headers) Lookup(name string) (string, bool) {
	value, ok := h.values[strings.ToLower(name)]
	return value, ok
}

func (h *Headers) Has(name string) bool {
	_, ok := h.values[strings.ToLower(name)]
	return ok
}

func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	delete(h.names, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	return len(h.order)
}

// Merge copies all entries of other into h; on a name collision the entry
// from other wins, including its spelling.
func (h *Headers) Merge(other *Headers) {
	if other == nil {
		return
	}
	other.Each(func(name, value string) {
		h.Set(name, value)
	})
}

// Each visits all headers in insertion order using the preserved spelling.
func (h *Headers) Each(fn func(name, value string)) {
	for _, key := range h.order {
		fn(h.names[key], h.values[key])
	}
}
