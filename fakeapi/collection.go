// ABOUTME: In-memory entity collections for the fake MBG backend
// ABOUTME: Stores JSON objects keyed by ULID in insertion order
package fakeapi

import (
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Object is one stored entity as decoded JSON.
type Object map[string]any

func (o Object) clone() Object {
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func (o Object) str(key string) string {
	s, _ := o[key].(string)
	return s
}

type collection struct {
	mu      sync.RWMutex
	items   map[string]Object
	created map[string]int
	seq     int
}

func newCollection() *collection {
	return &collection{items: make(map[string]Object), created: make(map[string]int)}
}

func newID() string {
	return ulid.Make().String()
}

func (c *collection) insert(obj Object) Object {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := obj.clone()
	id := newID()
	stored["id"] = id
	c.items[id] = stored
	c.seq++
	c.created[id] = c.seq
	return stored.clone()
}

func (c *collection) get(id string) (Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return obj.clone(), true
}

// replace overwrites every client-settable field, keeping id and the keys in keep.
func (c *collection) replace(id string, obj Object, keep ...string) (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.items[id]
	if !ok {
		return nil, false
	}
	stored := obj.clone()
	for _, k := range keep {
		if v, exists := old[k]; exists {
			stored[k] = v
		}
	}
	stored["id"] = id
	c.items[id] = stored
	return stored.clone(), true
}

func (c *collection) patch(id string, fields Object) (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.items[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		obj[k] = v
	}
	return obj.clone(), true
}

func (c *collection) delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	delete(c.created, id)
	return true
}

// list returns the objects matching filter, oldest first.
func (c *collection) list(filter func(Object) bool) []Object {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Object, 0, len(c.items))
	for _, obj := range c.items {
		if filter == nil || filter(obj) {
			out = append(out, obj.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return c.created[out[i].str("id")] < c.created[out[j].str("id")]
	})
	return out
}

func (c *collection) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]Object)
	c.created = make(map[string]int)
	c.seq = 0
}
