// ABOUTME: Loading/error/data state holders wrapping resource calls for the CLI, TUI and MCP screens
// ABOUTME: Each call resets state, records the error message on failure and still returns the error
package hooks

import (
	"context"
	"sync"

	"github.com/harperreed/mbgctl/api"
	"github.com/harperreed/mbgctl/resources"
)

// State is a snapshot of a single-value hook.
type State[T any] struct {
	Data    *T
	Loading bool
	Error   string
}

// ListState is a snapshot of a list hook. Page is 0-indexed.
type ListState[T any] struct {
	Items   []T
	Total   int64
	Page    int
	Size    int
	Loading bool
	Error   string
}

type notifier struct {
	mu       sync.Mutex
	onChange func()
}

// OnChange registers fn to run after every state change. Passing nil removes it.
func (n *notifier) OnChange(fn func()) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

func (n *notifier) changed() {
	n.mu.Lock()
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// cell guards one State value.
type cell[T any] struct {
	notifier
	smu   sync.RWMutex
	state State[T]
}

func (c *cell[T]) State() State[T] {
	c.smu.RLock()
	defer c.smu.RUnlock()
	return c.state
}

func (c *cell[T]) set(s State[T]) {
	c.smu.Lock()
	c.state = s
	c.smu.Unlock()
	c.changed()
}

func (c *cell[T]) run(fn func() (*T, error)) (*T, error) {
	c.set(State[T]{Loading: true})
	result, err := fn()
	if err != nil {
		c.set(State[T]{Error: err.Error()})
		return nil, err
	}
	c.set(State[T]{Data: result})
	return result, nil
}

// Query fetches one value.
type Query[T any] struct {
	cell[T]
	fetch func(ctx context.Context) (*T, error)
}

func NewQuery[T any](fetch func(ctx context.Context) (*T, error)) *Query[T] {
	return &Query[T]{fetch: fetch}
}

func (q *Query[T]) Fetch(ctx context.Context) (*T, error) {
	return q.run(func() (*T, error) { return q.fetch(ctx) })
}

// List fetches pages of a collection.
type List[T any] struct {
	notifier
	fetch func(ctx context.Context, page resources.Page) (*resources.Listing[T], error)

	smu   sync.RWMutex
	state ListState[T]
}

func NewList[T any](fetch func(ctx context.Context, page resources.Page) (*resources.Listing[T], error)) *List[T] {
	p := resources.DefaultPage()
	return &List[T]{fetch: fetch, state: ListState[T]{Page: p.Page, Size: p.Size}}
}

func (l *List[T]) State() ListState[T] {
	l.smu.RLock()
	defer l.smu.RUnlock()
	s := l.state
	s.Items = append([]T(nil), l.state.Items...)
	return s
}

func (l *List[T]) update(fn func(s *ListState[T])) {
	l.smu.Lock()
	fn(&l.state)
	l.smu.Unlock()
	l.changed()
}

// Fetch reloads the current page.
func (l *List[T]) Fetch(ctx context.Context) (*resources.Listing[T], error) {
	s := l.State()
	return l.FetchPage(ctx, s.Page, s.Size)
}

// FetchPage loads page/size and, on success, makes it the current page.
func (l *List[T]) FetchPage(ctx context.Context, page, size int) (*resources.Listing[T], error) {
	l.update(func(s *ListState[T]) {
		s.Items = nil
		s.Total = 0
		s.Loading = true
		s.Error = ""
	})

	listing, err := l.fetch(ctx, resources.Page{Page: page, Size: size})
	if err != nil {
		l.update(func(s *ListState[T]) {
			s.Loading = false
			s.Error = err.Error()
		})
		return nil, err
	}

	l.update(func(s *ListState[T]) {
		s.Items = listing.Items
		s.Total = listing.TotalElements
		s.Page = page
		s.Size = size
		s.Loading = false
	})
	return listing, nil
}

// Create runs a create call.
type Create[C any, R any] struct {
	cell[R]
	create func(ctx context.Context, req C) (*R, error)
}

func NewCreate[C any, R any](create func(ctx context.Context, req C) (*R, error)) *Create[C, R] {
	return &Create[C, R]{create: create}
}

func (c *Create[C, R]) Create(ctx context.Context, req C) (*R, error) {
	return c.run(func() (*R, error) { return c.create(ctx, req) })
}

// Update runs an update call.
type Update[C any, R any] struct {
	cell[R]
	update func(ctx context.Context, id string, req C) (*R, error)
}

func NewUpdate[C any, R any](update func(ctx context.Context, id string, req C) (*R, error)) *Update[C, R] {
	return &Update[C, R]{update: update}
}

func (u *Update[C, R]) Update(ctx context.Context, id string, req C) (*R, error) {
	return u.run(func() (*R, error) { return u.update(ctx, id, req) })
}

// Delete runs a delete call. An id the backend no longer knows counts as
// deleted.
type Delete struct {
	cell[struct{}]
	remove func(ctx context.Context, id string) error
}

func NewDelete(remove func(ctx context.Context, id string) error) *Delete {
	return &Delete{remove: remove}
}

func (d *Delete) Delete(ctx context.Context, id string) error {
	_, err := d.run(func() (*struct{}, error) {
		if err := d.remove(ctx, id); !api.Absent(err) {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// CRUD bundles the hooks an admin screen binds to for one resource.
type CRUD[T any, C any] struct {
	List   *List[T]
	Create *Create[C, T]
	Update *Update[C, T]
	Delete *Delete
	get    func(ctx context.Context, id string) (*T, error)
}

// ForResource builds the hook bundle over r.
func ForResource[T any, C any](r *resources.Resource[T, C]) *CRUD[T, C] {
	return &CRUD[T, C]{
		List: NewList(func(ctx context.Context, p resources.Page) (*resources.Listing[T], error) {
			return r.List(ctx, resources.WithPage(p.Page, p.Size))
		}),
		Create: NewCreate(r.Create),
		Update: NewUpdate(r.Update),
		Delete: NewDelete(r.Delete),
		get:    r.Get,
	}
}

// Get returns a query hook for one id.
func (c *CRUD[T, C]) Get(id string) *Query[T] {
	return NewQuery(func(ctx context.Context) (*T, error) { return c.get(ctx, id) })
}
