// ABOUTME: Generic REST resource client bound to one collection path
// ABOUTME: Implements list/get/create/update/delete and state transitions for any entity type
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/harperreed/mbgctl/api"
)

// Sender issues one backend request and returns the raw 2xx body.
// *api.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error)
}

// Validator is implemented by requests with locally checkable required fields.
type Validator interface {
	Validate() error
}

// ErrEmptyID is returned when a call needs an id and got an empty one.
var ErrEmptyID = errors.New("id is required")

// Resource is a client for the entity T created and updated with request C.
type Resource[T any, C any] struct {
	sender Sender
	path   string
	paged  bool
}

// New binds a resource to a collection path such as "/schools". paged adds
// page/size query parameters to List.
func New[T any, C any](sender Sender, path string, paged bool) *Resource[T, C] {
	return &Resource[T, C]{
		sender: sender,
		path:   "/" + strings.Trim(path, "/"),
		paged:  paged,
	}
}

// Path returns the collection path.
func (r *Resource[T, C]) Path() string {
	return r.path
}

// Paged reports whether List sends page/size parameters.
func (r *Resource[T, C]) Paged() bool {
	return r.paged
}

func (r *Resource[T, C]) itemPath(id string, verbs ...string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", api.NewValidationError(ErrEmptyID)
	}
	parts := append([]string{r.path, url.PathEscape(id)}, verbs...)
	return strings.Join(parts, "/"), nil
}

// List fetches the collection. The backend envelope is kept in Listing.Raw,
// also when the items fail to decode.
func (r *Resource[T, C]) List(ctx context.Context, opts ...ListOption) (*Listing[T], error) {
	data, page, err := r.listRaw(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return decodeListing[T](data, page)
}

func (r *Resource[T, C]) listRaw(ctx context.Context, opts ...ListOption) ([]byte, *Page, error) {
	return r.listAt(ctx, r.path, opts...)
}

// ListAt lists a sub-collection such as {path}/pending, with the same paging
// and filters as List.
func (r *Resource[T, C]) ListAt(ctx context.Context, sub string, opts ...ListOption) (*Listing[T], error) {
	sub = strings.Trim(sub, "/")
	if sub == "" {
		return r.List(ctx, opts...)
	}
	data, page, err := r.listAt(ctx, r.path+"/"+sub, opts...)
	if err != nil {
		return nil, err
	}
	return decodeListing[T](data, page)
}

func (r *Resource[T, C]) listAt(ctx context.Context, path string, opts ...ListOption) ([]byte, *Page, error) {
	lo := listOptions{page: DefaultPage(), filters: url.Values{}}
	for _, opt := range opts {
		opt(&lo)
	}

	query := url.Values{}
	for key, values := range lo.filters {
		query[key] = append([]string(nil), values...)
	}

	var page *Page
	if r.paged {
		if err := lo.page.Validate(); err != nil {
			return nil, nil, api.NewValidationError(err)
		}
		p := lo.page
		page = &p
		query.Set("page", strconv.Itoa(p.Page))
		query.Set("size", strconv.Itoa(p.Size))
	}

	data, err := r.sender.Send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	return data, page, nil
}

// Get fetches one entity. A 404 matches api.ErrNotFound.
func (r *Resource[T, C]) Get(ctx context.Context, id string) (*T, error) {
	data, err := r.getRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeEntity[T](data)
}

func (r *Resource[T, C]) getRaw(ctx context.Context, id string) ([]byte, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}
	data, err := r.sender.Send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	return data, nil
}

// Create posts req and returns the stored entity.
func (r *Resource[T, C]) Create(ctx context.Context, req C) (*T, error) {
	data, err := r.createRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeEntity[T](data)
}

func (r *Resource[T, C]) createRaw(ctx context.Context, req C) ([]byte, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	data, err := r.sender.Send(ctx, http.MethodPost, r.path, nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.path, err)
	}
	return data, nil
}

// Update replaces the entity with PUT.
func (r *Resource[T, C]) Update(ctx context.Context, id string, req C) (*T, error) {
	data, err := r.updateRaw(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return decodeEntity[T](data)
}

func (r *Resource[T, C]) updateRaw(ctx context.Context, id string, req C) ([]byte, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	data, err := r.sender.Send(ctx, http.MethodPut, path, nil, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", path, err)
	}
	return data, nil
}

// Delete removes the entity. Callers should treat api.Absent(err) as success.
func (r *Resource[T, C]) Delete(ctx context.Context, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	if _, err := r.sender.Send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Transition PUTs to {path}/{id}/{verb} and returns the updated entity.
func (r *Resource[T, C]) Transition(ctx context.Context, id, verb string, query url.Values) (*T, error) {
	return r.TransitionWithBody(ctx, id, verb, query, nil)
}

// TransitionWithBody is Transition with a JSON body. A body implementing
// Validate is checked before anything is sent.
func (r *Resource[T, C]) TransitionWithBody(ctx context.Context, id, verb string, query url.Values, body any) (*T, error) {
	if strings.TrimSpace(verb) == "" {
		return nil, api.NewValidationError(errors.New("transition verb is required"))
	}
	path, err := r.itemPath(id, verb)
	if err != nil {
		return nil, err
	}
	if body != nil {
		if err := validate(body); err != nil {
			return nil, err
		}
	}
	data, err := r.sender.Send(ctx, http.MethodPut, path, query, body)
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", verb, path, err)
	}
	return decodeEntity[T](data)
}

func validate(req any) error {
	v, ok := req.(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return api.NewValidationError(err)
	}
	return nil
}

// unwrapData returns the payload of a {success, data} envelope, or data itself.
func unwrapData(data []byte) []byte {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return data
	}
	if env.Success != nil && len(env.Data) > 0 {
		return env.Data
	}
	return data
}

func decodeEntity[T any](data []byte) (*T, error) {
	var out T
	if len(strings.TrimSpace(string(data))) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(unwrapData(data), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// All walks pages of size pageSize until the backend runs out or limit items
// were collected. limit <= 0 means no limit.
func (r *Resource[T, C]) All(ctx context.Context, pageSize, limit int, opts ...ListOption) ([]T, error) {
	if !r.paged {
		l, err := r.List(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return truncate(l.Items, limit), nil
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var out []T
	for page := 0; ; page++ {
		l, err := r.List(ctx, append(opts, WithPage(page, pageSize))...)
		if err != nil {
			return nil, err
		}
		out = append(out, l.Items...)
		if limit > 0 && len(out) >= limit {
			return truncate(out, limit), nil
		}
		if len(l.Items) < pageSize {
			return out, nil
		}
		if l.TotalPages > 0 && page+1 >= l.TotalPages {
			return out, nil
		}
	}
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
