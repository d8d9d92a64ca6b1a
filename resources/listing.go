// ABOUTME: Pagination parameters, list options and the pass-through listing envelope
// ABOUTME: Reads items and totals from the common backend envelopes without reshaping the body
package resources

import (
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	DefaultPageNumber = 0
	DefaultPageSize   = 10
)

// Page holds 0-indexed pagination parameters.
type Page struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// DefaultPage returns page 0 of size 10.
func DefaultPage() Page {
	return Page{Page: DefaultPageNumber, Size: DefaultPageSize}
}

func (p Page) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page must be >= 0, got %d", p.Page)
	}
	if p.Size <= 0 {
		return fmt.Errorf("size must be > 0, got %d", p.Size)
	}
	return nil
}

type listOptions struct {
	page    Page
	filters url.Values
}

// ListOption customizes a List call.
type ListOption func(*listOptions)

// WithPage requests a specific page. Ignored by unpaged resources.
func WithPage(page, size int) ListOption {
	return func(o *listOptions) {
		o.page = Page{Page: page, Size: size}
	}
}

// WithFilter adds a filter query parameter passed through to the backend.
func WithFilter(key, value string) ListOption {
	return func(o *listOptions) {
		o.filters.Add(key, value)
	}
}

// Listing is a list response. Raw is the body exactly as the backend sent it;
// the remaining fields are a best-effort read of it.
type Listing[T any] struct {
	Raw           json.RawMessage
	Items         []T
	TotalElements int64
	TotalPages    int
	// Page is nil for unpaged resources.
	Page *Page
}

type envelope struct {
	Success       *bool           `json:"success"`
	Data          json.RawMessage `json:"data"`
	Content       json.RawMessage `json:"content"`
	Items         json.RawMessage `json:"items"`
	TotalElements *int64          `json:"totalElements"`
	TotalPages    *int            `json:"totalPages"`
	Total         *int64          `json:"total"`
	Meta          struct {
		Total      *int64 `json:"total"`
		TotalPages *int   `json:"total_pages"`
	} `json:"meta"`
}

// decodeListing reads a list body. When the items do not decode, the listing
// is still returned with Raw set, alongside the error.
func decodeListing[T any](data []byte, page *Page) (*Listing[T], error) {
	l := &Listing[T]{Raw: json.RawMessage(data), Page: page}

	items, total, pages, ok := readEnvelope(data, 0)
	if !ok {
		return l, nil
	}

	if err := json.Unmarshal(items, &l.Items); err != nil {
		l.Items = nil
		return l, fmt.Errorf("failed to decode list items: %w", err)
	}
	l.TotalElements = int64(len(l.Items))
	if total != nil {
		l.TotalElements = *total
	}
	if pages != nil {
		l.TotalPages = *pages
	} else if page != nil && page.Size > 0 {
		l.TotalPages = int((l.TotalElements + int64(page.Size) - 1) / int64(page.Size))
	}
	return l, nil
}

// readEnvelope locates the item array inside data. Nested {success, data}
// wrappers are followed one level deep.
func readEnvelope(data []byte, depth int) (json.RawMessage, *int64, *int, bool) {
	trimmed := firstByte(data)
	if trimmed == '[' {
		return data, nil, nil, true
	}
	if trimmed != '{' || depth > 1 {
		return nil, nil, nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, nil, false
	}

	total := env.TotalElements
	if total == nil {
		total = env.Total
	}
	if total == nil {
		total = env.Meta.Total
	}
	pages := env.TotalPages
	if pages == nil {
		pages = env.Meta.TotalPages
	}

	switch {
	case len(env.Content) > 0:
		return env.Content, total, pages, true
	case len(env.Items) > 0:
		return env.Items, total, pages, true
	case len(env.Data) > 0:
		items, innerTotal, innerPages, ok := readEnvelope(env.Data, depth+1)
		if !ok {
			return nil, nil, nil, false
		}
		if innerTotal == nil {
			innerTotal = total
		}
		if innerPages == nil {
			innerPages = pages
		}
		return items, innerTotal, innerPages, true
	}
	return nil, total, pages, total != nil
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}
