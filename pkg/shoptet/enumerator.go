package shoptet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"path"
	"strconv"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/internal/metrics"
)

const paginatorKey = "paginator"

// Enumerator walks every item of a paginated listing. The first and the last
// page are fetched by NewEnumerator; intermediate pages are fetched one at a
// time when the items before them have been consumed. Items come out in page
// order. An Enumerator is not safe for concurrent use and cannot be rewound;
// build a new one to list again.
type Enumerator[T any] struct {
	ctx       context.Context
	requester Requester
	baseURL   string
	params    url.Values
	dataKey   string

	totalPages int
	totalCount int

	buffer    []json.RawMessage
	lastItems []json.RawMessage
	nextPage  int
	lastDone  bool
	done      bool

	pending error
	err     error
}

// NewEnumerator fetches the first page of the listing at baseURL and, when
// there is more than one page, the last page. An empty dataKey selects the
// last path segment of baseURL.
func NewEnumerator[T any](
	ctx context.Context,
	requester Requester,
	baseURL string,
	params url.Values,
	dataKey string,
) (*Enumerator[T], error) {
	if dataKey == "" {
		dataKey = DefaultDataKey(baseURL)
	}

	e := &Enumerator[T]{
		ctx:       ctx,
		requester: requester,
		baseURL:   baseURL,
		params:    cloneValues(params),
		dataKey:   dataKey,
		nextPage:  2,
	}

	first, err := e.fetch(e.params)
	if err != nil {
		return nil, fmt.Errorf("fetching first page of %s: %w", baseURL, err)
	}

	e.buffer = first.items
	e.totalPages = first.paginator.PageCount
	e.totalCount = first.paginator.TotalCount

	if e.totalPages < 2 {
		e.lastDone = true

		return e, nil
	}

	last, err := e.fetchPage(e.totalPages)

	switch {
	case errors.Is(err, ErrMaxPageReached):
		e.lastItems = nil
	case err != nil:
		return nil, fmt.Errorf("fetching last page of %s: %w", baseURL, err)
	default:
		e.lastItems = last.items
	}

	return e, nil
}

// DefaultDataKey returns the last path segment of a listing URL.
func DefaultDataKey(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		p = u.Path
	}

	return path.Base(path.Clean("/" + p))
}

// Size returns the total item count reported by the first page.
func (e *Enumerator[T]) Size() int {
	return e.totalCount
}

// TotalPages returns the page count reported by the first page.
func (e *Enumerator[T]) TotalPages() int {
	return e.totalPages
}

// DataKey returns the key holding the items of each page.
func (e *Enumerator[T]) DataKey() string {
	return e.dataKey
}

// Err returns the error that stopped the enumeration, if any.
func (e *Enumerator[T]) Err() error {
	return e.err
}

// HasNext reports whether Next will return an item or an error. It may fetch
// the next intermediate page.
func (e *Enumerator[T]) HasNext() bool {
	if e.pending != nil {
		return true
	}

	if len(e.buffer) > 0 {
		return true
	}

	if e.done {
		return false
	}

	if err := e.fill(); err != nil {
		e.pending = err
		e.err = err
		e.done = true

		return true
	}

	return len(e.buffer) > 0
}

// Next returns the next item. It returns ErrNoMoreItems after the last item.
func (e *Enumerator[T]) Next() (T, error) {
	var zero T

	if !e.HasNext() {
		return zero, ErrNoMoreItems
	}

	if e.pending != nil {
		err := e.pending
		e.pending = nil

		return zero, err
	}

	raw := e.buffer[0]
	e.buffer = e.buffer[1:]

	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return zero, fmt.Errorf("decoding %s item: %w", e.dataKey, err)
	}

	return item, nil
}

// All returns a range-over-func sequence of the remaining items. The sequence
// stops after yielding the first error.
func (e *Enumerator[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for e.HasNext() {
			item, err := e.Next()
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// ForEach calls fn for every remaining item and stops at the first error.
func (e *Enumerator[T]) ForEach(fn func(T) error) error {
	for item, err := range e.All() {
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
	}

	return nil
}

// Collect returns all remaining items.
func (e *Enumerator[T]) Collect() ([]T, error) {
	items := make([]T, 0, e.totalCount)

	err := e.ForEach(func(item T) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// fill loads the next non-empty batch: intermediate pages first, then the
// cached last page.
func (e *Enumerator[T]) fill() error {
	for len(e.buffer) == 0 {
		if e.nextPage < e.totalPages {
			next, err := e.fetchPage(e.nextPage)
			if errors.Is(err, ErrMaxPageReached) {
				e.nextPage = e.totalPages

				continue
			}

			if err != nil {
				return fmt.Errorf("fetching page %d of %s: %w", e.nextPage, e.baseURL, err)
			}

			e.nextPage++
			e.buffer = next.items

			continue
		}

		if !e.lastDone {
			e.lastDone = true
			e.buffer = e.lastItems
			e.lastItems = nil

			continue
		}

		e.done = true

		return nil
	}

	return nil
}

type page struct {
	items     []json.RawMessage
	paginator Paginator
}

func (e *Enumerator[T]) fetchPage(n int) (*page, error) {
	values := cloneValues(e.params)
	values.Set(constants.PageParam, strconv.Itoa(n))

	return e.fetch(values)
}

func (e *Enumerator[T]) fetch(values url.Values) (*page, error) {
	body, err := e.requester.Request(e.ctx, e.baseURL, values)
	if err != nil {
		return nil, err
	}

	metrics.PagesFetchedTotal.Inc()

	return parsePage(body, e.dataKey)
}

func parsePage(body json.RawMessage, dataKey string) (*page, error) {
	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}

	p := &page{}

	if raw, ok := resp.Data[paginatorKey]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.paginator); err != nil {
			return nil, fmt.Errorf("decoding paginator: %w", err)
		}
	}

	raw, ok := resp.Data[dataKey]
	if !ok || isNull(raw) {
		return p, nil
	}

	if err := json.Unmarshal(raw, &p.items); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAnArray, dataKey)
	}

	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}

	return out
}
