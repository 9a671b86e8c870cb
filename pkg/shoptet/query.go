package shoptet

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
)

// QueryParams represents query parameters of a Shoptet request.
type QueryParams struct {
	Page         int
	ItemsPerPage int
	Include      []string
	Filters      map[string]string
}

// NewQueryParams creates new query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string]string),
	}
}

// ToValues converts query parameters to url.Values. A nil receiver yields
// empty values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set(constants.PageParam, strconv.Itoa(q.Page))
	}

	if q.ItemsPerPage > 0 {
		values.Set(constants.ItemsPerPageParam, strconv.Itoa(q.ItemsPerPage))
	}

	if len(q.Include) > 0 {
		values.Set(constants.IncludeParam, strings.Join(q.Include, ","))
	}

	keys := make([]string, 0, len(q.Filters))
	for key := range q.Filters {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		values.Set(key, q.Filters[key])
	}

	return values
}

// WithPage sets the page number.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithItemsPerPage sets the page size.
func (q *QueryParams) WithItemsPerPage(n int) *QueryParams {
	q.ItemsPerPage = n

	return q
}

// WithInclude adds optional sections to include.
func (q *QueryParams) WithInclude(include ...string) *QueryParams {
	q.Include = append(q.Include, include...)

	return q
}

// WithFilter sets a filter, replacing any previous value for key.
func (q *QueryParams) WithFilter(key, value string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string]string)
	}

	q.Filters[key] = value

	return q
}

// WithChangesFrom sets the "from" filter used by change feeds.
func (q *QueryParams) WithChangesFrom(from string) *QueryParams {
	return q.WithFilter("from", from)
}
