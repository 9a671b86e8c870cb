package shoptet_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/shoptet-client/internal/constants"
	"github.com/fivetwenty-io/shoptet-client/pkg/shoptet"
	"github.com/stretchr/testify/assert"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *shoptet.QueryParams
		expected url.Values
	}{
		{
			name:     "nil params",
			params:   nil,
			expected: url.Values{},
		},
		{
			name:     "empty params",
			params:   shoptet.NewQueryParams(),
			expected: url.Values{},
		},
		{
			name: "with pagination",
			params: &shoptet.QueryParams{
				Page:         2,
				ItemsPerPage: 50,
			},
			expected: url.Values{
				"page":         []string{"2"},
				"itemsPerPage": []string{"50"},
			},
		},
		{
			name: "with includes",
			params: &shoptet.QueryParams{
				Include: []string{"images", "allCategories"},
			},
			expected: url.Values{
				"include": []string{"images,allCategories"},
			},
		},
		{
			name: "with filters",
			params: &shoptet.QueryParams{
				Filters: map[string]string{
					"status":           "-2",
					"creationTimeFrom": "2024-01-01T00:00:00+0100",
				},
			},
			expected: url.Values{
				"status":           []string{"-2"},
				"creationTimeFrom": []string{"2024-01-01T00:00:00+0100"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.params.ToValues())
		})
	}
}

func TestQueryParams_Builders(t *testing.T) {
	t.Parallel()

	params := shoptet.NewQueryParams().
		WithPage(3).
		WithItemsPerPage(100).
		WithInclude("images").
		WithInclude("variantParameters", "allCategories").
		WithFilter("visibility", "visible").
		WithChangesFrom("2024-05-01T10:00:00+0200")

	values := params.ToValues()

	assert.Equal(t, "3", values.Get("page"))
	assert.Equal(t, "100", values.Get("itemsPerPage"))
	assert.Equal(t, "images,variantParameters,allCategories", values.Get("include"))
	assert.Equal(t, "visible", values.Get("visibility"))
	assert.Equal(t, "2024-05-01T10:00:00+0200", values.Get("from"))
}

func TestQueryParams_WireNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "page", constants.PageParam)
	assert.Equal(t, "itemsPerPage", constants.ItemsPerPageParam)
	assert.Equal(t, "include", constants.IncludeParam)

	values := shoptet.NewQueryParams().WithPage(2).WithItemsPerPage(20).WithInclude("images").ToValues()
	assert.Equal(t, url.Values{
		constants.PageParam:         []string{"2"},
		constants.ItemsPerPageParam: []string{"20"},
		constants.IncludeParam:      []string{"images"},
	}, values)
}

func TestQueryParams_WithFilterOnZeroValue(t *testing.T) {
	t.Parallel()

	params := (&shoptet.QueryParams{}).WithFilter("code", "A1")

	assert.Equal(t, "A1", params.ToValues().Get("code"))
}
