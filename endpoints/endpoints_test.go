package endpoints

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://d3g8su2w1x0h24.cloudfront.net"

func TestBuilderPaths(t *testing.T) {
	b := New(base + "/")

	assert.Equal(t, base, b.BaseURL())
	assert.Equal(t, base+"/api/login", b.Login())
	assert.Equal(t, base+"/api/valuation", b.Valuation())
	assert.Equal(t, base+"/api/get_documents_by_section", b.DocumentsBySection())
	assert.Equal(t, base+"/api/factor", b.Factors())
	assert.Equal(t, base+"/api/dealer_radius_factor", b.DealerRadiusFactor())
	assert.Equal(t, base+"/api/valuation?username=mohit", b.ValuationFor("mohit"))
}

func TestValuationList(t *testing.T) {
	b := New(base)

	tests := []struct {
		name     string
		query    ListQuery
		expected string
	}{
		{
			name:     "defaults",
			query:    DefaultListQuery(),
			expected: base + "/api/valuation?perPage=10&pageNo=1&q=&username=mohit",
		},
		{
			name:     "zero_value_uses_defaults",
			query:    ListQuery{},
			expected: base + "/api/valuation?perPage=10&pageNo=1&q=&username=mohit",
		},
		{
			name:     "custom_pagination",
			query:    ListQuery{PerPage: 5, PageNo: 2},
			expected: base + "/api/valuation?perPage=5&pageNo=2&q=&username=mohit",
		},
		{
			name:     "search",
			query:    ListQuery{Query: "Estimate"},
			expected: base + "/api/valuation?perPage=10&pageNo=1&q=Estimate&username=mohit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.ValuationList(tt.query))
		})
	}
}

func TestValuationListEscapesValues(t *testing.T) {
	raw := New(base).ValuationList(ListQuery{Query: "22 Apr & more", Username: "a b"})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "22 Apr & more", u.Query().Get("q"))
	assert.Equal(t, "a b", u.Query().Get("username"))
}
