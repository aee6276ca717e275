package fixtures

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadsAreFreshCopies(t *testing.T) {
	p := LoginPayload()
	delete(p, "password")
	assert.Contains(t, LoginPayload(), "password")

	v := ValuationPayload()
	v["dealer_id"] = InvalidDealerID
	assert.Equal(t, DealerID, ValuationPayload()["dealer_id"])

	h := DefaultHeaders()
	h["Content-Type"] = "text/plain"
	assert.Equal(t, "application/json", DefaultHeaders()["Content-Type"])
}

func TestExpectedValues(t *testing.T) {
	steps := DealerRadiusSteps()
	assert.True(t, slices.IsSorted(steps))
	assert.Equal(t, 1, steps[0])
	assert.Equal(t, 100, steps[len(steps)-1])

	seen := make(map[int]bool)
	for _, f := range Factors() {
		assert.False(t, seen[f.ID], "duplicate factor id %d", f.ID)
		seen[f.ID] = true
	}
	assert.Len(t, seen, DefaultPageSize)
	assert.Len(t, EULASections(), 11)
	assert.Equal(t, map[string]string{"Authorization": "abc", "Content-Type": "text/plain"}, AuthHeaders("abc"))
}
