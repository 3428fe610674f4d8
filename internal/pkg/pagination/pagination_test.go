package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClamps(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
	}{
		{name: "defaults", page: 0, limit: 0, want: Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{name: "max limit", page: 2, limit: 1000, want: Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}},
		{name: "third page", page: 3, limit: 10, want: Params{Page: 3, Limit: 10, Offset: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *New(tt.page, tt.limit))
		})
	}
}

func TestWindowAndMeta(t *testing.T) {
	p := New(3, 10)
	start, end := p.Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = New(5, 10).Window(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	meta := GetMeta(p, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	assert.Equal(t, "limit=10&page=3", p.Values().Encode())
}
