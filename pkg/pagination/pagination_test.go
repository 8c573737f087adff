package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Page: 1, Limit: 20}},
		{"negative page", Params{Page: -3, Limit: 5}, Params{Page: 1, Limit: 5}},
		{"limit capped", Params{Page: 2, Limit: 500}, Params{Page: 2, Limit: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}

func TestParamsOffsetAndHasMore(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())
	assert.True(t, p.HasMore(31))
	assert.False(t, p.HasMore(30))

	first := Params{}
	assert.Equal(t, 0, first.Offset())
	assert.False(t, first.HasMore(20))
	assert.True(t, first.HasMore(21))
}
