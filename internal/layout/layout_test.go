package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodeforge/dagmem/internal/layout"
)

func TestRoundUp(t *testing.T) {
	cases := []struct {
		n, align, want int
	}{
		{0, 8, 0},
		{1, 8, 8},
		{7, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{200, layout.PointerAlign, 200},
		{201, layout.PointerAlign, 208},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, layout.RoundUp(c.n, c.align))
	}
}
