package flags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodeforge/dagmem/internal/flags"
)

func TestHeaderZeroValue(t *testing.T) {
	var h flags.Header

	assert.False(t, h.Marked())
	assert.False(t, h.NeedsDestruction())
}

func TestHeaderSetters(t *testing.T) {
	var h flags.Header

	h.SetMarked(true)
	assert.True(t, h.Marked())

	h.SetNeedsDestruction(true)
	assert.True(t, h.NeedsDestruction())

	h.SetMarked(false)
	assert.False(t, h.Marked())
	assert.True(t, h.NeedsDestruction())
}

func TestHeaderClear(t *testing.T) {
	var h flags.Header
	h.SetMarked(true)
	h.SetNeedsDestruction(true)

	h.Clear()

	assert.False(t, h.Marked())
	assert.False(t, h.NeedsDestruction())
}
