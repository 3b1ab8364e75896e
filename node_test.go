package dagmem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/dagmem"
)

// fixtureNode is the minimal node type used across this package's tests:
// a header, an optional auxiliary payload, and a fixed set of children
// set up before marking.
type fixtureNode struct {
	dagmem.Header
	payload   []byte
	children  []*fixtureNode
	destroyed int
}

func (n *fixtureNode) Head() *dagmem.Header { return &n.Header }
func (n *fixtureNode) Destroy()             { n.destroyed++ }

func (n *fixtureNode) Mark(m *dagmem.Marker) {
	if len(n.payload) > 0 {
		fresh := m.AllocateStorage(len(n.payload))
		copy(fresh, n.payload)
		n.payload = fresh
	}
	for _, c := range n.children {
		m.Visit(c)
	}
}

func TestSliceRootsVisitsEveryElement(t *testing.T) {
	a, b := &fixtureNode{}, &fixtureNode{}
	roots := dagmem.SliceRoots[*fixtureNode]{a, b}

	var visited []dagmem.Node
	roots.Each(func(n dagmem.Node) { visited = append(visited, n) })

	assert.ElementsMatch(t, []dagmem.Node{a, b}, visited)
}

func TestRootSetDeduplicates(t *testing.T) {
	set := dagmem.NewRootSet[*fixtureNode]()
	a := &fixtureNode{}

	require.True(t, set.Add(a))
	require.False(t, set.Add(a), "re-adding the same root reports false")
	assert.Equal(t, 1, set.Len())

	var count int
	set.Each(func(dagmem.Node) { count++ })
	assert.Equal(t, 1, count)

	require.True(t, set.Remove(a))
	assert.Equal(t, 0, set.Len())
}

func TestStorageLimitErrorPanicsAndUnwraps(t *testing.T) {
	c := dagmem.NewCollector[fixtureNode, *fixtureNode](dagmem.Options{
		MaxStorageSize: 16,
	})

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected AllocateStorage to panic")

		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error")

		limitErr, ok := dagmem.AsStorageLimitError(err)
		require.True(t, ok)
		assert.Equal(t, 32, limitErr.Requested)
		assert.Equal(t, 16, limitErr.Limit)
	}()

	c.AllocateStorage(32)
}
