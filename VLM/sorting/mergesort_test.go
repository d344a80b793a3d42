package sorting

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type edge struct {
	key, id int
}

func (e edge) VortexEdge() int { return e.key }

func TestMergeSort(t *testing.T) {
	{ // Empty and single item lists
		iperm := MergeSort(nil)
		assert.Equal(t, []int{0}, iperm)
		iperm = MergeSort(KeySlice{42}.List())
		assert.Equal(t, []int{0, 1}, iperm)
		assert.Equal(t, []int{0, 1}, Ranks(iperm))
	}
	{ // Known order
		keys := KeySlice{5, 3, 9, 1, 7}
		iperm := MergeSort(keys.List())
		assert.Equal(t, []int{0, 4, 2, 1, 5, 3}, iperm)
		assert.Equal(t, []int{1, 3, 5, 7, 9}, Apply(keys, iperm))
		assert.Equal(t, []int{0, 3, 2, 5, 1, 4}, Ranks(iperm))
	}
	{ // Random lengths, including non powers of two
		rnd := rand.New(rand.NewSource(7))
		for _, N := range []int{2, 3, 7, 8, 9, 31, 64, 100, 1023} {
			list := make([]Keyed, N)
			for i := range list {
				list[i] = edge{key: rnd.Intn(N/2 + 1), id: i}
			}
			iperm := MergeSort(list)
			require.Len(t, iperm, N+1)
			seen := make([]bool, N+1)
			for r := 1; r <= N; r++ {
				seen[iperm[r]] = true
				if r > 1 {
					prev, cur := list[iperm[r-1]-1].(edge), list[iperm[r]-1].(edge)
					assert.LessOrEqual(t, prev.key, cur.key)
					if prev.key == cur.key {
						// Stable
						assert.Less(t, prev.id, cur.id)
					}
				}
			}
			for i := 1; i <= N; i++ {
				assert.True(t, seen[i])
			}
			// Matches the library stable sort
			ref := make([]int, N)
			for i := range ref {
				ref[i] = i
			}
			sort.SliceStable(ref, func(i, j int) bool {
				return list[ref[i]].VortexEdge() < list[ref[j]].VortexEdge()
			})
			for r := 0; r < N; r++ {
				assert.Equal(t, ref[r]+1, iperm[r+1])
			}
			ranks := Ranks(iperm)
			for r := 1; r <= N; r++ {
				assert.Equal(t, r, ranks[iperm[r]])
			}
		}
	}
}
