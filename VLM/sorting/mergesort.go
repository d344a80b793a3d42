package sorting

// Keyed is anything ordered by the index of its vortex edge
type Keyed interface {
	VortexEdge() int
}

// KeySlice adapts a plain integer key slice to Keyed
type KeySlice []int

func (ks KeySlice) List() (list []Keyed) {
	list = make([]Keyed, len(ks))
	for i, k := range ks {
		list[i] = intKey(k)
	}
	return
}

type intKey int

func (k intKey) VortexEdge() int { return int(k) }

/*
MergeSort orders list by VortexEdge() with a bottom-up merge sort and returns
the permutation as a 1-based array of length len(list)+1:

	iperm[r] = 1-based index into list of the item of rank r, iperm[0] unused

Runs of length 1, 2, 4 ... are merged between two index buffers that swap
roles each pass, the last run of a pass may be short. Equal keys keep their
original order.
*/
func MergeSort(list []Keyed) (iperm []int) {
	var (
		N    = len(list)
		keys = make([]int, N)
		src  = make([]int, N)
		dst  = make([]int, N)
	)
	for i := 0; i < N; i++ {
		keys[i] = list[i].VortexEdge()
		src[i] = i
	}
	for width := 1; width < N; width *= 2 {
		for lo := 0; lo < N; lo += 2 * width {
			mid := min(lo+width, N)
			hi := min(lo+2*width, N)
			merge(keys, src[lo:mid], src[mid:hi], dst[lo:hi])
		}
		src, dst = dst, src
	}
	iperm = make([]int, N+1)
	for r := 0; r < N; r++ {
		iperm[r+1] = src[r] + 1
	}
	return
}

func merge(keys, left, right, out []int) {
	var i, j, k int
	for i < len(left) && j < len(right) {
		// <= keeps the left run first on ties
		if keys[left[i]] <= keys[right[j]] {
			out[k] = left[i]
			i++
		} else {
			out[k] = right[j]
			j++
		}
		k++
	}
	k += copy(out[k:], left[i:])
	copy(out[k:], right[j:])
}

// Ranks inverts a MergeSort permutation: ranks[i] is the 1-based rank of the
// item at 1-based index i
func Ranks(iperm []int) (ranks []int) {
	ranks = make([]int, len(iperm))
	for r := 1; r < len(iperm); r++ {
		ranks[iperm[r]] = r
	}
	return
}

// Apply returns list reordered by a MergeSort permutation
func Apply[T any](list []T, iperm []int) (sorted []T) {
	sorted = make([]T, 0, len(list))
	for r := 1; r < len(iperm); r++ {
		sorted = append(sorted, list[iperm[r]-1])
	}
	return
}
