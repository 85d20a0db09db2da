package tokenizer

import "container/heap"

// part is one token of a chunk being merged, identified by its start byte.
type part struct {
	end  int // exclusive end byte
	prev int // start of the previous part, -1 if first
	next int // start of the next part, len(piece) if last
	dead bool
}

// mergeCandidate is an adjacent pair whose concatenation has a rank.
type mergeCandidate struct {
	rank  int
	left  int // start of the left part
	right int // start of the right part
	end   int // end of the right part when the candidate was pushed
}

type candidateHeap []mergeCandidate

func (h candidateHeap) Len() int { return len(h) }

// Less orders by rank, then leftmost position.
func (h candidateHeap) Less(i, j int) bool {
	return h[i].rank < h[j].rank || (h[i].rank == h[j].rank && h[i].left < h[j].left)
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(mergeCandidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeBounds runs byte-level BPE over piece and returns the start offsets of
// the final parts followed by len(piece), plus the number of merges applied.
//
// Every round merges the adjacent pair whose concatenation has the lowest rank,
// leftmost on ties, until no adjacent concatenation is ranked. Stale heap entries
// are skipped instead of removed: an entry is live only while both parts still
// exist, are still adjacent, and still span the bytes they spanned when pushed.
func mergeBounds(piece []byte, ranks map[string]int) ([]int, int) {
	n := len(piece)
	if n == 0 {
		return nil, 0
	}

	parts := make([]part, n)
	for i := range parts {
		parts[i] = part{end: i + 1, prev: i - 1, next: i + 1}
	}

	candidate := func(left int) (mergeCandidate, bool) {
		right := parts[left].next
		if right >= n {
			return mergeCandidate{}, false
		}
		end := parts[right].end
		rank, ok := ranks[string(piece[left:end])]
		if !ok {
			return mergeCandidate{}, false
		}
		return mergeCandidate{rank: rank, left: left, right: right, end: end}, true
	}

	h := make(candidateHeap, 0, n)
	for i := 0; i < n-1; i++ {
		if c, ok := candidate(i); ok {
			h = append(h, c)
		}
	}
	heap.Init(&h)

	merges := 0
	for h.Len() > 0 {
		c := heap.Pop(&h).(mergeCandidate)
		left, right := &parts[c.left], &parts[c.right]
		if left.dead || right.dead || left.next != c.right || right.end != c.end {
			continue
		}

		left.end = right.end
		left.next = right.next
		right.dead = true
		if right.next < n {
			parts[right.next].prev = c.left
		}
		merges++

		if left.prev >= 0 {
			if nc, ok := candidate(left.prev); ok {
				heap.Push(&h, nc)
			}
		}
		if nc, ok := candidate(c.left); ok {
			heap.Push(&h, nc)
		}
	}

	bounds := make([]int, 0, n-merges+1)
	for i := 0; i < n; i = parts[i].next {
		bounds = append(bounds, i)
	}
	return append(bounds, n), merges
}

// bytePairEncode appends the ranks of piece's merged parts to dst.
func bytePairEncode(dst []int, piece []byte, ranks map[string]int) ([]int, error) {
	bounds, _ := mergeBounds(piece, ranks)
	for i := 0; i+1 < len(bounds); i++ {
		tok := piece[bounds[i]:bounds[i+1]]
		rank, ok := ranks[string(tok)]
		if !ok {
			return dst, &UnencodableError{Piece: append([]byte(nil), tok...)}
		}
		dst = append(dst, rank)
	}
	return dst, nil
}
