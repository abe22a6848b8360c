package x11

import "sort"

const slotAlign = 64

type span struct {
	off int
	len int
}

// slotAllocator hands out non-overlapping byte ranges of a fixed-size pool,
// first fit. A range stays busy until the server reports it has read it.
type slotAllocator struct {
	size int
	used []span // sorted by offset
}

func newSlotAllocator(size int) *slotAllocator {
	return &slotAllocator{size: size}
}

func (a *slotAllocator) alloc(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	n = (n + slotAlign - 1) &^ (slotAlign - 1)

	start := 0
	for i, s := range a.used {
		if s.off-start >= n {
			a.insert(i, span{off: start, len: n})
			return start, true
		}
		start = s.off + s.len
	}
	if a.size-start >= n {
		a.used = append(a.used, span{off: start, len: n})
		return start, true
	}
	return 0, false
}

func (a *slotAllocator) insert(i int, s span) {
	a.used = append(a.used, span{})
	copy(a.used[i+1:], a.used[i:])
	a.used[i] = s
}

func (a *slotAllocator) release(off int) bool {
	i := sort.Search(len(a.used), func(i int) bool { return a.used[i].off >= off })
	if i == len(a.used) || a.used[i].off != off {
		return false
	}
	a.used = append(a.used[:i], a.used[i+1:]...)
	return true
}

func (a *slotAllocator) busy() int {
	return len(a.used)
}
