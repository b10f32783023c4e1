package maglev

import (
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Item is a value which can be hashed onto the table.
// Both nodes and lookup keys are Items; a key doesn't have to be of the same
// type as the nodes it is mapped to.
type Item interface {
	io.WriterTo
}

// Table is a Maglev lookup table built over a fixed set of nodes.
//
// Table is immutable after construction, thus it is safe to call Get() from
// multiple goroutines without synchronization. Any change of the node set
// requires building a new Table; callers should pass the previous table's
// Capacity() to the new build to keep key remapping minimal.
type Table struct {
	// hash is an optional function used to build up a new 64-bit hash
	// function for further hash values calculation.
	hash func() hash.Hash64

	// hashPool is a pool of reusable hash functions.
	hashPool sync.Pool

	// nodes holds the node set in its original order. Slot assignments in
	// lookup are indices into this slice.
	nodes []Item

	// lookup maps a slot to the index of the node owning it.
	// Its length is the prime table size m. It is nil when the node set is
	// empty.
	lookup []int
}

// New builds a lookup table over nodes with the default capacity of 100 slots
// per node and the default hash function.
func New(nodes []Item) *Table {
	return NewWithCapacityAndHash(nodes, 0, nil)
}

// NewWithCapacity builds a lookup table with at least capacity slots.
func NewWithCapacity(nodes []Item, capacity int) *Table {
	return NewWithCapacityAndHash(nodes, capacity, nil)
}

// NewWithHash builds a lookup table which will use the given hash builder for
// all hash values calculation.
func NewWithHash(nodes []Item, fn func() hash.Hash64) *Table {
	return NewWithCapacityAndHash(nodes, 0, fn)
}

// NewWithCapacityAndHash builds a lookup table with at least capacity slots,
// using the given hash builder for all hash values calculation.
//
// The table size is the smallest prime not less than capacity. If capacity is
// zero it defaults to 100 times the number of nodes. Negative capacity is a
// programming error and makes NewWithCapacityAndHash panic.
//
// A nil fn means the default xxhash function.
//
// An empty node set produces a table in the explicit empty state: its
// Capacity() is zero and Get() returns nil for every key.
func NewWithCapacityAndHash(nodes []Item, capacity int, fn func() hash.Hash64) *Table {
	if capacity < 0 {
		panic("maglev: capacity must not be negative")
	}
	t := &Table{
		hash:  fn,
		nodes: append(([]Item)(nil), nodes...),
	}
	t.populate(capacity)
	return t
}

// Get returns the node owning the slot key is hashed to.
// Returned node is nil only when the table was built over an empty node set.
func (t *Table) Get(key Item) Item {
	m := uint64(len(t.lookup))
	if m == 0 {
		return nil
	}
	d := t.digest(seedOffset, key)
	return t.nodes[t.lookup[d%m]]
}

// MustGet is like Get except that it panics on an empty table.
// It is a convenience for callers which know their table is non-empty.
func (t *Table) MustGet(key Item) Item {
	x := t.Get(key)
	if x == nil {
		panic("maglev: get on empty table")
	}
	return x
}

// Nodes returns the table's node set in its original order.
// It must be used for introspection only and must not be modified.
func (t *Table) Nodes() []Item {
	return t.nodes
}

// Capacity returns the number of slots in the lookup table. It is zero only
// for a table built over an empty node set.
//
// Callers rebuilding a table after a membership change must pass this value
// as the capacity of the next build: changing the table size reshuffles
// essentially every slot, losing the minimal disruption property.
func (t *Table) Capacity() int {
	return len(t.lookup)
}

// populate builds the lookup table by letting each node claim slots in the
// order of its permutation, round-robin across nodes, until all slots are
// taken.
//
// Nodes take turns in index order, which makes the resulting assignment
// deterministic for a fixed node sequence and hash function.
func (t *Table) populate(capacity int) {
	n := len(t.nodes)
	if n == 0 {
		return
	}
	if capacity == 0 {
		capacity = n * 100
	}
	m := nextPrime(capacity)

	// Each node's permutation is the full cycle of its skip stride over the
	// m slots, starting at its offset. Primality of m guarantees the cycle
	// visits every slot, which is what makes the claiming loop terminate.
	permutation := make([][]int, n)
	for i, node := range t.nodes {
		offset := int(t.digest(seedOffset, node) % uint64(m))
		skip := int(t.digest(seedSkip, node)%uint64(m-1)) + 1

		p := make([]int, m)
		c := offset
		for k := range p {
			p[k] = c
			c += skip
			if c >= m {
				c -= m
			}
		}
		permutation[i] = p
	}

	next := make([]int, n)
	entry := make([]int, m)
	for j := range entry {
		entry[j] = -1 // Unfilled.
	}

	for j := 0; j < m; {
		for i := 0; i < n; i++ {
			c := permutation[i][next[i]]
			for entry[c] >= 0 {
				next[i]++
				c = permutation[i][next[i]]
			}
			entry[c] = i
			next[i]++
			j++
			if j == m {
				break
			}
		}
	}

	t.lookup = entry
}

func (t *Table) digest(seed uint32, src Item) uint64 {
	h, _ := t.hashPool.Get().(hash.Hash64)
	if h == nil {
		if t.hash != nil {
			h = t.hash()
		} else {
			h = xxhash.New()
		}
	}
	defer func() {
		h.Reset()
		t.hashPool.Put(h)
	}()

	_, err := h.Write(encodeSeed(seed))
	if err == nil {
		_, err = src.WriteTo(h)
	}
	if err != nil {
		panic(fmt.Sprintf("maglev: digest error: %v", err))
	}
	return h.Sum64()
}
