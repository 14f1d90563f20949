package array

import (
	xxhash "github.com/cespare/xxhash/v2"
)

const (
	memoInitialCapacity = 16
	memoLoadFactor      = 0.75
	memoGrowthFactor    = 2
)

// memoTable maps encoded dictionary values to their insertion position.
type memoTable struct {
	buckets  [][]memoEntry
	capacity int
	size     int
}

type memoEntry struct {
	key   string
	index int
}

func newMemoTable() *memoTable {
	return &memoTable{
		buckets:  make([][]memoEntry, memoInitialCapacity),
		capacity: memoInitialCapacity,
	}
}

func (m *memoTable) bucket(key string) int {
	//nolint:gosec // capacity is always a positive power of two
	return int(xxhash.Sum64String(key) & uint64(m.capacity-1))
}

// Get returns the position of key.
func (m *memoTable) Get(key string) (int, bool) {
	for _, e := range m.buckets[m.bucket(key)] {
		if e.key == key {
			return e.index, true
		}
	}
	return 0, false
}

// Insert records key at the next position and returns it. The caller must
// have checked that key is absent.
func (m *memoTable) Insert(key string) int {
	idx := m.size
	b := m.bucket(key)
	m.buckets[b] = append(m.buckets[b], memoEntry{key: key, index: idx})
	m.size++

	if float64(m.size) > float64(m.capacity)*memoLoadFactor {
		m.resize()
	}
	return idx
}

// Size returns the number of distinct keys.
func (m *memoTable) Size() int { return m.size }

func (m *memoTable) resize() {
	m.capacity *= memoGrowthFactor
	old := m.buckets
	m.buckets = make([][]memoEntry, m.capacity)
	for _, bucket := range old {
		for _, e := range bucket {
			b := m.bucket(e.key)
			m.buckets[b] = append(m.buckets[b], e)
		}
	}
}
