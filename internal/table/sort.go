package table

import (
	"slices"

	"github.com/paveg/colframe/internal/array"
	"github.com/paveg/colframe/internal/config"
	"github.com/paveg/colframe/internal/errors"
)

// SortKey names a column to order by.
type SortKey struct {
	Column     string
	Descending bool
}

// SortOptions configure SortIndices and Sort.
type SortOptions struct {
	// NullPlacement applies to every key regardless of direction.
	NullPlacement array.NullPlacement
}

// DefaultSortOptions places nulls as the global configuration says.
func DefaultSortOptions() SortOptions {
	p, err := array.ParseNullPlacement(config.GetGlobalConfig().WithDefaults().NullPlacement)
	if err != nil {
		p = array.NullsLast
	}
	return SortOptions{NullPlacement: p}
}

// SortIndices returns the row permutation that orders t by keys. The sort
// is stable: rows comparing equal on every key keep their input order.
func (t *Table) SortIndices(keys []SortKey, opts SortOptions) ([]int, error) {
	const op = "Sort"
	if len(keys) == 0 {
		return nil, errors.NewInvalidInputError(op, "at least one sort key is required")
	}

	cmps := make([]array.Comparator, len(keys))
	for k, key := range keys {
		c, ok := t.Column(key.Column)
		if !ok {
			return nil, errors.NewColumnNotFoundError(op, key.Column)
		}
		cmp, err := array.NewComparator(c.data, c.data, array.CompareOptions{NullPlacement: opts.NullPlacement})
		if err != nil {
			return nil, errors.Attribute(err, key.Column)
		}
		if key.Descending {
			cmp = descending(c.data, cmp)
		}
		cmps[k] = cmp
	}

	indices := make([]int, t.length)
	for i := range indices {
		indices[i] = i
	}
	slices.SortStableFunc(indices, func(i, j int) int {
		for _, cmp := range cmps {
			if r := cmp(i, j); r != 0 {
				return r
			}
		}
		return 0
	})
	return indices, nil
}

// descending reverses value order but leaves nulls where the placement put
// them.
func descending(arr array.Array, cmp array.Comparator) array.Comparator {
	return func(i, j int) int {
		if arr.IsNull(i) || arr.IsNull(j) {
			return cmp(i, j)
		}
		return -cmp(i, j)
	}
}

// Sort returns t reordered by keys.
func (t *Table) Sort(keys []SortKey, opts SortOptions) (*Table, error) {
	indices, err := t.SortIndices(keys, opts)
	if err != nil {
		return nil, err
	}
	return t.Take(indices)
}
