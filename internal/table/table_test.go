package table_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/cast"
	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/table/tabletest"
	"github.com/paveg/colframe/internal/testutil"
)

func TestNew(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, []string{"name", "age", "score"}, tbl.ColumnNames())
	assert.True(t, tbl.HasColumn("age"))
	assert.False(t, tbl.HasColumn("missing"))

	age, ok := tbl.Column("age")
	require.True(t, ok)
	assert.Equal(t, 1, age.NullN())
	assert.Equal(t, "Table[5x3]\n  name: utf8\n  age: int64\n  score: float64", tbl.String())
}

func TestNewErrors(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	a := testutil.BuildArray(t, mem.Allocator, datatype.Int32, 1, 2)
	defer a.Release()
	b := testutil.BuildArray(t, mem.Allocator, datatype.Int32, 1, 2, 3)
	defer b.Release()

	ca, cb := table.NewColumn("a", a), table.NewColumn("b", b)
	defer ca.Release()
	defer cb.Release()

	_, err := table.New(ca, cb)
	assert.True(t, stderrors.Is(err, errors.ErrMismatchedLength))

	dup := table.NewColumn("a", a)
	defer dup.Release()
	_, err = table.New(ca, dup)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestEmptyTable(t *testing.T) {
	tbl, err := table.New()
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "Table[empty]", tbl.String())
}

func TestSchema(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	want := table.NewSchema(
		datatype.Field{Name: "name", Type: datatype.Utf8, Nullable: true},
		datatype.Field{Name: "age", Type: datatype.Int64, Nullable: true},
		datatype.Field{Name: "score", Type: datatype.Float64, Nullable: true},
	)
	s := tbl.Schema()
	assert.True(t, want.Equal(s), "got %s", s)
	i, ok := s.FieldIndex("score")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "schema<name: utf8, age: int64, score: float64>", s.String())
}

func TestSelectDrop(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	sel, err := tbl.Select("score", "name")
	require.NoError(t, err)
	defer sel.Release()
	assert.Equal(t, []string{"score", "name"}, sel.ColumnNames())

	_, err = tbl.Select("nope")
	assert.True(t, stderrors.Is(err, errors.ErrColumnNotFound))

	dropped := tbl.Drop("age", "nope")
	defer dropped.Release()
	assert.Equal(t, []string{"name", "score"}, dropped.ColumnNames())
}

func TestSlice(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	s, err := tbl.Slice(1, 3)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []any{"bob", "cy"}, tabletest.Values(t, s, "name"))
	assert.Equal(t, []any{nil, int64(25)}, tabletest.Values(t, s, "age"))

	_, err = tbl.Slice(4, 6)
	assert.True(t, stderrors.Is(err, errors.ErrIndexOutOfRange))
}

func TestConcat(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	top := tabletest.Build(t, mem.Allocator,
		tabletest.Col("id", datatype.Int64, int64(1), int64(2)),
		tabletest.Col("tag", datatype.Utf8, "a", nil),
	)
	defer top.Release()

	t.Run("reorders and casts", func(t *testing.T) {
		bottom := tabletest.Build(t, mem.Allocator,
			tabletest.Col("tag", datatype.Utf8, "c"),
			tabletest.Col("id", datatype.Int32, int32(3)),
		)
		defer bottom.Release()

		out, err := top.Concat(bottom)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []string{"id", "tag"}, out.ColumnNames())
		assert.Equal(t, []any{int64(1), int64(2), int64(3)}, tabletest.Values(t, out, "id"))
		assert.Equal(t, []any{"a", nil, "c"}, tabletest.Values(t, out, "tag"))
	})

	t.Run("missing column", func(t *testing.T) {
		other := tabletest.Build(t, mem.Allocator,
			tabletest.Col("id", datatype.Int64, int64(3)),
			tabletest.Col("label", datatype.Utf8, "c"),
		)
		defer other.Release()

		_, err := top.Concat(other)
		assert.True(t, stderrors.Is(err, errors.ErrIncompatibleSchema))
	})

	t.Run("width differs", func(t *testing.T) {
		other := tabletest.Build(t, mem.Allocator, tabletest.Col("id", datatype.Int64, int64(3)))
		defer other.Release()

		_, err := top.Concat(other)
		assert.True(t, stderrors.Is(err, errors.ErrIncompatibleSchema))
	})

	t.Run("value does not fit", func(t *testing.T) {
		narrow := tabletest.Build(t, mem.Allocator, tabletest.Col("v", datatype.Int8, int8(1)))
		defer narrow.Release()
		wide := tabletest.Build(t, mem.Allocator, tabletest.Col("v", datatype.Int64, int64(1000)))
		defer wide.Release()

		_, err := narrow.Concat(wide)
		require.Error(t, err)
		var e *errors.Error
		require.True(t, stderrors.As(err, &e))
		assert.Equal(t, errors.KindCastOverflow, e.Kind)
		assert.Equal(t, "v", e.Column)
	})
}

func TestCastTo(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()
	ctx := context.Background()

	t.Run("follows schema order", func(t *testing.T) {
		schema := table.NewSchema(
			datatype.Field{Name: "age", Type: datatype.Float64, Nullable: true},
			datatype.Field{Name: "score", Type: datatype.Utf8, Nullable: true},
			datatype.Field{Name: "name", Type: datatype.LargeUtf8, Nullable: true},
		)
		out, err := tbl.CastTo(ctx, schema)
		require.NoError(t, err)
		defer out.Release()

		assert.True(t, schema.Equal(out.Schema()))
		assert.Equal(t, []any{31.0, nil, 25.0, 31.0, 19.0}, tabletest.Values(t, out, "age"))
		assert.Equal(t, []any{"1.5", "2.5", nil, "0.5", "4"}, tabletest.Values(t, out, "score"))
	})

	t.Run("failure names the column", func(t *testing.T) {
		schema := table.NewSchema(
			datatype.Field{Name: "name", Type: datatype.Int32, Nullable: true},
			datatype.Field{Name: "age", Type: datatype.Int64, Nullable: true},
			datatype.Field{Name: "score", Type: datatype.Float64, Nullable: true},
		)
		_, err := tbl.CastTo(ctx, schema)
		var e *errors.Error
		require.True(t, stderrors.As(err, &e))
		assert.Equal(t, errors.KindCastParseError, e.Kind)
		assert.Equal(t, "name", e.Column)
		assert.Equal(t, 0, e.Index)
	})

	t.Run("options override config", func(t *testing.T) {
		schema := table.NewSchema(
			datatype.Field{Name: "name", Type: datatype.Utf8, Nullable: true},
			datatype.Field{Name: "age", Type: datatype.Int8, Nullable: true},
			datatype.Field{Name: "score", Type: datatype.Int64, Nullable: true},
		)
		_, err := tbl.CastTo(ctx, schema)
		assert.True(t, stderrors.Is(err, errors.ErrCastOverflow))

		out, err := tbl.CastTo(ctx, schema, cast.WithOverflowPolicy(cast.OverflowTruncate))
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []any{int64(1), int64(2), nil, int64(0), int64(4)}, tabletest.Values(t, out, "score"))
	})

	t.Run("schema mismatch", func(t *testing.T) {
		_, err := tbl.CastTo(ctx, table.NewSchema(datatype.Field{Name: "name", Type: datatype.Utf8}))
		assert.True(t, stderrors.Is(err, errors.ErrIncompatibleSchema))

		_, err = tbl.CastTo(ctx, table.NewSchema(
			datatype.Field{Name: "name", Type: datatype.Utf8},
			datatype.Field{Name: "age", Type: datatype.Int64},
			datatype.Field{Name: "other", Type: datatype.Float64},
		))
		assert.True(t, stderrors.Is(err, errors.ErrColumnNotFound))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := tbl.CastTo(cctx, tbl.Schema())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTake(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := tabletest.People(t, mem.Allocator)
	defer tbl.Release()

	out, err := tbl.Take([]int{4, 4, 0})
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []any{"eve", "eve", "ann"}, tabletest.Values(t, out, "name"))

	_, err = tbl.Take([]int{5})
	assert.True(t, stderrors.Is(err, errors.ErrIndexOutOfRange))
}
