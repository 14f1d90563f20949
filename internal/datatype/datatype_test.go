package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  Type
		kind Kind
	}{
		{Null, KindNull},
		{Boolean, KindBool},
		{Int8, KindPrimitive},
		{Uint64, KindPrimitive},
		{Float32, KindPrimitive},
		{Utf8, KindString},
		{LargeUtf8, KindString},
		{ListOf(Int32), KindList},
		{LargeListOf(Utf8), KindList},
		{StructOf(Field{Name: "x", Type: Int32}), KindStruct},
		{DictionaryOf(Int32, Utf8), KindDictionary},
		{Date32, KindTemporal},
		{TimestampOf(Millisecond, "UTC"), KindTemporal},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.typ))
		})
	}
}

func TestTypeString(t *testing.T) {
	st := StructOf(
		Field{Name: "x", Type: Int32, Nullable: true},
		Field{Name: "tags", Type: ListOf(Utf8)},
	)
	assert.Equal(t, "struct<x: int32, tags: list<utf8> not null>", st.String())
	assert.Equal(t, "timestamp[ms, tz=Europe/Paris]", TimestampOf(Millisecond, "Europe/Paris").String())
	assert.Equal(t, "timestamp[ns]", TimestampOf(Nanosecond, "").String())
	assert.Equal(t, "dictionary<values=utf8, indices=int8, ordered=false>", DictionaryOf(Int8, Utf8).String())
	assert.Equal(t, "large_list<float64>", LargeListOf(Float64).String())
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Type
		equal bool
	}{
		{"same primitive", Int32, Int32, true},
		{"different primitive", Int32, Int64, false},
		{"fresh string instances", &StringType{}, Utf8, true},
		{"string widths differ", Utf8, LargeUtf8, false},
		{"lists equal", ListOf(Int32), ListOf(Int32), true},
		{"lists differ in child", ListOf(Int32), ListOf(Float64), false},
		{"list vs large list", ListOf(Int32), LargeListOf(Int32), false},
		{
			"structs equal",
			StructOf(Field{Name: "a", Type: Int8}, Field{Name: "b", Type: Utf8}),
			StructOf(Field{Name: "a", Type: Int8}, Field{Name: "b", Type: Utf8}),
			true,
		},
		{
			"struct field order matters",
			StructOf(Field{Name: "a", Type: Int8}, Field{Name: "b", Type: Utf8}),
			StructOf(Field{Name: "b", Type: Utf8}, Field{Name: "a", Type: Int8}),
			false,
		},
		{
			"nested struct child differs",
			StructOf(Field{Name: "a", Type: ListOf(Int8)}),
			StructOf(Field{Name: "a", Type: ListOf(Int16)}),
			false,
		},
		{"dictionary equal", DictionaryOf(Int32, Utf8), DictionaryOf(Int32, Utf8), true},
		{"dictionary index differs", DictionaryOf(Int8, Utf8), DictionaryOf(Int32, Utf8), false},
		{"timestamp unit differs", TimestampOf(Second, ""), TimestampOf(Millisecond, ""), false},
		{"timestamp tz differs", TimestampOf(Second, "UTC"), TimestampOf(Second, ""), false},
		{"nil", nil, Int8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
		})
	}
}

func TestLogicalEqual(t *testing.T) {
	assert.True(t, LogicalEqual(DictionaryOf(Int8, Utf8), DictionaryOf(Int32, Utf8)))
	assert.True(t, LogicalEqual(DictionaryOf(Int8, Utf8), Utf8))
	assert.True(t, LogicalEqual(ListOf(DictionaryOf(Int16, Int64)), ListOf(Int64)))
	assert.False(t, LogicalEqual(DictionaryOf(Int8, Utf8), LargeUtf8))

	st := StructOf(Field{Name: "c", Type: DictionaryOf(Uint8, Utf8)})
	assert.True(t, LogicalEqual(st, StructOf(Field{Name: "c", Type: Utf8, Nullable: true})))
}

func TestDictionaryMaxIndex(t *testing.T) {
	assert.Equal(t, int64(127), DictionaryOf(Int8, Utf8).MaxIndex())
	assert.Equal(t, int64(255), DictionaryOf(Uint8, Utf8).MaxIndex())
	assert.Equal(t, int64(1<<31-1), DictionaryOf(Int32, Utf8).MaxIndex())
	assert.Panics(t, func() { DictionaryOf(Float32, Utf8) })
}

func TestTimeUnit(t *testing.T) {
	assert.Equal(t, int64(1), Second.Multiplier())
	assert.Equal(t, int64(1_000_000_000), Nanosecond.Multiplier())

	u, err := ParseTimeUnit("us")
	require.NoError(t, err)
	assert.Equal(t, Microsecond, u)

	_, err = ParseTimeUnit("minutes")
	assert.Error(t, err)
}

func TestByteWidth(t *testing.T) {
	assert.Equal(t, 1, ByteWidth(Int8))
	assert.Equal(t, 8, ByteWidth(Float64))
	assert.Equal(t, 8, ByteWidth(TimestampOf(Second, "")))
	assert.Equal(t, 2, ByteWidth(DictionaryOf(Int16, Utf8)))
	assert.Equal(t, -1, ByteWidth(Utf8))
	assert.Equal(t, -1, ByteWidth(Boolean))
}

func TestDescriptorRoundTrip(t *testing.T) {
	types := []Type{
		Null, Boolean, Int8, Uint32, Float64, Utf8, LargeUtf8, Date32,
		TimestampOf(Microsecond, "Asia/Tokyo"),
		ListOf(Int32),
		LargeListOf(ListOf(Utf8)),
		&DictionaryType{Index: Int16, Value: Utf8, Ordered: true},
		StructOf(
			Field{Name: "id", Type: Int64},
			Field{Name: "name", Type: DictionaryOf(Int32, Utf8), Nullable: true},
			Field{Name: "scores", Type: ListOf(Float32), Nullable: true},
		),
	}

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			got, err := FromDescriptor(ToDescriptor(typ))
			require.NoError(t, err)
			assert.True(t, Equal(typ, got), "got %s", got)
		})
	}
}

func TestFromDescriptorErrors(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
	}{
		{"unknown", Descriptor{Type: "decimal"}},
		{"list without elem", Descriptor{Type: "list"}},
		{"bad unit", Descriptor{Type: "timestamp", Unit: "h"}},
		{"dictionary without value", Descriptor{Type: "dictionary", Index: &Descriptor{Type: "int8"}}},
		{"float index", Descriptor{Type: "dictionary", Index: &Descriptor{Type: "float32"}, Value: &Descriptor{Type: "utf8"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDescriptor(tt.desc)
			assert.Error(t, err)
		})
	}
}
