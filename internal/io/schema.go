package io

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"

	"github.com/paveg/colframe/internal/datatype"
	"github.com/paveg/colframe/internal/errors"
	"github.com/paveg/colframe/internal/table"
	"github.com/paveg/colframe/internal/version"
)

// Metadata keys written next to the data. schemaKey holds the colframe
// schema as JSON; writerKey names the build that wrote the file.
const (
	schemaKey = "colframe.schema"
	writerKey = "colframe.writer"
)

func encodeSchema(s *table.Schema) (string, error) {
	fields := make([]datatype.FieldDescriptor, s.NumFields())
	for i := range fields {
		f := s.Field(i)
		fields[i] = datatype.FieldDescriptor{Name: f.Name, Nullable: f.Nullable, Type: datatype.ToDescriptor(f.Type)}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSchema(raw string) (*table.Schema, error) {
	var descs []datatype.FieldDescriptor
	if err := json.Unmarshal([]byte(raw), &descs); err != nil {
		return nil, errors.NewInvalidInputError("decodeSchema", "malformed "+schemaKey+" metadata: "+err.Error())
	}
	fields := make([]datatype.Field, len(descs))
	for i, d := range descs {
		t, err := datatype.FromDescriptor(d.Type)
		if err != nil {
			return nil, errors.NewInvalidInputError("decodeSchema", err.Error()).WithColumn(d.Name)
		}
		fields[i] = datatype.Field{Name: d.Name, Type: t, Nullable: d.Nullable}
	}
	return table.NewSchema(fields...), nil
}

// schemaMetadata records t's schema for restoreSchema.
func schemaMetadata(t *table.Table) (arrow.Metadata, error) {
	raw, err := encodeSchema(t.Schema())
	if err != nil {
		return arrow.Metadata{}, err
	}
	return arrow.NewMetadata([]string{schemaKey, writerKey}, []string{raw, version.UserAgent()}), nil
}

// restoreSchema casts the columns of t back to the recorded schema where a
// format stored them under a different type. It takes ownership of t.
func restoreSchema(t *table.Table, raw string, ok bool) (*table.Table, error) {
	if !ok {
		return t, nil
	}
	want, err := decodeSchema(raw)
	if err != nil {
		t.Release()
		return nil, err
	}
	return conform(t, want)
}

// conform casts t to want unless it already matches. It takes ownership of
// t.
func conform(t *table.Table, want *table.Schema) (*table.Table, error) {
	if want.Equal(t.Schema()) {
		return t, nil
	}
	defer t.Release()
	return t.CastTo(context.Background(), want)
}
