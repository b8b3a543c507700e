package avro

import (
	"testing"

	hamba "github.com/hamba/avro/v2"
	"github.com/stretchr/testify/require"
)

func TestParseSchema_Record(t *testing.T) {
	s, err := ParseSchema([]byte(`{
		"type": "record",
		"name": "Order",
		"namespace": "com.acme",
		"doc": "an order",
		"fields": [
			{"name": "id", "type": "long", "doc": "primary key"},
			{"name": "note", "type": ["null", "string"]},
			{"name": "tags", "type": {"type": "array", "items": "string"}},
			{"name": "attrs", "type": {"type": "map", "values": "int"}}
		]
	}`))
	require.NoError(t, err)

	rec, ok := s.(*RecordSchema)
	require.True(t, ok)
	require.Equal(t, "com.acme.Order", rec.FullName())
	require.Equal(t, "an order", rec.Doc)
	require.Len(t, rec.Fields, 4)

	require.Equal(t, "id", rec.Fields[0].Name)
	require.Equal(t, "primary key", rec.Fields[0].Doc)
	require.Equal(t, TypeLong, rec.Fields[0].Type.Type())

	union, ok := rec.Fields[1].Type.(*UnionSchema)
	require.True(t, ok)
	require.Equal(t, 0, union.NullIndex())
	require.Equal(t, "[null, string]", union.String())

	require.Equal(t, "array<string>", rec.Fields[2].Type.String())
	require.Equal(t, "map<int>", rec.Fields[3].Type.String())
}

func TestParseSchema_LogicalTypes(t *testing.T) {
	for _, tc := range []struct {
		doc  string
		want LogicalType
	}{
		{`{"type": "int", "logicalType": "date"}`, LogicalType{Name: LogicalDate}},
		{`{"type": "long", "logicalType": "timestamp-micros"}`, LogicalType{Name: LogicalTimestampMicros}},
		{`{"type": "bytes", "logicalType": "decimal", "precision": 10, "scale": 2}`, LogicalType{Name: LogicalDecimal, Precision: 10, Scale: 2}},
		{`{"type": "bytes", "logicalType": "decimal", "precision": 4}`, LogicalType{Name: LogicalDecimal, Precision: 4}},
		{`{"type": "bytes", "logicalType": "decimal", "precision": "4"}`, LogicalType{Name: LogicalDecimal, Precision: -1}},
		{`{"type": "bytes", "logicalType": "decimal", "precision": 4, "scale": 5}`, LogicalType{Name: LogicalDecimal, Precision: 4, Scale: 5}},
		{`{"type": "long", "logicalType": "timestamp-nanos"}`, LogicalType{Name: LogicalTimestampNanos}},
		{`{"type": "long", "logicalType": "local-timestamp-nanos"}`, LogicalType{Name: LogicalLocalTimestampNanos}},
		{`{"type": "long", "logicalType": "date"}`, LogicalType{Name: LogicalDate}},
	} {
		t.Run(tc.doc, func(t *testing.T) {
			s, err := ParseSchema([]byte(tc.doc))
			require.NoError(t, err)
			prim, ok := s.(*PrimitiveSchema)
			require.True(t, ok)
			require.NotNil(t, prim.Logical)
			require.Equal(t, tc.want, *prim.Logical)
		})
	}
}

func TestParseSchema_FixedLogicalTypes(t *testing.T) {
	for _, tc := range []struct {
		doc  string
		want LogicalType
	}{
		{`{"type": "fixed", "name": "D", "size": 8, "logicalType": "decimal", "precision": 18, "scale": 4}`, LogicalType{Name: LogicalDecimal, Precision: 18, Scale: 4}},
		{`{"type": "fixed", "name": "D", "size": 2, "logicalType": "decimal", "precision": 5}`, LogicalType{Name: LogicalDecimal, Precision: 5}},
		{`{"type": "fixed", "name": "D", "size": 12, "logicalType": "duration"}`, LogicalType{Name: LogicalDuration}},
		{`{"type": "fixed", "name": "D", "size": 8, "logicalType": "duration"}`, LogicalType{Name: LogicalDuration}},
		{`{"type": "fixed", "name": "U", "size": 16, "logicalType": "uuid"}`, LogicalType{Name: LogicalUUID}},
	} {
		t.Run(tc.doc, func(t *testing.T) {
			s, err := ParseSchema([]byte(tc.doc))
			require.NoError(t, err)
			fixed, ok := s.(*FixedSchema)
			require.True(t, ok)
			require.NotNil(t, fixed.Logical)
			require.Equal(t, tc.want, *fixed.Logical)
		})
	}

	s, err := ParseSchema([]byte(`{"type": "fixed", "name": "H", "size": 4}`))
	require.NoError(t, err)
	require.Nil(t, s.(*FixedSchema).Logical)
}

func TestParseSchema_NamedReferences(t *testing.T) {
	s, err := ParseSchema([]byte(`{
		"type": "record",
		"name": "Line",
		"namespace": "geo",
		"fields": [
			{"name": "from", "type": {"type": "record", "name": "Point", "fields": [
				{"name": "x", "type": "double"},
				{"name": "y", "type": "double"}
			]}},
			{"name": "to", "type": "Point"},
			{"name": "via", "type": ["null", "geo.Point"]},
			{"name": "hash", "type": {"type": "fixed", "name": "MD5", "namespace": "crypto", "size": 16}},
			{"name": "other", "type": "crypto.MD5"},
			{"name": "next", "type": ["null", "Line"]}
		]
	}`))
	require.NoError(t, err)
	rec := s.(*RecordSchema)

	point := rec.Fields[0].Type
	require.Equal(t, "geo.Point", TypeName(point))
	require.Same(t, point, rec.Fields[1].Type)
	require.Same(t, point, rec.Fields[2].Type.(*UnionSchema).Branches[1])

	fixed, ok := rec.Fields[3].Type.(*FixedSchema)
	require.True(t, ok)
	require.Equal(t, "crypto.MD5", fixed.FullName())
	require.Equal(t, 16, fixed.Size)
	require.Same(t, fixed, rec.Fields[4].Type)

	// Self reference resolves to the record being defined.
	require.Same(t, rec, rec.Fields[5].Type.(*UnionSchema).Branches[1])
}

func TestConvert_MatchesParseSchema(t *testing.T) {
	const doc = `{
		"type": "record",
		"name": "Event",
		"namespace": "app",
		"fields": [
			{"name": "at", "type": {"type": "long", "logicalType": "timestamp-nanos"}},
			{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}},
			{"name": "prev", "type": ["null", "Kind"]},
			{"name": "amount", "type": {"type": "fixed", "name": "Amount", "size": 8, "logicalType": "decimal", "precision": 12, "scale": 2}},
			{"name": "children", "type": {"type": "array", "items": "Event"}}
		]
	}`

	hs, err := hamba.ParseWithCache(doc, "", &hamba.SchemaCache{})
	require.NoError(t, err)
	converted, err := Convert(hs)
	require.NoError(t, err)

	parsed, err := ParseSchema([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, parsed, converted)

	rec := converted.(*RecordSchema)
	require.Same(t, rec.Fields[1].Type, rec.Fields[2].Type.(*UnionSchema).Branches[1])
	require.Same(t, rec, rec.Fields[4].Type.(*ArraySchema).Items)
}

func TestMaxFixedPrecision(t *testing.T) {
	for size, want := range map[int]int{0: 0, 1: 2, 2: 4, 4: 9, 8: 18, 16: 38, 32: 76} {
		require.Equal(t, want, MaxFixedPrecision(size), "size %d", size)
	}
}

func TestParseSchema_Enum(t *testing.T) {
	s, err := ParseSchema([]byte(`{"type": "enum", "name": "Suit", "symbols": ["SPADES", "HEARTS"]}`))
	require.NoError(t, err)
	enum, ok := s.(*EnumSchema)
	require.True(t, ok)
	require.Equal(t, []string{"SPADES", "HEARTS"}, enum.Symbols)
	require.Equal(t, 1, enum.Index("HEARTS"))
	require.Equal(t, -1, enum.Index("CLUBS"))
}

func TestParseSchema_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid json":      `{"type": `,
		"unknown reference": `{"type": "record", "name": "R", "fields": [{"name": "a", "type": "Nope"}]}`,
		"missing fields":    `{"type": "record", "name": "R"}`,
		"unnamed record":    `{"type": "record", "fields": []}`,
		"array no items":    `{"type": "array"}`,
		"duplicate name":    `["null", {"type": "fixed", "name": "F", "size": 1}, {"type": "fixed", "name": "F", "size": 2}]`,
		"missing type":      `{"name": "x"}`,
		"number":            `12`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchema([]byte(doc))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			require.Error(t, perr.Unwrap())
		})
	}
}

func TestMustParseSchema_Panics(t *testing.T) {
	require.Panics(t, func() { MustParseSchema(`"nope"`) })
	require.Equal(t, TypeString, MustParseSchema(`"string"`).Type())
}
