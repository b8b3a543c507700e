// Package columnar turns Avro schemas and decoded Avro values into Arrow
// schemas and Arrow arrays.
//
// The pieces are used in order: [Translate] once per source, then for every
// row [Coerce] each field value and stage it in a [ColumnBuilder], and finally
// [Assemble] the arrays taken from the builder into a record.
package columnar

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

// Metadata keys written by Translate.
const (
	MetadataDoc         = "avro::doc"
	MetadataName        = "avro::name"
	MetadataSymbols     = "avro::symbols"
	MetadataLogicalType = "avro::logicalType"
)

const (
	maxDecimalPrecision    = 76
	maxDecimal128Precision = 38
	maxUnionBranches       = 127
)

// Translate converts an Avro schema into an Arrow schema. The top-level
// schema must be a record; its fields become the top-level columns in
// declaration order.
//
// Translate fails with a *SchemaError as soon as any part of the schema
// cannot be represented.
func Translate(s avro.Schema) (*arrow.Schema, error) {
	rec, ok := s.(*avro.RecordSchema)
	if !ok {
		return nil, schemaErr("", ErrUnsupported, "top-level %s, want record", s.Type())
	}

	t := translator{visiting: make(map[*avro.RecordSchema]struct{})}
	fields, err := t.record(rec, "")
	if err != nil {
		return nil, err
	}

	keys := []string{MetadataName}
	values := []string{rec.FullName()}
	if rec.Doc != "" {
		keys = append(keys, MetadataDoc)
		values = append(values, rec.Doc)
	}
	md := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(fields, &md), nil
}

type translator struct {
	// visiting holds the records on the current path, for cycle detection.
	visiting map[*avro.RecordSchema]struct{}
}

// resolved is the outcome of translating one schema node.
type resolved struct {
	typ      arrow.DataType
	nullable bool
	keys     []string
	values   []string
}

func (r resolved) field(name string) arrow.Field {
	f := arrow.Field{Name: name, Type: r.typ, Nullable: r.nullable}
	if len(r.keys) > 0 {
		f.Metadata = arrow.NewMetadata(r.keys, r.values)
	}
	return f
}

func (r *resolved) annotate(key, value string) {
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func (t *translator) record(rec *avro.RecordSchema, path string) ([]arrow.Field, error) {
	if _, ok := t.visiting[rec]; ok {
		return nil, schemaErr(path, ErrUnsupported, "recursive record %s", rec.FullName())
	}
	t.visiting[rec] = struct{}{}
	defer delete(t.visiting, rec)

	seen := make(map[string]struct{}, len(rec.Fields))
	fields := make([]arrow.Field, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		fieldPath := joinPath(path, f.Name)
		if _, dup := seen[f.Name]; dup {
			return nil, schemaErr(fieldPath, ErrDuplicateField, "%q in record %s", f.Name, rec.FullName())
		}
		seen[f.Name] = struct{}{}

		r, err := t.resolve(f.Type, fieldPath)
		if err != nil {
			return nil, err
		}
		if f.Doc != "" {
			r.annotate(MetadataDoc, f.Doc)
		}
		fields = append(fields, r.field(f.Name))
	}
	return fields, nil
}

func (t *translator) resolve(s avro.Schema, path string) (resolved, error) {
	switch s := s.(type) {
	case *avro.PrimitiveSchema:
		return primitive(s, path)

	case *avro.ArraySchema:
		item, err := t.resolve(s.Items, path+"[]")
		if err != nil {
			return resolved{}, err
		}
		return resolved{typ: arrow.ListOfField(item.field("item"))}, nil

	case *avro.MapSchema:
		return resolved{}, schemaErr(path, ErrUnsupported, "map")

	case *avro.UnionSchema:
		return t.union(s, path)

	case *avro.RecordSchema:
		fields, err := t.record(s, path)
		if err != nil {
			return resolved{}, err
		}
		return resolved{typ: arrow.StructOf(fields...)}, nil

	case *avro.EnumSchema:
		r := resolved{typ: &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int32,
			ValueType: arrow.BinaryTypes.String,
		}}
		r.annotate(MetadataSymbols, strings.Join(s.Symbols, ","))
		return r, nil

	case *avro.FixedSchema:
		if s.Logical != nil {
			return fixedLogical(s, path)
		}
		return resolved{typ: &arrow.FixedSizeBinaryType{ByteWidth: s.Size}}, nil

	default:
		return resolved{}, schemaErr(path, ErrUnsupported, "%T", s)
	}
}

func (t *translator) union(u *avro.UnionSchema, path string) (resolved, error) {
	if len(u.Branches) == 0 {
		return resolved{}, schemaErr(path, ErrUnsupported, "empty union")
	}

	var nonNull []avro.Schema
	for _, b := range u.Branches {
		if b.Type() == avro.TypeUnion {
			return resolved{}, schemaErr(path, ErrUnsupported, "nested union")
		}
		if b.Type() != avro.TypeNull {
			nonNull = append(nonNull, b)
		}
	}
	hasNull := len(nonNull) < len(u.Branches)

	switch len(nonNull) {
	case 0:
		return resolved{typ: arrow.Null, nullable: true}, nil
	case 1:
		r, err := t.resolve(nonNull[0], path)
		if err != nil {
			return resolved{}, err
		}
		r.nullable = r.nullable || hasNull
		return r, nil
	}

	if len(u.Branches) > maxUnionBranches {
		return resolved{}, schemaErr(path, ErrUnsupported, "union with %d branches", len(u.Branches))
	}

	// Two or more non-null branches: keep every branch, in order, as a child
	// of a dense union whose type codes are the branch indexes.
	children := make([]arrow.Field, len(u.Branches))
	codes := make([]arrow.UnionTypeCode, len(u.Branches))
	for i, b := range u.Branches {
		name := avro.TypeName(b)
		r, err := t.resolve(b, fmt.Sprintf("%s<%s>", path, name))
		if err != nil {
			return resolved{}, err
		}
		children[i] = r.field(name)
		codes[i] = arrow.UnionTypeCode(i)
	}
	return resolved{typ: arrow.DenseUnionOf(children, codes), nullable: hasNull}, nil
}

func primitive(s *avro.PrimitiveSchema, path string) (resolved, error) {
	if s.Logical != nil {
		return primitiveLogical(s, path)
	}
	switch s.Kind {
	case avro.TypeNull:
		return resolved{typ: arrow.Null, nullable: true}, nil
	case avro.TypeBoolean:
		return resolved{typ: arrow.FixedWidthTypes.Boolean}, nil
	case avro.TypeInt:
		return resolved{typ: arrow.PrimitiveTypes.Int32}, nil
	case avro.TypeLong:
		return resolved{typ: arrow.PrimitiveTypes.Int64}, nil
	case avro.TypeFloat:
		return resolved{typ: arrow.PrimitiveTypes.Float32}, nil
	case avro.TypeDouble:
		return resolved{typ: arrow.PrimitiveTypes.Float64}, nil
	case avro.TypeBytes:
		return resolved{typ: arrow.BinaryTypes.Binary}, nil
	case avro.TypeString:
		return resolved{typ: arrow.BinaryTypes.String}, nil
	}
	return resolved{}, schemaErr(path, ErrUnsupported, "primitive %s", s.Kind)
}

func primitiveLogical(s *avro.PrimitiveSchema, path string) (resolved, error) {
	lt := s.Logical
	invalid := func() (resolved, error) {
		return resolved{}, schemaErr(path, ErrInvalidLogicalType, "%s on %s", lt.Name, s.Kind)
	}

	switch s.Kind {
	case avro.TypeInt:
		switch lt.Name {
		case avro.LogicalDate:
			return resolved{typ: arrow.FixedWidthTypes.Date32}, nil
		case avro.LogicalTimeMillis:
			return resolved{typ: arrow.FixedWidthTypes.Time32ms}, nil
		}

	case avro.TypeLong:
		switch lt.Name {
		case avro.LogicalTimeMicros:
			return resolved{typ: arrow.FixedWidthTypes.Time64us}, nil
		case avro.LogicalTimestampMillis:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}}, nil
		case avro.LogicalTimestampMicros:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}}, nil
		case avro.LogicalTimestampNanos:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}}, nil
		case avro.LogicalLocalTimestampMillis:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Millisecond}}, nil
		case avro.LogicalLocalTimestampMicros:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Microsecond}}, nil
		case avro.LogicalLocalTimestampNanos:
			return resolved{typ: &arrow.TimestampType{Unit: arrow.Nanosecond}}, nil
		}

	case avro.TypeBytes:
		if lt.Name == avro.LogicalDecimal {
			return decimal(lt, maxDecimalPrecision, path)
		}

	case avro.TypeString:
		if lt.Name == avro.LogicalUUID {
			r := resolved{typ: arrow.BinaryTypes.String}
			r.annotate(MetadataLogicalType, lt.Name)
			return r, nil
		}
	}
	return invalid()
}

func fixedLogical(s *avro.FixedSchema, path string) (resolved, error) {
	switch s.Logical.Name {
	case avro.LogicalDecimal:
		return decimal(s.Logical, avro.MaxFixedPrecision(s.Size), path)
	case avro.LogicalDuration:
		if s.Size != 12 {
			return resolved{}, schemaErr(path, ErrInvalidLogicalType, "duration on fixed(%d), want fixed(12)", s.Size)
		}
		return resolved{typ: arrow.FixedWidthTypes.MonthDayNanoInterval}, nil
	}
	return resolved{}, schemaErr(path, ErrInvalidLogicalType, "%s on fixed", s.Logical.Name)
}

func decimal(lt *avro.LogicalType, maxPrecision int, path string) (resolved, error) {
	p, s := lt.Precision, lt.Scale
	switch {
	case p < 1 || p > maxDecimalPrecision:
		return resolved{}, schemaErr(path, ErrInvalidLogicalType, "decimal precision %d", p)
	case p > maxPrecision:
		return resolved{}, schemaErr(path, ErrInvalidLogicalType, "decimal precision %d exceeds %d for its storage", p, maxPrecision)
	case s < 0 || s > p:
		return resolved{}, schemaErr(path, ErrInvalidLogicalType, "decimal scale %d with precision %d", s, p)
	}

	if p <= maxDecimal128Precision {
		return resolved{typ: &arrow.Decimal128Type{Precision: int32(p), Scale: int32(s)}}, nil
	}
	return resolved{typ: &arrow.Decimal256Type{Precision: int32(p), Scale: int32(s)}}, nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
