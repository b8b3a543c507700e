// Package avro models Avro schemas and decoded Avro values as closed sets of
// Go types.
//
// The package does not read or write the Avro binary encoding. Schemas are
// parsed by hamba/avro and converted with [Convert], or parsed from their JSON
// form with [ParseSchema]; values are produced by a row decoder (see package
// rowsource) and consumed by package columnar.
package avro

import (
	"fmt"
	"strings"
)

// Type identifies the kind of an Avro schema node or value.
type Type int

const (
	TypeNull Type = iota
	TypeBoolean
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeBytes
	TypeString
	TypeArray
	TypeMap
	TypeUnion
	TypeRecord
	TypeEnum
	TypeFixed
)

var typeNames = [...]string{
	TypeNull:    "null",
	TypeBoolean: "boolean",
	TypeInt:     "int",
	TypeLong:    "long",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeBytes:   "bytes",
	TypeString:  "string",
	TypeArray:   "array",
	TypeMap:     "map",
	TypeUnion:   "union",
	TypeRecord:  "record",
	TypeEnum:    "enum",
	TypeFixed:   "fixed",
}

// String returns the Avro name of t.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Names of the logical types understood by package columnar.
const (
	LogicalDate                 = "date"
	LogicalTimeMillis           = "time-millis"
	LogicalTimeMicros           = "time-micros"
	LogicalTimestampMillis      = "timestamp-millis"
	LogicalTimestampMicros      = "timestamp-micros"
	LogicalTimestampNanos       = "timestamp-nanos"
	LogicalLocalTimestampMillis = "local-timestamp-millis"
	LogicalLocalTimestampMicros = "local-timestamp-micros"
	LogicalLocalTimestampNanos  = "local-timestamp-nanos"
	LogicalDecimal              = "decimal"
	LogicalDuration             = "duration"
	LogicalUUID                 = "uuid"
)

// LogicalType is a logical-type annotation on a primitive or fixed schema.
//
// Precision is 0 when the annotation did not carry one. A precision or scale
// that was present but not a non-negative integer is recorded as -1 so that
// the translator can reject it.
type LogicalType struct {
	Name      string
	Precision int
	Scale     int
}

// Decimal returns a decimal logical type.
func Decimal(precision, scale int) *LogicalType {
	return &LogicalType{Name: LogicalDecimal, Precision: precision, Scale: scale}
}

// Logical returns a parameterless logical type.
func Logical(name string) *LogicalType {
	return &LogicalType{Name: name}
}

func (l *LogicalType) String() string {
	if l.Name == LogicalDecimal {
		return fmt.Sprintf("decimal(%d,%d)", l.Precision, l.Scale)
	}
	return l.Name
}

// Schema is a node of an Avro schema tree. The set of implementations is
// closed: *PrimitiveSchema, *ArraySchema, *MapSchema, *UnionSchema,
// *RecordSchema, *EnumSchema and *FixedSchema.
type Schema interface {
	// Type returns the kind of the node.
	Type() Type
	// String returns a compact, human readable form of the node.
	String() string

	isSchema()
}

// PrimitiveSchema is one of null, boolean, int, long, float, double, bytes or
// string, optionally annotated with a logical type.
type PrimitiveSchema struct {
	Kind    Type
	Logical *LogicalType
}

// NewPrimitive returns a primitive schema of kind t without a logical type.
func NewPrimitive(t Type) *PrimitiveSchema { return &PrimitiveSchema{Kind: t} }

func (s *PrimitiveSchema) Type() Type { return s.Kind }

func (s *PrimitiveSchema) String() string {
	if s.Logical != nil {
		return s.Kind.String() + "." + s.Logical.String()
	}
	return s.Kind.String()
}

// ArraySchema is an Avro array.
type ArraySchema struct {
	Items Schema
}

func (s *ArraySchema) Type() Type     { return TypeArray }
func (s *ArraySchema) String() string { return "array<" + s.Items.String() + ">" }

// MapSchema is an Avro map with string keys.
type MapSchema struct {
	Values Schema
}

func (s *MapSchema) Type() Type     { return TypeMap }
func (s *MapSchema) String() string { return "map<" + s.Values.String() + ">" }

// UnionSchema is an ordered set of alternative schemas.
type UnionSchema struct {
	Branches []Schema
}

func (s *UnionSchema) Type() Type { return TypeUnion }

func (s *UnionSchema) String() string {
	parts := make([]string, len(s.Branches))
	for i, b := range s.Branches {
		parts[i] = b.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NullIndex returns the index of the null branch, or -1.
func (s *UnionSchema) NullIndex() int {
	for i, b := range s.Branches {
		if b.Type() == TypeNull {
			return i
		}
	}
	return -1
}

// Field is a named member of a record.
type Field struct {
	Name string
	Doc  string
	Type Schema
}

// RecordSchema is an Avro record (or error) type.
type RecordSchema struct {
	Name      string
	Namespace string
	Doc       string
	Fields    []*Field
}

func (s *RecordSchema) Type() Type       { return TypeRecord }
func (s *RecordSchema) String() string   { return s.FullName() }
func (s *RecordSchema) FullName() string { return fullName(s.Namespace, s.Name) }

// EnumSchema is an Avro enum.
type EnumSchema struct {
	Name      string
	Namespace string
	Symbols   []string
}

func (s *EnumSchema) Type() Type       { return TypeEnum }
func (s *EnumSchema) String() string   { return s.FullName() }
func (s *EnumSchema) FullName() string { return fullName(s.Namespace, s.Name) }

// Index returns the position of symbol in the enum, or -1.
func (s *EnumSchema) Index(symbol string) int {
	for i, sym := range s.Symbols {
		if sym == symbol {
			return i
		}
	}
	return -1
}

// FixedSchema is an Avro fixed-size byte sequence.
type FixedSchema struct {
	Name      string
	Namespace string
	Size      int
	Logical   *LogicalType
}

func (s *FixedSchema) Type() Type       { return TypeFixed }
func (s *FixedSchema) String() string   { return s.FullName() }
func (s *FixedSchema) FullName() string { return fullName(s.Namespace, s.Name) }

func (*PrimitiveSchema) isSchema() {}
func (*ArraySchema) isSchema()     {}
func (*MapSchema) isSchema()       {}
func (*UnionSchema) isSchema()     {}
func (*RecordSchema) isSchema()    {}
func (*EnumSchema) isSchema()      {}
func (*FixedSchema) isSchema()     {}

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// TypeName returns the name a union uses to refer to s: the full name for
// named types and the type name otherwise.
func TypeName(s Schema) string {
	switch s := s.(type) {
	case *RecordSchema:
		return s.FullName()
	case *EnumSchema:
		return s.FullName()
	case *FixedSchema:
		return s.FullName()
	default:
		return s.Type().String()
	}
}
