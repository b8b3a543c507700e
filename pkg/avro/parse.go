package avro

import (
	"fmt"
	"math"
	"math/big"

	hamba "github.com/hamba/avro/v2"
)

// ParseError reports a schema document that is not a valid Avro schema.
type ParseError struct {
	// Path is the location of the offending node, e.g. "Order.items[]".
	Path string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path == "" {
		return "avro schema: " + msg
	}
	return fmt.Sprintf("avro schema: %s: %s", e.Path, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseSchema parses the JSON form of an Avro schema. The document is parsed
// by hamba/avro against a private schema cache, so named types declared by
// earlier documents never leak into this one, and then handed to Convert.
func ParseSchema(data []byte) (Schema, error) {
	s, err := hamba.ParseBytesWithCache(data, "", &hamba.SchemaCache{})
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return Convert(s)
}

// MustParseSchema is like ParseSchema but panics on error. It is intended for
// schemas embedded in programs and tests.
func MustParseSchema(data string) Schema {
	s, err := ParseSchema([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// Convert builds the schema model from a schema parsed by hamba/avro, such as
// the writer schema of an object container file.
//
// Every named type becomes exactly one node: later references and self
// references inside a record resolve to the node of its declaration.
// Logical annotations hamba does not recognise, or rejects, are carried over
// from the schema properties so that they can be reported instead of being
// silently ignored.
func Convert(s hamba.Schema) (Schema, error) {
	c := converter{names: make(map[string]Schema)}
	return c.convert(s, "")
}

type converter struct {
	names map[string]Schema
}

var primitives = map[hamba.Type]Type{
	hamba.Boolean: TypeBoolean,
	hamba.Int:     TypeInt,
	hamba.Long:    TypeLong,
	hamba.Float:   TypeFloat,
	hamba.Double:  TypeDouble,
	hamba.Bytes:   TypeBytes,
	hamba.String:  TypeString,
}

func (c *converter) convert(s hamba.Schema, path string) (Schema, error) {
	switch s := s.(type) {
	case *hamba.NullSchema:
		return NewPrimitive(TypeNull), nil

	case *hamba.PrimitiveSchema:
		kind, ok := primitives[s.Type()]
		if !ok {
			return nil, &ParseError{Path: path, Msg: fmt.Sprintf("unexpected primitive %q", s.Type())}
		}
		return &PrimitiveSchema{Kind: kind, Logical: logicalType(s.Logical(), s)}, nil

	case *hamba.ArraySchema:
		items, err := c.convert(s.Items(), path+"[]")
		if err != nil {
			return nil, err
		}
		return &ArraySchema{Items: items}, nil

	case *hamba.MapSchema:
		values, err := c.convert(s.Values(), path+"{}")
		if err != nil {
			return nil, err
		}
		return &MapSchema{Values: values}, nil

	case *hamba.UnionSchema:
		u := &UnionSchema{Branches: make([]Schema, 0, len(s.Types()))}
		for i, branch := range s.Types() {
			b, err := c.convert(branch, fmt.Sprintf("%s<%d>", path, i))
			if err != nil {
				return nil, err
			}
			u.Branches = append(u.Branches, b)
		}
		return u, nil

	case *hamba.RefSchema:
		return c.convert(s.Schema(), path)

	case *hamba.RecordSchema:
		if known, ok := c.names[s.FullName()]; ok {
			return known, nil
		}
		rec := &RecordSchema{Name: s.Name(), Namespace: s.Namespace(), Doc: s.Doc()}
		c.names[s.FullName()] = rec

		rec.Fields = make([]*Field, 0, len(s.Fields()))
		for _, f := range s.Fields() {
			typ, err := c.convert(f.Type(), joinPath(path, f.Name()))
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, &Field{Name: f.Name(), Doc: f.Doc(), Type: typ})
		}
		return rec, nil

	case *hamba.EnumSchema:
		if known, ok := c.names[s.FullName()]; ok {
			return known, nil
		}
		enum := &EnumSchema{Name: s.Name(), Namespace: s.Namespace(), Symbols: s.Symbols()}
		c.names[s.FullName()] = enum
		return enum, nil

	case *hamba.FixedSchema:
		if known, ok := c.names[s.FullName()]; ok {
			return known, nil
		}
		fixed := &FixedSchema{Name: s.Name(), Namespace: s.Namespace(), Size: s.Size(), Logical: logicalType(s.Logical(), s)}
		c.names[s.FullName()] = fixed
		return fixed, nil

	case nil:
		return nil, &ParseError{Path: path, Msg: "missing schema"}

	default:
		return nil, &ParseError{Path: path, Msg: fmt.Sprintf("unexpected schema node %T", s)}
	}
}

type propertied interface {
	Prop(string) any
}

// logicalType returns the logical annotation of a primitive or fixed schema.
// hamba only fills in the annotations it supports; anything else stays among
// the schema properties.
func logicalType(ls hamba.LogicalSchema, props propertied) *LogicalType {
	if ls != nil {
		lt := &LogicalType{Name: string(ls.Type())}
		if dec, ok := ls.(*hamba.DecimalLogicalSchema); ok {
			lt.Precision, lt.Scale = dec.Precision(), dec.Scale()
		}
		return lt
	}

	name, ok := props.Prop("logicalType").(string)
	if !ok {
		return nil
	}
	return &LogicalType{
		Name:      name,
		Precision: intProp(props.Prop("precision")),
		Scale:     intProp(props.Prop("scale")),
	}
}

// intProp returns the non-negative integer held by a schema property, 0 when
// the property is absent and -1 when it is not a non-negative integer.
func intProp(v any) int {
	var f float64
	switch v := v.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return -1
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}

// MaxFixedPrecision returns the number of base-10 digits that always fit in
// a signed two's-complement integer of size bytes.
func MaxFixedPrecision(size int) int {
	if size < 1 {
		return 0
	}
	maxValue := new(big.Int).Lsh(big.NewInt(1), uint(size)*8-1)
	maxValue.Sub(maxValue, big.NewInt(1))
	return len(maxValue.String()) - 1
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
