package columnar

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

// Coerce converts a decoded value into a Scalar for the column described by
// field. A nil value is treated as a missing (null) value.
//
// Numeric coercion is exact width: an avro.Int only fills 32-bit columns and
// an avro.Long only 64-bit columns. Any shape mismatch, including a null in a
// non-nullable column, is reported as a *TypeMismatchError carrying the dotted
// path of the offending value.
func Coerce(v avro.Value, field arrow.Field) (Scalar, error) {
	return coerce(v, field, field.Name)
}

func coerce(v avro.Value, f arrow.Field, path string) (Scalar, error) {
	dt := f.Type

	if u, ok := v.(avro.Union); ok && dt.ID() != arrow.DENSE_UNION {
		v = u.Value
	}
	if v == nil || v.Kind() == avro.TypeNull {
		return coerceNull(v, f, path)
	}

	switch dt.ID() {
	case arrow.BOOL:
		if b, ok := v.(avro.Boolean); ok {
			return BoolScalar(b), nil
		}
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		if i, ok := v.(avro.Int); ok {
			return Int32Scalar(i), nil
		}
	case arrow.INT64, arrow.TIME64, arrow.TIMESTAMP:
		if l, ok := v.(avro.Long); ok {
			return Int64Scalar(l), nil
		}
	case arrow.FLOAT32:
		if x, ok := v.(avro.Float); ok {
			return Float32Scalar(x), nil
		}
	case arrow.FLOAT64:
		if x, ok := v.(avro.Double); ok {
			return Float64Scalar(x), nil
		}
	case arrow.BINARY:
		if b, ok := v.(avro.Bytes); ok {
			return BinaryScalar(b), nil
		}
	case arrow.STRING:
		if s, ok := v.(avro.String); ok {
			return StringScalar(s), nil
		}
	case arrow.FIXED_SIZE_BINARY:
		width := dt.(*arrow.FixedSizeBinaryType).ByteWidth
		if b, ok := v.(avro.Fixed); ok {
			if len(b) == width {
				return BinaryScalar(b), nil
			}
			return nil, mismatch(path, dt, fmt.Sprintf("fixed[%d]", len(b)))
		}
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return coerceDecimal(v, dt.(arrow.DecimalType), path)
	case arrow.INTERVAL_MONTH_DAY_NANO:
		return coerceDuration(v, dt, path)
	case arrow.DICTIONARY:
		return coerceEnum(v, f, path)
	case arrow.LIST:
		return coerceList(v, dt.(*arrow.ListType), path)
	case arrow.STRUCT:
		return coerceStruct(v, dt.(*arrow.StructType), path)
	case arrow.DENSE_UNION:
		return coerceUnion(v, dt.(*arrow.DenseUnionType), path)
	}
	return nil, mismatch(path, dt, v.Kind().String())
}

func coerceNull(v avro.Value, f arrow.Field, path string) (Scalar, error) {
	got := "null"
	if v == nil {
		got = "missing value"
	}

	switch {
	case f.Type.ID() == arrow.NULL:
		return nil, nil
	case f.Type.ID() == arrow.DENSE_UNION:
		// A null inside a dense union lives in the null child.
		ut := f.Type.(*arrow.DenseUnionType)
		for i, child := range ut.Fields() {
			if child.Type.ID() == arrow.NULL {
				return &UnionScalar{Code: ut.TypeCodes()[i]}, nil
			}
		}
	case f.Nullable:
		return nil, nil
	}
	return nil, mismatch(path, f.Type, got)
}

func coerceDecimal(v avro.Value, dt arrow.DecimalType, path string) (Scalar, error) {
	var raw []byte
	switch v := v.(type) {
	case avro.Bytes:
		raw = v
	case avro.Fixed:
		raw = v
	default:
		return nil, mismatch(path, dt, v.Kind().String())
	}

	unscaled := avro.DecodeUnscaled(raw)
	if !fitsPrecision(unscaled, dt.GetPrecision()) {
		digits := len(new(big.Int).Abs(unscaled).String())
		return nil, mismatch(path, dt, fmt.Sprintf("decimal with %d digits", digits))
	}
	return DecimalScalar{Unscaled: unscaled}, nil
}

// coerceDuration decodes the Avro duration layout: three little-endian
// unsigned 32-bit integers holding months, days and milliseconds.
func coerceDuration(v avro.Value, dt arrow.DataType, path string) (Scalar, error) {
	b, ok := v.(avro.Fixed)
	if !ok {
		return nil, mismatch(path, dt, v.Kind().String())
	}
	if len(b) != 12 {
		return nil, mismatch(path, dt, fmt.Sprintf("fixed[%d]", len(b)))
	}
	months := binary.LittleEndian.Uint32(b[0:4])
	days := binary.LittleEndian.Uint32(b[4:8])
	millis := binary.LittleEndian.Uint32(b[8:12])
	if months > math.MaxInt32 || days > math.MaxInt32 {
		return nil, mismatch(path, dt, "duration out of range")
	}
	return IntervalScalar{
		Months:      int32(months),
		Days:        int32(days),
		Nanoseconds: int64(millis) * 1_000_000,
	}, nil
}

func coerceEnum(v avro.Value, f arrow.Field, path string) (Scalar, error) {
	e, ok := v.(avro.Enum)
	if !ok {
		return nil, mismatch(path, f.Type, v.Kind().String())
	}
	if syms := symbolsOf(f.Metadata); syms != nil && !syms.contains(e.Symbol) {
		return nil, mismatch(path, f.Type, fmt.Sprintf("unknown enum symbol %q", e.Symbol))
	}
	return DictScalar(e.Symbol), nil
}

func coerceList(v avro.Value, dt *arrow.ListType, path string) (Scalar, error) {
	arr, ok := v.(avro.Array)
	if !ok {
		return nil, mismatch(path, dt, v.Kind().String())
	}
	elem := dt.ElemField()
	items := make([]Scalar, len(arr))
	for i, item := range arr {
		s, err := coerce(item, elem, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		items[i] = s
	}
	return &ListScalar{Items: items}, nil
}

func coerceStruct(v avro.Value, dt *arrow.StructType, path string) (Scalar, error) {
	rec, ok := v.(avro.Record)
	if !ok {
		return nil, mismatch(path, dt, v.Kind().String())
	}
	fields := dt.Fields()
	out := make([]Scalar, len(fields))
	for i, f := range fields {
		s, err := coerce(FieldValue(rec, i, f.Name), f, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return &StructScalar{Fields: out}, nil
}

func coerceUnion(v avro.Value, dt *arrow.DenseUnionType, path string) (Scalar, error) {
	u, ok := v.(avro.Union)
	if !ok {
		return nil, mismatch(path, dt, v.Kind().String())
	}
	children := dt.Fields()
	if u.Branch < 0 || u.Branch >= len(children) {
		return nil, mismatch(path, dt, fmt.Sprintf("union branch %d", u.Branch))
	}
	child := children[u.Branch]
	s, err := coerce(u.Value, child, fmt.Sprintf("%s<%s>", path, child.Name))
	if err != nil {
		return nil, err
	}
	return &UnionScalar{Code: dt.TypeCodes()[u.Branch], Value: s}, nil
}

// FieldValue returns the value of the field at position i of a record that
// is expected to carry name there, falling back to a lookup by name. It
// returns nil when the record has no such field.
func FieldValue(rec avro.Record, i int, name string) avro.Value {
	if i < len(rec.Fields) && rec.Fields[i].Name == name {
		return rec.Fields[i].Value
	}
	v, _ := rec.Get(name)
	return v
}

func mismatch(path string, expected arrow.DataType, got string) *TypeMismatchError {
	return &TypeMismatchError{Path: path, Expected: expected, Got: got}
}
