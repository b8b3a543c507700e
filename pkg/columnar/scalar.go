package columnar

import (
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"
)

// Scalar is one coerced value, ready to be appended to the builder of the
// column it was coerced for. A nil Scalar is null.
//
// The set of implementations is closed. Each one fills a fixed group of Arrow
// types:
//
//	BoolScalar      BOOL
//	Int32Scalar     INT32, DATE32, TIME32
//	Int64Scalar     INT64, TIME64, TIMESTAMP
//	Float32Scalar   FLOAT32
//	Float64Scalar   FLOAT64
//	BinaryScalar    BINARY, FIXED_SIZE_BINARY
//	StringScalar    STRING
//	DecimalScalar   DECIMAL128, DECIMAL256
//	IntervalScalar  INTERVAL_MONTH_DAY_NANO
//	DictScalar      DICTIONARY
//	*ListScalar     LIST
//	*StructScalar   STRUCT
//	*UnionScalar    DENSE_UNION
type Scalar interface {
	isScalar()
}

type (
	BoolScalar    bool
	Int32Scalar   int32
	Int64Scalar   int64
	Float32Scalar float32
	Float64Scalar float64
	BinaryScalar  []byte
	StringScalar  string

	// DictScalar is an enum symbol. The builder maps it to a dictionary
	// index, adding it to the column dictionary if it is new.
	DictScalar string

	IntervalScalar arrow.MonthDayNanoInterval
)

// DecimalScalar holds the unscaled value of a decimal. The scale is a
// property of the column.
type DecimalScalar struct {
	Unscaled *big.Int
}

// ListScalar is the items of one list slot.
type ListScalar struct {
	Items []Scalar
}

// StructScalar holds one value per child field, in field order.
type StructScalar struct {
	Fields []Scalar
}

// UnionScalar is the value of one dense union slot together with the type
// code of the child it belongs to.
type UnionScalar struct {
	Code  arrow.UnionTypeCode
	Value Scalar
}

func (BoolScalar) isScalar()     {}
func (Int32Scalar) isScalar()    {}
func (Int64Scalar) isScalar()    {}
func (Float32Scalar) isScalar()  {}
func (Float64Scalar) isScalar()  {}
func (BinaryScalar) isScalar()   {}
func (StringScalar) isScalar()   {}
func (DictScalar) isScalar()     {}
func (IntervalScalar) isScalar() {}
func (DecimalScalar) isScalar()  {}
func (*ListScalar) isScalar()    {}
func (*StructScalar) isScalar()  {}
func (*UnionScalar) isScalar()   {}

// conforms reports whether s can be appended to a column described by f
// without breaking the column's type or nullability.
func conforms(s Scalar, f arrow.Field) bool {
	if s == nil {
		return f.Nullable || f.Type.ID() == arrow.NULL
	}

	switch dt := f.Type; dt.ID() {
	case arrow.BOOL:
		_, ok := s.(BoolScalar)
		return ok
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		_, ok := s.(Int32Scalar)
		return ok
	case arrow.INT64, arrow.TIME64, arrow.TIMESTAMP:
		_, ok := s.(Int64Scalar)
		return ok
	case arrow.FLOAT32:
		_, ok := s.(Float32Scalar)
		return ok
	case arrow.FLOAT64:
		_, ok := s.(Float64Scalar)
		return ok
	case arrow.BINARY:
		_, ok := s.(BinaryScalar)
		return ok
	case arrow.FIXED_SIZE_BINARY:
		b, ok := s.(BinaryScalar)
		return ok && len(b) == dt.(*arrow.FixedSizeBinaryType).ByteWidth
	case arrow.STRING:
		_, ok := s.(StringScalar)
		return ok
	case arrow.DICTIONARY:
		_, ok := s.(DictScalar)
		return ok
	case arrow.INTERVAL_MONTH_DAY_NANO:
		_, ok := s.(IntervalScalar)
		return ok
	case arrow.DECIMAL128, arrow.DECIMAL256:
		d, ok := s.(DecimalScalar)
		return ok && d.Unscaled != nil && fitsPrecision(d.Unscaled, dt.(arrow.DecimalType).GetPrecision())

	case arrow.LIST:
		l, ok := s.(*ListScalar)
		if !ok {
			return false
		}
		elem := dt.(*arrow.ListType).ElemField()
		for _, item := range l.Items {
			if !conforms(item, elem) {
				return false
			}
		}
		return true

	case arrow.STRUCT:
		st, ok := s.(*StructScalar)
		if !ok {
			return false
		}
		fields := dt.(*arrow.StructType).Fields()
		if len(st.Fields) != len(fields) {
			return false
		}
		for i, child := range st.Fields {
			if !conforms(child, fields[i]) {
				return false
			}
		}
		return true

	case arrow.DENSE_UNION:
		u, ok := s.(*UnionScalar)
		if !ok || u.Code < 0 {
			return false
		}
		ut := dt.(*arrow.DenseUnionType)
		idx := ut.ChildIDs()[u.Code]
		if idx < 0 || idx >= len(ut.Fields()) {
			return false
		}
		return conforms(u.Value, ut.Fields()[idx])
	}
	return false
}

// fitsPrecision reports whether x has at most precision decimal digits.
func fitsPrecision(x *big.Int, precision int32) bool {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	return new(big.Int).Abs(x).Cmp(limit) < 0
}

// scalarKind names the shape of s for error messages.
func scalarKind(s Scalar) string {
	switch s.(type) {
	case nil:
		return "null"
	case BoolScalar:
		return "bool"
	case Int32Scalar:
		return "int32"
	case Int64Scalar:
		return "int64"
	case Float32Scalar:
		return "float32"
	case Float64Scalar:
		return "float64"
	case BinaryScalar:
		return "binary"
	case StringScalar:
		return "string"
	case DictScalar:
		return "dictionary symbol"
	case IntervalScalar:
		return "interval"
	case DecimalScalar:
		return "decimal"
	case *ListScalar:
		return "list"
	case *StructScalar:
		return "struct"
	case *UnionScalar:
		return "union"
	}
	return "unknown"
}
