package rowsource

import (
	"encoding/binary"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/avro"
)

// fromNative converts a generically decoded hamba value (maps, slices, Go
// scalars, time.Time, *big.Rat, ...) into an avro.Value, guided by the writer
// schema s.
//
// Unions are accepted both in the wrapped form, map[string]any{"long": 1},
// and as the bare branch value; a bare value is matched against the branches
// in declaration order.
func fromNative(s avro.Schema, v any) (avro.Value, error) {
	switch s := s.(type) {
	case *avro.PrimitiveSchema:
		return primitiveFromNative(s, v)

	case *avro.FixedSchema:
		return fixedFromNative(s, v)

	case *avro.EnumSchema:
		sym, ok := v.(string)
		if !ok {
			return nil, unexpected(s, v)
		}
		idx := s.Index(sym)
		if idx < 0 {
			return nil, errors.Errorf("symbol %q is not part of enum %s", sym, s.FullName())
		}
		return avro.Enum{Symbol: sym, Index: idx}, nil

	case *avro.ArraySchema:
		if v == nil {
			return avro.Array{}, nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, unexpected(s, v)
		}
		items := make(avro.Array, rv.Len())
		for i := range items {
			item, err := fromNative(s.Items, rv.Index(i).Interface())
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			items[i] = item
		}
		return items, nil

	case *avro.MapSchema:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, unexpected(s, v)
		}
		out := make(avro.Map, len(m))
		for k, mv := range m {
			val, err := fromNative(s.Values, mv)
			if err != nil {
				return nil, errors.Wrapf(err, "key %q", k)
			}
			out[k] = val
		}
		return out, nil

	case *avro.RecordSchema:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, unexpected(s, v)
		}
		rec := avro.Record{Fields: make([]avro.NamedValue, len(s.Fields))}
		for i, f := range s.Fields {
			val, err := fromNative(f.Type, m[f.Name])
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", f.Name)
			}
			rec.Fields[i] = avro.NamedValue{Name: f.Name, Value: val}
		}
		return rec, nil

	case *avro.UnionSchema:
		return unionFromNative(s, v)
	}
	return nil, errors.Errorf("unknown schema node %T", s)
}

func unionFromNative(s *avro.UnionSchema, v any) (avro.Value, error) {
	if v == nil {
		if i := s.NullIndex(); i >= 0 {
			return avro.Union{Branch: i, Value: avro.Null{}}, nil
		}
		return nil, errors.Errorf("null for union %s without a null branch", s)
	}

	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for name, inner := range m {
			for i, b := range s.Branches {
				if !matchesBranch(b, name) {
					continue
				}
				if val, err := fromNative(b, inner); err == nil {
					return avro.Union{Branch: i, Value: val}, nil
				}
			}
		}
	}

	for i, b := range s.Branches {
		if b.Type() == avro.TypeNull {
			continue
		}
		if val, err := fromNative(b, v); err == nil {
			return avro.Union{Branch: i, Value: val}, nil
		}
	}
	return nil, errors.Errorf("%T matches no branch of union %s", v, s)
}

// matchesBranch reports whether name is one of the names a union can use to
// label branch b.
func matchesBranch(b avro.Schema, name string) bool {
	if name == avro.TypeName(b) {
		return true
	}
	switch b := b.(type) {
	case *avro.RecordSchema:
		return name == b.Name
	case *avro.EnumSchema:
		return name == b.Name
	case *avro.FixedSchema:
		return name == b.Name || (b.Logical != nil && name == "fixed."+b.Logical.Name)
	case *avro.PrimitiveSchema:
		return b.Logical != nil && name == b.Kind.String()+"."+b.Logical.Name
	}
	return false
}

func primitiveFromNative(s *avro.PrimitiveSchema, v any) (avro.Value, error) {
	if s.Logical != nil {
		if val, ok, err := logicalFromNative(s, v); ok || err != nil {
			return val, err
		}
	}

	switch s.Kind {
	case avro.TypeNull:
		if v == nil {
			return avro.Null{}, nil
		}
	case avro.TypeBoolean:
		if b, ok := v.(bool); ok {
			return avro.Boolean(b), nil
		}
	case avro.TypeInt:
		switch n := v.(type) {
		case int32:
			return avro.Int(n), nil
		case int:
			if n >= math.MinInt32 && n <= math.MaxInt32 {
				return avro.Int(n), nil
			}
		}
	case avro.TypeLong:
		switch n := v.(type) {
		case int64:
			return avro.Long(n), nil
		case int:
			return avro.Long(n), nil
		}
	case avro.TypeFloat:
		if f, ok := v.(float32); ok {
			return avro.Float(f), nil
		}
	case avro.TypeDouble:
		if f, ok := v.(float64); ok {
			return avro.Double(f), nil
		}
	case avro.TypeBytes:
		if b, ok := v.([]byte); ok {
			return avro.Bytes(b), nil
		}
	case avro.TypeString:
		if str, ok := v.(string); ok {
			return avro.String(str), nil
		}
	}
	return nil, unexpected(s, v)
}

// logicalFromNative converts the Go types hamba uses for logical values.
// ok is false when v is not one of them, in which case v is treated as the
// physical value.
func logicalFromNative(s *avro.PrimitiveSchema, v any) (val avro.Value, ok bool, err error) {
	switch v := v.(type) {
	case time.Time:
		switch s.Logical.Name {
		case avro.LogicalDate:
			return avro.Int(epochDays(v)), true, nil
		case avro.LogicalTimestampMillis, avro.LogicalLocalTimestampMillis:
			return avro.Long(v.UnixMilli()), true, nil
		case avro.LogicalTimestampMicros, avro.LogicalLocalTimestampMicros:
			return avro.Long(v.UnixMicro()), true, nil
		case avro.LogicalTimestampNanos, avro.LogicalLocalTimestampNanos:
			return avro.Long(v.UnixNano()), true, nil
		}

	case time.Duration:
		switch s.Logical.Name {
		case avro.LogicalTimeMillis:
			return avro.Int(v.Milliseconds()), true, nil
		case avro.LogicalTimeMicros:
			return avro.Long(v.Microseconds()), true, nil
		}

	case *big.Rat:
		if s.Kind == avro.TypeBytes && s.Logical.Name == avro.LogicalDecimal {
			unscaled, err := ratToUnscaled(v, s.Logical.Scale)
			if err != nil {
				return nil, true, err
			}
			b, err := avro.EncodeUnscaled(unscaled, 0)
			return avro.Bytes(b), true, err
		}
	}
	return nil, false, nil
}

func fixedFromNative(s *avro.FixedSchema, v any) (avro.Value, error) {
	if s.Logical != nil {
		switch s.Logical.Name {
		case avro.LogicalDecimal:
			if r, ok := v.(*big.Rat); ok {
				unscaled, err := ratToUnscaled(r, s.Logical.Scale)
				if err != nil {
					return nil, err
				}
				b, err := avro.EncodeUnscaled(unscaled, s.Size)
				if err != nil {
					return nil, err
				}
				return avro.Fixed(b), nil
			}
		case avro.LogicalDuration:
			if b, ok := durationBytes(v); ok {
				return avro.Fixed(b), nil
			}
		}
	}

	var out []byte
	switch b := v.(type) {
	case []byte:
		out = b
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Uint8 {
			return nil, unexpected(s, v)
		}
		out = make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
	}
	if len(out) != s.Size {
		return nil, errors.Errorf("fixed %s holds %d bytes, want %d", s.FullName(), len(out), s.Size)
	}
	return avro.Fixed(out), nil
}

// durationBytes encodes a struct with Months, Days and Milliseconds fields
// into the 12-byte Avro duration layout.
func durationBytes(v any) ([]byte, bool) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, false
	}
	out := make([]byte, 12)
	for i, name := range []string{"Months", "Days", "Milliseconds"} {
		f := rv.FieldByName(name)
		if !f.IsValid() || !f.CanUint() {
			return nil, false
		}
		binary.LittleEndian.PutUint32(out[i*4:], uint32(f.Uint()))
	}
	return out, true
}

// ratToUnscaled returns r * 10^scale, failing when the result is not an
// integer.
func ratToUnscaled(r *big.Rat, scale int) (*big.Int, error) {
	if scale < 0 {
		return nil, errors.Errorf("invalid decimal scale %d", scale)
	}
	n := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	n.Mul(n, r.Num())
	q, rem := new(big.Int).QuoRem(n, r.Denom(), new(big.Int))
	if rem.Sign() != 0 {
		return nil, errors.Errorf("decimal %s does not fit scale %d", r.RatString(), scale)
	}
	return q, nil
}

func epochDays(t time.Time) int32 {
	secs := t.Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return int32(days)
}

func unexpected(s avro.Schema, v any) error {
	return errors.Errorf("unexpected %T for %s", v, s)
}
