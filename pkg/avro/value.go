package avro

// Value is a decoded Avro datum. The set of implementations is closed and
// mirrors the schema kinds: Null, Boolean, Int, Long, Float, Double, Bytes,
// String, Array, Map, Union, Record, Enum and Fixed.
//
// Values hold the physical representation of logical types: a
// timestamp-millis datum is a Long holding milliseconds since the epoch, a
// decimal is the two's-complement big-endian unscaled integer.
type Value interface {
	Kind() Type

	isValue()
}

type (
	Null    struct{}
	Boolean bool
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	Bytes   []byte
	String  string
	Fixed   []byte

	// Array is the ordered item sequence of an Avro array.
	Array []Value

	// Map holds the entries of an Avro map.
	Map map[string]Value
)

// Union is a datum of a union schema. Branch is the index of the branch that
// was written.
type Union struct {
	Branch int
	Value  Value
}

// Enum is an enum symbol together with its position in the schema.
type Enum struct {
	Symbol string
	Index  int
}

// NamedValue is one field of a Record.
type NamedValue struct {
	Name  string
	Value Value
}

// Record is a decoded record. Fields are in schema declaration order.
type Record struct {
	Fields []NamedValue
}

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (Null) Kind() Type    { return TypeNull }
func (Boolean) Kind() Type { return TypeBoolean }
func (Int) Kind() Type     { return TypeInt }
func (Long) Kind() Type    { return TypeLong }
func (Float) Kind() Type   { return TypeFloat }
func (Double) Kind() Type  { return TypeDouble }
func (Bytes) Kind() Type   { return TypeBytes }
func (String) Kind() Type  { return TypeString }
func (Fixed) Kind() Type   { return TypeFixed }
func (Array) Kind() Type   { return TypeArray }
func (Map) Kind() Type     { return TypeMap }
func (Union) Kind() Type   { return TypeUnion }
func (Enum) Kind() Type    { return TypeEnum }
func (Record) Kind() Type  { return TypeRecord }

func (Null) isValue()    {}
func (Boolean) isValue() {}
func (Int) isValue()     {}
func (Long) isValue()    {}
func (Float) isValue()   {}
func (Double) isValue()  {}
func (Bytes) isValue()   {}
func (String) isValue()  {}
func (Fixed) isValue()   {}
func (Array) isValue()   {}
func (Map) isValue()     {}
func (Union) isValue()   {}
func (Enum) isValue()    {}
func (Record) isValue()  {}
