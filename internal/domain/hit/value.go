package hit

// Kind enumerates the shapes a hit field value can take.
type Kind int

const (
	// KindOther is any value the reconciler does not rewrite (numbers, booleans, nulls, mixed lists).
	KindOther Kind = iota
	// KindString is a single string.
	KindString
	// KindList is a list of strings.
	KindList
	// KindObject is a nested mapping.
	KindObject
)

// Value is a typed field value: string, list of strings, nested object or other.
type Value struct {
	kind Kind
	str  string
	list []string
	obj  map[string]Value
	raw  any
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List creates a list-of-string value.
func List(ss []string) Value { return Value{kind: KindList, list: ss} }

// Object creates a nested object value.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Other wraps a value that is kept as-is.
func Other(v any) Value { return Value{kind: KindOther, raw: v} }

// FromAny converts a decoded JSON value into a typed Value.
// Lists are KindList only when every element is a string.
func FromAny(v any) Value {
	switch t := v.(type) {
	case string:
		return String(t)
	case []string:
		return List(t)
	case []any:
		ss := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return Other(t)
			}
			ss[i] = s
		}
		return List(ss)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Object(m)
	default:
		return Other(v)
	}
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string of a KindString value.
func (v Value) Str() string { return v.str }

// Strings returns the elements of a KindList value.
func (v Value) Strings() []string { return v.list }

// Fields returns the members of a KindObject value.
func (v Value) Fields() map[string]Value { return v.obj }

// Any converts the value back into plain JSON-encodable data.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.Any()
		}
		return m
	default:
		return v.raw
	}
}

// clone copies the value deep enough that writes to the copy never reach the original.
func (v Value) clone() Value {
	switch v.kind {
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return List(out)
	case KindObject:
		m := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			m[k] = e.clone()
		}
		return Object(m)
	default:
		return v
	}
}
