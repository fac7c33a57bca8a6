package field

import "strconv"

// Value is a nullable field value. The zero Value is Null.
type Value struct {
	s     string
	valid bool
}

// Null is the absent value.
var Null = Value{}

// Some returns a present value, which may be the empty string.
func Some(s string) Value {
	return Value{s: s, valid: true}
}

// Valid reports whether the value is present.
func (v Value) Valid() bool { return v.valid }

// String returns the value, or "" for Null.
func (v Value) String() string { return v.s }

// IsEmpty reports whether the value is Null or the empty string.
func (v Value) IsEmpty() bool { return !v.valid || v.s == "" }

// Equal compares two values. Null only equals Null.
func (v Value) Equal(o Value) bool {
	return v.valid == o.valid && v.s == o.s
}

// GoString renders Null distinctly from the empty string in test failures.
func (v Value) GoString() string {
	if !v.valid {
		return "field.Null"
	}
	return "field.Some(" + strconv.Quote(v.s) + ")"
}

