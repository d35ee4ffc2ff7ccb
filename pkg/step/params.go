package step

import (
	"fmt"
	"strings"
)

// Unset returns the $ placeholder
func Unset() Param { return Param{Kind: KindUnset} }

// Derived returns the * placeholder
func Derived() Param { return Param{Kind: KindDerived} }

// Ref returns a reference to instance id
func Ref(id int) Param { return Param{Kind: KindRef, Ref: id} }

// String returns a string parameter, escaping quotes
func String(s string) Param {
	return Param{Kind: KindString, Str: strings.ReplaceAll(s, "'", "''")}
}

// Enum returns an enumeration parameter; the dots are added on write
func Enum(s string) Param { return Param{Kind: KindEnum, Str: s} }

// Bool returns the logical .T. or .F.
func Bool(b bool) Param {
	if b {
		return Enum("T")
	}
	return Enum("F")
}

// Integer returns an integer parameter
func Integer(i int64) Param { return Param{Kind: KindInteger, Int: i} }

// Real returns a real parameter
func Real(f float64) Param { return Param{Kind: KindReal, Real: f} }

// List returns an aggregate parameter
func List(items ...Param) Param {
	if items == nil {
		items = []Param{}
	}
	return Param{Kind: KindList, List: items}
}

// Refs returns an aggregate of references
func Refs(ids ...int) Param {
	items := make([]Param, len(ids))
	for i, id := range ids {
		items[i] = Ref(id)
	}
	return List(items...)
}

// Reals returns an aggregate of reals
func Reals(values ...float64) Param {
	items := make([]Param, len(values))
	for i, v := range values {
		items[i] = Real(v)
	}
	return List(items...)
}

// Typed returns a value of a defined type, such as LENGTH_MEASURE(1.)
func Typed(typ string, value Param) Param {
	return Param{Kind: KindTyped, Type: typ, List: []Param{value}}
}

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindDerived:
		return "derived"
	case KindRef:
		return "reference"
	case KindString:
		return "string"
	case KindEnum:
		return "enumeration"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindList:
		return "list"
	case KindTyped:
		return "typed value"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AsRef returns the referenced instance id
func (p Param) AsRef() (int, error) {
	if p.Kind != KindRef {
		return 0, fmt.Errorf("expected reference, got %s", p.Kind)
	}
	return p.Ref, nil
}

// AsFloat returns a numeric value. Integers are widened and typed values
// such as POSITIVE_LENGTH_MEASURE(2.) are unwrapped.
func (p Param) AsFloat() (float64, error) {
	switch p.Kind {
	case KindReal:
		return p.Real, nil
	case KindInteger:
		return float64(p.Int), nil
	case KindTyped:
		if len(p.List) == 1 {
			return p.List[0].AsFloat()
		}
	}
	return 0, fmt.Errorf("expected number, got %s", p.Kind)
}

// AsList returns the items of an aggregate
func (p Param) AsList() ([]Param, error) {
	if p.Kind != KindList {
		return nil, fmt.Errorf("expected list, got %s", p.Kind)
	}
	return p.List, nil
}

// AsRefs returns the ids of an aggregate of references
func (p Param) AsRefs() ([]int, error) {
	items, err := p.AsList()
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(items))
	for i, item := range items {
		if ids[i], err = item.AsRef(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return ids, nil
}

// AsFloats returns the values of a numeric aggregate
func (p Param) AsFloats() ([]float64, error) {
	items, err := p.AsList()
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(items))
	for i, item := range items {
		if values[i], err = item.AsFloat(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return values, nil
}

// AsEnum returns an enumeration value without its dots
func (p Param) AsEnum() (string, error) {
	if p.Kind != KindEnum {
		return "", fmt.Errorf("expected enumeration, got %s", p.Kind)
	}
	return p.Str, nil
}

// AsBool returns a BOOLEAN or LOGICAL value; .U. is reported as an error
func (p Param) AsBool() (bool, error) {
	v, err := p.AsEnum()
	if err != nil {
		return false, err
	}
	switch v {
	case "T":
		return true, nil
	case "F":
		return false, nil
	}
	return false, fmt.Errorf("expected .T. or .F., got .%s.", v)
}

// AsString returns the decoded text of a string parameter. Only quote
// doubling is undone; control directives are returned as written.
func (p Param) AsString() (string, error) {
	if p.Kind != KindString {
		return "", fmt.Errorf("expected string, got %s", p.Kind)
	}
	return strings.ReplaceAll(p.Str, "''", "'"), nil
}

// IsUnset reports whether the parameter is $
func (p Param) IsUnset() bool {
	return p.Kind == KindUnset
}
