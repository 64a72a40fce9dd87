package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

// Value is a closed union over the property types a graph backend can return.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    map[string]Value
	list []Value
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Map() map[string]Value { return v.m }
func (v Value) List() []Value { return v.list }

// ValueOf converts a loosely typed value (JSON decode output, driver values)
// into a Value. Unknown types are kept as their fmt string form.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case time.Time:
		return String(t.Format(time.RFC3339))
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = ValueOf(item)
		}
		return Map(m)
	case map[string]Value:
		return Map(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = ValueOf(item)
		}
		return List(items...)
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return List(items...)
	default:
		return String(fmt.Sprint(t))
	}
}

// Text returns the string variant, or "" for anything else.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// Float returns the number variant, or 0 for anything else.
func (v Value) Float() float64 {
	if v.kind == KindNumber {
		return v.num
	}
	return 0
}

// Truth returns the bool variant, or false for anything else.
func (v Value) Truth() bool {
	return v.kind == KindBool && v.b
}

// String formats the value for display. Numbers use their shortest decimal
// form so 3 renders as "3" and not "3.000000".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindMap:
		keys := sortedKeys(v.m)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+v.m[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Contains reports whether term occurs in the value, case-insensitively.
// Strings match by substring, numbers by their string form, maps and lists
// recursively. Booleans and nulls never match.
func (v Value) Contains(term string) bool {
	return v.contains(strings.ToLower(term))
}

func (v Value) contains(lower string) bool {
	switch v.kind {
	case KindString:
		return strings.Contains(strings.ToLower(v.str), lower)
	case KindNumber:
		return strings.Contains(v.String(), lower)
	case KindMap:
		for _, item := range v.m {
			if item.contains(lower) {
				return true
			}
		}
	case KindList:
		for _, item := range v.list {
			if item.contains(lower) {
				return true
			}
		}
	}
	return false
}

// Interface converts back to plain Go values, mainly for JSON encoders that
// expect them.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, item := range v.m {
			m[k] = item.Interface()
		}
		return m
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = item.Interface()
		}
		return items
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return err
	}
	*v = ValueOf(x)
	return nil
}

// Properties is a node or relationship property map.
type Properties map[string]Value

// PropertiesOf converts a driver or decoder map into Properties.
func PropertiesOf(m map[string]any) Properties {
	props := make(Properties, len(m))
	for k, x := range m {
		props[k] = ValueOf(x)
	}
	return props
}

// Text returns the string form of key, or "" when absent or null.
func (p Properties) Text(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return v.String()
}

// Float returns the numeric value of key, or 0 when absent or not a number.
func (p Properties) Float(key string) float64 {
	return p[key].Float()
}

// Contains searches every property value recursively.
func (p Properties) Contains(term string) bool {
	lower := strings.ToLower(term)
	for _, v := range p {
		if v.contains(lower) {
			return true
		}
	}
	return false
}

// Keys returns the property names in sorted order.
func (p Properties) Keys() []string {
	return sortedKeys(p)
}

// Clone returns a shallow copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
