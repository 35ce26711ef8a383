// Package jsonutil is the JSON Facade: a typed-tree model over a compact
// JSON byte buffer. It is deliberately not encoding/json's struct-tag
// marshaling — the spec calls for imperative tree construction/traversal
// (start_object, add_string, get_array_item, ...) with duplicate-key and
// type-mismatch detection as first-class errors, which this package gets by
// wrapping github.com/tidwall/gjson (read/traverse) and
// github.com/tidwall/sjson (construct/mutate) the way other_examples'
// privatemode-proxy server.go reads request bodies with gjson.Get, instead
// of hand-rolling a parser against the standard library.
package jsonutil

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/wisbric/mindconnect-agent/internal/mclerror"
)

// Kind identifies the JSON type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is one node of the typed tree. The zero value is not usable; build
// values with the New* constructors or Parse.
type Value struct {
	kind Kind
	raw  []byte
}

// Initialize returns an empty value of the given kind (an empty object "{}",
// an empty array "[]", or the kind's zero scalar), mirroring the source's
// mcl_json_util_initialize.
func Initialize(kind Kind) *Value {
	switch kind {
	case KindObject:
		return &Value{kind: KindObject, raw: []byte("{}")}
	case KindArray:
		return &Value{kind: KindArray, raw: []byte("[]")}
	case KindString:
		return &Value{kind: KindString, raw: []byte(`""`)}
	case KindNumber:
		return &Value{kind: KindNumber, raw: []byte("0")}
	case KindBool:
		return &Value{kind: KindBool, raw: []byte("false")}
	default:
		return &Value{kind: KindNull, raw: []byte("null")}
	}
}

// NewString, NewNumber, NewBool and Null build scalar values directly.
func NewString(s string) *Value {
	raw, _ := sjson.SetBytes(nil, "-1", s)
	return &Value{kind: KindString, raw: unwrapSingleElementArray(raw)}
}

func NewNumber(f float64) *Value {
	raw, _ := sjson.SetBytes(nil, "-1", f)
	return &Value{kind: KindNumber, raw: unwrapSingleElementArray(raw)}
}

func NewUint(u uint64) *Value {
	raw, _ := sjson.SetBytes(nil, "-1", u)
	return &Value{kind: KindNumber, raw: unwrapSingleElementArray(raw)}
}

func NewBool(b bool) *Value {
	if b {
		return &Value{kind: KindBool, raw: []byte("true")}
	}
	return &Value{kind: KindBool, raw: []byte("false")}
}

func Null() *Value { return &Value{kind: KindNull, raw: []byte("null")} }

// unwrapSingleElementArray turns the `[x]` sjson produces when appending a
// scalar to a nil buffer into the bare scalar `x`.
func unwrapSingleElementArray(arrayJSON []byte) []byte {
	r := gjson.ParseBytes(arrayJSON)
	arr := r.Array()
	if len(arr) != 1 {
		return arrayJSON
	}
	return []byte(arr[0].Raw)
}

// Kind returns the value's JSON type.
func (v *Value) Kind() Kind { return v.kind }

// ToString serializes the value compactly (no added whitespace).
func (v *Value) ToString() string { return string(v.raw) }

// Duplicate returns a deep (structurally independent) copy.
func (v *Value) Duplicate() *Value {
	cp := make([]byte, len(v.raw))
	copy(cp, v.raw)
	return &Value{kind: v.kind, raw: cp}
}

// Destroy releases the value. Go's GC reclaims the backing buffer; this
// exists so call sites mirror the source's acquire/destroy symmetry and so a
// future pooled-buffer implementation has a seam to hook into.
func (v *Value) Destroy() { v.raw = nil }

// HasChild reports whether an object value already has a member named name.
func (v *Value) HasChild(name string) bool {
	if v.kind != KindObject {
		return false
	}
	return gjson.GetBytes(v.raw, gjson.Escape(name)).Exists()
}

// StartObject creates a new empty object, attaches it to the parent object
// under name, and returns the child. The parent stores a copy of the child
// as it is at the time of the call: members added to the returned child
// afterwards do not appear in the parent. Returns JsonNameDuplication if
// name already exists on parent.
func (v *Value) StartObject(name string) (*Value, error) {
	child := Initialize(KindObject)
	if err := v.AddObject(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// StartArray creates a new empty array, attaches it to the parent object
// under name, and returns the child. As with StartObject, the parent keeps
// the empty array; items appended to the returned child afterwards do not
// appear in the parent.
func (v *Value) StartArray(name string) (*Value, error) {
	child := Initialize(KindArray)
	if err := v.AddObject(name, child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddObject attaches an existing value (object, array, or scalar) to the
// parent object under name, taking ownership of child. Returns
// JsonNameDuplication if name already exists.
func (v *Value) AddObject(name string, child *Value) error {
	if v.kind != KindObject {
		return mclerror.New(mclerror.InvalidParameter, "AddObject: parent is not an object")
	}
	if v.HasChild(name) {
		return mclerror.Newf(mclerror.JsonNameDuplication, "object already has a member named %q", name)
	}
	raw, err := sjson.SetRawBytes(v.raw, gjson.Escape(name), child.raw)
	if err != nil {
		return mclerror.Wrap(mclerror.Fail, "attaching child value", err)
	}
	v.raw = raw
	return nil
}

// AddString, AddUint, AddDouble, AddBool and AddNull set a scalar member on
// an object value, detecting duplicate keys the same way AddObject does.
func (v *Value) AddString(name, value string) error {
	return v.AddObject(name, NewString(value))
}

func (v *Value) AddUint(name string, value uint64) error {
	return v.AddObject(name, NewUint(value))
}

func (v *Value) AddDouble(name string, value float64) error {
	return v.AddObject(name, NewNumber(value))
}

func (v *Value) AddBool(name string, value bool) error {
	return v.AddObject(name, NewBool(value))
}

func (v *Value) AddNull(name string) error {
	return v.AddObject(name, Null())
}

// AddItemToArray appends item to an array value, taking ownership of item.
func (v *Value) AddItemToArray(item *Value) error {
	if v.kind != KindArray {
		return mclerror.New(mclerror.InvalidParameter, "AddItemToArray: value is not an array")
	}
	raw, err := sjson.SetRawBytes(v.raw, "-1", item.raw)
	if err != nil {
		return mclerror.Wrap(mclerror.Fail, "appending array item", err)
	}
	v.raw = raw
	return nil
}

// GetObjectItem returns the member named name from an object value. The
// second return is false if no such member exists.
func (v *Value) GetObjectItem(name string) (*Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	res := gjson.GetBytes(v.raw, gjson.Escape(name))
	if !res.Exists() {
		return nil, false
	}
	return fromResult(res), true
}

// GetArraySize returns the number of elements in an array value.
func (v *Value) GetArraySize() int {
	if v.kind != KindArray {
		return 0
	}
	return len(gjson.ParseBytes(v.raw).Array())
}

// GetArrayItem returns the element at index from an array value. A negative
// or out-of-range index returns InvalidParameter.
func (v *Value) GetArrayItem(index int) (*Value, error) {
	if v.kind != KindArray {
		return nil, mclerror.New(mclerror.InvalidParameter, "GetArrayItem: value is not an array")
	}
	items := gjson.ParseBytes(v.raw).Array()
	if index < 0 || index >= len(items) {
		return nil, mclerror.Newf(mclerror.InvalidParameter, "array index %d out of range [0,%d)", index, len(items))
	}
	return fromResult(items[index]), nil
}

// GetString returns a string value's contents. JsonTypeMismatch if v is not
// a string.
func (v *Value) GetString() (string, error) {
	if v.kind != KindString {
		return "", mclerror.New(mclerror.JsonTypeMismatch, "value is not a string")
	}
	return gjson.ParseBytes(v.raw).String(), nil
}

// GetNumber returns a number value as an int64. JsonTypeMismatch if v is not
// a number.
func (v *Value) GetNumber() (int64, error) {
	if v.kind != KindNumber {
		return 0, mclerror.New(mclerror.JsonTypeMismatch, "value is not a number")
	}
	return gjson.ParseBytes(v.raw).Int(), nil
}

// GetDouble returns a number value as a float64. JsonTypeMismatch if v is
// not a number.
func (v *Value) GetDouble() (float64, error) {
	if v.kind != KindNumber {
		return 0, mclerror.New(mclerror.JsonTypeMismatch, "value is not a number")
	}
	return gjson.ParseBytes(v.raw).Float(), nil
}

// GetBool returns a bool value. JsonTypeMismatch if v is not a bool.
func (v *Value) GetBool() (bool, error) {
	if v.kind != KindBool {
		return false, mclerror.New(mclerror.JsonTypeMismatch, "value is not a bool")
	}
	return gjson.ParseBytes(v.raw).Bool(), nil
}

// Parse parses buf into a Value tree. A zero-length buf is invalid (mirrors
// the source treating size=0 as "scan the NUL-terminated buffer" — in Go the
// slice already carries its own length, so an empty buffer is simply empty
// input rather than a sentinel).
func Parse(buf []byte) (*Value, error) {
	buf = trimTrailingNUL(buf)
	if len(buf) == 0 || !gjson.ValidBytes(buf) {
		return nil, mclerror.New(mclerror.InvalidParameter, "input is not valid JSON")
	}
	return fromResult(gjson.ParseBytes(buf)), nil
}

func trimTrailingNUL(buf []byte) []byte {
	return []byte(strings.TrimRight(string(buf), "\x00"))
}

func fromResult(res gjson.Result) *Value {
	var kind Kind
	switch res.Type {
	case gjson.String:
		kind = KindString
	case gjson.Number:
		kind = KindNumber
	case gjson.True, gjson.False:
		kind = KindBool
	case gjson.Null:
		kind = KindNull
	default:
		if res.IsArray() {
			kind = KindArray
		} else {
			kind = KindObject
		}
	}
	return &Value{kind: kind, raw: []byte(res.Raw)}
}
