package normalize

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"
)

// RecursionSentinel replaces a compound value that was already visited
// during the same ToJSONSafe call.
const RecursionSentinel = "<recursion>"

// ToJSONSafe converts value into a tree of nil, bool, numbers, strings, []any
// and *Map. Timestamps render through FormatTimestamp. Pointers, maps and
// slices are tracked by address; a second visit yields RecursionSentinel.
// Values with no convertible shape fall back to their String or Error
// method, or else to a flat form naming their type. It never panics and never
// fails.
func ToJSONSafe(value any) any {
	w := &walker{seen: map[identity]struct{}{}}
	return w.walk(value)
}

// identity keys the visited set. A struct and its first field share an
// address, so the type is part of the key.
type identity struct {
	kind   reflect.Kind
	typ    reflect.Type
	addr   uintptr
	length int
}

type walker struct {
	seen map[identity]struct{}
}

func (w *walker) walk(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typed
	case float64:
		return finiteOrString(typed)
	case float32:
		return finiteOrString(float64(typed))
	case json.Number:
		if _, err := strconv.ParseFloat(typed.String(), 64); err != nil {
			return typed.String()
		}
		return typed
	case time.Time:
		return FormatTimestamp(typed)
	case *time.Time:
		if typed == nil {
			return nil
		}
		return FormatTimestamp(*typed)
	case json.RawMessage:
		if decoded, err := DecodeJSON(typed); err == nil {
			return w.walk(decoded)
		}
		return bytesString(typed)
	case []byte:
		return bytesString(typed)
	case *Map:
		if typed == nil {
			return nil
		}
		if !w.enter(identity{kind: reflect.Pointer, typ: mapPointerType, addr: reflect.ValueOf(typed).Pointer()}) {
			return RecursionSentinel
		}
		out := NewMap()
		typed.Range(func(key string, item any) bool {
			out.Set(key, w.walk(item))
			return true
		})
		return out
	}
	return w.walkReflect(value, reflect.ValueOf(value))
}

func (w *walker) walkReflect(original any, value reflect.Value) any {
	switch value.Kind() {
	case reflect.Bool:
		return value.Bool()
	case reflect.String:
		return value.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.Uint()
	case reflect.Float32, reflect.Float64:
		return finiteOrString(value.Float())
	case reflect.Interface:
		if value.IsNil() {
			return nil
		}
		return w.walkElem(value.Elem())
	case reflect.Pointer:
		if value.IsNil() {
			return nil
		}
		if !w.enter(identity{kind: reflect.Pointer, typ: value.Type(), addr: value.Pointer()}) {
			return RecursionSentinel
		}
		if value.Elem().Kind() != reflect.Struct || isCompound(original) {
			return w.walkElem(value.Elem())
		}
		return w.walkObject(original, value.Elem())
	case reflect.Map:
		if value.IsNil() {
			return nil
		}
		if !w.enter(identity{kind: reflect.Map, typ: value.Type(), addr: value.Pointer()}) {
			return RecursionSentinel
		}
		out := NewMap()
		for _, entry := range sortedEntries(value) {
			out.Set(entry.key, w.walkElem(entry.value))
		}
		return out
	case reflect.Slice:
		if value.IsNil() {
			return nil
		}
		if marshaler, ok := original.(encoding.TextMarshaler); ok {
			if text, ok := marshalText(marshaler); ok {
				return text
			}
		}
		if isByteSequence(value) {
			return bytesString(value.Bytes())
		}
		if !w.enter(identity{kind: reflect.Slice, typ: value.Type(), addr: value.Pointer(), length: value.Len()}) {
			return RecursionSentinel
		}
		return w.walkSequence(value)
	case reflect.Array:
		if marshaler, ok := original.(encoding.TextMarshaler); ok {
			if text, ok := marshalText(marshaler); ok {
				return text
			}
		}
		return w.walkSequence(value)
	case reflect.Struct:
		if m, ok := asMap(value); ok {
			return w.walk(m)
		}
		return w.walkObject(original, value)
	default:
		return stringForm(original, value)
	}
}

// walkElem walks a value reached through reflection, such as a map entry,
// slice element or pointer target.
func (w *walker) walkElem(value reflect.Value) any {
	if !value.IsValid() {
		return nil
	}
	if !value.CanInterface() {
		return value.Type().String()
	}
	return w.walk(value.Interface())
}

func (w *walker) walkSequence(value reflect.Value) any {
	items := make([]any, 0, value.Len())
	for i := 0; i < value.Len(); i++ {
		items = append(items, w.walkElem(value.Index(i)))
	}
	return items
}

// walkObject handles opaque values: raw payload first, then exported fields,
// then the value's own string form.
func (w *walker) walkObject(original any, value reflect.Value) any {
	if payload, ok := rawPayload(original); ok && isCompound(payload) {
		return w.walk(payload)
	}
	if value.Kind() == reflect.Struct {
		if value.Type().ConvertibleTo(timeType) {
			return FormatTimestamp(value.Convert(timeType).Interface().(time.Time))
		}
		if marshaler, ok := original.(encoding.TextMarshaler); ok {
			if text, ok := marshalText(marshaler); ok {
				return text
			}
		}
		fields := AttributeRecord{value: value}.Fields()
		if fields.Len() > 0 {
			return w.walk(fields)
		}
	}
	return stringForm(original, value)
}

// enter registers id and reports whether it was unseen. Zero addresses carry
// no identity.
func (w *walker) enter(id identity) bool {
	if id.addr == 0 {
		return true
	}
	if _, ok := w.seen[id]; ok {
		return false
	}
	w.seen[id] = struct{}{}
	return true
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	mapPointerType = reflect.TypeOf((*Map)(nil))
)

func marshalText(marshaler encoding.TextMarshaler) (text string, ok bool) {
	defer func() {
		if recover() != nil {
			text, ok = "", false
		}
	}()
	raw, err := marshaler.MarshalText()
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func finiteOrString(value float64) any {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
	return value
}

func bytesString(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// stringForm is the last resort. Only values that format themselves, or
// kinds with nothing to descend into, go through fmt; anything else renders
// as its type so private state is never walked. fmt recovers from panicking
// String and Error methods.
func stringForm(original any, value reflect.Value) string {
	if original == nil && value.IsValid() && value.CanInterface() {
		original = value.Interface()
	}
	if original == nil {
		if value.IsValid() {
			return value.Type().String()
		}
		return "None"
	}
	switch original.(type) {
	case fmt.Stringer, error:
		return fmt.Sprint(original)
	}
	value = reflect.ValueOf(original)
	switch value.Kind() {
	case reflect.Complex64:
		return strconv.FormatComplex(value.Complex(), 'g', -1, 64)
	case reflect.Complex128:
		return strconv.FormatComplex(value.Complex(), 'g', -1, 128)
	case reflect.Chan, reflect.Func, reflect.Pointer, reflect.UnsafePointer:
		return fmt.Sprintf("<%s at %#x>", value.Type(), value.Pointer())
	default:
		return "<" + value.Type().String() + ">"
	}
}
