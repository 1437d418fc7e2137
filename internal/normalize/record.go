package normalize

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// RawPayloader is implemented by wrappers around service objects that keep
// the document the service transmitted alongside their typed view.
type RawPayloader interface {
	RawPayload() any
}

// Record is the uniform read view over a remote object.
type Record interface {
	Field(name string) (any, bool)
	Fields() *Map
}

// MappingRecord reads from a mapping keyed by field name.
type MappingRecord struct {
	value reflect.Value
	m     *Map
}

func (r MappingRecord) Field(name string) (any, bool) {
	if r.m != nil {
		return r.m.Get(name)
	}
	if !r.value.IsValid() || r.value.Kind() != reflect.Map || r.value.IsNil() {
		return nil, false
	}
	keyType := r.value.Type().Key()
	var key reflect.Value
	switch {
	case keyType.Kind() == reflect.String:
		key = reflect.ValueOf(name).Convert(keyType)
	case keyType.Kind() == reflect.Interface:
		key = reflect.ValueOf(name)
		if !key.Type().AssignableTo(keyType) {
			return nil, false
		}
	default:
		return nil, false
	}
	found := r.value.MapIndex(key)
	if !found.IsValid() || !found.CanInterface() {
		return nil, false
	}
	return found.Interface(), true
}

// Fields returns the mapping itself when it is a *Map, otherwise an ordered
// copy with keys sorted by their string form.
func (r MappingRecord) Fields() *Map {
	if r.m != nil {
		return r.m
	}
	out := NewMap()
	for _, entry := range sortedEntries(r.value) {
		if entry.value.CanInterface() {
			out.Set(entry.key, entry.value.Interface())
		}
	}
	return out
}

// AttributeRecord reads the exported fields of a struct.
type AttributeRecord struct {
	value reflect.Value
}

func (r AttributeRecord) Field(name string) (any, bool) {
	fields := publicFields(r.value)
	for _, field := range fields {
		if field.key == name {
			return field.value, true
		}
	}
	for _, field := range fields {
		if strings.EqualFold(field.goName, name) {
			return field.value, true
		}
	}
	folded := foldName(name)
	for _, field := range fields {
		if foldName(field.goName) == folded {
			return field.value, true
		}
	}
	return nil, false
}

func (r AttributeRecord) Fields() *Map {
	out := NewMap()
	for _, field := range publicFields(r.value) {
		out.Set(field.key, field.value)
	}
	return out
}

type emptyRecord struct{}

func (emptyRecord) Field(string) (any, bool) { return nil, false }

func (emptyRecord) Fields() *Map { return NewMap() }

// Classify decides once whether obj is read as a mapping or through its
// exported fields. Unknown shapes read as empty.
func Classify(obj any) Record {
	if m, ok := obj.(*Map); ok {
		if m == nil {
			return emptyRecord{}
		}
		return MappingRecord{m: m}
	}
	value := indirect(reflect.ValueOf(obj))
	if !value.IsValid() {
		return emptyRecord{}
	}
	switch value.Kind() {
	case reflect.Map:
		return MappingRecord{value: value}
	case reflect.Struct:
		if m, ok := asMap(value); ok {
			return MappingRecord{m: m}
		}
		return AttributeRecord{value: value}
	default:
		return emptyRecord{}
	}
}

// Get reads a named field from a mapping or struct, returning fallback when
// the field is absent or obj has no readable shape.
func Get(obj any, name string, fallback any) any {
	value, ok := Classify(obj).Field(name)
	if !ok {
		return fallback
	}
	return value
}

type structField struct {
	key    string
	goName string
	value  any
}

func publicFields(value reflect.Value) []structField {
	if !value.IsValid() || value.Kind() != reflect.Struct {
		return nil
	}
	fields := []structField{}
	valueType := value.Type()
	for i := 0; i < valueType.NumField(); i++ {
		fieldType := valueType.Field(i)
		fieldValue := value.Field(i)
		if fieldType.Anonymous {
			embedded := indirect(fieldValue)
			if embedded.IsValid() && embedded.Kind() == reflect.Struct && embedded.CanInterface() {
				fields = append(fields, publicFields(embedded)...)
				continue
			}
		}
		if !fieldType.IsExported() || !fieldValue.CanInterface() {
			continue
		}
		key := fieldType.Name
		if tag, ok := fieldType.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		fields = append(fields, structField{key: key, goName: fieldType.Name, value: fieldValue.Interface()})
	}
	return fields
}

func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// indirect follows pointers and interfaces; nil yields the zero Value.
func indirect(value reflect.Value) reflect.Value {
	for value.IsValid() && (value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return reflect.Value{}
		}
		value = value.Elem()
	}
	return value
}

var mapType = reflect.TypeOf(Map{})

// asMap recovers a *Map from a Map reached through indirection.
func asMap(value reflect.Value) (*Map, bool) {
	if value.Type() != mapType {
		return nil, false
	}
	if value.CanAddr() {
		return value.Addr().Interface().(*Map), true
	}
	copied := value.Interface().(Map)
	return &copied, true
}

type mapEntry struct {
	key      string
	typeName string
	value    reflect.Value
}

// sortedEntries orders a Go map by stringified key, since Go maps carry no
// insertion order.
func sortedEntries(value reflect.Value) []mapEntry {
	entries := make([]mapEntry, 0, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		key := iter.Key()
		entries = append(entries, mapEntry{key: keyString(key), typeName: key.Type().String(), value: iter.Value()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].typeName < entries[j].typeName
	})
	return entries
}

func keyString(key reflect.Value) string {
	key = indirect(key)
	if !key.IsValid() {
		return "None"
	}
	if key.Kind() == reflect.String {
		return key.String()
	}
	if !key.CanInterface() {
		return key.Type().String()
	}
	// A dereferenced pointer key may hold maps or slices, which fmt would
	// walk without cycle detection.
	if (key.Kind() == reflect.Struct || key.Kind() == reflect.Array) && !key.Comparable() {
		return stringForm(nil, key)
	}
	return fmt.Sprint(key.Interface())
}
