package normalize

import (
	"reflect"
)

// RawFields returns the best-effort field mapping behind a remote object.
// A *Map is returned as is. Otherwise the object's raw payload is used when it
// exposes one as a mapping, then its exported fields. Unsupported shapes give
// an empty mapping.
func RawFields(obj any) *Map {
	if m, ok := obj.(*Map); ok && m != nil {
		return m
	}
	if isMapping(obj) {
		return Classify(obj).Fields()
	}
	if payload, ok := rawPayload(obj); ok && isMapping(payload) {
		return Classify(payload).Fields()
	}
	record := Classify(obj)
	if _, ok := record.(AttributeRecord); ok {
		return record.Fields()
	}
	return NewMap()
}

// rawPayload calls RawPayload, treating a panicking implementation as absent.
func rawPayload(obj any) (payload any, ok bool) {
	payloader, isPayloader := obj.(RawPayloader)
	if !isPayloader {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			payload, ok = nil, false
		}
	}()
	payload = payloader.RawPayload()
	return payload, !isNilish(payload)
}

func isNilish(value any) bool {
	resolved := indirect(reflect.ValueOf(value))
	if !resolved.IsValid() {
		return true
	}
	switch resolved.Kind() {
	case reflect.Map, reflect.Slice:
		return resolved.IsNil()
	default:
		return false
	}
}

func isMapping(value any) bool {
	if m, ok := value.(*Map); ok {
		return m != nil
	}
	resolved := indirect(reflect.ValueOf(value))
	if !resolved.IsValid() {
		return false
	}
	if resolved.Kind() == reflect.Map {
		return true
	}
	_, ok := asMap(resolved)
	return ok
}

// isCompound reports whether value is a mapping or a non-string sequence.
func isCompound(value any) bool {
	if isMapping(value) {
		return true
	}
	resolved := indirect(reflect.ValueOf(value))
	if !resolved.IsValid() {
		return false
	}
	switch resolved.Kind() {
	case reflect.Slice, reflect.Array:
		return !isByteSequence(resolved)
	default:
		return false
	}
}

func isByteSequence(value reflect.Value) bool {
	return value.Kind() == reflect.Slice && value.Type().Elem().Kind() == reflect.Uint8
}
