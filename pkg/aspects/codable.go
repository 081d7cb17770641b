package aspects

import (
	"encoding"
	"reflect"
	"sync"
)

type (
	jsonMarshaler   interface{ MarshalJSON() ([]byte, error) }
	jsonUnmarshaler interface{ UnmarshalJSON([]byte) error }
)

var (
	codableTypes sync.Map // reflect.Type -> bool

	jsonMarshalerType   = reflect.TypeOf((*jsonMarshaler)(nil)).Elem()
	jsonUnmarshalerType = reflect.TypeOf((*jsonUnmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// codable reports whether values of t survive a JSON round trip unchanged. Types with
// unexported or ignored fields, interfaces, funcs or chans do not.
func codable(t reflect.Type) bool {
	if v, ok := codableTypes.Load(t); ok {
		return v.(bool)
	}
	ok := walkCodable(t, map[reflect.Type]bool{})
	codableTypes.Store(t, ok)
	return ok
}

func walkCodable(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true
	if selfCoded(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return walkCodable(t.Elem(), seen)
	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			if !reflect.PointerTo(t.Key()).Implements(textUnmarshalerType) {
				return false
			}
		}
		return walkCodable(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get("json") == "-" {
				return false
			}
			if !f.IsExported() && !embeddedStruct(f) {
				return false
			}
			if !walkCodable(f.Type, seen) {
				return false
			}
		}
		return true
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer,
		reflect.Complex64, reflect.Complex128:
		return false
	}
	return true
}

// embeddedStruct reports whether f is an embedded struct whose fields json promotes.
func embeddedStruct(f reflect.StructField) bool {
	if !f.Anonymous {
		return false
	}
	t := f.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// selfCoded reports whether t encodes and decodes itself.
func selfCoded(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(t)
	if pt.Implements(jsonMarshalerType) && pt.Implements(jsonUnmarshalerType) {
		return true
	}
	return pt.Implements(textMarshalerType) && pt.Implements(textUnmarshalerType)
}
