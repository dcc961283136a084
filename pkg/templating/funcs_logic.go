package templating

import "reflect"

// list returns a slice containing all the arguments passed to it.
func list(args ...any) []any {
	return args
}

// field looks up key in a string keyed map and returns its value, or an empty
// string when the key is missing or the value is nil. Unlike index, it never
// renders "<no value>" for absent optional fields.
func field(m any, key string) any {
	if m == nil {
		return ""
	}
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return ""
	}
	val := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	if !val.IsValid() {
		return ""
	}
	if val.Kind() == reflect.Interface && val.IsNil() {
		return ""
	}
	return val.Interface()
}
