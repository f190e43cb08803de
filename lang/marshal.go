package lang

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// ToNative converts v to plain Go data: int64, float64, string, bool, nil,
// []any and map[string]any. Keyword map keys lose their colon. Procedures
// and errors become their printed form.
func ToNative(v Value) any {
	switch v := v.(type) {
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Char:
		return string(rune(v))
	case Bool:
		return bool(v)
	case Keyword:
		return string(v)
	case Symbol:
		return v.Name()
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = ToNative(e)
		}

		return out
	case *Map:
		out := make(map[string]any, v.Len())
		for _, e := range v.Entries() {
			out[string(e.Key)] = ToNative(e.Value)
		}

		return out
	case nil:
		return nil
	default:
		return Print(v)
	}
}

// FromNative converts decoded Go data, as produced by JSON, YAML or expr
// evaluation, to a klisp value. Map keys become keywords. Integral floats
// stay floats; only Go integer types produce [Int].
func FromNative(x any) Value {
	switch x := x.(type) {
	case nil:
		return Nil
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Float(x)
		}

		return Int(x)
	case uint64:
		if x > math.MaxInt64 {
			return Float(x)
		}

		return Int(x)
	case float32:
		return Float(x)
	case float64:
		return Float(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Int(n)
		}

		f, _ := x.Float64()

		return Float(f)
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			out[i] = FromNative(e)
		}

		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		pairs := make([]MapEntry, len(keys))
		for i, k := range keys {
			pairs[i] = MapEntry{Keyword(k), FromNative(x[k])}
		}

		return NewMap(pairs...)
	}

	return fromReflect(reflect.ValueOf(x))
}

// fromReflect handles slices and maps of concrete element types, such as
// the []int or map[string]int an expr program may return.
func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := range rv.Len() {
			out[i] = FromNative(rv.Index(i).Interface())
		}

		return out

	case reflect.Map:
		pairs := make([]MapEntry, 0, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			pairs = append(pairs, MapEntry{
				Key:   Keyword(fmt.Sprint(it.Key().Interface())),
				Value: FromNative(it.Value().Interface()),
			})
		}

		return NewMap(pairs...)

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil
		}

		return FromNative(rv.Elem().Interface())
	}

	return String(fmt.Sprint(rv.Interface()))
}

// MarshalJSON renders v as JSON.
func MarshalJSON(v Value) ([]byte, error) {
	return json.Marshal(ToNative(v))
}
