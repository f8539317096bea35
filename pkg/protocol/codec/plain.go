package codec

import (
    "fmt"
    "reflect"
)

// maxDepth bounds the walks below; deeper values are passed through as-is.
const maxDepth = 64

// plainData rewrites v into the shapes every codec decodes to: slices
// become []any and maps become map[string]any. Scalar map keys are
// stringified the way encoding/json does it, so {1: "a"} arrives as
// {"1": "a"} whatever the format.
func plainData(v any) any { return plainValue(reflect.ValueOf(v), 0) }

func plainValue(rv reflect.Value, depth int) any {
    if !rv.IsValid() {
        return nil
    }
    if depth > maxDepth {
        return rv.Interface()
    }
    switch rv.Kind() {
    case reflect.Interface:
        if rv.IsNil() {
            return nil
        }
        return plainValue(rv.Elem(), depth)
    case reflect.Slice:
        if rv.IsNil() {
            return nil
        }
        if rv.Type().Elem().Kind() == reflect.Uint8 {
            return rv.Bytes()
        }
        fallthrough
    case reflect.Array:
        out := make([]any, rv.Len())
        for i := range out {
            out[i] = plainValue(rv.Index(i), depth+1)
        }
        return out
    case reflect.Map:
        if rv.IsNil() {
            return nil
        }
        out := make(map[string]any, rv.Len())
        it := rv.MapRange()
        for it.Next() {
            out[keyString(it.Key())] = plainValue(it.Value(), depth+1)
        }
        return out
    default:
        return rv.Interface()
    }
}

func keyString(k reflect.Value) string {
    for k.Kind() == reflect.Interface && !k.IsNil() {
        k = k.Elem()
    }
    if k.Kind() == reflect.String {
        return k.String()
    }
    return fmt.Sprint(k.Interface())
}

// checkKeys rejects map keys that cannot be carried as a plain data key:
// only strings, bools and numbers may key a map.
func checkKeys(v any) error { return checkValue(reflect.ValueOf(v), 0) }

func checkValue(rv reflect.Value, depth int) error {
    if !rv.IsValid() || depth > maxDepth {
        return nil
    }
    switch rv.Kind() {
    case reflect.Interface, reflect.Pointer:
        if rv.IsNil() {
            return nil
        }
        return checkValue(rv.Elem(), depth+1)
    case reflect.Slice, reflect.Array:
        if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
            return nil
        }
        for i := 0; i < rv.Len(); i++ {
            if err := checkValue(rv.Index(i), depth+1); err != nil {
                return err
            }
        }
    case reflect.Map:
        it := rv.MapRange()
        for it.Next() {
            if !scalarKey(it.Key()) {
                return fmt.Errorf("unsupported map key %T", it.Key().Interface())
            }
            if err := checkValue(it.Value(), depth+1); err != nil {
                return err
            }
        }
    }
    return nil
}

func scalarKey(k reflect.Value) bool {
    for k.Kind() == reflect.Interface && !k.IsNil() {
        k = k.Elem()
    }
    switch k.Kind() {
    case reflect.String, reflect.Bool,
        reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
        reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
        reflect.Float32, reflect.Float64:
        return true
    default:
        return false
    }
}
