package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Result is the outcome of a coercion.
type Result struct {
	Value      any
	HasValue   bool
	Compatible bool
	Reason     string
	Warnings   []string
}

func accept(v any) Result {
	return Result{Value: v, HasValue: true, Compatible: true}
}

func reject(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Coerce converts src for the field addressed by targetPort. field may be nil
// when the target has no schema.
func Coerce(field *schema.Field, src *port.Value, targetPort string) Result {
	if src == nil || src.Value == nil {
		return Result{Compatible: true}
	}
	if port.IsReserved(targetPort) {
		return accept(src.Value)
	}
	if field == nil {
		key, ok := port.FieldKey(targetPort)
		if !ok {
			return Result{Compatible: true}
		}
		return legacy(key, src.Value)
	}

	v := src.Value
	switch field.Type {
	case schema.TypeObject:
		return toObject(field, v)
	case schema.TypeArray:
		return toArray(field, v)
	case schema.TypeString:
		return toString(field, v)
	case schema.TypeNumber:
		return toNumber(field, v)
	case schema.TypeBoolean:
		return toBoolean(v)
	default:
		return accept(v)
	}
}

func legacy(key string, v any) Result {
	if list, ok := asList(v); ok {
		if len(list) == 0 {
			return Result{Compatible: true}
		}
		v = list[0]
	}
	if rec, ok := v.(map[string]any); ok {
		fv, exists := rec[key]
		if !exists {
			return Result{Compatible: true}
		}
		return accept(fv)
	}
	return accept(v)
}

func toObject(field *schema.Field, v any) Result {
	if list, ok := asList(v); ok {
		if len(list) == 0 {
			return reject("Field %q expects an object but received an empty list.", field.Key)
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			return reject("Field %q expects an object but the first list item is %s.", field.Key, describe(list[0]))
		}
		v = first
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return reject("Field %q expects an object but received %s.", field.Key, describe(v))
	}
	res := accept(rec)
	if missing := field.MissingKeys(rec); len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("field %q is missing required keys: %s", field.Key, strings.Join(missing, ", ")))
	}
	return res
}

func toArray(field *schema.Field, v any) Result {
	if list, ok := asList(v); ok {
		return accept(list)
	}
	if rec, ok := v.(map[string]any); ok {
		return accept([]any{rec})
	}
	return reject("Field %q expects a list but received %s.", field.Key, describe(v))
}

func toString(field *schema.Field, v any) Result {
	switch v.(type) {
	case map[string]any, []any, []map[string]any, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return reject("Field %q cannot encode %s as text.", field.Key, describe(v))
		}
		return accept(string(b))
	}
	out, err := convertPrimitive(v, field.Type.CtyType())
	if err != nil {
		return reject("Field %q expects text: %s.", field.Key, err)
	}
	return accept(out.AsString())
}

func toNumber(field *schema.Field, v any) Result {
	if b, ok := v.(bool); ok {
		if b {
			return accept(1.0)
		}
		return accept(0.0)
	}
	out, err := convertPrimitive(v, field.Type.CtyType())
	if err != nil {
		return reject("Field %q expects a number but received %s.", field.Key, describe(v))
	}
	f, _ := out.AsBigFloat().Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return reject("Field %q expects a number but received %s.", field.Key, describe(v))
	}
	return accept(f)
}

// toBoolean never fails: strings that cty can read as booleans convert, and
// everything else falls back to truthiness.
func toBoolean(v any) Result {
	if out, err := convertPrimitive(v, cty.Bool); err == nil {
		return accept(out.True())
	}
	switch t := v.(type) {
	case string:
		return accept(strings.TrimSpace(t) != "")
	case float64:
		return accept(t != 0 && !math.IsNaN(t))
	case int:
		return accept(t != 0)
	default:
		return accept(true)
	}
}

// convertPrimitive runs a Go scalar through cty's conversion rules.
func convertPrimitive(v any, want cty.Type) (cty.Value, error) {
	in, err := primitiveToCty(v)
	if err != nil {
		return cty.NilVal, err
	}
	out, err := convert.Convert(in, want)
	if err != nil {
		return cty.NilVal, err
	}
	if out.IsNull() || !out.IsKnown() {
		return cty.NilVal, fmt.Errorf("value is null")
	}
	return out, nil
}

func primitiveToCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return cty.NilVal, fmt.Errorf("not a finite number")
		}
		return cty.NumberFloatVal(t), nil
	case float32:
		return primitiveToCty(float64(t))
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case json.Number:
		f, ok := new(big.Float).SetString(t.String())
		if !ok {
			return cty.NilVal, fmt.Errorf("invalid number %q", t)
		}
		return cty.NumberVal(f), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case []any, []map[string]any, []string:
		return "a list"
	case string:
		return fmt.Sprintf("the text %q", v)
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("a %T", v)
	}
}
