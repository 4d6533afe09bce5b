package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/synnia/internal/recipe"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// templateFunctions are callable from prompt templates.
var templateFunctions = map[string]function.Function{
	"jsonencode": stdlib.JSONEncodeFunc,
	"upper":      stdlib.UpperFunc,
	"lower":      stdlib.LowerFunc,
	"join":       stdlib.JoinFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"length":     stdlib.LengthFunc,
}

// promptRenderer returns a function that evaluates expr with the recipe
// inputs bound to `input.<key>`. Declared keys without a value render as
// empty strings. The result also goes through {{key}} substitution.
func promptRenderer(expr hcl.Expression, declared []string) func(map[string]any) (string, error) {
	return func(inputs map[string]any) (string, error) {
		vars := make(map[string]cty.Value, len(inputs)+len(declared))
		for _, key := range declared {
			vars[key] = cty.StringVal("")
		}
		for key, v := range inputs {
			if v == nil {
				continue
			}
			cv, err := fromGo(v)
			if err != nil {
				return "", fmt.Errorf("input %q cannot be used in a template: %w", key, err)
			}
			vars[key] = cv
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{"input": cty.ObjectVal(vars)},
			Functions: templateFunctions,
		}
		v, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return "", diags
		}
		s, err := templateString(v)
		if err != nil {
			return "", err
		}
		return recipe.Render(s, inputs), nil
	}
}

func templateString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if s, err := convert.Convert(v, cty.String); err == nil {
		return s.AsString(), nil
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
