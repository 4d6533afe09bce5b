package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// evaluate runs source in a fresh sandbox. The `input` builtin reads from
// inputs; the value of the last expression is the result.
func evaluate(source string, inputs map[string]any) (any, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("script is empty")
	}

	// Sandbox mode keeps scripts away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	env.AddFunction("input", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("input requires exactly one key argument")
		}
		key, ok := args[0].(*zygo.SexpStr)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("input: expected string key, got %T", args[0])
		}
		return toSexp(inputs[key.S]), nil
	})

	if err := env.LoadString(source); err != nil {
		return nil, fmt.Errorf("parse error: %s", strings.TrimSpace(err.Error()))
	}
	out, err := env.Run()
	if err != nil {
		return nil, fmt.Errorf("runtime error: %s", strings.TrimSpace(err.Error()))
	}
	return fromSexp(out)
}

// toSexp converts an input value. Records and lists are handed to the
// script as their JSON text.
func toSexp(v any) zygo.Sexp {
	switch t := v.(type) {
	case nil:
		return zygo.SexpNull
	case string:
		return &zygo.SexpStr{S: t}
	case bool:
		return &zygo.SexpBool{Val: t}
	case float64:
		if t == float64(int64(t)) {
			return &zygo.SexpInt{Val: int64(t)}
		}
		return &zygo.SexpFloat{Val: t}
	case int:
		return &zygo.SexpInt{Val: int64(t)}
	default:
		return &zygo.SexpStr{S: stringify(t)}
	}
}

// fromSexp converts a script result into JSON-shaped Go data.
func fromSexp(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case nil:
		return nil, nil
	case *zygo.SexpStr:
		return v.S, nil
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	case *zygo.SexpArray:
		return fromSexpList(v.Val)
	case *zygo.SexpPair:
		items, err := zygo.ListToArray(v)
		if err != nil {
			return nil, err
		}
		return fromSexpList(items)
	}
	return s.SexpString(nil), nil
}

func fromSexpList(items []zygo.Sexp) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := fromSexp(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
