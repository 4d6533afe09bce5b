// This file contains the logic for parsing HCL type expressions (e.g., `string`,
// `list(number)`) into cty types and from there into input field types.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts an HCL type expression into its cty.Type equivalent.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		logger.Debug("Parsing type expression as a function call.", "call", v.Name)
		if len(v.Args) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("type constructors (list, map, set) require exactly one argument, got %d", len(v.Args))
		}
		elementType, err := typeExprToCtyType(ctx, v.Args[0])
		if err != nil {
			return cty.DynamicPseudoType, err
		}

		switch v.Name {
		case "list":
			return cty.List(elementType), nil
		case "map":
			return cty.Map(elementType), nil
		case "set":
			return cty.Set(elementType), nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown type constructor function %q", v.Name)
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		logger.Debug("Parsing type expression as a primitive.", "keyword", rootName)
		switch rootName {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool", "boolean":
			return cty.Bool, nil
		case "object":
			return cty.EmptyObject, nil
		case "list", "array":
			return cty.List(cty.DynamicPseudoType), nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", rootName)
		}

	default:
		return cty.DynamicPseudoType, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

// fieldType maps the `type` attribute of an input block to a field type.
// An omitted type accepts anything.
func fieldType(ctx context.Context, expr hcl.Expression) (schema.FieldType, cty.Type, error) {
	if !isExprDefined(ctx, expr, "type") {
		return schema.TypeAny, cty.DynamicPseudoType, nil
	}
	ty, err := typeExprToCtyType(ctx, expr)
	if err != nil {
		return "", cty.NilType, err
	}

	return schema.FieldTypeOf(ty), ty, nil
}
