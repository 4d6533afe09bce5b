package schema

import "github.com/zclconf/go-cty/cty"

// FieldTypeOf maps a cty type onto the field type that accepts its values.
// Collections become arrays, maps and objects become objects and anything
// dynamic is TypeAny.
func FieldTypeOf(ty cty.Type) FieldType {
	switch {
	case ty == cty.String:
		return TypeString
	case ty == cty.Number:
		return TypeNumber
	case ty == cty.Bool:
		return TypeBoolean
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		return TypeArray
	case ty.IsMapType(), ty.IsObjectType():
		return TypeObject
	default:
		return TypeAny
	}
}

// CtyType is the cty type values of t are converted to.
func (t FieldType) CtyType() cty.Type {
	switch t {
	case TypeString:
		return cty.String
	case TypeNumber:
		return cty.Number
	case TypeBoolean:
		return cty.Bool
	case TypeArray:
		return cty.List(cty.DynamicPseudoType)
	case TypeObject:
		return cty.Map(cty.DynamicPseudoType)
	default:
		return cty.DynamicPseudoType
	}
}
