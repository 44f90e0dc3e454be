package registry

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts the `type` attribute of a port block into
// a cty.Type. Port types are simple keywords: string, number, bool, or
// any. A nil expression and `any` both mean untyped (cty.NilType),
// which exempts the port from the session type-registry check.
func typeExprToCtyType(expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.NilType, nil
	}

	// A type keyword parses as a bare traversal, not a value expression.
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 {
		return cty.NilType, fmt.Errorf("the 'type' attribute must be a simple type keyword "+
			"like 'string', 'number' or 'bool' (at %s)", expr.Range())
	}

	switch name := traversal.RootName(); name {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	case "any":
		return cty.NilType, nil
	default:
		return cty.NilType, fmt.Errorf("unsupported port type %q (at %s): supported types are "+
			"string, number, bool, any", name, expr.Range())
	}
}
