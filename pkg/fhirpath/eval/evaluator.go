// Package eval implements the FHIRPath tree-walking evaluator (C8): a
// single-threaded, cooperative walk over pkg/fhirpath/ast that suspends
// only at schema/terminology/reference-provider calls and trace-sink
// writes, threading a persistent Context (context.go) through every
// recursive step rather than mutating shared state.
package eval

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// Eval walks node and returns the resulting Collection. This is the
// single recursive entry point every node type and every registered
// function routes through, so depth-guarding and cancellation checks
// live in one place.
func Eval(ctx *Context, node ast.Expr) (types.Collection, error) {
	if err := ctx.Cancelled(); err != nil {
		return nil, err
	}
	leave, err := ctx.EnterDepth()
	if err != nil {
		return nil, err
	}
	defer leave()

	switch n := node.(type) {
	case *ast.Literal:
		return evalLiteral(n)
	case *ast.Identifier:
		return evalIdentifier(ctx, n)
	case *ast.This:
		return ctx.This(), nil
	case *ast.Index:
		return types.Collection{types.NewInteger(int64(ctx.Index()))}, nil
	case *ast.Total:
		return ctx.Total(), nil
	case *ast.Variable:
		return evalVariable(ctx, n)
	case *ast.ExternalConstant:
		return evalVariable(ctx, &ast.Variable{Name: n.Name})
	case *ast.Paren:
		return Eval(ctx, n.Inner)
	case *ast.Tuple:
		return types.Collection{}, nil
	case *ast.PropertyAccess:
		return evalPropertyAccess(ctx, n)
	case *ast.Indexer:
		return evalIndexer(ctx, n)
	case *ast.Invocation:
		return evalInvocation(ctx, n)
	case *ast.UnaryOp:
		return evalUnary(ctx, n)
	case *ast.BinaryOp:
		return evalBinary(ctx, n)
	case *ast.TypeExpr:
		return evalTypeExpr(ctx, n)
	default:
		return nil, NewEvalError(ErrInvalidExpression, "unsupported AST node %T", node)
	}
}

func evalLiteral(n *ast.Literal) (types.Collection, error) {
	switch n.Kind {
	case ast.LiteralBoolean:
		return types.Collection{types.NewBoolean(n.Value.(bool))}, nil
	case ast.LiteralInteger:
		var i int64
		if _, err := fmt.Sscanf(n.Value.(string), "%d", &i); err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid integer literal %q", n.Raw)
		}
		return types.Collection{types.NewInteger(i)}, nil
	case ast.LiteralDecimal:
		d, err := types.NewDecimal(n.Value.(string))
		if err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid decimal literal %q", n.Raw)
		}
		return types.Collection{d}, nil
	case ast.LiteralString:
		return types.Collection{types.NewString(n.Value.(string))}, nil
	case ast.LiteralDate:
		d, err := types.NewDate(stripAt(n.Value.(string)))
		if err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid date literal %q", n.Raw)
		}
		return types.Collection{d}, nil
	case ast.LiteralDateTime:
		dt, err := types.NewDateTime(stripAt(n.Value.(string)))
		if err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid datetime literal %q", n.Raw)
		}
		return types.Collection{dt}, nil
	case ast.LiteralTime:
		t, err := types.NewTime(stripAtT(n.Value.(string)))
		if err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid time literal %q", n.Raw)
		}
		return types.Collection{t}, nil
	case ast.LiteralQuantity:
		val := n.Value.(string)
		d, err := types.NewDecimal(val)
		if err != nil {
			return nil, NewEvalError(ErrInvalidExpression, "invalid quantity literal %q", n.Raw)
		}
		return types.Collection{types.NewQuantityFromDecimal(d.Value(), n.Unit)}, nil
	case ast.LiteralEmpty:
		return types.Collection{}, nil
	default:
		return nil, NewEvalError(ErrInvalidExpression, "unsupported literal kind")
	}
}

func stripAt(s string) string {
	if len(s) > 0 && s[0] == '@' {
		return s[1:]
	}
	return s
}

func stripAtT(s string) string {
	s = stripAt(s)
	if len(s) > 0 && s[0] == 'T' {
		return s[1:]
	}
	return s
}

// evalIdentifier resolves a bare name: first as property navigation off
// the current focus, and only when that finds nothing, as a type filter
// over $this.
func evalIdentifier(ctx *Context, n *ast.Identifier) (types.Collection, error) {
	if props, err := navigateProperty(ctx, ctx.This(), n.Name); err != nil {
		return nil, err
	} else if len(props) > 0 {
		return props, nil
	}
	// No such property: if the name names a type, treat it as the
	// FHIRPath path-root type filter (`Patient.name` filters $this to
	// Patient instances rather than looking for a "Patient" element).
	return filterByType(ctx, ctx.This(), n.Name), nil
}

func filterByType(ctx *Context, coll types.Collection, typeName string) types.Collection {
	var result types.Collection
	for _, elem := range coll {
		if matchesType(ctx, elem, typeName) {
			result = append(result, elem)
		}
	}
	return result
}

// matchesType reports whether v's runtime type is typeName or a
// subtype of it per the schema's base-type chain, when one is wired.
func matchesType(ctx *Context, v types.Value, typeName string) bool {
	actual := dynamicTypeName(v)
	if actual == typeName {
		return true
	}
	if ctx.Schema == nil {
		return false
	}
	for t, ok := actual, true; ok; t, ok = ctx.Schema.GetBaseType(t) {
		if t == typeName {
			return true
		}
	}
	return false
}

// dynamicTypeName returns the FHIRPath/FHIR type name of v, unwrapping
// Resource's schema-or-heuristic-resolved type.
func dynamicTypeName(v types.Value) string {
	if res, ok := v.(*types.Resource); ok {
		return res.Type()
	}
	return v.Type()
}

func evalVariable(ctx *Context, n *ast.Variable) (types.Collection, error) {
	if v, ok := ctx.LookupVariable(n.Name); ok {
		return v, nil
	}
	return nil, NewEvalError(ErrInvalidExpression, "undefined variable %%%s", n.Name)
}

func evalPropertyAccess(ctx *Context, n *ast.PropertyAccess) (types.Collection, error) {
	base, err := Eval(ctx, n.Base)
	if err != nil {
		return nil, err
	}
	return navigateProperty(ctx, base, n.Property.Name)
}

func evalIndexer(ctx *Context, n *ast.Indexer) (types.Collection, error) {
	base, err := Eval(ctx, n.Base)
	if err != nil {
		return nil, err
	}
	idxColl, err := Eval(ctx, n.Index)
	if err != nil {
		return nil, err
	}
	if len(idxColl) == 0 {
		return types.Collection{}, nil
	}
	idxVal, ok := idxColl[0].(types.Integer)
	if !ok {
		return nil, NewEvalError(ErrType, "index must be an Integer")
	}
	i := int(idxVal.Value())
	if i < 0 {
		// Negative indices count back from the end of the collection.
		i = len(base) + i
	}
	if i < 0 || i >= len(base) {
		return types.Collection{}, nil
	}
	return types.Collection{base[i]}, nil
}

func evalUnary(ctx *Context, n *ast.UnaryOp) (types.Collection, error) {
	operand, err := Eval(ctx, n.Operand)
	if err != nil {
		return nil, err
	}
	if len(operand) == 0 {
		return types.Collection{}, nil
	}
	if len(operand) != 1 {
		return nil, SingletonError(len(operand))
	}
	switch v := operand[0].(type) {
	case types.Integer:
		if n.Op == "-" {
			return types.Collection{v.Negate()}, nil
		}
		return types.Collection{v}, nil
	case types.Decimal:
		if n.Op == "-" {
			return types.Collection{v.Negate()}, nil
		}
		return types.Collection{v}, nil
	case types.Quantity:
		if n.Op == "-" {
			return types.Collection{v.Multiply(types.NewDecimalFromInt(-1).Value())}, nil
		}
		return types.Collection{v}, nil
	default:
		return nil, TypeError("Integer|Decimal|Quantity", v.Type(), "unary "+n.Op)
	}
}
