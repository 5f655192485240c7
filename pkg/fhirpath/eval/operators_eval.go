package eval

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

// evalBinary dispatches a BinaryOp by its operator category. FHIRPath's
// boolean operators implement three-valued logic (true/false/Empty) and
// so must inspect both operands before deciding whether Empty
// propagates; every other category follows the simpler
// Empty-on-either-side-is-Empty rule.
func evalBinary(ctx *Context, n *ast.BinaryOp) (types.Collection, error) {
	switch n.Op {
	case "and", "or", "xor", "implies":
		return evalBooleanOp(ctx, n)
	case "|":
		return evalUnion(ctx, n)
	case "in", "contains":
		return evalMembership(ctx, n)
	}

	left, err := Eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Eval(ctx, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "=":
		return evalEquality(left, right, false)
	case "!=":
		return invertBool(evalEquality(left, right, false))
	case "~":
		return evalEquality(left, right, true)
	case "!~":
		return invertBool(evalEquality(left, right, true))
	case "<", "<=", ">", ">=":
		return evalComparison(left, right, n.Op)
	case "&":
		return evalConcat(left, right)
	case "+", "-", "*", "/", "div", "mod":
		return evalArithmetic(left, right, n.Op)
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unknown operator %q", n.Op)
	}
}

func invertBool(c types.Collection, err error) (types.Collection, error) {
	if err != nil || len(c) == 0 {
		return c, err
	}
	b, ok := c[0].(types.Boolean)
	if !ok {
		return c, nil
	}
	return types.Collection{b.Not()}, nil
}

// evalBooleanOp implements three-valued and/or/xor/implies per
// operators.Registry's NoPropagation policy for and/or/implies (xor
// still propagates Empty, matching the FHIRPath spec table).
func evalBooleanOp(ctx *Context, n *ast.BinaryOp) (types.Collection, error) {
	left, err := Eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	leftTri, leftErr := triOf(left)

	// Short-circuit where FHIRPath's truth tables allow it without
	// evaluating the right operand at all.
	if leftErr == nil {
		switch n.Op {
		case "and":
			if leftTri == types.TriFalse {
				return types.Collection{types.NewBoolean(false)}, nil
			}
		case "or":
			if leftTri == types.TriTrue {
				return types.Collection{types.NewBoolean(true)}, nil
			}
		case "implies":
			if leftTri == types.TriFalse {
				return types.Collection{types.NewBoolean(true)}, nil
			}
		}
	}

	right, err := Eval(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	rightTri, rightErr := triOf(right)

	switch n.Op {
	case "and":
		return triAnd(leftTri, leftErr, rightTri, rightErr)
	case "or":
		return triOr(leftTri, leftErr, rightTri, rightErr)
	case "xor":
		if leftErr != nil || rightErr != nil {
			return types.Collection{}, nil
		}
		return types.Collection{types.NewBoolean((leftTri == types.TriTrue) != (rightTri == types.TriTrue))}, nil
	case "implies":
		return triImplies(leftTri, leftErr, rightTri, rightErr)
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unknown boolean operator %q", n.Op)
	}
}

func triOf(c types.Collection) (types.Tri, error) {
	if len(c) == 0 {
		return types.TriEmpty, nil
	}
	if len(c) > 1 {
		return types.TriEmpty, SingletonError(len(c))
	}
	b, ok := c[0].(types.Boolean)
	if !ok {
		return types.TriEmpty, TypeError("Boolean", c[0].Type(), "boolean operator")
	}
	return types.ToTri(true, b), nil
}

func triAnd(l types.Tri, lerr error, r types.Tri, rerr error) (types.Collection, error) {
	if l == types.TriFalse || r == types.TriFalse {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	if l == types.TriEmpty || r == types.TriEmpty {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

func triOr(l types.Tri, lerr error, r types.Tri, rerr error) (types.Collection, error) {
	if l == types.TriTrue || r == types.TriTrue {
		return types.Collection{types.NewBoolean(true)}, nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	if l == types.TriEmpty || r == types.TriEmpty {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewBoolean(false)}, nil
}

func triImplies(l types.Tri, lerr error, r types.Tri, rerr error) (types.Collection, error) {
	if l == types.TriTrue {
		if rerr != nil {
			return nil, rerr
		}
		if r == types.TriEmpty {
			return types.Collection{}, nil
		}
		return types.Collection{types.NewBoolean(r == types.TriTrue)}, nil
	}
	if r == types.TriTrue {
		return types.Collection{types.NewBoolean(true)}, nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if l == types.TriFalse {
		// A false antecedent makes the implication true regardless of the
		// consequent (even an empty or erroring one) — short-circuits here.
		return types.Collection{types.NewBoolean(true)}, nil
	}
	return types.Collection{}, nil
}

// evalUnion implements `|`: each side gets its own forked *Context (via
// WithThis, which copies the struct) before evaluating, so a
// defineVariable() on one side mutates only its own branch's Context and
// never leaks into the sibling — scopes end at union boundaries per
// spec.md.
func evalUnion(ctx *Context, n *ast.BinaryOp) (types.Collection, error) {
	left, err := Eval(ctx.WithThis(ctx.This()), n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Eval(ctx.WithThis(ctx.This()), n.Right)
	if err != nil {
		return nil, err
	}
	return left.Union(right), nil
}

func evalMembership(ctx *Context, n *ast.BinaryOp) (types.Collection, error) {
	left, err := Eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Eval(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	// `in`: left in right. `contains`: left contains right (right in left).
	needle, haystack := left, right
	if n.Op == "contains" {
		needle, haystack = right, left
	}
	if len(needle) == 0 || len(haystack) == 0 {
		return types.Collection{}, nil
	}
	if len(needle) != 1 {
		return nil, SingletonError(len(needle))
	}
	return types.Collection{types.NewBoolean(haystack.Contains(needle[0]))}, nil
}

func evalEquality(left, right types.Collection, equivalence bool) (types.Collection, error) {
	if !equivalence && (len(left) == 0 || len(right) == 0) {
		return types.Collection{}, nil
	}
	if equivalence && len(left) == 0 && len(right) == 0 {
		return types.Collection{types.NewBoolean(true)}, nil
	}
	if equivalence && (len(left) == 0 || len(right) == 0) {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	if len(left) != len(right) {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	for i := range left {
		var eq bool
		if equivalence {
			eq = left[i].Equivalent(right[i])
		} else {
			eq = left[i].Equal(right[i])
		}
		if !eq {
			return types.Collection{types.NewBoolean(false)}, nil
		}
	}
	return types.Collection{types.NewBoolean(true)}, nil
}

func evalComparison(left, right types.Collection, op string) (types.Collection, error) {
	if len(left) == 0 || len(right) == 0 {
		return types.Collection{}, nil
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, SingletonError(len(left) + len(right))
	}
	cmp, ok := left[0].(types.Comparable)
	if !ok {
		return nil, TypeError("Comparable", left[0].Type(), "comparison "+op)
	}
	result, err := cmp.Compare(right[0])
	if err != nil {
		// Ambiguous/incompatible comparisons (e.g. differing date
		// precision) yield Empty per spec, not a hard failure.
		return types.Collection{}, nil
	}
	switch op {
	case "<":
		return types.Collection{types.NewBoolean(result < 0)}, nil
	case "<=":
		return types.Collection{types.NewBoolean(result <= 0)}, nil
	case ">":
		return types.Collection{types.NewBoolean(result > 0)}, nil
	case ">=":
		return types.Collection{types.NewBoolean(result >= 0)}, nil
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unknown comparison operator %q", op)
	}
}

func evalConcat(left, right types.Collection) (types.Collection, error) {
	l, err := singletonOrEmptyString(left)
	if err != nil {
		return nil, err
	}
	r, err := singletonOrEmptyString(right)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(l + r)}, nil
}

func singletonOrEmptyString(c types.Collection) (string, error) {
	if len(c) == 0 {
		return "", nil
	}
	if len(c) != 1 {
		return "", SingletonError(len(c))
	}
	s, ok := c[0].(types.String)
	if !ok {
		return "", TypeError("String", c[0].Type(), "&")
	}
	return s.Value(), nil
}

func evalArithmetic(left, right types.Collection, op string) (types.Collection, error) {
	if len(left) == 0 || len(right) == 0 {
		return types.Collection{}, nil
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, SingletonError(len(left) + len(right))
	}
	l, r := left[0], right[0]

	if op == "+" {
		if ls, ok := l.(types.String); ok {
			if rs, ok := r.(types.String); ok {
				return types.Collection{types.NewString(ls.Value() + rs.Value())}, nil
			}
			return nil, TypeError("String", r.Type(), "+")
		}
	}

	if lq, ok := l.(types.Quantity); ok {
		rq, ok := r.(types.Quantity)
		if !ok {
			return nil, TypeError("Quantity", r.Type(), op)
		}
		return arithmeticQuantity(lq, rq, op)
	}

	ln, ok := l.(types.Numeric)
	if !ok {
		return nil, TypeError("Numeric", l.Type(), op)
	}
	rn, ok := r.(types.Numeric)
	if !ok {
		return nil, TypeError("Numeric", r.Type(), op)
	}

	li, lIsInt := l.(types.Integer)
	ri, rIsInt := r.(types.Integer)
	if lIsInt && rIsInt && op != "/" {
		return arithmeticInt(li, ri, op)
	}
	return arithmeticDecimal(ln.ToDecimal(), rn.ToDecimal(), op)
}

func arithmeticInt(l, r types.Integer, op string) (types.Collection, error) {
	switch op {
	case "+":
		return types.Collection{l.Add(r)}, nil
	case "-":
		return types.Collection{l.Subtract(r)}, nil
	case "*":
		return types.Collection{l.Multiply(r)}, nil
	case "div":
		v, err := l.Div(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	case "mod":
		v, err := l.Mod(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unknown integer operator %q", op)
	}
}

func arithmeticDecimal(l, r types.Decimal, op string) (types.Collection, error) {
	switch op {
	case "+":
		return types.Collection{l.Add(r)}, nil
	case "-":
		return types.Collection{l.Subtract(r)}, nil
	case "*":
		return types.Collection{l.Multiply(r)}, nil
	case "/":
		v, err := l.Divide(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	case "div":
		v, err := l.Divide(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v.Truncate()}, nil
	case "mod":
		q, err := l.Divide(r)
		if err != nil {
			return types.Collection{}, nil
		}
		whole := q.Truncate()
		prod := whole.ToDecimal().Multiply(r)
		return types.Collection{l.Subtract(prod)}, nil
	default:
		return nil, NewEvalError(ErrInvalidOperation, "unknown decimal operator %q", op)
	}
}

func arithmeticQuantity(l, r types.Quantity, op string) (types.Collection, error) {
	switch op {
	case "+":
		v, err := l.Add(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	case "-":
		v, err := l.Subtract(r)
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	case "*":
		return types.Collection{l.Multiply(r.Value())}, nil
	case "/":
		v, err := l.Divide(r.Value())
		if err != nil {
			return types.Collection{}, nil
		}
		return types.Collection{v}, nil
	default:
		return nil, NewEvalError(ErrInvalidOperation, "quantities do not support %q", op)
	}
}

// evalTypeExpr implements `expr is Type` and `expr as Type`.
func evalTypeExpr(ctx *Context, n *ast.TypeExpr) (types.Collection, error) {
	left, err := Eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	if len(left) == 0 {
		if n.Op == "is" {
			return types.Collection{types.NewBoolean(false)}, nil
		}
		return types.Collection{}, nil
	}
	if len(left) != 1 {
		return nil, SingletonError(len(left))
	}
	matches := matchesType(ctx, left[0], n.Type.Name)
	if n.Op == "is" {
		return types.Collection{types.NewBoolean(matches)}, nil
	}
	if matches {
		return left, nil
	}
	return types.Collection{}, nil
}
