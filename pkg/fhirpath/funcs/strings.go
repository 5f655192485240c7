package funcs

import (
	"strings"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "length", MinArgs: 0, MaxArgs: 0, Fn: fnLength})
	eval.RegisterFunction(eval.FuncDef{Name: "indexOf", MinArgs: 1, MaxArgs: 1, Fn: fnIndexOf})
	eval.RegisterFunction(eval.FuncDef{Name: "substring", MinArgs: 1, MaxArgs: 2, Fn: fnSubstring})
	eval.RegisterFunction(eval.FuncDef{Name: "startsWith", MinArgs: 1, MaxArgs: 1, Fn: fnStartsWith})
	eval.RegisterFunction(eval.FuncDef{Name: "endsWith", MinArgs: 1, MaxArgs: 1, Fn: fnEndsWith})
	eval.RegisterFunction(eval.FuncDef{Name: "contains", MinArgs: 1, MaxArgs: 1, Fn: fnContainsStr})
	eval.RegisterFunction(eval.FuncDef{Name: "upper", MinArgs: 0, MaxArgs: 0, Fn: fnUpper})
	eval.RegisterFunction(eval.FuncDef{Name: "lower", MinArgs: 0, MaxArgs: 0, Fn: fnLower})
	eval.RegisterFunction(eval.FuncDef{Name: "replace", MinArgs: 2, MaxArgs: 2, Fn: fnReplace})
	eval.RegisterFunction(eval.FuncDef{Name: "trim", MinArgs: 0, MaxArgs: 0, Fn: fnTrim})
	eval.RegisterFunction(eval.FuncDef{Name: "split", MinArgs: 1, MaxArgs: 1, Fn: fnSplit})
	eval.RegisterFunction(eval.FuncDef{Name: "join", MinArgs: 0, MaxArgs: 1, Fn: fnJoin})
	eval.RegisterFunction(eval.FuncDef{Name: "toChars", MinArgs: 0, MaxArgs: 0, Fn: fnToChars})
	eval.RegisterFunction(eval.FuncDef{Name: "encode", MinArgs: 1, MaxArgs: 1, Fn: fnEncode})
	eval.RegisterFunction(eval.FuncDef{Name: "decode", MinArgs: 1, MaxArgs: 1, Fn: fnDecode})
}

// singletonString extracts target as a single String, per FHIRPath
// string functions' convention of operating only on String singletons
// (an empty input propagates empty, anything else is a type error).
func singletonString(target types.Collection, op string) (string, bool, error) {
	if len(target) == 0 {
		return "", false, nil
	}
	if len(target) != 1 {
		return "", false, eval.SingletonError(len(target))
	}
	s, ok := target[0].(types.String)
	if !ok {
		return "", false, eval.TypeError("String", target[0].Type(), op)
	}
	return s.Value(), true, nil
}

func argString(ctx *eval.Context, e ast.Expr) (string, bool, error) {
	res, err := eval.Eval(ctx, e)
	if err != nil {
		return "", false, err
	}
	return singletonString(res, "argument")
}

func fnLength(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "length")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{types.NewInteger(int64(len([]rune(s))))}, nil
}

func fnIndexOf(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "indexOf")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	sub, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewInteger(int64(strings.Index(s, sub)))}, nil
}

func fnSubstring(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "substring")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	start, err := evalSingletonInt(ctx, args[0])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	if start < 0 || start >= len(runes) {
		return types.Collection{}, nil
	}
	length := len(runes) - start
	if len(args) == 2 {
		l, err := evalSingletonInt(ctx, args[1])
		if err != nil {
			return nil, err
		}
		if l < length {
			length = l
		}
	}
	if length < 0 {
		return types.Collection{}, nil
	}
	return types.Collection{types.NewString(string(runes[start : start+length]))}, nil
}

func fnStartsWith(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "startsWith")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	prefix, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(strings.HasPrefix(s, prefix))}, nil
}

func fnEndsWith(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "endsWith")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	suffix, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(strings.HasSuffix(s, suffix))}, nil
}

func fnContainsStr(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "contains")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	sub, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewBoolean(strings.Contains(s, sub))}, nil
}

func fnUpper(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "upper")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{types.NewString(strings.ToUpper(s))}, nil
}

func fnLower(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "lower")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{types.NewString(strings.ToLower(s))}, nil
}

func fnReplace(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "replace")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	pattern, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	replacement, _, err := argString(ctx, args[1])
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(strings.ReplaceAll(s, pattern, replacement))}, nil
}

func fnTrim(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "trim")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	return types.Collection{types.NewString(strings.TrimSpace(s))}, nil
}

func fnSplit(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "split")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	sep, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	var result types.Collection
	for _, part := range strings.Split(s, sep) {
		result = append(result, types.NewString(part))
	}
	return result, nil
}

func fnJoin(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	sep := ""
	if len(args) == 1 {
		var err error
		sep, _, err = argString(ctx, args[0])
		if err != nil {
			return nil, err
		}
	}
	parts := make([]string, 0, len(target))
	for _, v := range target {
		s, ok := v.(types.String)
		if !ok {
			return nil, eval.TypeError("String", v.Type(), "join")
		}
		parts = append(parts, s.Value())
	}
	return types.Collection{types.NewString(strings.Join(parts, sep))}, nil
}

func fnToChars(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "toChars")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	var result types.Collection
	for _, r := range s {
		result = append(result, types.NewString(string(r)))
	}
	return result, nil
}

func fnEncode(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "encode")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	scheme, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	encoded, err := encodeString(s, scheme)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(encoded)}, nil
}

func fnDecode(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "decode")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	scheme, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	decoded, err := decodeString(s, scheme)
	if err != nil {
		return nil, err
	}
	return types.Collection{types.NewString(decoded)}, nil
}
