package funcs

import (
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "type", MinArgs: 0, MaxArgs: 0, Fn: fnType})
	eval.RegisterFunction(eval.FuncDef{Name: "is", MinArgs: 1, MaxArgs: 1, Fn: fnIsFunc})
	eval.RegisterFunction(eval.FuncDef{Name: "as", MinArgs: 1, MaxArgs: 1, Fn: fnAsFunc})
	eval.RegisterFunction(eval.FuncDef{Name: "hasValue", MinArgs: 0, MaxArgs: 0, Fn: fnHasValue})
}

func fnType(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	var result types.Collection
	for _, v := range target {
		result = append(result, types.NewTypeInfoObject(valueTypeInfo(v)))
	}
	return result, nil
}

func valueTypeInfo(v types.Value) types.TypeInfo {
	if res, ok := v.(*types.Resource); ok {
		info := res.TypeInfo()
		if !info.IsZero() {
			return info
		}
		return types.TypeInfo{Namespace: types.NamespaceFHIR, Name: res.Type(), Singleton: true}
	}
	return types.TypeInfo{Namespace: types.NamespaceSystem, Name: v.Type(), Singleton: true}
}

func fnIsFunc(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	typeName, err := typeSpecifierName(args[0])
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	if len(target) != 1 {
		return nil, eval.SingletonError(len(target))
	}
	return types.Collection{types.NewBoolean(matchesTypeName(ctx, target[0], typeName))}, nil
}

func fnAsFunc(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	typeName, err := typeSpecifierName(args[0])
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return types.Collection{}, nil
	}
	if len(target) != 1 {
		return nil, eval.SingletonError(len(target))
	}
	if matchesTypeName(ctx, target[0], typeName) {
		return target, nil
	}
	return types.Collection{}, nil
}

func fnHasValue(_ *eval.Context, target types.Collection, _ []ast.Expr) (types.Collection, error) {
	if len(target) != 1 {
		return types.Collection{types.NewBoolean(false)}, nil
	}
	if res, ok := target[0].(*types.Resource); ok {
		_, present := res.Get("value")
		return types.Collection{types.NewBoolean(present)}, nil
	}
	return types.Collection{types.NewBoolean(true)}, nil
}
