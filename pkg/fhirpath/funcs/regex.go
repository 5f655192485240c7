package funcs

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"

	"github.com/octofhir/fhirpath-go/pkg/fhirpath/ast"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/eval"
	"github.com/octofhir/fhirpath-go/pkg/fhirpath/types"
)

func init() {
	eval.RegisterFunction(eval.FuncDef{Name: "matches", MinArgs: 1, MaxArgs: 1, Fn: fnMatches})
	eval.RegisterFunction(eval.FuncDef{Name: "replaceMatches", MinArgs: 2, MaxArgs: 2, Fn: fnReplaceMatches})
}

func fnMatches(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "matches")
	if err != nil || !ok {
		return types.Collection{}, err
	}
	pattern, _, err := argString(ctx, args[0])
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrInvalidArguments, "invalid regular expression %q: %v", pattern, err)
	}
	return types.Collection{types.NewBoolean(re.MatchString(s))}, nil
}

func fnReplaceMatches(ctx *eval.Context, target types.Collection, args []ast.Expr) (types.Collection, error) {
	s, ok, err := singletonString(target, "replaceMatches")
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
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eval.NewEvalError(eval.ErrInvalidArguments, "invalid regular expression %q: %v", pattern, err)
	}
	// FHIRPath uses $1, $2... backreferences; Go's regexp wants ${1}.
	goReplacement := dollarDigitToGoGroup(replacement)
	return types.Collection{types.NewString(re.ReplaceAllString(s, goReplacement))}, nil
}

func dollarDigitToGoGroup(s string) string {
	re := regexp.MustCompile(`\$(\d+)`)
	return re.ReplaceAllString(s, "${$1}")
}

func encodeString(s, scheme string) (string, error) {
	switch scheme {
	case "base64":
		return base64.StdEncoding.EncodeToString([]byte(s)), nil
	case "urlbase64":
		return base64.URLEncoding.EncodeToString([]byte(s)), nil
	case "hex":
		return hex.EncodeToString([]byte(s)), nil
	case "urlcomponent":
		return url.QueryEscape(s), nil
	default:
		return "", fmt.Errorf("unsupported encode scheme %q", scheme)
	}
}

func decodeString(s, scheme string) (string, error) {
	switch scheme {
	case "base64":
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "urlbase64":
		b, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "hex":
		b, err := hex.DecodeString(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "urlcomponent":
		return url.QueryUnescape(s)
	default:
		return "", fmt.Errorf("unsupported decode scheme %q", scheme)
	}
}
