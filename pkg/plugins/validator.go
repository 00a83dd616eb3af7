package plugins

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// parseParams are the declared parameters Parse must take, after the context
var parseParams = []string{"app", "fileName"}

// ValidateCompiler checks that a value resolved from the registry can serve
// as the compiler. It runs before any source file is read.
//
// The check is structural: the value must implement CompilerPlugin. When it
// does not, its Parse method is inspected so the diagnostic names what is
// wrong (missing method, wrong parameter count, wrong types). The manifest
// must be complete and target a compatible API version. When requireVersionCode
// is set the plugin must also implement VersionCoder.
func ValidateCompiler(candidate any, requireVersionCode bool) (CompilerPlugin, error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: plugin is nil", ErrIncompatible)
	}

	compiler, ok := candidate.(CompilerPlugin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIncompatible, describeMismatch(candidate))
	}

	if problems := ValidateManifest(compiler.Manifest()); len(problems) > 0 {
		errs := make([]error, 0, len(problems))
		for _, problem := range problems {
			errs = append(errs, problem)
		}
		return nil, fmt.Errorf("%w: invalid manifest: %w", ErrIncompatible, errors.Join(errs...))
	}

	if requireVersionCode {
		manifest := compiler.Manifest()
		if _, ok := candidate.(VersionCoder); !ok {
			return nil, fmt.Errorf("%w: %s does not implement VersionCode(app)", ErrIncompatible, manifest.ID)
		}
		// Command plugins implement VersionCode through the manifest template
		if manifest.Command != "" && manifest.VersionCode == "" {
			return nil, fmt.Errorf("%w: %s has no version_code template", ErrIncompatible, manifest.ID)
		}
	}

	return compiler, nil
}

// describeMismatch explains why a value does not implement CompilerPlugin
func describeMismatch(candidate any) string {
	value := reflect.ValueOf(candidate)
	typeName := value.Type().String()

	parse := value.MethodByName("Parse")
	if !parse.IsValid() {
		return fmt.Sprintf("%s has no Parse method", typeName)
	}

	parseType := parse.Type()
	if declared := declaredParams(parseType); declared != len(parseParams) {
		return fmt.Sprintf("%s.Parse declares %d parameters, want %d (%s, %s)",
			typeName, declared, len(parseParams), parseParams[0], parseParams[1])
	}

	if !value.MethodByName("Manifest").IsValid() {
		return fmt.Sprintf("%s has no Manifest method", typeName)
	}

	return fmt.Sprintf("%s.Parse has signature %s, want func(context.Context, *plugins.App, string) (string, string, error)",
		typeName, parseType)
}

// declaredParams counts the parameters of a method value, not counting a
// leading context.Context
func declaredParams(fn reflect.Type) int {
	n := fn.NumIn()
	if n > 0 && fn.In(0) == contextType {
		n--
	}
	return n
}
