// Package plugins defines the compiler plugin contract and how plugins are
// registered, validated and discovered.
//
// # Overview
//
// A compiler plugin turns one stylesheet source into compiled text plus a
// suggested output name. The host registers concrete values in a Registry
// under a name; the preprocessor resolves the configured name and passes the
// value through ValidateCompiler before reading any file.
//
// # Contract
//
//	type CompilerPlugin interface {
//		Manifest() *Manifest
//		Parse(ctx context.Context, app *App, fileName string) (outputName, compiled string, err error)
//	}
//
// Plugins that render the version-stamp file also implement VersionCoder.
//
// # Command Plugins
//
// A directory under one of the plugin dirs holding a plugin.yaml declares a
// compiler backed by an external command:
//
//	id: stylus
//	name: Stylus
//	version: 1.0.0
//	api_version: 1.0.0
//	command: stylus
//	args: ["--print", "{file}"]
//	output_ext: .css
//	version_code: "{var} = '{version}'"
//
// # Usage Example
//
//	registry := plugins.NewRegistry()
//	if err := registry.RegisterCompiler(myCompiler); err != nil {
//		log.Fatal(err)
//	}
//	loader := plugins.NewLoader([]string{"./plugins"}, logger)
//	if _, err := loader.Load(ctx, registry); err != nil {
//		log.Fatal(err)
//	}
package plugins
