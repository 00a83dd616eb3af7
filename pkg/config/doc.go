// Package config loads the preprocessor settings from a YAML file and the environment.
//
// # Overview
//
// Settings mirror the host application's key-value store: identity fields,
// source and output roots, the compiler selection, the optional whitelist and
// the optional version-stamp file. Environment variables override the file.
//
// # Configuration File
//
//	app_name: myapp
//	app_version: 1.4.0
//	css_path: statics/css
//	css_compiled_output: .build/css
//	css_compiler:
//	  plugin: stylus
//	  options: {compress: "true"}
//	css_compiler_whitelist:
//	  - main.styl
//	  - legacy/foo.styl:bar/out.css
//	versioned_css_file:
//	  file_name: _version.styl
//	  var_name: appVersion
//
// css_compiler may also be the string "none". A css_compiler_whitelist that is
// not a list is accepted at load time and reported when the preprocessor runs.
//
// # Environment Overrides
//
//	CSSPREP_APP_NAME="myapp"
//	CSSPREP_APP_VERSION="1.4.0"
//	CSSPREP_CSS_PATH="statics/css"
//	CSSPREP_CSS_COMPILED_OUTPUT=".build/css"
//	CSSPREP_COMPILER="stylus"        # or "none"
//	CSSPREP_MAX_PARALLEL="8"
//	CSSPREP_LOG_LEVEL="debug"
//	CSSPREP_CACHE_ENABLED="true"
//	CSSPREP_REDIS_URL="redis://localhost:6379/0"
//	CSSPREP_S3_BUCKET="assets"
//
// # Usage Example
//
//	params, err := config.Load("cssprep.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(params.CSSCompiler.Name())
package config
