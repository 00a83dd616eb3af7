// Package selector decides which source files a run compiles.
//
// Two modes exist. With a whitelist, each "source[:destination]" entry is
// split on its first colon and the destination, when given, replaces the
// output name the compiler would choose. Without one, the source root is
// walked recursively and directories and known non-source artifacts
// (Thumbs.db, .DS_Store, ...) are skipped.
//
//	entries, err := selector.Select(selector.Config{
//		Root:      params.CSSPath,
//		Whitelist: params.CSSCompilerWhitelist,
//		Ignore:    params.CSSIgnoreFiles,
//	})
package selector
