// Package preprocess drives a stylesheet compilation run.
//
// # Overview
//
// A Preprocessor resolves the configured compiler from the plugin registry,
// validates it, selects source files, and compiles each one in its own
// goroutine. Outputs are written only when their content changed. An
// optional version-stamp file is generated alongside.
//
//	pre, err := preprocess.New(preprocess.Options{
//		Params:     params,
//		Registry:   registry,
//		Logger:     logger,
//		OnComplete: func() { close(ready) },
//	})
//	if err := pre.Run(ctx); err != nil {
//		logger.WithError(err).Fatal("stylesheets are not usable")
//	}
//
// # Failure Policy
//
// A missing plugin disables the compiler and the run still completes. A
// plugin that fails validation, a missing whitelisted file, a parse failure,
// a write failure or an output collision ends the run in PROCESS_EXIT: Run
// returns the error and OnComplete is not called.
//
// The aggregation setting picks how a failing file ends the batch:
// collect_all (default) lets every file finish and joins all errors;
// fail_fast cancels files that have not started yet.
//
// # Related Packages
//
//   - pkg/selector: file selection
//   - pkg/artifacts: idempotent writes and collision detection
//   - pkg/versionfile: version-stamp file
//   - pkg/cache: parse-result cache
package preprocess
