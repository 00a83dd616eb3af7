// Package async provides background tasks that are explicitly spawned and
// explicitly joined.
//
// # Overview
//
// Go starts a function in a goroutine with panic recovery and error logging,
// and returns a Task handle. The preprocessor uses it for the version-file
// write, which runs alongside compilation but outside the compilation barrier.
//
//	task := async.Go(ctx, "version file", log, func(ctx context.Context) error {
//		return writer.Write(ctx, coder, app)
//	})
//	signalComplete()
//	if err := task.Wait(); err != nil {
//		// already logged by the task
//	}
//
// # Features
//
// Panic Recovery: a panic is logged with its stack and returned from Wait
// Context Propagation: the function receives the caller's context
// Joinable: Wait and Done expose completion
package async
