// Package watch reruns stylesheet preprocessing when files under the
// source root change.
//
// Events are debounced so an editor saving several files triggers a single
// rebuild. Changes under the output root are ignored.
//
//	w, err := watch.New(watch.Config{
//		SourceRoot: params.CSSPath,
//		OutputRoot: params.CSSCompiledOutput,
//		Debounce:   params.WatchDebounce,
//		Ignore:     params.CSSIgnoreFiles,
//	}, preprocessor, logger)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	return w.Watch(ctx)
package watch
