// Package artifacts persists compiled stylesheets.
//
// Writer compares new content against what is already on disk and skips the
// write when they match, so downstream watchers and caches only see files
// that really changed. Guard rejects two sources that resolve to the same
// output path within one run.
package artifacts
