// Package cache stores compiler parse results between runs.
//
// MemoryCache is an expiring LRU for the life of the process (watch mode
// benefits most). RedisCache shares results between machines, and Tiered
// layers the two.
//
// Keys combine the plugin identity, the app identity, the compiler options
// and a digest of the entire source tree, so a change to any source file
// (including imported partials) invalidates every entry.
package cache
