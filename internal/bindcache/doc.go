// Package bindcache maps texture cache keys to native texture handles.
//
// Entries are created on first use and live until Flush, or until the
// optional soft limit evicts the least recently used quarter of them.
// The cache is not safe for concurrent use; it belongs to the render thread.
package bindcache
