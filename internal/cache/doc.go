// Package cache stores synthesized chunk audio so that re-reading a document
// does not synthesize it again. A memory LRU sits in front of a
// zstd-compressed disk cache that survives restarts.
package cache
