// Package playback reads a text aloud chunk by chunk. A single goroutine
// owns the reading state; callers drive it with commands and observe it
// through Status snapshots.
package playback
