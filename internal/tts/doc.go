// Package tts turns text chunks into audio files. A Registry holds the
// available speech backends and a Synthesizer writes one chunk to disk
// through the resolved backend, consulting the audio cache first.
package tts
