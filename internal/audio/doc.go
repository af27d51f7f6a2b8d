// Package audio decodes the WAV files written by speech backends and plays
// them through the system audio device using oto/v3.
package audio
