// Package engines contains the speech backends: the platform system voice,
// Kokoro, Coqui XTTS-v2, Piper and Google TTS. Each implements tts.Backend
// and writes a WAV file per chunk.
package engines
