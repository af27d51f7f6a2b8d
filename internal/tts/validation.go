package tts

import (
	"fmt"
	"runtime"
)

// Guidance returns installation instructions for the backend id.
func Guidance(id string) string {
	switch id {
	case "system":
		return systemGuidance(runtime.GOOS)
	case "kokoro":
		return kokoroGuidance
	case "xtts":
		return xttsGuidance
	case "piper":
		return piperGuidance
	case "gtts":
		return gttsGuidance + "\n\n" + ffmpegGuidance
	default:
		return fmt.Sprintf("No installation instructions for %q. Run `mailreader backends` to list known backends.", id)
	}
}

func systemGuidance(goos string) string {
	switch goos {
	case "darwin":
		return "The system voice uses the built-in `say` command, which ships with macOS."
	case "windows":
		return "The system voice uses Windows PowerShell and System.Speech, which ship with Windows."
	default:
		return `The system voice needs espeak-ng (or espeak). To install:

   # Ubuntu/Debian
   sudo apt install espeak-ng

   # Fedora
   sudo dnf install espeak-ng

   # Arch Linux
   sudo pacman -S espeak-ng`
	}
}

const kokoroGuidance = `Kokoro (high quality, offline) is not installed. Either:

1. Install the Python package:
   mailreader setup --group kokoro

   # or manually
   python -m pip install numpy soundfile phonemizer "kokoro>=0.9.2"

2. Or point mailreader at a running Kokoro server:
   tts:
     kokoro:
       url: http://localhost:8880`

const xttsGuidance = `XTTS-v2 (Coqui TTS) is not installed. To install:

   mailreader setup --group xtts

   # or manually
   python -m pip install TTS

The first synthesis downloads the xtts_v2 model (about 1.8GB).`

const piperGuidance = `Piper TTS is not installed. To install:

1. Install via pip:
   python -m pip install piper-tts

2. Download a voice model from: https://github.com/rhasspy/piper/blob/master/VOICES.md

3. Configure the model path in mailreader.yml:
   tts:
     piper:
       model: ~/.local/share/piper/models/en_US-amy-medium.onnx`

const gttsGuidance = `gTTS (Google Text-to-Speech) is not installed. To install:

   python -m pip install gTTS

No API key required. gTTS needs an internet connection.`

const ffmpegGuidance = `ffmpeg is required for gTTS audio conversion. To install:

   # Ubuntu/Debian
   sudo apt install ffmpeg

   # macOS (Homebrew)
   brew install ffmpeg

   # Windows (Chocolatey)
   choco install ffmpeg`
