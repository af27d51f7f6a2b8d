package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// WAV format tags.
const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

var (
	// ErrNotWAV is returned when the input has no RIFF/WAVE header.
	ErrNotWAV = errors.New("not a RIFF/WAVE file")

	// ErrUnsupportedFormat is returned for compressed or exotic WAV encodings.
	ErrUnsupportedFormat = errors.New("unsupported WAV encoding")

	// ErrNoAudioData is returned when the file has no samples.
	ErrNoAudioData = errors.New("WAV file contains no audio data")
)

// PCM is decoded interleaved sample data with its format.
type PCM struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Float      bool
	Data       []byte
}

// Duration returns the playing time of the samples.
func (p *PCM) Duration() time.Duration {
	frame := p.frameSize()
	if frame == 0 || p.SampleRate == 0 {
		return 0
	}
	frames := len(p.Data) / frame
	return time.Duration(frames) * time.Second / time.Duration(p.SampleRate)
}

func (p *PCM) frameSize() int {
	return p.BitDepth / 8 * p.Channels
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (*PCM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read audio file: %w", err)
	}
	return DecodeWAV(bytes.NewReader(data))
}

// DecodeWAV parses a RIFF/WAVE stream. Unknown chunks are skipped and a
// data chunk with a bogus length (streamed writers use 0xFFFFFFFF) is read
// to EOF.
func DecodeWAV(r io.Reader) (*PCM, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, ErrNotWAV
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		pcm     PCM
		haveFmt bool
	)
	for {
		var ch [8]byte
		if _, err := io.ReadFull(r, ch[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(ch[0:4])
		size := binary.LittleEndian.Uint32(ch[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			if err := parseFmt(body, &pcm); err != nil {
				return nil, err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrUnsupportedFormat)
			}
			var data []byte
			var err error
			if size == math.MaxUint32 || size == 0 {
				data, err = io.ReadAll(r)
			} else {
				data = make([]byte, size)
				var n int
				n, err = io.ReadFull(r, data)
				if errors.Is(err, io.ErrUnexpectedEOF) {
					data, err = data[:n], nil
				}
			}
			if err != nil {
				return nil, fmt.Errorf("read data chunk: %w", err)
			}
			if frame := pcm.frameSize(); frame > 0 {
				data = data[:len(data)-len(data)%frame]
			}
			if len(data) == 0 {
				return nil, ErrNoAudioData
			}
			pcm.Data = data
			return &pcm, nil
		default:
			skip := int64(size) + int64(size&1)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, ErrNoAudioData
			}
			continue
		}

		if size&1 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				break
			}
		}
	}
	return nil, ErrNoAudioData
}

func parseFmt(body []byte, pcm *PCM) error {
	if len(body) < 16 {
		return fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
	}
	tag := binary.LittleEndian.Uint16(body[0:2])
	pcm.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
	pcm.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
	pcm.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))

	if tag == formatExtensible && len(body) >= 26 {
		tag = binary.LittleEndian.Uint16(body[24:26])
	}
	switch tag {
	case formatPCM:
		switch pcm.BitDepth {
		case 8, 16, 24, 32:
		default:
			return fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, pcm.BitDepth)
		}
	case formatFloat:
		if pcm.BitDepth != 32 {
			return fmt.Errorf("%w: %d-bit float", ErrUnsupportedFormat, pcm.BitDepth)
		}
		pcm.Float = true
	default:
		return fmt.Errorf("%w: format tag %#x", ErrUnsupportedFormat, tag)
	}
	if pcm.Channels < 1 || pcm.SampleRate < 1 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, pcm.Channels, pcm.SampleRate)
	}
	return nil
}

// EncodeWAV writes p as a canonical 44-byte-header PCM WAV.
func EncodeWAV(w io.Writer, p *PCM) error {
	if p.Float {
		return fmt.Errorf("%w: float output", ErrUnsupportedFormat)
	}
	blockAlign := p.frameSize()
	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+len(p.Data))) //nolint:gosec
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(p.Channels))              //nolint:gosec
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(p.SampleRate))            //nolint:gosec
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(p.SampleRate*blockAlign)) //nolint:gosec
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))              //nolint:gosec
	binary.LittleEndian.PutUint16(hdr[34:36], uint16(p.BitDepth))              //nolint:gosec
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(p.Data))) //nolint:gosec

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(p.Data)
	return err
}

// Convert returns the samples as signed 16-bit little-endian PCM with the
// given rate and channel count. Channels are averaged down to mono or
// duplicated up; the rate is changed by linear interpolation.
func (p *PCM) Convert(rate, channels int) ([]byte, error) {
	if rate <= 0 || (channels != 1 && channels != 2) {
		return nil, fmt.Errorf("invalid target format: %d Hz, %d channels", rate, channels)
	}
	mono := p.monoSamples()
	if len(mono) == 0 {
		return nil, ErrNoAudioData
	}
	if p.SampleRate != rate {
		mono = resample(mono, p.SampleRate, rate)
	}

	out := make([]byte, len(mono)*2*channels)
	for i, s := range mono {
		v := uint16(s) //nolint:gosec
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint16(out[(i*channels+c)*2:], v)
		}
	}
	return out, nil
}

// monoSamples decodes every frame to int16 and averages its channels.
func (p *PCM) monoSamples() []int16 {
	frame := p.frameSize()
	if frame == 0 {
		return nil
	}
	width := p.BitDepth / 8
	frames := len(p.Data) / frame
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < p.Channels; c++ {
			off := i*frame + c*width
			sum += int(p.sample(p.Data[off : off+width]))
		}
		out[i] = int16(sum / p.Channels) //nolint:gosec
	}
	return out
}

func (p *PCM) sample(b []byte) int16 {
	switch {
	case p.Float:
		f := math.Float32frombits(binary.LittleEndian.Uint32(b))
		f = max(-1, min(1, f))
		return int16(f * math.MaxInt16)
	case p.BitDepth == 8:
		return int16(int(b[0])-128) << 8
	case p.BitDepth == 16:
		return int16(binary.LittleEndian.Uint16(b)) //nolint:gosec
	case p.BitDepth == 24:
		return int16(uint16(b[1]) | uint16(b[2])<<8) //nolint:gosec
	default:
		return int16(binary.LittleEndian.Uint16(b[2:4])) //nolint:gosec
	}
}

func resample(in []int16, from, to int) []int16 {
	n := int(int64(len(in)) * int64(to) / int64(from))
	if n == 0 {
		return nil
	}
	out := make([]int16, n)
	step := float64(from) / float64(to)
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = in[last]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(in[j])*(1-frac) + float64(in[j+1])*frac)
	}
	return out
}
