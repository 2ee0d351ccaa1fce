// Package audio normalizes recorded audio for batch transcription. Browser
// capture pipelines sometimes ship raw PCM16 frames with no container; the
// upstream batch API wants a recognizable file format.
package audio

import (
	"bytes"
	"encoding/binary"
)

var containerMagics = [][]byte{
	[]byte("RIFF"),                   // wav
	[]byte("OggS"),                   // ogg/opus
	[]byte("ID3"),                    // mp3 with tag
	[]byte("fLaC"),                   // flac
	{0x1A, 0x45, 0xDF, 0xA3},         // webm/matroska
	{0xFF, 0xFB}, {0xFF, 0xF3},       // bare mp3 frames
	{0xFF, 0xF1}, {0xFF, 0xF9},       // adts aac
}

// HasKnownContainer reports whether data starts like a recognizable audio
// file. mp4/m4a carries its magic at offset 4.
func HasKnownContainer(data []byte) bool {
	for _, magic := range containerMagics {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	return len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp"))
}

// EnsureContainer passes containerized audio through unchanged and wraps
// anything else as mono PCM16LE WAV at the given sample rate.
func EnsureContainer(data []byte, sampleRate int) []byte {
	if HasKnownContainer(data) {
		return data
	}
	return WrapPCM16(data, sampleRate)
}

type wavHeader struct {
	RiffID        [4]byte
	RiffSize      uint32
	WaveID        [4]byte
	FmtID         [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataID        [4]byte
	DataSize      uint32
}

// WrapPCM16 wraps raw mono PCM16LE samples in a WAV container.
func WrapPCM16(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	hdr := wavHeader{
		RiffID:        [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:      36 + uint32(len(pcm)),
		WaveID:        [4]byte{'W', 'A', 'V', 'E'},
		FmtID:         [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * numChannels * bitsPerSample / 8),
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(len(pcm)),
	}

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	_ = binary.Write(&buf, binary.LittleEndian, hdr)
	buf.Write(pcm)
	return buf.Bytes()
}
