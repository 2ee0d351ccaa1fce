package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWrapPCM16Header(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	wav := WrapPCM16(pcm, 16000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE markers: % x", wav[:12])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", size, len(pcm))
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Fatalf("payload mangled: % x", wav[44:])
	}
}

func TestHasKnownContainer(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want bool
	}{
		{"wav", []byte("RIFFxxxxWAVE"), true},
		{"ogg", []byte("OggSxxxx"), true},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}, true},
		{"m4a", append([]byte{0, 0, 0, 32}, []byte("ftypM4A mp42")...), true},
		{"raw pcm", []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		if got := HasKnownContainer(tc.data); got != tc.want {
			t.Fatalf("%s: HasKnownContainer = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEnsureContainerPassthrough(t *testing.T) {
	wav := WrapPCM16([]byte{1, 2}, 16000)
	if got := EnsureContainer(wav, 16000); !bytes.Equal(got, wav) {
		t.Fatalf("containerized audio was rewrapped")
	}
	raw := []byte{9, 9, 9, 9}
	if got := EnsureContainer(raw, 16000); !bytes.HasPrefix(got, []byte("RIFF")) {
		t.Fatalf("raw pcm was not wrapped: % x", got[:4])
	}
}
