// ABOUTME: Tests for the WAV loop decoder
// ABOUTME: Builds small in-memory WAVE streams and checks decoded PCM
package decode

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE stream around the given data chunk.
func buildWAV(channels, sampleRate, bitDepth int, data []byte) []byte {
	var buf bytes.Buffer

	writeFmt := func() {
		body := make([]byte, 16)
		binary.LittleEndian.PutUint16(body[0:2], 1) // PCM
		binary.LittleEndian.PutUint16(body[2:4], uint16(channels))
		binary.LittleEndian.PutUint32(body[4:8], uint32(sampleRate))
		byteRate := sampleRate * channels * bitDepth / 8
		binary.LittleEndian.PutUint32(body[8:12], uint32(byteRate))
		binary.LittleEndian.PutUint16(body[12:14], uint16(channels*bitDepth/8))
		binary.LittleEndian.PutUint16(body[14:16], uint16(bitDepth))

		buf.WriteString("fmt ")
		binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
		buf.Write(body)
	}

	writeFmt()
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+buf.Len()))
	out.WriteString("WAVE")
	out.Write(buf.Bytes())
	return out.Bytes()
}

func TestWAVDecode16Bit(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 42}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	format, pcm, err := WAV(bytes.NewReader(buildWAV(2, 48000, 16, data)))
	if err != nil {
		t.Fatalf("WAV decode failed: %v", err)
	}

	if format.SampleRate != 48000 || format.Channels != 2 || format.BitDepth != 16 {
		t.Errorf("unexpected format: %+v", format)
	}
	if len(pcm) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(pcm))
	}
	for i, want := range samples {
		if pcm[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, pcm[i])
		}
	}
}

func TestWAVDecode24Bit(t *testing.T) {
	// One full-scale positive and one full-scale negative 24-bit sample
	data := []byte{
		0xFF, 0xFF, 0x7F, // 8388607
		0x00, 0x00, 0x80, // -8388608
	}

	format, pcm, err := WAV(bytes.NewReader(buildWAV(1, 44100, 24, data)))
	if err != nil {
		t.Fatalf("WAV decode failed: %v", err)
	}

	// Output is normalized to 16-bit
	if format.BitDepth != 16 {
		t.Errorf("expected normalized 16-bit output, got %d", format.BitDepth)
	}
	if len(pcm) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(pcm))
	}
	if pcm[0] != 32767 {
		t.Errorf("expected 32767, got %d", pcm[0])
	}
	if pcm[1] != -32768 {
		t.Errorf("expected -32768, got %d", pcm[1])
	}
}

func TestWAVSkipsUnknownChunks(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	raw := buildWAV(2, 48000, 16, data)

	// Splice a LIST chunk between fmt and data
	var buf bytes.Buffer
	fmtEnd := 12 + 8 + 16
	buf.Write(raw[:fmtEnd])
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(6))
	buf.Write([]byte{1, 2, 3, 4, 5, 6})
	buf.Write(raw[fmtEnd:])

	_, pcm, err := WAV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("WAV decode failed: %v", err)
	}
	if len(pcm) != 4 {
		t.Errorf("expected 4 samples, got %d", len(pcm))
	}
}

func TestWAVRejectsNonWave(t *testing.T) {
	if _, _, err := WAV(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00JUNK"))); err == nil {
		t.Error("expected error for non-WAVE stream")
	}
	if _, _, err := WAV(bytes.NewReader([]byte("hello"))); err == nil {
		t.Error("expected error for truncated stream")
	}
}

func TestWAVRejectsUnsupportedEncoding(t *testing.T) {
	raw := buildWAV(2, 48000, 16, nil)
	// Patch the fmt chunk's encoding field to IEEE float (3)
	raw[12+8] = 3

	if _, _, err := WAV(bytes.NewReader(raw)); err == nil {
		t.Error("expected error for non-PCM encoding")
	}
}
