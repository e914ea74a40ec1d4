// ABOUTME: WAV loop file decoder
// ABOUTME: Parses RIFF chunks and converts 16/24-bit PCM to int16 samples
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
)

const wavFormatPCM = 1

// WAV decodes a RIFF/WAVE stream into 16-bit interleaved PCM.
func WAV(r io.Reader) (audio.Format, []int16, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return audio.Format{}, nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return audio.Format{}, nil, fmt.Errorf("not a WAVE file")
	}

	var format audio.Format
	var data []byte
	haveFmt := false

	// Walk chunks until the data chunk; ignore anything else (LIST, cue, etc.)
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return audio.Format{}, nil, fmt.Errorf("failed to read chunk header: %w", err)
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return audio.Format{}, nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return audio.Format{}, nil, fmt.Errorf("fmt chunk too short: %d bytes", len(body))
			}

			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != wavFormatPCM {
				return audio.Format{}, nil, fmt.Errorf("unsupported WAV encoding: %d (PCM only)", audioFormat)
			}

			format = audio.Format{
				Channels:   int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
				BitDepth:   int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if format.BitDepth != 16 && format.BitDepth != 24 {
				return audio.Format{}, nil, fmt.Errorf("unsupported WAV bit depth: %d", format.BitDepth)
			}
			if format.Channels < 1 || format.SampleRate <= 0 {
				return audio.Format{}, nil, fmt.Errorf("invalid WAV format: %dch @ %dHz", format.Channels, format.SampleRate)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return audio.Format{}, nil, fmt.Errorf("data chunk before fmt chunk")
			}
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(r, data); err != nil {
				return audio.Format{}, nil, fmt.Errorf("failed to read data chunk: %w", err)
			}

		default:
			// Chunks are word-aligned; skip padding byte on odd sizes
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return audio.Format{}, nil, fmt.Errorf("failed to skip %s chunk: %w", chunkID, err)
			}
		}

		if data != nil {
			break
		}
	}

	if data == nil {
		return audio.Format{}, nil, fmt.Errorf("no data chunk found")
	}

	var pcm []int16
	switch format.BitDepth {
	case 16:
		pcm = make([]int16, len(data)/2)
		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case 24:
		pcm = make([]int16, len(data)/3)
		for i := range pcm {
			v := int32(data[i*3]) | int32(data[i*3+1])<<8 | int32(data[i*3+2])<<16
			if v&0x800000 != 0 {
				v |= ^int32(0xFFFFFF) // sign-extend
			}
			pcm[i] = audio.ScaleToInt16(v, 24)
		}
	}

	// Decoded output is normalized to 16-bit
	format.BitDepth = 16
	return format, pcm, nil
}
