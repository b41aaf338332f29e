package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// WAVBytes wraps PCM16 mono samples in a RIFF/WAVE container so the blob is
// directly uploadable to transcription services.
func WAVBytes(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, uint16(s))
	}
	return buf.Bytes()
}

// ParsePCM extracts PCM16 mono samples and the sample rate from a WAV blob.
// Only the plain PCM layout produced by WAVBytes (and by most TTS services
// in WAV mode) is supported.
func ParsePCM(wav []byte) ([]int16, int, error) {
	if len(wav) < 44 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE payload")
	}
	sampleRate := 0
	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(wav) {
			return nil, 0, errors.New("truncated wav chunk")
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(wav[body : body+2])
			channels := binary.LittleEndian.Uint16(wav[body+2 : body+4])
			bits := binary.LittleEndian.Uint16(wav[body+14 : body+16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, 0, errors.New("unsupported wav format")
			}
			sampleRate = int(binary.LittleEndian.Uint32(wav[body+4 : body+8]))
		case "data":
			if sampleRate == 0 {
				return nil, 0, errors.New("data chunk before fmt")
			}
			samples := make([]int16, size/2)
			for i := range samples {
				samples[i] = int16(binary.LittleEndian.Uint16(wav[body+i*2 : body+i*2+2]))
			}
			return samples, sampleRate, nil
		}
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}
	return nil, 0, errors.New("missing data chunk")
}
