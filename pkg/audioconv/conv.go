// Package audioconv turns audio files into the mono 16 kHz float32 PCM
// whisper consumes, and writes recordings back out as WAV.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

const SampleRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

// File decodes the file at path, choosing the codec from its extension.
func File(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, filepath.Ext(path))
}

// Decode reads r using hint (an extension such as ".mp3") or, when the hint
// is unknown, the container magic.
func Decode(r io.ReadSeeker, hint string) ([]float32, error) {
	switch strings.ToLower(strings.TrimPrefix(hint, ".")) {
	case "wav":
		return decodeWAV(r)
	case "mp3":
		return decodeMP3(r)
	case "ogg", "oga", "opus":
		return decodeOgg(r)
	}

	magic, _ := bufio.NewReader(r).Peek(4)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	switch {
	case string(magic) == "RIFF":
		return decodeWAV(r)
	case string(magic) == "OggS":
		return decodeOgg(r)
	case len(magic) >= 3 && string(magic[:3]) == "ID3":
		return decodeMP3(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, hint)
}

// WriteWAV stores mono 16 kHz samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, pcm []float32) error {
	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)

	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(clamp(float64(v), -1, 1) * 32767)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	ch, sr := 1, 44100
	if pb.Format != nil {
		ch = max(pb.Format.NumChannels, 1)
		if pb.Format.SampleRate > 0 {
			sr = pb.Format.SampleRate
		}
	}
	return normalize(intsToFloat(pb.Data, depth), ch, sr), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, ints); err != nil {
		return nil, err
	}

	sr := dec.SampleRate()
	if sr <= 0 {
		sr = 44100
	}
	// go-mp3 always yields interleaved stereo.
	return normalize(int16sToFloat(ints), 2, sr), nil
}

func decodeOgg(r io.ReadSeeker) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err == nil && format != nil && format.Channels > 0 {
		return normalize(pcm, format.Channels, format.SampleRate), nil
	}

	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	out, oerr := decodeOpus(r)
	if oerr != nil {
		return nil, fmt.Errorf("ogg: vorbis: %v; opus: %w", err, oerr)
	}
	return out, nil
}

func normalize(x []float32, channels, rate int) []float32 {
	return resample(downmix(x, channels), rate, SampleRate)
}
