// Package capture owns the microphone for the lifetime of one utterance and
// turns the raw samples into a single encoded payload.
package capture

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDeviceUnavailable means the environment offers no usable audio input.
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")
	// ErrPermissionDenied means access to the input device was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrNotRecording is returned by Stop without a successful Start.
	ErrNotRecording = errors.New("not recording")
	// ErrAlreadyRecording is returned by Start while a capture is active.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNoAudio is returned by Stop when not a single frame was captured.
	ErrNoAudio = errors.New("no audio captured")
)

// Format describes the PCM stream a Device delivers: signed 16-bit little
// endian, interleaved.
type Format struct {
	SampleRate   int
	Channels     int
	FrameSamples int // samples per channel in one encoder frame
}

// DefaultFormat is 48 kHz mono in 20 ms frames.
var DefaultFormat = Format{SampleRate: 48000, Channels: 1, FrameSamples: 960}

// FrameBytes is the size of one frame of raw PCM.
func (f Format) FrameBytes() int {
	return f.FrameSamples * f.Channels * 2
}

// FrameDuration is the wall-clock length of one frame.
func (f Format) FrameDuration() time.Duration {
	return time.Duration(f.FrameSamples) * time.Second / time.Duration(f.SampleRate)
}

// Device grants exclusive access to an audio input. Closing the returned
// stream releases the device.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Encoder turns PCM frames into an encoded byte stream. Encode returns the
// bytes produced by one frame, possibly none; Flush returns the trailer.
type Encoder interface {
	MIMEType() string
	Encode(pcm []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// Recording is the finished utterance payload.
type Recording struct {
	Data     string // base64
	MIMEType string
	Bytes    int
	Duration time.Duration
}
