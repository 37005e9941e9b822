package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// EncoderFactory builds a fresh encoder per utterance.
type EncoderFactory func(Format) (Encoder, error)

// Session records one utterance at a time from a Device.
type Session struct {
	device     Device
	newEncoder EncoderFactory
	format     Format
	logger     *log.Logger

	mu     sync.Mutex
	active *take
}

type take struct {
	stream   io.ReadCloser
	encoder  Encoder
	chunks   [][]byte
	frames   atomic.Int64
	err      error
	stopping atomic.Bool
	done     chan struct{}
}

// NewSession returns a session encoding with Ogg/Opus.
func NewSession(device Device, format Format, logger *log.Logger) *Session {
	return NewSessionWithEncoder(device, format, NewOggOpusEncoder, logger)
}

func NewSessionWithEncoder(device Device, format Format, newEncoder EncoderFactory, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		device:     device,
		newEncoder: newEncoder,
		format:     format,
		logger:     logger,
	}
}

// Recording reports whether a capture is in progress.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Start acquires the device and begins accumulating encoded chunks.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return ErrAlreadyRecording
	}

	enc, err := s.newEncoder(s.format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	stream, err := s.device.Open(ctx)
	if err != nil {
		return err
	}

	t := &take{
		stream:  stream,
		encoder: enc,
		done:    make(chan struct{}),
	}
	s.active = t
	go s.pump(t)

	s.logger.Debug("recording", "rate", s.format.SampleRate, "channels", s.format.Channels)
	return nil
}

func (s *Session) pump(t *take) {
	defer close(t.done)

	raw := make([]byte, s.format.FrameBytes())
	pcm := make([]int16, s.format.FrameSamples*s.format.Channels)

	for {
		if _, err := io.ReadFull(t.stream, raw); err != nil {
			if !t.stopping.Load() && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.err = fmt.Errorf("read audio: %w", err)
			}
			return
		}

		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}

		chunk, err := t.encoder.Encode(pcm)
		if err != nil {
			t.err = err
			return
		}
		t.frames.Add(1)
		if len(chunk) > 0 {
			t.chunks = append(t.chunks, chunk)
		}
	}
}

// Stop releases the device, whatever else happens, and returns the whole
// utterance as one base64 payload.
func (s *Session) Stop(ctx context.Context) (Recording, error) {
	s.mu.Lock()
	t := s.active
	s.active = nil
	s.mu.Unlock()

	if t == nil {
		return Recording{}, ErrNotRecording
	}

	t.stopping.Store(true)
	if err := t.stream.Close(); err != nil {
		s.logger.Warn("release capture device", "error", err)
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return Recording{}, ctx.Err()
	}

	if t.err != nil {
		return Recording{}, t.err
	}

	tail, err := t.encoder.Flush()
	if err != nil {
		return Recording{}, err
	}

	frames := t.frames.Load()
	if frames == 0 {
		return Recording{}, ErrNoAudio
	}

	payload := bytes.Join(append(t.chunks, tail), nil)
	rec := Recording{
		Data:     base64.StdEncoding.EncodeToString(payload),
		MIMEType: t.encoder.MIMEType(),
		Bytes:    len(payload),
		Duration: s.format.FrameDuration() * time.Duration(frames),
	}

	s.logger.Debug("recorded", "bytes", rec.Bytes, "duration", rec.Duration)
	return rec, nil
}
