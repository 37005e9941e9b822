package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

var testFormat = Format{SampleRate: 8000, Channels: 1, FrameSamples: 4}

// MockStream serves a fixed PCM buffer and then blocks until closed, like a
// live microphone.
type MockStream struct {
	mu     sync.Mutex
	data   *bytes.Reader
	closed chan struct{}
	once   sync.Once
	Closes int
}

func NewMockStream(pcm []byte) *MockStream {
	return &MockStream{data: bytes.NewReader(pcm), closed: make(chan struct{})}
}

func (m *MockStream) Read(p []byte) (int, error) {
	m.mu.Lock()
	n, _ := m.data.Read(p)
	m.mu.Unlock()
	if n > 0 {
		return n, nil
	}
	<-m.closed
	return 0, io.ErrClosedPipe
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	m.Closes++
	m.mu.Unlock()
	m.once.Do(func() { close(m.closed) })
	return nil
}

type MockDevice struct {
	Stream  *MockStream
	OpenErr error
	Opens   int
}

func (m *MockDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	m.Opens++
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return m.Stream, nil
}

// MockEncoder emits each frame's first sample as one byte.
type MockEncoder struct {
	EncodeErr error
	FlushErr  error
	Frames    int
}

func (m *MockEncoder) MIMEType() string { return "audio/test" }

func (m *MockEncoder) Encode(pcm []int16) ([]byte, error) {
	if m.EncodeErr != nil {
		return nil, m.EncodeErr
	}
	m.Frames++
	return []byte{byte(pcm[0])}, nil
}

func (m *MockEncoder) Flush() ([]byte, error) {
	if m.FlushErr != nil {
		return nil, m.FlushErr
	}
	return []byte("END"), nil
}

func pcmFrames(values ...int16) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		for i := 0; i < testFormat.FrameSamples; i++ {
			_ = binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	return buf.Bytes()
}

func newTestSession(dev Device, enc *MockEncoder) *Session {
	return NewSessionWithEncoder(dev, testFormat, func(Format) (Encoder, error) {
		return enc, nil
	}, nil)
}

func waitFrames(t *testing.T, enc *MockEncoder, s *Session, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		frames := 0
		if s.active != nil {
			frames = int(s.active.frames.Load())
		}
		s.mu.Unlock()
		if frames >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames", n)
}

func TestSessionRecordsWholeUtterance(t *testing.T) {
	ctx := context.Background()
	stream := NewMockStream(pcmFrames(1, 2, 3))
	dev := &MockDevice{Stream: stream}
	enc := &MockEncoder{}
	s := newTestSession(dev, enc)

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.Recording() {
		t.Fatal("expected Recording() after Start")
	}
	waitFrames(t, enc, s, 3)

	rec, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(rec.Data)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if want := []byte{1, 2, 3, 'E', 'N', 'D'}; !bytes.Equal(raw, want) {
		t.Errorf("payload = %v, want %v", raw, want)
	}
	if rec.MIMEType != "audio/test" {
		t.Errorf("MIMEType = %q", rec.MIMEType)
	}
	if want := 3 * testFormat.FrameDuration(); rec.Duration != want {
		t.Errorf("Duration = %v, want %v", rec.Duration, want)
	}
	if stream.Closes != 1 {
		t.Errorf("stream closed %d times, want 1", stream.Closes)
	}
	if s.Recording() {
		t.Error("still recording after Stop")
	}
}

func TestSessionStopWithoutStart(t *testing.T) {
	s := newTestSession(&MockDevice{}, &MockEncoder{})
	if _, err := s.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop error = %v, want ErrNotRecording", err)
	}
}

func TestSessionDeviceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", ErrDeviceUnavailable},
		{"permission", ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&MockDevice{OpenErr: tt.err}, &MockEncoder{})
			if err := s.Start(context.Background()); !errors.Is(err, tt.err) {
				t.Errorf("Start error = %v, want %v", err, tt.err)
			}
			if s.Recording() {
				t.Error("recording after failed Start")
			}
		})
	}
}

func TestSessionDoubleStart(t *testing.T) {
	ctx := context.Background()
	dev := &MockDevice{Stream: NewMockStream(nil)}
	s := newTestSession(dev, &MockEncoder{})

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start error = %v, want ErrAlreadyRecording", err)
	}
	if dev.Opens != 1 {
		t.Errorf("device opened %d times, want 1", dev.Opens)
	}
	_, _ = s.Stop(ctx)
}

func TestSessionReleasesDeviceOnFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("flush", func(t *testing.T) {
		stream := NewMockStream(pcmFrames(7))
		enc := &MockEncoder{FlushErr: errors.New("flush failed")}
		s := newTestSession(&MockDevice{Stream: stream}, enc)

		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		waitFrames(t, enc, s, 1)

		if _, err := s.Stop(ctx); err == nil {
			t.Fatal("expected Stop to fail")
		}
		if stream.Closes != 1 {
			t.Errorf("stream closed %d times, want 1", stream.Closes)
		}
	})

	t.Run("encode", func(t *testing.T) {
		stream := NewMockStream(pcmFrames(7))
		enc := &MockEncoder{EncodeErr: errors.New("encode failed")}
		s := newTestSession(&MockDevice{Stream: stream}, enc)

		if err := s.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		s.mu.Lock()
		done := s.active.done
		s.mu.Unlock()
		<-done

		if _, err := s.Stop(ctx); err == nil || err.Error() != "encode failed" {
			t.Errorf("Stop error = %v, want encode failed", err)
		}
		if stream.Closes != 1 {
			t.Errorf("stream closed %d times, want 1", stream.Closes)
		}
	})
}

func TestSessionNoAudio(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&MockDevice{Stream: NewMockStream(nil)}, &MockEncoder{})

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.Stop(ctx); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Stop error = %v, want ErrNoAudio", err)
	}
}

func TestSessionCanRecordAgain(t *testing.T) {
	ctx := context.Background()
	dev := &MockDevice{Stream: NewMockStream(pcmFrames(1))}
	enc := &MockEncoder{}
	s := newTestSession(dev, enc)

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFrames(t, enc, s, 1)
	if _, err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	dev.Stream = NewMockStream(pcmFrames(2))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	waitFrames(t, enc, s, 1)
	if _, err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
