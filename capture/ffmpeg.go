package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const defaultOpenTimeout = 3 * time.Second

// FFmpegDevice reads the system microphone through an ffmpeg subprocess.
type FFmpegDevice struct {
	Binary      string
	InputFormat string
	Input       string
	Format      Format
	OpenTimeout time.Duration
	Logger      *log.Logger
}

// NewFFmpegDevice returns a device for the platform's default input.
func NewFFmpegDevice(logger *log.Logger) *FFmpegDevice {
	inputFormat, input := DefaultInput()
	return &FFmpegDevice{
		Binary:      "ffmpeg",
		InputFormat: inputFormat,
		Input:       input,
		Format:      DefaultFormat,
		OpenTimeout: defaultOpenTimeout,
		Logger:      logger,
	}
}

// DefaultInput names the ffmpeg input format and device for this OS.
func DefaultInput() (string, string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

func (d *FFmpegDevice) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", d.InputFormat,
		"-i", d.Input,
		"-ac", strconv.Itoa(d.Format.Channels),
		"-ar", strconv.Itoa(d.Format.SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "s16le",
		"pipe:1",
	}
}

// Open starts ffmpeg and waits until the first samples arrive, so that a
// missing or refused device is reported here rather than mid-utterance.
func (d *FFmpegDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	path, err := exec.LookPath(d.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, d.Binary)
	}

	var stderr bytes.Buffer
	cmd := exec.Command(path, d.args()...)
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if d.Logger != nil {
		d.Logger.Debug("capture started", "input", d.Input, "format", d.InputFormat, "pid", cmd.Process.Pid)
	}

	reader := bufio.NewReaderSize(stdout, d.Format.FrameBytes()*8)
	ready := make(chan error, 1)
	go func() {
		_, err := reader.Peek(1)
		ready <- err
	}()

	timeout := d.OpenTimeout
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}

	select {
	case err := <-ready:
		if err != nil {
			_ = cmd.Wait()
			return nil, classifyFailure(stderr.String())
		}
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, ctx.Err()
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: no samples from %s within %s", ErrDeviceUnavailable, d.Input, timeout)
	}

	return &ffmpegStream{cmd: cmd, reader: reader}, nil
}

func classifyFailure(stderr string) error {
	msg := strings.TrimSpace(stderr)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "operation not permitted") {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	}
	if msg == "" {
		return ErrDeviceUnavailable
	}
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	reader *bufio.Reader
	once   sync.Once
}

func (s *ffmpegStream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Close kills ffmpeg. The exit status is irrelevant once we asked it to die.
func (s *ffmpegStream) Close() error {
	var err error
	s.once.Do(func() {
		if killErr := s.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = fmt.Errorf("stop ffmpeg: %w", killErr)
		}
		_ = s.cmd.Wait()
	})
	return err
}
