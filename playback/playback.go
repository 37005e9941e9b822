// Package playback plays synthesized audio through an external player.
package playback

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrNoPlayer is returned when none of the known players is installed.
var ErrNoPlayer = errors.New("no audio player found (install ffplay or mpv)")

type command struct {
	name string
	args []string
}

var players = []command{
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "error", "-i", "pipe:0"}},
	{"mpv", []string{"--no-video", "--really-quiet", "-"}},
}

// ExecPlayer pipes audio into ffplay or mpv. Starting a clip stops the one
// still playing.
type ExecPlayer struct {
	path   string
	args   []string
	logger *log.Logger

	mu      sync.Mutex
	current *exec.Cmd
}

// NewExecPlayer picks the first installed player, or the named one.
func NewExecPlayer(preferred string, logger *log.Logger) (*ExecPlayer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	for _, p := range players {
		if preferred != "" && p.name != preferred {
			continue
		}
		path, err := exec.LookPath(p.name)
		if err != nil {
			continue
		}
		logger.Debug("player", "path", path)
		return &ExecPlayer{path: path, args: p.args, logger: logger}, nil
	}

	if preferred != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPlayer, preferred)
	}
	return nil, ErrNoPlayer
}

// Play starts playback and returns. The process is not bound to ctx, so a
// finished request does not cut the audio short.
func (p *ExecPlayer) Play(ctx context.Context, audioBase64, mimeType string) error {
	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return fmt.Errorf("decode %s audio: %w", mimeType, err)
	}

	cmd := exec.Command(p.path, p.args...)
	cmd.Stdin = bytes.NewReader(data)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	p.current = cmd

	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()

		if err != nil {
			p.logger.Debug("player exited", "error", err)
		}
	}()

	p.logger.Info("playing", "bytes", len(data), "mime", mimeType)
	return nil
}

// Stop interrupts the clip in progress, if any.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *ExecPlayer) stopLocked() {
	if p.current != nil && p.current.Process != nil {
		_ = p.current.Process.Kill()
		p.current = nil
	}
}

// Noop accepts and discards audio.
type Noop struct{}

func (Noop) Play(ctx context.Context, audioBase64, mimeType string) error {
	return nil
}
