package playback

import (
	"context"
	"errors"
	"testing"
)

func TestNewExecPlayerUnknown(t *testing.T) {
	_, err := NewExecPlayer("winamp", nil)
	if !errors.Is(err, ErrNoPlayer) {
		t.Errorf("err = %v, want ErrNoPlayer", err)
	}
}

func TestPlayRejectsBadBase64(t *testing.T) {
	p := &ExecPlayer{path: "/bin/true"}
	if err := p.Play(context.Background(), "not base64!", "audio/mpeg"); err == nil {
		t.Error("expected decode error")
	}
}

func TestNoop(t *testing.T) {
	if err := (Noop{}).Play(context.Background(), "QUJD", "audio/mpeg"); err != nil {
		t.Errorf("Noop.Play: %v", err)
	}
}
