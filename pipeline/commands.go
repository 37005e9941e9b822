package pipeline

import (
	"fmt"
)

// Command is a typed request from the presentation layer.
type Command interface {
	Name() string
}

type StartCapture struct{}

type StopCapture struct{}

// ToggleCapture stops while recording and starts otherwise.
type ToggleCapture struct{}

type SwapLanguages struct{}

type Side string

const (
	SourceSide Side = "source"
	TargetSide Side = "target"
)

type SelectLanguage struct {
	Side Side
	Code string
}

type Replay struct{}

type ClearHistory struct{}

func (StartCapture) Name() string   { return "start" }
func (StopCapture) Name() string    { return "stop" }
func (ToggleCapture) Name() string  { return "toggle" }
func (SwapLanguages) Name() string  { return "swap" }
func (SelectLanguage) Name() string { return "select" }
func (Replay) Name() string         { return "replay" }
func (ClearHistory) Name() string   { return "clear" }

// ParseCommand builds a command from its wire name. side and code are only
// read for "select".
func ParseCommand(name, side, code string) (Command, error) {
	switch name {
	case "start":
		return StartCapture{}, nil
	case "stop":
		return StopCapture{}, nil
	case "toggle":
		return ToggleCapture{}, nil
	case "swap":
		return SwapLanguages{}, nil
	case "replay":
		return Replay{}, nil
	case "clear":
		return ClearHistory{}, nil
	case "select":
		s := Side(side)
		if s != SourceSide && s != TargetSide {
			return nil, fmt.Errorf("unknown side %q", side)
		}
		return SelectLanguage{Side: s, Code: code}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}
