package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"node.town/vaani/history"
	"node.town/vaani/lang"
	"node.town/vaani/pipeline"
)

type MockController struct {
	mu       sync.Mutex
	commands []pipeline.Command
	err      error
	snap     pipeline.Snapshot
	history  []history.Entry
}

func (m *MockController) Dispatch(ctx context.Context, cmd pipeline.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)
	return m.err
}

func (m *MockController) Snapshot() pipeline.Snapshot { return m.snap }

func (m *MockController) History() []history.Entry { return m.history }

func (m *MockController) Subscribe(obs pipeline.Observer) func() { return func() {} }

func newTestModel(ctrl *MockController) model {
	m := initialModel(ctrl, make(chan pipeline.Event, 8), nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func dispatched(t *testing.T, cmd tea.Cmd) dispatchedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if done, ok := c().(dispatchedMsg); ok {
				return done
			}
		}
	}
	done, ok := msg.(dispatchedMsg)
	if !ok {
		t.Fatalf("expected dispatchedMsg, got %T", msg)
	}
	return done
}

func TestKeysDispatchCommands(t *testing.T) {
	tests := []struct {
		key      tea.KeyMsg
		expected pipeline.Command
	}{
		{tea.KeyMsg{Type: tea.KeySpace}, pipeline.ToggleCapture{}},
		{runes("s"), pipeline.SwapLanguages{}},
		{runes("r"), pipeline.Replay{}},
		{runes("c"), pipeline.ClearHistory{}},
		{runes("]"), pipeline.SelectLanguage{Side: pipeline.SourceSide, Code: lang.Cycle("en", 1)}},
		{runes("["), pipeline.SelectLanguage{Side: pipeline.SourceSide, Code: lang.Cycle("en", -1)}},
		{runes("}"), pipeline.SelectLanguage{Side: pipeline.TargetSide, Code: lang.Cycle("hi", 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			ctrl := &MockController{snap: pipeline.Snapshot{
				State:     pipeline.Idle,
				Languages: lang.Pair{Source: "en", Target: "hi"},
			}}
			m := newTestModel(ctrl)

			_, cmd := m.Update(tt.key)
			done := dispatched(t, cmd)
			if done.name != tt.expected.Name() {
				t.Errorf("expected %s, got %s", tt.expected.Name(), done.name)
			}
			if len(ctrl.commands) != 1 || ctrl.commands[0] != tt.expected {
				t.Errorf("expected %#v dispatched, got %#v", tt.expected, ctrl.commands)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(&MockController{})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit")
	}
}

func TestEventsUpdateTexts(t *testing.T) {
	ctrl := &MockController{snap: pipeline.Snapshot{
		State:     pipeline.Idle,
		Languages: lang.Pair{Source: "en", Target: "fr"},
	}}
	m := newTestModel(ctrl)

	for _, ev := range []pipeline.Event{
		{Seq: 1, Type: pipeline.EventState, State: pipeline.Recording},
		{Seq: 2, Type: pipeline.EventState, State: pipeline.Processing},
		{Seq: 3, Type: pipeline.EventTranscript, Text: "hello", Lang: "en"},
		{Seq: 4, Type: pipeline.EventTranslation, Text: "bonjour", Lang: "fr"},
		{Seq: 5, Type: pipeline.EventState, State: pipeline.Ready},
	} {
		next, _ := m.Update(ev)
		m = next.(model)
	}

	if m.snap.State != pipeline.Ready {
		t.Errorf("expected ready, got %s", m.snap.State)
	}
	content := m.contentView()
	for _, want := range []string{"hello", "bonjour", "English", "French"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in %q", want, content)
		}
	}
	if len(m.logEntries) != 5 {
		t.Errorf("expected 5 log entries, got %d", len(m.logEntries))
	}
}

func TestRecordingClearsPreviousTexts(t *testing.T) {
	ctrl := &MockController{snap: pipeline.Snapshot{
		State:       pipeline.Ready,
		Languages:   lang.Pair{Source: "en", Target: "hi"},
		Transcript:  "old",
		Translation: "purana",
		Message:     "stale",
	}}
	m := newTestModel(ctrl)

	next, _ := m.Update(pipeline.Event{Type: pipeline.EventState, State: pipeline.Recording})
	m = next.(model)

	if m.snap.Transcript != "" || m.snap.Translation != "" || m.snap.Message != "" {
		t.Errorf("expected cleared texts, got %+v", m.snap)
	}
}

func TestFallbackAndErrorShown(t *testing.T) {
	m := newTestModel(&MockController{snap: pipeline.Snapshot{Languages: lang.Pair{Source: "en", Target: "hi"}}})

	next, _ := m.Update(pipeline.Event{Type: pipeline.EventTranslation, Text: "hello", Fallback: true})
	m = next.(model)
	next, _ = m.Update(pipeline.Event{Type: pipeline.EventError, Message: "bad audio"})
	m = next.(model)

	content := m.contentView()
	if !strings.Contains(content, "translation unavailable") {
		t.Errorf("expected fallback note in %q", content)
	}
	if !strings.Contains(content, "bad audio") {
		t.Errorf("expected error message in %q", content)
	}
}

func TestHistoryView(t *testing.T) {
	ctrl := &MockController{snap: pipeline.Snapshot{Languages: lang.Pair{Source: "en", Target: "hi"}}}
	m := newTestModel(ctrl)

	next, _ := m.Update(runes("h"))
	m = next.(model)
	if !strings.Contains(m.contentView(), "No history yet.") {
		t.Errorf("expected empty history, got %q", m.contentView())
	}

	ctrl.history = []history.Entry{{Source: "hello", Target: "namaste"}}
	next, _ = m.Update(pipeline.Event{Type: pipeline.EventHistory})
	m = next.(model)
	if !strings.Contains(m.contentView(), "namaste") {
		t.Errorf("expected history entry, got %q", m.contentView())
	}

	next, _ = m.Update(runes("h"))
	m = next.(model)
	if m.view != "texts" {
		t.Errorf("expected texts view, got %s", m.view)
	}
}

func TestLanguagesEvent(t *testing.T) {
	m := newTestModel(&MockController{snap: pipeline.Snapshot{Languages: lang.Pair{Source: "en", Target: "hi"}}})
	next, _ := m.Update(pipeline.Event{Type: pipeline.EventLanguages, Source: "hi", Target: "en"})
	m = next.(model)

	if m.snap.Languages != (lang.Pair{Source: "hi", Target: "en"}) {
		t.Errorf("expected swapped pair, got %v", m.snap.Languages)
	}
	header := m.headerView()
	if !strings.Contains(header, "Hindi") || !strings.Contains(header, "English") {
		t.Fatalf("expected both languages in header, got %q", header)
	}
	if strings.Index(header, "Hindi") > strings.Index(header, "English") {
		t.Errorf("expected header to show Hindi before English, got %q", header)
	}
}

func TestReplayWithoutUtterance(t *testing.T) {
	m := newTestModel(&MockController{})
	next, _ := m.Update(dispatchedMsg{name: "replay", err: pipeline.ErrNothingToReplay})
	m = next.(model)
	if m.snap.Message != pipeline.ErrNothingToReplay.Error() {
		t.Errorf("expected replay message, got %q", m.snap.Message)
	}
}

func TestViewBeforeReady(t *testing.T) {
	m := initialModel(&MockController{}, nil, nil)
	if m.View() != "\n  Initializing..." {
		t.Errorf("unexpected view %q", m.View())
	}
}

func TestNarrowWindow(t *testing.T) {
	m := initialModel(&MockController{snap: pipeline.Snapshot{Languages: lang.Pair{Source: "en", Target: "hi"}}}, nil, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 4, Height: 10})
	m = next.(model)

	view := m.View()
	if !strings.Contains(view, "vaani") {
		t.Errorf("expected title in narrow view, got %q", view)
	}
}
