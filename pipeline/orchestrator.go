package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"node.town/vaani/capture"
	"node.town/vaani/etc"
	"node.town/vaani/history"
	"node.town/vaani/lang"
	"node.town/vaani/remote"
	"node.town/vaani/telemetry"
)

// ErrNothingToReplay is returned by Replay before any synthesis succeeded.
var ErrNothingToReplay = errors.New("nothing to replay")

type Capturer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (capture.Recording, error)
}

type Remote interface {
	Transcribe(ctx context.Context, audioBase64, sourceLang string) (remote.Transcription, error)
	Translate(ctx context.Context, text, sourceLang, targetLang string) (remote.Translation, error)
	Synthesize(ctx context.Context, text, targetLang string) (remote.Synthesis, error)
}

type History interface {
	Append(ctx context.Context, source, target string) error
	Clear(ctx context.Context) error
	All() []history.Entry
}

// Player starts playback and returns without waiting for it to finish.
type Player interface {
	Play(ctx context.Context, audioBase64, mimeType string) error
}

// LanguageSaver persists the language pair across runs.
type LanguageSaver interface {
	SaveLanguages(ctx context.Context, pair lang.Pair) error
}

type Options struct {
	Languages lang.Pair
	Player    Player
	Saver     LanguageSaver
	Recorder  telemetry.Recorder
	Logger    *log.Logger
}

// Orchestrator owns the session state. All mutation happens under mu;
// events are queued under mu and delivered outside it by whichever caller
// is currently draining, so observers see them in issue order and may
// safely call back into the orchestrator.
type Orchestrator struct {
	capture  Capturer
	remote   Remote
	history  History
	player   Player
	saver    LanguageSaver
	recorder telemetry.Recorder
	logger   *log.Logger

	mu          sync.Mutex
	state       State
	starting    bool // device opening; not a published state
	langs       lang.Pair
	utterance   string
	transcript  string
	translation string
	message     string
	lastAudio   string
	lastMIME    string

	seq       uint64
	pending   []Event
	draining  bool
	observers map[int]Observer
	nextObs   int
}

func New(c Capturer, r Remote, h History, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Recorder == nil {
		opts.Recorder = telemetry.NewNoOp()
	}
	if opts.Languages == (lang.Pair{}) {
		opts.Languages = lang.Pair{Source: "en", Target: "hi"}
	}

	return &Orchestrator{
		capture:   c,
		remote:    r,
		history:   h,
		player:    opts.Player,
		saver:     opts.Saver,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		state:     Idle,
		langs:     opts.Languages,
		observers: map[int]Observer{},
	}
}

// Subscribe registers an observer and returns a function removing it.
func (o *Orchestrator) Subscribe(obs Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextObs
	o.nextObs++
	o.observers[id] = obs

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.observers, id)
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Languages() lang.Pair {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.langs
}

func (o *Orchestrator) History() []history.Entry {
	return o.history.All()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:       o.state,
		Languages:   o.langs,
		Utterance:   o.utterance,
		Transcript:  o.transcript,
		Translation: o.translation,
		Message:     o.message,
		CanReplay:   o.lastAudio != "",
	}
}

// Dispatch runs a command. Pipeline failures are reported through events
// and also returned.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd Command) error {
	o.logger.Debug("command", "name", cmd.Name())

	switch c := cmd.(type) {
	case StartCapture:
		return o.StartCapture(ctx)
	case StopCapture:
		return o.StopCapture(ctx)
	case ToggleCapture:
		if o.State() == Recording {
			return o.StopCapture(ctx)
		}
		return o.StartCapture(ctx)
	case SwapLanguages:
		o.SwapLanguages(ctx)
		return nil
	case SelectLanguage:
		return o.SelectLanguage(ctx, c.Side, c.Code)
	case Replay:
		return o.Replay(ctx)
	case ClearHistory:
		return o.ClearHistory(ctx)
	default:
		return errors.New("unsupported command " + cmd.Name())
	}
}

// StartCapture is ignored while a pipeline is in flight or the device is
// still opening. The recording state is published only once the device is
// actually open.
func (o *Orchestrator) StartCapture(ctx context.Context) error {
	o.mu.Lock()
	if state, starting := o.state, o.starting; state.Busy() || starting {
		o.mu.Unlock()
		o.logger.Debug("start ignored", "state", state, "starting", starting)
		return nil
	}
	prev := o.state
	o.starting = true
	id := etc.NewFreshID()
	o.mu.Unlock()

	err := o.capture.Start(ctx)

	o.mu.Lock()
	o.starting = false
	o.utterance = id
	if err != nil {
		if prev == Idle {
			o.state = Idle
		} else {
			o.setStateLocked(Error)
		}
		o.message = err.Error()
		o.emitLocked(Event{Type: EventError, Message: o.message})
		o.mu.Unlock()
		o.drain()

		o.logger.Error("capture start", "error", err)
		return err
	}

	o.transcript = ""
	o.translation = ""
	o.message = ""
	o.setStateLocked(Recording)
	o.mu.Unlock()
	o.drain()

	o.logger.Info("recording", "utterance", id, "languages", o.Languages())
	return nil
}

// StopCapture ends the recording and runs the three remote stages in
// order. It returns once the session is ready or has failed.
func (o *Orchestrator) StopCapture(ctx context.Context) error {
	o.mu.Lock()
	if state := o.state; state != Recording {
		o.mu.Unlock()
		o.logger.Debug("stop ignored", "state", state)
		return nil
	}
	pair := o.langs
	o.setStateLocked(Processing)
	o.mu.Unlock()
	o.drain()

	rec, err := o.capture.Stop(ctx)
	if err != nil {
		return o.fail(ctx, "capture", err)
	}
	o.logger.Info("captured", "bytes", rec.Bytes, "duration", rec.Duration, "mime", rec.MIMEType)

	var tr remote.Transcription
	err = o.stage(ctx, "stt", func() (err error) {
		tr, err = o.remote.Transcribe(ctx, rec.Data, pair.Source)
		return err
	})
	if err != nil {
		return o.fail(ctx, "stt", err)
	}

	o.mu.Lock()
	o.transcript = tr.Text
	o.emitLocked(Event{Type: EventTranscript, Text: tr.Text, Lang: pair.Source})
	o.mu.Unlock()
	o.drain()

	var tl remote.Translation
	err = o.stage(ctx, "translate", func() (err error) {
		tl, err = o.remote.Translate(ctx, tr.Text, pair.Source, pair.Target)
		return err
	})
	if err != nil {
		return o.fail(ctx, "translate", err)
	}

	translated := tl.Text
	if tl.Unavailable {
		translated = tr.Text
		o.logger.Warn("translation unavailable, using transcript", "target", pair.Target)
	}

	o.mu.Lock()
	o.translation = translated
	o.emitLocked(Event{Type: EventTranslation, Text: translated, Lang: pair.Target, Fallback: tl.Unavailable})
	o.mu.Unlock()
	o.drain()

	var syn remote.Synthesis
	err = o.stage(ctx, "tts", func() (err error) {
		syn, err = o.remote.Synthesize(ctx, translated, pair.Target)
		return err
	})
	if err != nil {
		return o.fail(ctx, "tts", err)
	}

	if err := o.history.Append(ctx, tr.Text, translated); err != nil {
		o.logger.Warn("history append", "error", err)
	}

	o.mu.Lock()
	o.lastAudio = syn.AudioBase64
	o.lastMIME = syn.MIMEType
	o.emitLocked(Event{Type: EventHistory})
	o.emitLocked(Event{Type: EventPlayback, AudioBase64: syn.AudioBase64, MIMEType: syn.MIMEType})
	o.mu.Unlock()
	o.drain()

	o.play(ctx, syn.AudioBase64, syn.MIMEType)

	o.mu.Lock()
	o.setStateLocked(Ready)
	o.mu.Unlock()
	o.drain()

	o.recorder.Utterance(ctx, string(Ready))
	o.logger.Info("ready", "transcript", etc.Truncate(tr.Text, 60), "translation", etc.Truncate(translated, 60))
	return nil
}

// SwapLanguages exchanges source and target. When a finished or failed
// exchange is on display its texts are exchanged too.
func (o *Orchestrator) SwapLanguages(ctx context.Context) {
	o.mu.Lock()
	o.langs = o.langs.Swap()
	pair := o.langs
	o.emitLocked(Event{Type: EventLanguages, Source: pair.Source, Target: pair.Target})

	if !o.state.Busy() && !o.starting && o.transcript != "" {
		o.transcript, o.translation = o.translation, o.transcript
		o.emitLocked(Event{Type: EventTranscript, Text: o.transcript, Lang: pair.Source})
		o.emitLocked(Event{Type: EventTranslation, Text: o.translation, Lang: pair.Target})
	}
	o.mu.Unlock()
	o.drain()

	o.saveLanguages(ctx, pair)
}

// SelectLanguage sets one side of the pair. Code must be a valid language
// code; it need not be in the catalog.
func (o *Orchestrator) SelectLanguage(ctx context.Context, side Side, code string) error {
	if err := lang.Validate(code); err != nil {
		return err
	}

	o.mu.Lock()
	switch side {
	case SourceSide:
		o.langs.Source = code
	case TargetSide:
		o.langs.Target = code
	default:
		o.mu.Unlock()
		return errors.New("unknown side " + string(side))
	}
	pair := o.langs
	o.emitLocked(Event{Type: EventLanguages, Source: pair.Source, Target: pair.Target})
	o.mu.Unlock()
	o.drain()

	o.saveLanguages(ctx, pair)
	return nil
}

// Replay plays the last synthesized audio again.
func (o *Orchestrator) Replay(ctx context.Context) error {
	o.mu.Lock()
	audio, mime := o.lastAudio, o.lastMIME
	if audio == "" {
		o.mu.Unlock()
		return ErrNothingToReplay
	}
	o.emitLocked(Event{Type: EventPlayback, AudioBase64: audio, MIMEType: mime})
	o.mu.Unlock()
	o.drain()

	o.play(ctx, audio, mime)
	return nil
}

func (o *Orchestrator) ClearHistory(ctx context.Context) error {
	if err := o.history.Clear(ctx); err != nil {
		o.logger.Error("clear history", "error", err)
		return err
	}

	o.mu.Lock()
	o.emitLocked(Event{Type: EventHistory})
	o.mu.Unlock()
	o.drain()
	return nil
}

func (o *Orchestrator) stage(ctx context.Context, name string, call func() error) error {
	start := time.Now()
	err := call()
	elapsed := time.Since(start)

	o.recorder.Stage(ctx, name, elapsed, err)
	if err == nil {
		o.logger.Debug(name, "elapsed", elapsed)
	}
	return err
}

// fail aborts the pipeline. Results already published stay as they are.
func (o *Orchestrator) fail(ctx context.Context, stage string, err error) error {
	o.mu.Lock()
	o.message = err.Error()
	o.setStateLocked(Error)
	o.emitLocked(Event{Type: EventError, Message: o.message})
	o.mu.Unlock()
	o.drain()

	o.recorder.Utterance(ctx, string(Error))
	o.logger.Error(stage, "error", err)
	return err
}

func (o *Orchestrator) play(ctx context.Context, audio, mime string) {
	if o.player == nil {
		return
	}
	if err := o.player.Play(ctx, audio, mime); err != nil {
		o.logger.Warn("playback", "error", err)
	}
}

func (o *Orchestrator) saveLanguages(ctx context.Context, pair lang.Pair) {
	if o.saver == nil {
		return
	}
	if err := o.saver.SaveLanguages(ctx, pair); err != nil {
		o.logger.Warn("save languages", "error", err)
	}
}

func (o *Orchestrator) setStateLocked(s State) {
	o.state = s
	o.emitLocked(Event{Type: EventState, State: s})
}

func (o *Orchestrator) emitLocked(ev Event) {
	o.seq++
	ev.Seq = o.seq
	ev.Time = time.Now()
	ev.Utterance = o.utterance
	o.pending = append(o.pending, ev)
}

// drain delivers queued events. If another goroutine is already draining,
// it will deliver ours as well.
func (o *Orchestrator) drain() {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true

	for len(o.pending) > 0 {
		batch := o.pending
		o.pending = nil
		observers := make([]Observer, 0, len(o.observers))
		for _, obs := range o.observers {
			observers = append(observers, obs)
		}
		o.mu.Unlock()

		for _, ev := range batch {
			for _, obs := range observers {
				obs(ev)
			}
		}

		o.mu.Lock()
	}

	o.draining = false
	o.mu.Unlock()
}
