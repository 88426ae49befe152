// Package session drives the turn cycle: record, transcribe, respond,
// speak, under a daily usage budget, bridged to a supervising adult.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/todak-labs/todak/pkg/companion/audio"
	"github.com/todak-labs/todak/pkg/companion/errs"
	"github.com/todak-labs/todak/pkg/companion/providers"
)

// Phase names one step of the turn state machine. Phases within a turn
// are strictly sequential; only the inbound-message speaker runs
// concurrently with them.
type Phase int

const (
	PhaseWaitingForBudget Phase = iota
	PhaseRecording
	PhaseTranscribing
	PhaseReminderCheck
	PhaseDialogue
	PhaseSynthesizing
	PhaseLogging
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForBudget:
		return "waiting_for_budget"
	case PhaseRecording:
		return "recording"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseReminderCheck:
		return "reminder_check"
	case PhaseDialogue:
		return "dialogue"
	case PhaseSynthesizing:
		return "synthesizing"
	case PhaseLogging:
		return "logging"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Player is the exclusive playback resource shared with the inbound
// speaker.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// ParentNotifier queues a message for delivery to the supervising adult.
type ParentNotifier interface {
	SendToParent(text string)
}

// TurnArchive records completed turns. Failures are logged, never
// surfaced to the child.
type TurnArchive interface {
	AppendTurn(ctx context.Context, turn Turn) error
}

// Loop is the top-level orchestrator composing the recorder, the
// collaborators, the usage/reminder/report state, and the parent
// bridge into a turn cycle.
type Loop struct {
	state       *State
	recorder    audio.Recorder
	transcriber providers.Transcriber
	dialogue    providers.Dialogue
	synth       providers.Synthesizer
	player      Player
	parent      ParentNotifier
	reports     *ReportBuilder
	archive     TurnArchive
	logger      *slog.Logger

	history     []providers.Message
	personaSent bool
}

// Config assembles a Loop.
type Config struct {
	State       *State
	Recorder    audio.Recorder
	Transcriber providers.Transcriber
	Dialogue    providers.Dialogue
	Synthesizer providers.Synthesizer
	Player      Player
	Parent      ParentNotifier
	Reports     *ReportBuilder
	Archive     TurnArchive // optional
	Logger      *slog.Logger
}

// NewLoop creates a Loop.
func NewLoop(cfg Config) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		state:       cfg.State,
		recorder:    cfg.Recorder,
		transcriber: cfg.Transcriber,
		dialogue:    cfg.Dialogue,
		synth:       cfg.Synthesizer,
		player:      cfg.Player,
		parent:      cfg.Parent,
		reports:     cfg.Reports,
		archive:     cfg.Archive,
		logger:      logger,
	}
}

// Run drives turn cycles until the budget is exhausted, the context is
// cancelled, or an unexpected error ends the session. Expected failures
// inside a turn (device errors, provider errors, empty capture or
// transcription) restart the cycle; anything else is fail-fast with a
// friendly spoken farewell.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		terminated, err := l.runTurn(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if recoverable(err) {
				l.logger.Warn("turn failed, restarting cycle", "error", err)
				l.speak(ctx, lineTurnTrouble)
				continue
			}
			l.logger.Error("session loop ending on unexpected error", "error", err)
			l.speak(ctx, lineTurnTrouble)
			return err
		}
		if terminated {
			return nil
		}
	}
}

// runTurn executes one pass of the state machine. It returns true when
// the session terminated gracefully on budget exhaustion.
func (l *Loop) runTurn(ctx context.Context) (bool, error) {
	// WaitingForBudget
	allowed, remaining := l.state.CheckBudget()
	if !allowed {
		l.logger.Info("daily budget exhausted", "phase", PhaseWaitingForBudget.String())
		l.speak(ctx, lineFarewell)
		return true, nil
	}
	l.logger.Info("turn starting", "phase", PhaseWaitingForBudget.String(), "remaining_minutes", remaining)

	// Recording
	pcm, err := l.recorder.Record(ctx)
	if err != nil {
		return false, err
	}
	if len(pcm) == 0 {
		// No speech captured: restart without consuming budget.
		l.logger.Info("no speech captured", "phase", PhaseRecording.String())
		l.speak(ctx, lineNoSpeech)
		return false, nil
	}

	// Transcribing
	text, err := l.transcriber.Transcribe(ctx, audio.EncodeWAV(pcm, audio.SampleRate))
	if err != nil {
		return false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		l.logger.Info("empty transcription", "phase", PhaseTranscribing.String())
		l.speak(ctx, lineNoSpeech)
		return false, nil
	}
	l.state.AddUsage(UsagePerTurnMinutes)
	l.logger.Info("utterance transcribed", "phase", PhaseTranscribing.String(), "chars", len(text))

	// ReminderCheck: delivered once, ahead of the dialogue turn's own
	// synthesis.
	if reminder, ok := l.state.TakeReminder(); ok {
		l.logger.Info("delivering reminder", "phase", PhaseReminderCheck.String())
		l.speak(ctx, fmt.Sprintf(lineReminderWrap, reminder))
	}

	// Dialogue
	reply, err := l.respond(ctx, text)
	if err != nil {
		return false, err
	}

	// Synthesizing: playback failures are logged, never abort the turn.
	l.speak(ctx, reply)

	// Logging
	l.logTurn(ctx, text, reply)
	return false, nil
}

// respond routes the utterance: parent-forwarding keywords short-circuit
// the dialogue collaborator with a canned acknowledgement; everything
// else goes to the collaborator with the full history.
func (l *Loop) respond(ctx context.Context, text string) (string, error) {
	l.history = append(l.history, providers.Message{Role: providers.RoleUser, Content: text})

	if ForwardsToParent(text) {
		l.logger.Info("forwarding utterance to parent", "phase", PhaseDialogue.String())
		l.parent.SendToParent(fmt.Sprintf("아이의 메시지: %s", text))
		reply := lineForwardAck
		l.history = append(l.history, providers.Message{Role: providers.RoleAssistant, Content: reply})
		return reply, nil
	}

	msgs := l.history
	if !l.personaSent {
		msgs = append([]providers.Message{{Role: providers.RoleSystem, Content: Persona}}, l.history...)
	}
	reply, err := l.dialogue.Complete(ctx, msgs)
	if err != nil {
		// Keep history consistent with what the collaborator saw.
		l.history = l.history[:len(l.history)-1]
		return "", err
	}
	l.personaSent = true
	l.history = append(l.history, providers.Message{Role: providers.RoleAssistant, Content: reply})
	return reply, nil
}

// logTurn appends the exchange to the daily log and fires the automatic
// growth report when the threshold is first crossed.
func (l *Loop) logTurn(ctx context.Context, userText, reply string) {
	count := l.state.AppendTurn(userText, reply)
	l.logger.Info("turn logged", "phase", PhaseLogging.String(), "conversations", count)

	if l.archive != nil {
		turns := l.state.Turns()
		if err := l.archive.AppendTurn(ctx, turns[len(turns)-1]); err != nil {
			l.logger.Warn("turn archive append failed", "error", err)
		}
	}

	if !l.state.AutoReportDue() {
		return
	}
	report, err := l.reports.Generate(ctx, l.state.Turns())
	if err != nil {
		// Automatic path: skip silently, retry on a later turn.
		l.logger.Warn("automatic growth report skipped", "error", err)
		return
	}
	l.parent.SendToParent("📊 **성장 리포트가 생성되었습니다!**\n\n" + report)
	l.state.MarkReportGenerated()
	l.logger.Info("automatic growth report queued for delivery")
}

// speak synthesizes and plays a line. Synthesis and playback errors are
// logged and swallowed; the child never hears raw error text.
func (l *Loop) speak(ctx context.Context, text string) {
	if text == "" {
		return
	}
	audioBytes, err := l.synth.Speak(ctx, text)
	if err != nil {
		l.logger.Error("synthesis failed", "phase", PhaseSynthesizing.String(), "error", err)
		return
	}
	if err := l.player.Play(ctx, audioBytes); err != nil {
		l.logger.Error("playback failed", "phase", PhaseSynthesizing.String(), "error", err)
	}
}

// recoverable classifies expected failure modes that restart the cycle
// rather than ending the session.
func recoverable(err error) bool {
	var devErr *errs.DeviceError
	var provErr *errs.ProviderError
	return errors.As(err, &devErr) || errors.As(err, &provErr)
}
