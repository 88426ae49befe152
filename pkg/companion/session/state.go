package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/todak-labs/todak/pkg/companion/errs"
)

// Daily cap bounds accepted from the supervising adult.
const (
	MinDailyCapMinutes = 5
	MaxDailyCapMinutes = 120

	// DefaultDailyCapMinutes applies when no cap is configured.
	DefaultDailyCapMinutes = 30

	// UsagePerTurnMinutes is the fixed usage credit per completed
	// recording. This is a deliberately coarse approximation of actual
	// speaking time, kept from the original policy; replace with
	// wall-clock accounting only as a conscious policy change.
	UsagePerTurnMinutes = 1

	// AutoReportThreshold is the number of logged turns that arms the
	// automatic growth report.
	AutoReportThreshold = 3
)

// Turn is one completed exchange, appended to the daily log and never
// mutated afterwards.
type Turn struct {
	Timestamp     time.Time
	UserText      string
	AssistantText string
}

// UsageSnapshot is a point-in-time view of the daily state, used for
// status replies to the supervising adult.
type UsageSnapshot struct {
	CapMinutes       int
	UsedMinutes      int
	RemainingMinutes int
	Conversations    int
	ReportGenerated  bool
	PendingReminder  string
}

// State holds all per-day session state behind one mutex: usage
// minutes, the conversation log, the report flag, and the pending
// reminder. The daily reset zeroes usage, log, count, and report flag
// together as one unit; the cap and the reminder persist across days
// until changed.
type State struct {
	mu  sync.Mutex
	now func() time.Time

	capMinutes  int
	usedMinutes int
	lastReset   time.Time

	turns           []Turn
	conversations   int
	reportGenerated bool

	reminder    string
	hasReminder bool
}

// NewState creates a State with the given daily cap. A nil clock uses
// time.Now.
func NewState(capMinutes int, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	if capMinutes <= 0 {
		capMinutes = DefaultDailyCapMinutes
	}
	s := &State{now: now, capMinutes: capMinutes}
	s.lastReset = s.today()
	return s
}

func (s *State) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// resetIfNewDayLocked re-evaluates the reset date before every read or
// write. Crossing midnight zeroes the four daily pieces atomically.
func (s *State) resetIfNewDayLocked() {
	today := s.today()
	if s.lastReset.Equal(today) {
		return
	}
	s.usedMinutes = 0
	s.turns = nil
	s.conversations = 0
	s.reportGenerated = false
	s.lastReset = today
}

// CheckBudget reports whether the session may run another turn and how
// many minutes remain. It never allows a turn once usage meets the cap.
func (s *State) CheckBudget() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	remaining := s.capMinutes - s.usedMinutes
	if remaining < 0 {
		remaining = 0
	}
	return remaining > 0, remaining
}

// AddUsage credits minutes against today's budget.
func (s *State) AddUsage(minutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	s.usedMinutes += minutes
}

// SetDailyCap changes the cap, bounds-checked. The cap persists across
// daily resets.
func (s *State) SetDailyCap(minutes int) error {
	if minutes < MinDailyCapMinutes || minutes > MaxDailyCapMinutes {
		return errs.NewValidationError("daily cap",
			fmt.Sprintf("must be between %d and %d minutes", MinDailyCapMinutes, MaxDailyCapMinutes))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	s.capMinutes = minutes
	return nil
}

// Snapshot returns the current daily state for status display.
func (s *State) Snapshot() UsageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	remaining := s.capMinutes - s.usedMinutes
	if remaining < 0 {
		remaining = 0
	}
	return UsageSnapshot{
		CapMinutes:       s.capMinutes,
		UsedMinutes:      s.usedMinutes,
		RemainingMinutes: remaining,
		Conversations:    s.conversations,
		ReportGenerated:  s.reportGenerated,
		PendingReminder:  s.reminder,
	}
}

// AppendTurn adds a completed exchange to the daily log and returns the
// new conversation count.
func (s *State) AppendTurn(userText, assistantText string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	s.turns = append(s.turns, Turn{
		Timestamp:     s.now(),
		UserText:      userText,
		AssistantText: assistantText,
	})
	s.conversations++
	return s.conversations
}

// Turns returns a copy of today's conversation log.
func (s *State) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// AutoReportDue reports whether the automatic growth report should fire:
// at least AutoReportThreshold turns today and no report generated yet.
func (s *State) AutoReportDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	return s.conversations >= AutoReportThreshold && !s.reportGenerated
}

// MarkReportGenerated records that today's automatic report succeeded.
func (s *State) MarkReportGenerated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetIfNewDayLocked()
	s.reportGenerated = true
}

// SetReminder stores a reminder, replacing any pending one silently.
// Last write wins; there is no queue.
func (s *State) SetReminder(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminder = text
	s.hasReminder = true
}

// ClearReminder removes any pending reminder.
func (s *State) ClearReminder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminder = ""
	s.hasReminder = false
}

// TakeReminder atomically reads and clears the pending reminder.
func (s *State) TakeReminder() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasReminder {
		return "", false
	}
	text := s.reminder
	s.reminder = ""
	s.hasReminder = false
	return text, true
}
