package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

// EventLogger is the interface for logging game events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions and polling ---

type MemoryLogger struct {
	mu     sync.RWMutex
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.record(event)
}

func (l *MemoryLogger) record(event GameEvent) GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	return event
}

// Events returns a copy of every event logged so far.
func (l *MemoryLogger) Events() []GameEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]GameEvent(nil), l.events...)
}

// Since returns the events logged after the first n, for cursor-style polling.
func (l *MemoryLogger) Since(n int) []GameEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n >= len(l.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return append([]GameEvent(nil), l.events[n:]...)
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	event = l.MemoryLogger.record(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- MultiLogger: fans each event out to several sinks ---

// MultiLogger forwards every event to all sinks. Events() reports the first sink's view.
type MultiLogger struct {
	sinks []EventLogger
}

func NewMultiLogger(sinks ...EventLogger) *MultiLogger {
	var live []EventLogger
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &MultiLogger{sinks: live}
}

func (m *MultiLogger) Log(event GameEvent) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

func (m *MultiLogger) Events() []GameEvent {
	if len(m.sinks) == 0 {
		return nil
	}
	return m.sinks[0].Events()
}

// --- Formatting ---

// playerName returns "P<id>" for display.
func playerName(p int) string {
	return fmt.Sprintf("P%d", p)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	if e.Register >= 0 && e.Phase == "Execution" {
		phase = fmt.Sprintf("%s #%d", phase, e.Register+1)
	}
	// Pad phase to 16 chars for alignment
	for len(phase) < 16 {
		phase += " "
	}

	return fmt.Sprintf("R%-2d %s| %s", e.Round, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---
//
// Round, Register and Phase are stamped by the game when the event is logged;
// constructors that take them set them for callers logging outside a game.

func NewPhaseChangeEvent(round int, phase string) GameEvent {
	return GameEvent{
		Round:    round,
		Register: -1,
		Phase:    phase,
		Player:   -1,
		Type:     EventPhaseChange,
		Details:  fmt.Sprintf("Phase → %s", phase),
	}
}

func NewRoundStartEvent(round int) GameEvent {
	return GameEvent{
		Round:    round,
		Register: -1,
		Player:   -1,
		Type:     EventRoundStart,
		Details:  fmt.Sprintf("=== Round %d ===", round),
	}
}

func NewRegisterStartEvent(register int) GameEvent {
	return GameEvent{
		Register: register,
		Player:   -1,
		Type:     EventRegisterStart,
		Details:  fmt.Sprintf("--- Register %d ---", register+1),
	}
}

func NewRegisterEndEvent(register int) GameEvent {
	return GameEvent{
		Register: register,
		Player:   -1,
		Type:     EventRegisterEnd,
		Details:  fmt.Sprintf("Register %d complete", register+1),
	}
}

func NewRevealEvent(player int, cardName string, priority int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventReveal,
		Card:    cardName,
		Details: fmt.Sprintf("%s reveals %s (priority %d)", playerName(player), cardName, priority),
	}
}

func NewCardPlayedEvent(player int, cardName string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventCardPlayed,
		Card:    cardName,
		Details: fmt.Sprintf("%s plays %s", playerName(player), cardName),
	}
}

func NewMoveEvent(player int, from, to geom.Vector) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventMove,
		Details: fmt.Sprintf("%s moves %s → %s", playerName(player), from, to),
	}
}

func NewRotateEvent(player int, from, to geom.Orientation) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventRotate,
		Details: fmt.Sprintf("%s turns %s → %s", playerName(player), from, to),
	}
}

func NewPushEvent(pusher, pushed int, dir geom.Orientation) GameEvent {
	return GameEvent{
		Player:  pusher,
		Type:    EventPush,
		Details: fmt.Sprintf("%s pushes %s %s", playerName(pusher), playerName(pushed), dir),
	}
}

func NewRebootEvent(player int, at geom.Vector, facing geom.Orientation, reason string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventReboot,
		Details: fmt.Sprintf("%s reboots at %s facing %s (%s)", playerName(player), at, facing, reason),
	}
}

func NewCheckpointEvent(player int, number, total int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventCheckpoint,
		Details: fmt.Sprintf("%s reaches checkpoint %d/%d", playerName(player), number, total),
	}
}

func NewEnergyChangeEvent(player int, oldEnergy, newEnergy int, reason string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventEnergyChange,
		Details: fmt.Sprintf("%s energy: %d → %d (%s)", playerName(player), oldEnergy, newEnergy, reason),
	}
}

func NewDamageEvent(player int, cardName string, count int, reason string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventDamage,
		Card:    cardName,
		Details: fmt.Sprintf("%s takes %d %s (%s)", playerName(player), count, cardName, reason),
	}
}

func NewLaserHitEvent(player int, source string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventLaserHit,
		Details: fmt.Sprintf("%s is hit by %s", playerName(player), source),
	}
}

func NewDrawEvent(player int, count int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventDraw,
		Details: fmt.Sprintf("%s draws %d card(s)", playerName(player), count),
	}
}

func NewShuffleEvent(player int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventShuffle,
		Details: fmt.Sprintf("%s shuffles their discard pile into the draw deck", playerName(player)),
	}
}

func NewDiscardEvent(player int, cardName string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventDiscard,
		Card:    cardName,
		Details: fmt.Sprintf("%s discards %s", playerName(player), cardName),
	}
}

func NewStartPointEvent(player int, at geom.Vector) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventStartPoint,
		Details: fmt.Sprintf("%s starts at %s", playerName(player), at),
	}
}

func NewProgramSubmittedEvent(player int, auto bool) GameEvent {
	how := "programs their registers"
	if auto {
		how = "is auto-programmed"
	}
	return GameEvent{
		Player:  player,
		Type:    EventProgramSubmitted,
		Details: fmt.Sprintf("%s %s", playerName(player), how),
	}
}

func NewUpgradeOfferedEvent(cardNames []string) GameEvent {
	return GameEvent{
		Player:  -1,
		Type:    EventUpgradeOffered,
		Details: fmt.Sprintf("Upgrade shop: %s", strings.Join(cardNames, ", ")),
	}
}

func NewUpgradeBoughtEvent(player int, cardName string, cost int) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventUpgradeBought,
		Card:    cardName,
		Details: fmt.Sprintf("%s buys %s for %d energy", playerName(player), cardName, cost),
	}
}

func NewUpgradeUsedEvent(player int, cardName string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventUpgradeUsed,
		Card:    cardName,
		Details: fmt.Sprintf("%s uses %s", playerName(player), cardName),
	}
}

func NewRejectedEvent(player int, reason string) GameEvent {
	return GameEvent{
		Player:  player,
		Type:    EventRejected,
		Details: fmt.Sprintf("%s: %s", playerName(player), reason),
	}
}

func NewWinEvent(winner int, reason string) GameEvent {
	return GameEvent{
		Player:  winner,
		Type:    EventWin,
		Details: fmt.Sprintf("%s wins! (%s)", playerName(winner), reason),
	}
}

func NewAbortEvent(reason string) GameEvent {
	return GameEvent{
		Player:  -1,
		Type:    EventAbort,
		Details: fmt.Sprintf("Game aborted (%s)", reason),
	}
}
