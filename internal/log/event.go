package log

import "fmt"

// EventType enumerates all observable game events.
type EventType int

const (
	EventPhaseChange EventType = iota
	EventRoundStart
	EventRegisterStart
	EventRegisterEnd
	EventReveal
	EventCardPlayed
	EventMove
	EventRotate
	EventPush
	EventReboot
	EventCheckpoint
	EventEnergyChange
	EventDamage
	EventLaserHit
	EventDraw
	EventShuffle
	EventDiscard
	EventStartPoint
	EventProgramSubmitted
	EventUpgradeOffered
	EventUpgradeBought
	EventUpgradeUsed
	EventRejected
	EventWin
	EventAbort
)

func (e EventType) String() string {
	switch e {
	case EventPhaseChange:
		return "PhaseChange"
	case EventRoundStart:
		return "RoundStart"
	case EventRegisterStart:
		return "RegisterStart"
	case EventRegisterEnd:
		return "RegisterEnd"
	case EventReveal:
		return "Reveal"
	case EventCardPlayed:
		return "CardPlayed"
	case EventMove:
		return "Move"
	case EventRotate:
		return "Rotate"
	case EventPush:
		return "Push"
	case EventReboot:
		return "Reboot"
	case EventCheckpoint:
		return "Checkpoint"
	case EventEnergyChange:
		return "EnergyChange"
	case EventDamage:
		return "Damage"
	case EventLaserHit:
		return "LaserHit"
	case EventDraw:
		return "Draw"
	case EventShuffle:
		return "Shuffle"
	case EventDiscard:
		return "Discard"
	case EventStartPoint:
		return "StartPoint"
	case EventProgramSubmitted:
		return "ProgramSubmitted"
	case EventUpgradeOffered:
		return "UpgradeOffered"
	case EventUpgradeBought:
		return "UpgradeBought"
	case EventUpgradeUsed:
		return "UpgradeUsed"
	case EventRejected:
		return "Rejected"
	case EventWin:
		return "Win"
	case EventAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(b []byte) error {
	for t := EventPhaseChange; t <= EventAbort; t++ {
		if t.String() == string(b) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// GameEvent represents a single observable event in a game.
type GameEvent struct {
	Seq      int       `json:"seq"`            // monotonic sequence number
	Round    int       `json:"round"`          // which round (1-based, 0 during setup)
	Register int       `json:"register"`       // register index 0-4, -1 outside execution
	Phase    string    `json:"phase"`          // current phase name (e.g. "Execution")
	Player   int       `json:"player"`         // acting client id, -1 for game-wide events
	Type     EventType `json:"type"`           // event type
	Card     string    `json:"card,omitempty"` // card name (if applicable)
	Details  string    `json:"details"`        // human-readable detail string
}
