package game

// --- Enums ---

type Phase int

const (
	PhaseSetup Phase = iota
	PhaseProgramming
	PhaseUpgrade
	PhaseExecution
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "Setup"
	case PhaseProgramming:
		return "Programming"
	case PhaseUpgrade:
		return "Upgrade"
	case PhaseExecution:
		return "Execution"
	case PhaseFinished:
		return "Finished"
	default:
		return "None"
	}
}

// ParsePhase maps a phase name (case-sensitive String() form) back to a Phase.
func ParsePhase(s string) (Phase, bool) {
	for p := PhaseSetup; p <= PhaseFinished; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return PhaseSetup, false
}

type Family int

const (
	FamilyProgramming Family = iota
	FamilyDamage
	FamilySpecial
	FamilyUpgrade
)

func (f Family) String() string {
	switch f {
	case FamilyProgramming:
		return "Programming"
	case FamilyDamage:
		return "Damage"
	case FamilySpecial:
		return "Special"
	case FamilyUpgrade:
		return "Upgrade"
	default:
		return "Unknown"
	}
}

const (
	RegisterCount = 5
	MaxUpgrades   = 6
	VirusRadius   = 6
)
