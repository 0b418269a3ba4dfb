package dynamo

import "fmt"

// Phase tags the control law a supervisor has active. Exactly one phase is
// active at any simulated instant.
type Phase uint8

const (
	// Tracking is the single phase of plants without a supervisor.
	Tracking Phase = iota
	Ascent
	Orbit
	Descent
	Terminated
)

var phaseNames = [...]string{
	Tracking:   "TRACKING",
	Ascent:     "ASCENT",
	Orbit:      "ORBIT",
	Descent:    "DESCENT",
	Terminated: "TERMINATED",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Terminal reports whether no further transition can leave p.
func (p Phase) Terminal() bool {
	return p == Terminated
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return Tracking, fmt.Errorf("unknown phase %q", s)
}
