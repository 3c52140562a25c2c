package tracker

// Phase is where a vehicle is on its journey relative to the target and
// secondary stops of a direction.
type Phase int

const (
	PhaseDropped Phase = iota
	PhaseApproachingTarget
	PhaseBetweenPoints
	PhasePassedPoints
)

// Status values as serialized to clients
const (
	StatusApproachingTarget = "approaching-target"
	StatusBetweenPoints     = "between-points"
	StatusPassedPoints      = "passed-points"
)

// Marker colors used by the map page
const (
	ColorApproaching = "#ff8800"
	ColorBetween     = "#FFD700"
	ColorPassed      = "#000000"
)

func (p Phase) String() string {
	switch p {
	case PhaseApproachingTarget:
		return StatusApproachingTarget
	case PhaseBetweenPoints:
		return StatusBetweenPoints
	case PhasePassedPoints:
		return StatusPassedPoints
	}
	return "dropped"
}

// Color returns the marker color for the phase
func (p Phase) Color() string {
	switch p {
	case PhaseApproachingTarget:
		return ColorApproaching
	case PhaseBetweenPoints:
		return ColorBetween
	}
	return ColorPassed
}

// classifyPhase compares the current sequence c with the target sequence t
// and, when hasSecondary, the secondary sequence s. The first matching rule
// wins, so c == s is passed, not between.
func classifyPhase(c, t, s int, hasSecondary bool) Phase {
	switch {
	case c <= t:
		return PhaseApproachingTarget
	case hasSecondary && c < s:
		return PhaseBetweenPoints
	case hasSecondary && c >= s:
		return PhasePassedPoints
	}
	return PhaseDropped
}
