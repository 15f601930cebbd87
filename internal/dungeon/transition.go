package dungeon

import "fmt"

// TransitionKind tags a Transition.
type TransitionKind int

const (
	// TransitionStay leaves the player where they are.
	TransitionStay TransitionKind = iota
	// TransitionNavigate moves the player to Level and RoomID.
	TransitionNavigate
	// TransitionBlocked refuses a move; Floor names the floor holding
	// the player back.
	TransitionBlocked
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionNavigate:
		return "navigate"
	case TransitionBlocked:
		return "blocked"
	default:
		return "stay"
	}
}

// Transition is the outcome of an operation that may change where the
// player is.
type Transition struct {
	Kind   TransitionKind
	Level  int
	RoomID string
	Floor  int
	Reason string
}

// Stay keeps the player in place.
func Stay() Transition {
	return Transition{Kind: TransitionStay}
}

// NavigateTo sends the player to a room on a floor.
func NavigateTo(level int, roomID string) Transition {
	return Transition{Kind: TransitionNavigate, Level: level, RoomID: roomID}
}

// Blocked refuses a move because of floor.
func Blocked(floor int, reason string) Transition {
	return Transition{Kind: TransitionBlocked, Floor: floor, Reason: reason}
}

// IsBlocked reports whether the transition was refused.
func (t Transition) IsBlocked() bool { return t.Kind == TransitionBlocked }

func (t Transition) String() string {
	switch t.Kind {
	case TransitionNavigate:
		return fmt.Sprintf("navigate to floor %d (%s)", t.Level, t.RoomID)
	case TransitionBlocked:
		return fmt.Sprintf("blocked at floor %d: %s", t.Floor, t.Reason)
	default:
		return "stay"
	}
}
