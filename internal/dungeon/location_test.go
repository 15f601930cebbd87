package dungeon

import (
	"context"
	"strings"
	"testing"

	"github.com/lawnchairsociety/delvekeep/server/internal/rival"
)

// play sends input and fails the test on a storage error.
func play(t *testing.T, l *Location, input string) Response {
	t.Helper()
	resp, err := l.HandleChoice(context.Background(), input)
	if err != nil {
		t.Fatalf("HandleChoice(%q) failed: %v", input, err)
	}
	return resp
}

func enterLocation(t *testing.T, h *harness, playerID string, opts ...LocationOption) *Location {
	t.Helper()
	l := NewLocation(h.controller(t, playerID), opts...)
	if _, err := l.OnEnter(context.Background()); err != nil {
		t.Fatalf("OnEnter failed: %v", err)
	}
	return l
}

func TestLocationBeforeEntering(t *testing.T) {
	h := newHarness(t)
	l := NewLocation(h.controller(t, "alice"))

	if got := play(t, l, "look").Text; got != "You are not in the dungeon." {
		t.Errorf("look = %q", got)
	}
	if got := play(t, l, "help").Text; !strings.Contains(got, "Commands:") {
		t.Errorf("help = %q", got)
	}
}

func TestLocationOnEnter(t *testing.T) {
	h := newHarness(t)
	l := NewLocation(h.controller(t, "alice"))

	resp, err := l.OnEnter(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Text, "You stand on floor 1.\nLanding") {
		t.Errorf("OnEnter text = %q", resp.Text)
	}
	if resp.Transition.Kind != TransitionNavigate || resp.Transition.RoomID != "e" {
		t.Errorf("OnEnter transition = %v", resp.Transition)
	}
}

func TestLocationCommands(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice")

	steps := []struct {
		input string
		want  string // prefix of the response
	}{
		{"", ""},
		{"w", "You can't go that way."},
		{"go", "Go where?"},
		{"go up", "'up' is not a direction."},
		{"look", "Landing"},
		{"clear", "There is nothing here to fight."},
		{"E", "You head east.\nGuard Room"},
		{"loot", "Not while something is still watching you."},
		{"clear", "You cut down everything that moves."},
		{"clear", "This room is already quiet."},
		{"loot", "You gather up what treasure there is."},
		{"loot", "Someone has already emptied this place."},
		{"disarm", "Something clicks beneath your boot."},
		{"disarm", "You find no trap here."},
		{"use", "Use what?"},
		{"use lever", "You see no lever here."},
		{"use old", "You use the old chest."},
		{"use old chest", "The old chest has nothing more to give."},
		{"guide", "Guide to what?"},
		{"guide unexplored", "east (1 step)"},
		{"guide boss", "You know of no way to boss."},
		{"help guide", "GUIDE <target>"},
		{"dance", "Unknown command: dance."},
		{"descend", "You descend to floor 2.\nLanding"},
		{"ascend", "You climb to floor 1.\nStairwell"},
		{"up", "There is nowhere higher to climb."},
	}

	for _, step := range steps {
		got := play(t, l, step.input).Text
		if !strings.HasPrefix(got, step.want) {
			t.Errorf("%q:\n got %q\nwant prefix %q", step.input, got, step.want)
		}
	}
}

func TestLocationMap(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice")
	play(t, l, "e")

	got := play(t, l, "map").Text
	if !strings.HasPrefix(got, "< -@ -?") {
		t.Errorf("map = %q", got)
	}
	if !strings.Contains(got, "you") || !strings.Contains(got, "unexplored") {
		t.Errorf("map legend missing: %q", got)
	}
}

func TestLocationQuitSaves(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice")
	play(t, l, "e")

	resp := play(t, l, "quit")
	if !resp.Quit {
		t.Fatal("quit should end the session")
	}
	state, err := h.store.Load(context.Background(), "alice", 1)
	if err != nil || state == nil || state.CurrentRoomID != "m" {
		t.Errorf("saved state = %+v, %v", state, err)
	}
}

func TestLocationGateFloor(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice", WithStartFloor(25))

	resp := play(t, l, "descend")
	if !resp.Transition.IsBlocked() || resp.Transition.Floor != 25 {
		t.Fatalf("descend = %v", resp.Transition)
	}
	if resp.Text != "A sealed gate bars the way down. Its guardian still stands." {
		t.Errorf("descend text = %q", resp.Text)
	}

	play(t, l, "e")
	play(t, l, "e")
	play(t, l, "e")
	got := play(t, l, "clear").Text
	want := "The guardian falls. Its lair falls silent. Far below, a sealed gate grinds open.\nThis floor is clear."
	if got != want {
		t.Errorf("clear = %q, want %q", got, want)
	}
	if !h.story.IsGateResolved("alice", 25) {
		t.Error("defeating the guardian should resolve the gate")
	}

	resp = play(t, l, "descend")
	if resp.Transition.Level != 26 {
		t.Errorf("descend after the guardian = %v", resp.Transition)
	}
}

func TestLocationSealFloor(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice", WithStartFloor(15))

	play(t, l, "e")
	play(t, l, "clear")
	play(t, l, "e")
	play(t, l, "clear")
	if got := play(t, l, "descend").Text; got != "The ancient seal on this floor has not been claimed." {
		t.Fatalf("descend = %q", got)
	}

	play(t, l, "w")
	got := play(t, l, "use anc").Text
	if got != "You lay your hand on the ancient seal. Its power is yours.\nThis floor is clear." {
		t.Errorf("use seal = %q", got)
	}
	if !h.story.IsSealCollected("alice", 15) {
		t.Error("seal should be recorded")
	}
	if got := play(t, l, "reset 15").Text; got != "Floor 15 is cleared forever. No scroll can wake it." {
		t.Errorf("reset 15 = %q", got)
	}
	if got := play(t, l, "descend").Text; !strings.HasPrefix(got, "You descend to floor 16.") {
		t.Errorf("descend = %q", got)
	}
}

func TestLocationResetScroll(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice", WithStartFloor(3))

	if got := play(t, l, "floors").Text; got != "No cleared floors are waiting to respawn." {
		t.Errorf("floors = %q", got)
	}
	play(t, l, "e")
	play(t, l, "clear")
	play(t, l, "e")
	if got := play(t, l, "clear").Text; !strings.HasSuffix(got, "This floor is clear.") {
		t.Fatalf("clear = %q", got)
	}

	if got := play(t, l, "floors").Text; got != "Floors that can be reset:\n  Floor 3 - respawns in 24h" {
		t.Errorf("floors = %q", got)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"reset", "Usage: reset <floor>"},
		{"reset three", "'three' is not a floor number."},
		{"reset 9", "You have never set foot on floor 9."},
		{"reset 3", "The scroll crumbles. 2 rooms on floor 3 stir again."},
		{"reset 3", "Floor 3 has nothing to bring back."},
	}
	for _, tt := range tests {
		if got := play(t, l, tt.input).Text; got != tt.want {
			t.Errorf("%q = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLocationRival(t *testing.T) {
	h := newHarness(t)
	l := enterLocation(t, h, "alice", WithStartFloor(6))

	if got := play(t, l, "rival").Text; got != "No one is following your descent. Yet." {
		t.Errorf("rival before meeting = %q", got)
	}
	if got := play(t, l, "duel").Text; got != "There is no one here to duel." {
		t.Errorf("duel before meeting = %q", got)
	}

	got := play(t, l, "descend").Text
	if !strings.Contains(got, "\"I am ") {
		t.Fatalf("descend to floor 7 = %q, want the rival", got)
	}
	if got := play(t, l, "rival").Text; !strings.Contains(got, "Met 1 times, last on floor 7.") {
		t.Errorf("rival = %q", got)
	}
	if got := play(t, l, "duel").Text; !strings.Contains(got, "finds its mark") {
		t.Errorf("duel on an uncleared floor = %q", got)
	}
	d, _ := h.rivals.Get("alice")
	if d.PlayerLosses != 1 || d.PlayerWins != 0 {
		t.Errorf("rival record = %+v", d)
	}

	if got := play(t, l, "descend").Text; strings.Contains(got, "I am") {
		t.Errorf("rival should not appear on floor 8: %q", got)
	}
}

// evictingRivals loses the rival between the lookup and the outcome, the
// way a full cache does when other players meet theirs.
type evictingRivals struct{ *rival.Repository }

func (e evictingRivals) RecordOutcome(playerID string, playerWon bool) (rival.Duelist, bool) {
	e.Forget(playerID)
	return e.Repository.RecordOutcome(playerID, playerWon)
}

func TestLocationDuelWithEvictedRival(t *testing.T) {
	h := newHarness(t)
	h.svc.Rivals = evictingRivals{h.rivals}
	l := enterLocation(t, h, "alice", WithStartFloor(6))

	if got := play(t, l, "descend").Text; !strings.Contains(got, "\"I am ") {
		t.Fatalf("descend to floor 7 = %q, want the rival", got)
	}
	if got := play(t, l, "duel").Text; got != "There is no one here to duel." {
		t.Errorf("duel with an evicted rival = %q", got)
	}
}
