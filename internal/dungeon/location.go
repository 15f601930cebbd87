package dungeon

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/delvekeep/server/internal/command"
	"github.com/lawnchairsociety/delvekeep/server/internal/help"
	"github.com/lawnchairsociety/delvekeep/server/internal/navigator"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/tower"
	"github.com/lawnchairsociety/delvekeep/server/internal/world"
)

// RivalInterval is how many floors apart the rival turns up.
const RivalInterval = 7

// Response is what a handler hands back to the session: text to show and
// where the player ended up.
type Response struct {
	Text       string
	Transition Transition
	Quit       bool
}

// EntryHandler is run when a player steps into a location.
type EntryHandler interface {
	OnEnter(ctx context.Context) (Response, error)
}

// ChoiceHandler handles one line of player input.
type ChoiceHandler interface {
	HandleChoice(ctx context.Context, input string) (Response, error)
}

// Location is the dungeon as seen from one session. It turns commands
// into Controller calls.
type Location struct {
	ctrl    *Controller
	help    *help.Help
	isAdmin bool
	resume  bool
	start   int
}

var (
	_ EntryHandler  = (*Location)(nil)
	_ ChoiceHandler = (*Location)(nil)
)

// LocationOption configures a Location.
type LocationOption func(*Location)

// WithHelp replaces the built-in help text.
func WithHelp(h *help.Help) LocationOption {
	return func(l *Location) { l.help = h }
}

// WithAdmin shows admin commands in help.
func WithAdmin(isAdmin bool) LocationOption {
	return func(l *Location) { l.isAdmin = isAdmin }
}

// WithStartFloor makes OnEnter go to level instead of resuming.
func WithStartFloor(level int) LocationOption {
	return func(l *Location) {
		l.resume = false
		l.start = level
	}
}

// NewLocation wraps ctrl.
func NewLocation(ctrl *Controller, opts ...LocationOption) *Location {
	l := &Location{ctrl: ctrl, resume: true}
	for _, opt := range opts {
		opt(l)
	}
	if l.help == nil {
		l.help = help.Default()
	}
	return l
}

// Controller returns the controller behind the location.
func (l *Location) Controller() *Controller { return l.ctrl }

// OnEnter places the player and describes where they stand.
func (l *Location) OnEnter(ctx context.Context) (Response, error) {
	var (
		tr  Transition
		err error
	)
	if l.resume {
		tr, err = l.ctrl.Resume(ctx)
	} else {
		tr, err = l.ctrl.Enter(ctx, l.start)
	}
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text:       fmt.Sprintf("You stand on floor %d.\n%s", l.ctrl.Level(), l.look()),
		Transition: tr,
	}, nil
}

// HandleChoice runs one command. Errors are reserved for storage
// failures; anything the player got wrong comes back as text.
func (l *Location) HandleChoice(ctx context.Context, input string) (Response, error) {
	cmd := command.ParseCommand(input)
	if cmd.Empty() {
		return Response{Transition: Stay()}, nil
	}
	if l.ctrl.CurrentRoom() == nil && cmd.Name != "help" && cmd.Name != "quit" {
		return text("You are not in the dungeon."), nil
	}

	switch cmd.Name {
	case "look":
		return text(l.look()), nil
	case "north", "east", "south", "west":
		dir, _ := world.ParseDirection(cmd.Name)
		return l.move(dir), nil
	case "go":
		if err := cmd.RequireArgs(1, "Go where?"); err != nil {
			return text(err.Error()), nil
		}
		dir, ok := world.ParseDirection(cmd.Arg(0))
		if !ok {
			return text(fmt.Sprintf("'%s' is not a direction.", cmd.Arg(0))), nil
		}
		return l.move(dir), nil
	case "clear":
		return l.clear(ctx)
	case "loot":
		return l.loot(), nil
	case "disarm":
		return l.disarm(), nil
	case "use":
		if err := cmd.RequireArgs(1, "Use what?"); err != nil {
			return text(err.Error()), nil
		}
		return l.use(ctx, cmd.GetTargetName())
	case "guide":
		if err := cmd.RequireArgs(1, "Guide to what? Try: unexplored, uncleared, stairs, boss."); err != nil {
			return text(err.Error()), nil
		}
		return l.guide(cmd.GetTargetName()), nil
	case "map":
		return text(navigator.Render(l.ctrl.Map()) + "\n" + navigator.ASCIIGlyphs.Legend()), nil
	case "descend":
		return l.descend(ctx)
	case "ascend":
		return l.ascend(ctx)
	case "floors":
		return l.floors(ctx)
	case "reset":
		if err := cmd.RequireArgs(1, "Usage: reset <floor>"); err != nil {
			return text(err.Error()), nil
		}
		return l.reset(ctx, cmd.Arg(0))
	case "rival":
		return text(l.rival()), nil
	case "duel":
		return text(l.duel()), nil
	case "help":
		return text(l.help.GetHelpText(strings.ToLower(cmd.GetTargetName()), l.isAdmin)), nil
	case "quit":
		if err := l.ctrl.Save(ctx); err != nil {
			return Response{}, err
		}
		return Response{Text: "You leave the dungeon. Your progress is saved.", Transition: Stay(), Quit: true}, nil
	}
	return text(fmt.Sprintf("Unknown command: %s. Type 'help' for a list of commands.", cmd.Name)), nil
}

func text(s string) Response {
	return Response{Text: s, Transition: Stay()}
}

func (l *Location) look() string {
	room := l.ctrl.CurrentRoom()
	if room == nil {
		return "You are not in the dungeon."
	}
	rs := l.ctrl.RoomState(room.ID)
	return room.Describe(&rs)
}

func (l *Location) move(dir world.Direction) Response {
	res := l.ctrl.Move(dir)
	if !res.OK {
		return text(res.Reason)
	}
	return text(fmt.Sprintf("You head %s.\n%s", dir, l.look()))
}

func (l *Location) clear(ctx context.Context) (Response, error) {
	room := l.ctrl.CurrentRoom()
	rs := l.ctrl.RoomState(room.ID)
	if !room.HasMonsters {
		return text("There is nothing here to fight."), nil
	}
	if rs.IsCleared {
		return text("This room is already quiet."), nil
	}

	level := l.ctrl.Level()
	gate := room.IsBossRoom && l.ctrl.svc.Gate.Layout().IsGate(level)
	if gate {
		if err := l.record(ctx, progression.FlagGateResolved, level); err != nil {
			return Response{}, err
		}
	}
	if err := l.ctrl.MarkCleared(room.ID); err != nil {
		return text(err.Error()), nil
	}

	msg := "You cut down everything that moves. The room falls silent."
	if room.IsBossRoom {
		msg = "The guardian falls. Its lair falls silent."
		if gate {
			msg += " Far below, a sealed gate grinds open."
		}
	}
	return text(msg + l.clearedSuffix()), nil
}

func (l *Location) clearedSuffix() string {
	if l.ctrl.FloorCleared() {
		return "\nThis floor is clear."
	}
	return ""
}

func (l *Location) loot() Response {
	room := l.ctrl.CurrentRoom()
	rs := l.ctrl.RoomState(room.ID)
	switch {
	case !room.HasTreasure:
		return text("There is nothing here worth taking.")
	case rs.TreasureLooted:
		return text("Someone has already emptied this place. You, in fact.")
	case room.HasMonsters && !rs.IsCleared:
		return text("Not while something is still watching you.")
	}
	if err := l.ctrl.MarkLooted(room.ID); err != nil {
		return text(err.Error())
	}
	return text("You gather up what treasure there is.")
}

func (l *Location) disarm() Response {
	room := l.ctrl.CurrentRoom()
	rs := l.ctrl.RoomState(room.ID)
	if !room.HasTrap || rs.TrapTriggered {
		return text("You find no trap here.")
	}
	if err := l.ctrl.MarkTrapped(room.ID); err != nil {
		return text(err.Error())
	}
	return text("Something clicks beneath your boot. The trap is spent.")
}

func (l *Location) use(ctx context.Context, name string) (Response, error) {
	room := l.ctrl.CurrentRoom()
	feature, ok := room.FindFeature(name)
	if !ok {
		return text(fmt.Sprintf("You see no %s here.", name)), nil
	}

	rs := l.ctrl.RoomState(room.ID)
	if feature.Kind == world.FeatureSeal && !rs.Interacted(world.FeatureSeal) {
		if err := l.record(ctx, progression.FlagSealCollected, l.ctrl.Level()); err != nil {
			return Response{}, err
		}
	}

	_, first, err := l.ctrl.Interact(room.ID, feature.Name)
	if err != nil {
		return text(err.Error()), nil
	}
	if !first {
		return text(fmt.Sprintf("The %s has nothing more to give.", feature.Name)), nil
	}

	msg := fmt.Sprintf("You use the %s.", feature.Name)
	switch feature.Kind {
	case world.FeatureSeal:
		msg = fmt.Sprintf("You lay your hand on the %s. Its power is yours.", feature.Name)
	case world.FeatureSecretBoss:
		msg = fmt.Sprintf("The %s trembles. Something ancient notices you.", feature.Name)
	}
	return text(msg + l.clearedSuffix()), nil
}

func (l *Location) record(ctx context.Context, kind progression.FlagKind, level int) error {
	if l.ctrl.svc.Story == nil {
		return nil
	}
	_, err := l.ctrl.svc.Story.Record(ctx, l.ctrl.PlayerID(), kind, level)
	return err
}

func (l *Location) guide(target string) Response {
	t := navigator.ParseTarget(target)
	path, ok := l.ctrl.Guide(t)
	if !ok {
		return text(fmt.Sprintf("You know of no way to %s.", t.Name))
	}
	return text(path.String())
}

func (l *Location) descend(ctx context.Context) (Response, error) {
	tr, err := l.ctrl.Descend(ctx)
	if err != nil {
		return Response{}, err
	}
	if tr.IsBlocked() {
		return Response{Text: tr.Reason, Transition: tr}, nil
	}

	msg := fmt.Sprintf("You descend to floor %d.\n%s", l.ctrl.Level(), l.look())
	if rival := l.meetRival(); rival != "" {
		msg += "\n" + rival
	}
	return Response{Text: msg, Transition: tr}, nil
}

func (l *Location) meetRival() string {
	level := l.ctrl.Level()
	if l.ctrl.svc.Rivals == nil || level%RivalInterval != 0 {
		return ""
	}
	d, ok := l.ctrl.svc.Rivals.Encounter(l.ctrl.PlayerID(), level)
	if !ok {
		return ""
	}
	if d.TimesEncountered == 1 {
		return fmt.Sprintf("A figure with a %s blocks the stairs. \"I am %s. Remember it.\"", d.Weapon, d.Name)
	}
	return fmt.Sprintf("%s is waiting for you again, %s drawn.", d.Name, d.Weapon)
}

func (l *Location) ascend(ctx context.Context) (Response, error) {
	before := l.ctrl.Level()
	tr, err := l.ctrl.Ascend(ctx)
	if err != nil {
		return Response{}, err
	}
	if l.ctrl.Level() == before {
		return text("There is nowhere higher to climb."), nil
	}
	return Response{Text: fmt.Sprintf("You climb to floor %d.\n%s", l.ctrl.Level(), l.look()), Transition: tr}, nil
}

func (l *Location) floors(ctx context.Context) (Response, error) {
	eligible, err := l.ctrl.ResetEligible(ctx)
	if err != nil {
		return Response{}, err
	}
	if len(eligible) == 0 {
		return text("No cleared floors are waiting to respawn."), nil
	}
	var b strings.Builder
	b.WriteString("Floors that can be reset:")
	for _, c := range eligible {
		fmt.Fprintf(&b, "\n  Floor %d - respawns in %dh", c.Level, c.HoursUntilRespawn)
	}
	return text(b.String()), nil
}

func (l *Location) reset(ctx context.Context, arg string) (Response, error) {
	level, err := strconv.Atoi(arg)
	if err != nil {
		return text(fmt.Sprintf("'%s' is not a floor number.", arg)), nil
	}
	n, err := l.ctrl.ForceRespawn(ctx, level)
	switch {
	case errors.Is(err, tower.ErrFloorPinned):
		return text(fmt.Sprintf("Floor %d is cleared forever. No scroll can wake it.", level)), nil
	case errors.Is(err, tower.ErrFloorNotVisited):
		return text(fmt.Sprintf("You have never set foot on floor %d.", level)), nil
	case errors.Is(err, tower.ErrNothingToRespawn):
		return text(fmt.Sprintf("Floor %d has nothing to bring back.", level)), nil
	case err != nil:
		return Response{}, err
	}
	return text(fmt.Sprintf("The scroll crumbles. %d rooms on floor %d stir again.", n, level)), nil
}

func (l *Location) rival() string {
	if l.ctrl.svc.Rivals == nil {
		return "No one is following your descent."
	}
	d, ok := l.ctrl.svc.Rivals.Get(l.ctrl.PlayerID())
	if !ok {
		return "No one is following your descent. Yet."
	}
	status := "still hunting you"
	if d.IsDead {
		status = "dead by your hand"
	}
	return fmt.Sprintf("%s, %s wielder, %s.\nMet %d times, last on floor %d. Duels: %d won, %d lost.",
		d.Name, d.Weapon, status, d.TimesEncountered, d.LastFloor, d.PlayerWins, d.PlayerLosses)
}

// duel settles a meeting with the rival on the current floor. The player
// wins when they have already cleared the floor.
func (l *Location) duel() string {
	rivals := l.ctrl.svc.Rivals
	if rivals == nil {
		return "There is no one here to duel."
	}
	d, ok := rivals.Get(l.ctrl.PlayerID())
	if !ok || d.IsDead || d.LastFloor != l.ctrl.Level() {
		return "There is no one here to duel."
	}

	won := l.ctrl.FloorCleared()
	d, ok = rivals.RecordOutcome(l.ctrl.PlayerID(), won)
	if !ok {
		return "There is no one here to duel."
	}
	switch {
	case d.IsDead:
		return fmt.Sprintf("%s falls and does not rise. The rivalry is over.", d.Name)
	case won:
		return fmt.Sprintf("You disarm %s, who vanishes into the dark, laughing.", d.Name)
	}
	return fmt.Sprintf("%s's %s finds its mark. You stagger back as they slip away.", d.Name, d.Weapon)
}
