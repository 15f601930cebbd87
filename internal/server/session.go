package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/delvekeep/server/internal/command"
	"github.com/lawnchairsociety/delvekeep/server/internal/database"
	"github.com/lawnchairsociety/delvekeep/server/internal/dungeon"
	"github.com/lawnchairsociety/delvekeep/server/internal/logger"
	"github.com/lawnchairsociety/delvekeep/server/internal/metrics"
	"github.com/lawnchairsociety/delvekeep/server/internal/progression"
	"github.com/lawnchairsociety/delvekeep/server/internal/throttle"
)

// Commands a follower may not run: they would move or change the world.
var mutatingCommands = map[string]bool{
	"north": true, "east": true, "south": true, "west": true, "go": true,
	"clear": true, "loot": true, "disarm": true, "use": true,
	"descend": true, "ascend": true, "reset": true, "duel": true,
}

// Session is one logged-in connection. Its goroutine owns the player's
// controller; other sessions only reach it through Deliver and the
// follower list.
type Session struct {
	id       string
	server   *Server
	client   Client
	account  *database.Account
	playerID string
	loc      *dungeon.Location
	limiter  *throttle.Window
	lastSave time.Time

	mu     sync.Mutex
	leader *Session
}

var _ dungeon.Follower = (*Session)(nil)

func newSession(s *Server, client Client, account *database.Account) (*Session, error) {
	playerID := strings.ToLower(account.Username)
	ctrl, err := dungeon.NewController(playerID, s.svc)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:       uuid.NewString(),
		server:   s,
		client:   client,
		account:  account,
		playerID: playerID,
		loc:      dungeon.NewLocation(ctrl, dungeon.WithHelp(s.help), dungeon.WithAdmin(account.IsAdmin)),
		limiter:  throttle.NewWindow(s.cfg.Commands.Window(), s.clock),
		lastSave: s.clock.Now(),
	}, nil
}

// ID returns the session's unique id.
func (se *Session) ID() string { return se.id }

// Name returns the account name as typed at registration.
func (se *Session) Name() string { return se.account.Username }

// FollowerID identifies the session in a leader's follower list.
func (se *Session) FollowerID() string { return se.id }

// Deliver prints a leader's snapshot. It runs on the leader's goroutine.
func (se *Session) Deliver(snap dungeon.Snapshot) {
	se.client.WriteLine(formatSnapshot(se.leaderName(), snap))
}

func formatSnapshot(leader string, snap dungeon.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s, floor %d]", leader, snap.Level)
	if snap.Event != "" {
		b.WriteString(" " + snap.Event)
	}
	b.WriteString("\n" + snap.View)
	if snap.Map != "" {
		b.WriteString("\n" + snap.Map)
	}
	b.WriteString("\n")
	return b.String()
}

func (se *Session) leaderName() string {
	se.mu.Lock()
	defer se.mu.Unlock()
	if se.leader == nil {
		return "?"
	}
	return se.leader.Name()
}

func (se *Session) currentLeader() *Session {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.leader
}

func (se *Session) setLeader(l *Session) {
	se.mu.Lock()
	se.leader = l
	se.mu.Unlock()
}

func (se *Session) write(msg string) {
	if msg == "" {
		return
	}
	se.client.WriteLine(msg + "\n")
}

// run greets the player, enters the dungeon and serves commands until
// quit or disconnect.
func (se *Session) run(ctx context.Context) error {
	states, err := se.server.svc.Store.List(ctx, se.playerID)
	if err != nil {
		return err
	}
	se.write("\n" + se.server.text.GetIntro(se.Name(), len(states) > 0) + "\n")

	resp, err := se.loc.OnEnter(ctx)
	if err != nil {
		se.write("The dungeon will not let you in right now. Please try again later.")
		return err
	}
	se.write(resp.Text)

	for {
		line, err := se.client.ReadLine()
		if err != nil {
			return nil
		}
		if res := se.limiter.Check(); !res.Allowed {
			metrics.CommandsThrottled.Inc()
			se.write(res.Reason)
			continue
		}

		out, quit, err := se.handle(ctx, line)
		if err != nil {
			logger.Error("Command failed", "player", se.playerID, "input", line, "error", err)
			se.write("Something went wrong. Your last action may not have been saved.")
			continue
		}
		se.write(out)
		if quit {
			return nil
		}
		se.autoSave(ctx)
	}
}

func (se *Session) handle(ctx context.Context, line string) (string, bool, error) {
	cmd := command.ParseCommand(line)

	switch cmd.Name {
	case "follow":
		return se.follow(cmd), false, nil
	case "unfollow":
		return se.unfollow(), false, nil
	case "who":
		return se.who(), false, nil
	case "resolve":
		if se.account.IsAdmin {
			out, err := se.resolve(ctx, cmd)
			return out, false, err
		}
	}

	if leader := se.currentLeader(); leader != nil && mutatingCommands[cmd.Name] {
		return fmt.Sprintf("You are following %s. Type 'unfollow' to go your own way.", leader.Name()), false, nil
	}

	resp, err := se.loc.HandleChoice(ctx, line)
	if err != nil {
		return "", false, err
	}
	if resp.Quit {
		se.lastSave = se.server.clock.Now()
	}
	return resp.Text, resp.Quit, nil
}

func (se *Session) autoSave(ctx context.Context) {
	every := se.server.cfg.AutoSaveInterval()
	now := se.server.clock.Now()
	if every <= 0 || now.Sub(se.lastSave) < every {
		return
	}
	if err := se.loc.Controller().Save(ctx); err != nil {
		logger.Warning("Auto-save failed", "player", se.playerID, "error", err)
		return
	}
	se.lastSave = now
}

func (se *Session) follow(cmd *command.Command) string {
	if err := cmd.RequireArgs(1, "Follow whom?"); err != nil {
		return err.Error()
	}
	target := se.server.FindSession(cmd.GetTargetName())
	switch {
	case target == nil:
		return fmt.Sprintf("No one called %s is in the dungeon.", cmd.GetTargetName())
	case target == se:
		return "You cannot follow yourself."
	case target == se.currentLeader():
		return fmt.Sprintf("You are already following %s.", target.Name())
	}

	se.unfollow()
	if !target.loc.Controller().Followers().Add(se) {
		return fmt.Sprintf("You are already following %s.", target.Name())
	}
	se.setLeader(target)
	target.write(fmt.Sprintf("%s is now following you.", se.Name()))
	logger.Debug("Follow", "follower", se.playerID, "leader", target.playerID)
	return fmt.Sprintf("You start following %s. You will see what they see.", target.Name())
}

func (se *Session) unfollow() string {
	leader := se.currentLeader()
	if leader == nil {
		return "You are not following anyone."
	}
	leader.loc.Controller().Followers().Remove(se.id)
	se.setLeader(nil)
	return fmt.Sprintf("You stop following %s.", leader.Name())
}

// leaderGone is called on a follower when its leader disconnects.
func (se *Session) leaderGone(leader *Session) {
	se.mu.Lock()
	if se.leader != leader {
		se.mu.Unlock()
		return
	}
	se.leader = nil
	se.mu.Unlock()
	se.write(fmt.Sprintf("%s has left the dungeon. You are no longer following them.", leader.Name()))
}

func (se *Session) who() string {
	names := se.server.OnlinePlayers()
	if len(names) == 0 {
		return "No one is in the dungeon."
	}
	return fmt.Sprintf("In the dungeon (%d):\n  %s", len(names), strings.Join(names, "\n  "))
}

// resolve records a story flag by hand: resolve <player> <gate|seal> <floor>.
func (se *Session) resolve(ctx context.Context, cmd *command.Command) (string, error) {
	usage := "Usage: resolve <player> <gate|seal> <floor>"
	if err := cmd.RequireArgs(3, usage); err != nil {
		return err.Error(), nil
	}
	kind, err := progression.ParseFlagKind(cmd.Arg(1))
	if err != nil {
		return usage, nil
	}
	floor, err := strconv.Atoi(cmd.Arg(2))
	if err != nil || floor < 1 {
		return fmt.Sprintf("'%s' is not a floor number.", cmd.Arg(2)), nil
	}
	if se.server.svc.Story == nil {
		return "Story flags are not being recorded on this server.", nil
	}

	player := strings.ToLower(cmd.Arg(0))
	isNew, err := se.server.svc.Story.Record(ctx, player, kind, floor)
	if err != nil {
		return "", err
	}
	logger.Audit("Story flag set by admin", "admin", se.playerID, "player", player, "kind", string(kind), "floor", floor)
	if !isNew {
		return fmt.Sprintf("%s on floor %d was already recorded for %s.", kind, floor, player), nil
	}
	return fmt.Sprintf("Recorded %s on floor %d for %s.", kind, floor, player), nil
}

// close saves the player's floor and detaches them from every follow
// relationship.
func (se *Session) close(ctx context.Context) {
	se.unfollow()
	for _, f := range se.loc.Controller().Followers().List() {
		if follower, ok := f.(*Session); ok {
			follower.leaderGone(se)
		}
		se.loc.Controller().Followers().Remove(f.FollowerID())
	}
	if err := se.loc.Controller().Save(ctx); err != nil {
		logger.Error("Failed to save player on disconnect", "player", se.playerID, "error", err)
	}
}
