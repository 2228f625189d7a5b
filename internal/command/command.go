// Package command turns text lines such as "move up 2" into game operations.
// Every command declares the phases it may run in; a command issued outside
// them fails with game.ErrWrongPhase before the game is touched.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Handler runs a parsed command for a client and returns a reply for it.
type Handler func(g *game.Game, clientID int, args []string) (string, error)

// Command is one entry of the dispatcher's table.
type Command struct {
	Name    string
	Args    string // argument synopsis for help output
	Summary string
	Phases  []game.Phase // empty means any phase
	Run     Handler
}

// Usage returns the one-line synopsis of the command.
func (c *Command) Usage() string {
	if c.Args == "" {
		return c.Name
	}
	return c.Name + " " + c.Args
}

func (c *Command) allowed(p game.Phase) bool {
	if len(c.Phases) == 0 {
		return true
	}
	for _, ph := range c.Phases {
		if ph == p {
			return true
		}
	}
	return false
}

// Dispatcher maps command names to game operations on one game.
type Dispatcher struct {
	game     *game.Game
	commands map[string]*Command
	aliases  map[string]string
}

// New returns a dispatcher with the standard command table bound to g.
func New(g *game.Game) *Dispatcher {
	d := &Dispatcher{
		game:     g,
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
	for _, c := range standardCommands() {
		d.Register(c)
	}
	d.Register(&Command{
		Name:    "help",
		Summary: "list the available commands",
		Run: func(*game.Game, int, []string) (string, error) {
			return d.Help(), nil
		},
	})
	d.alias("mv", "move")
	d.alias("tp", "teleport")
	d.alias("rot", "rotate")
	d.alias("damage", "draw-damage")
	d.alias("energy", "adjust-energy")
	d.alias("checkpoint", "advance-checkpoint")
	d.alias("upgrade", "use-upgrade")
	d.alias("done", "force-complete")
	d.alias("reset", "reset-game")
	d.alias("?", "help")
	return d
}

// Register adds or replaces a command.
func (d *Dispatcher) Register(c *Command) {
	d.commands[c.Name] = c
}

func (d *Dispatcher) alias(name, target string) {
	d.aliases[name] = target
}

// Lookup finds a command by name or alias.
func (d *Dispatcher) Lookup(name string) (*Command, bool) {
	name = strings.ToLower(name)
	if target, ok := d.aliases[name]; ok {
		name = target
	}
	c, ok := d.commands[name]
	return c, ok
}

// Commands returns the registered commands sorted by name.
func (d *Dispatcher) Commands() []*Command {
	out := make([]*Command, 0, len(d.commands))
	for _, c := range d.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Help lists every command with its synopsis and phases.
func (d *Dispatcher) Help() string {
	var sb strings.Builder
	for _, c := range d.Commands() {
		fmt.Fprintf(&sb, "  %-32s %s", c.Usage(), c.Summary)
		if len(c.Phases) > 0 {
			names := make([]string, len(c.Phases))
			for i, p := range c.Phases {
				names[i] = p.String()
			}
			fmt.Fprintf(&sb, " [%s]", strings.Join(names, ", "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Dispatch parses line as "name args..." and runs it on behalf of clientID.
func (d *Dispatcher) Dispatch(clientID int, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty command", ErrUsage)
	}
	c, ok := d.Lookup(fields[0])
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	if phase := d.game.Phase(); !c.allowed(phase) {
		return "", fmt.Errorf("%w: %s not allowed during %s", game.ErrWrongPhase, c.Name, phase)
	}
	reply, err := c.Run(d.game, clientID, fields[1:])
	if errors.Is(err, ErrUsage) {
		return "", fmt.Errorf("%w: %s", err, c.Usage())
	}
	return reply, err
}

// --- Argument helpers ---

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

func argCount(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return usage("expected %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}

func intArg(args []string, i int, def int) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, usage("%q is not a number", args[i])
	}
	return n, nil
}

// splitNameAndInts separates a multi-word name from trailing integer arguments,
// as in "memory swap 0 3 4".
func splitNameAndInts(args []string) (string, []int) {
	end := len(args)
	for end > 0 {
		if _, err := strconv.Atoi(args[end-1]); err != nil {
			break
		}
		end--
	}
	var ints []int
	for _, a := range args[end:] {
		n, _ := strconv.Atoi(a)
		ints = append(ints, n)
	}
	return strings.Join(args[:end], " "), ints
}

// --- Command table ---

var programming = []game.Phase{game.PhaseProgramming}

func standardCommands() []*Command {
	return []*Command{
		{
			Name:    "move",
			Args:    "<direction> [steps]",
			Summary: "move your robot, pushing robots in the way",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 1, 2); err != nil {
					return "", err
				}
				dir, err := geom.ParseOrientation(args[0])
				if err != nil {
					return "", usage("%v", err)
				}
				steps, err := intArg(args, 1, 1)
				if err != nil {
					return "", err
				}
				if err := g.MoveRobot(id, dir, steps); err != nil {
					return "", err
				}
				return positionReply(g, id), nil
			},
		},
		{
			Name:    "teleport",
			Args:    "<x> <y>",
			Summary: "put your robot on a free cell",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 2, 2); err != nil {
					return "", err
				}
				x, err := intArg(args, 0, 0)
				if err != nil {
					return "", err
				}
				y, err := intArg(args, 1, 0)
				if err != nil {
					return "", err
				}
				if err := g.Teleport(id, geom.Vector{X: x, Y: y}); err != nil {
					return "", err
				}
				return positionReply(g, id), nil
			},
		},
		{
			Name:    "rotate",
			Args:    "<left|right|uturn>",
			Summary: "turn your robot in place",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 1, 1); err != nil {
					return "", err
				}
				r, err := geom.ParseRotation(args[0])
				if err != nil {
					return "", usage("%v", err)
				}
				if err := g.RotateRobot(id, r); err != nil {
					return "", err
				}
				return positionReply(g, id), nil
			},
		},
		{
			Name:    "draw-damage",
			Args:    "<spam|trojan|worm|virus> [count]",
			Summary: "take damage cards from a pool",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 1, 2); err != nil {
					return "", err
				}
				pool, err := game.ParsePool(args[0])
				if err != nil {
					return "", usage("%v", err)
				}
				count, err := intArg(args, 1, 1)
				if err != nil {
					return "", err
				}
				if err := g.DrawDamage(id, pool, count); err != nil {
					return "", err
				}
				return fmt.Sprintf("took %d %s", count, pool), nil
			},
		},
		{
			Name:    "shuffle-discard",
			Summary: "shuffle your discard pile into your draw deck",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 0, 0); err != nil {
					return "", err
				}
				if err := g.ShuffleDiscard(id); err != nil {
					return "", err
				}
				return "discard pile shuffled into the draw deck", nil
			},
		},
		{
			Name:    "adjust-energy",
			Args:    "<delta>",
			Summary: "add or remove energy",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 1, 1); err != nil {
					return "", err
				}
				delta, err := intArg(args, 0, 0)
				if err != nil {
					return "", err
				}
				if err := g.AdjustEnergy(id, delta); err != nil {
					return "", err
				}
				ps := g.State().Player(id)
				return fmt.Sprintf("energy %d", ps.Energy), nil
			},
		},
		{
			Name:    "advance-checkpoint",
			Summary: "credit the next checkpoint",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 0, 0); err != nil {
					return "", err
				}
				if err := g.AdvanceCheckpoint(id); err != nil {
					return "", err
				}
				s := g.State()
				return fmt.Sprintf("checkpoint %d/%d", s.Player(id).Checkpoints, s.Checkpoints), nil
			},
		},
		{
			Name:    "reboot",
			Summary: "reboot your robot",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				if err := argCount(args, 0, 0); err != nil {
					return "", err
				}
				if err := g.RebootRobot(id); err != nil {
					return "", err
				}
				return positionReply(g, id), nil
			},
		},
		{
			Name:    "use-upgrade",
			Args:    "<card> [hand indices]",
			Summary: "play a temporary upgrade",
			Phases:  programming,
			Run: func(g *game.Game, id int, args []string) (string, error) {
				name, picks := splitNameAndInts(args)
				if name == "" {
					return "", usage("missing upgrade name")
				}
				c, err := game.LookupCard(name)
				if err != nil {
					return "", err
				}
				if err := g.UseUpgrade(id, c.Type, picks...); err != nil {
					return "", err
				}
				return "used " + c.Name, nil
			},
		},
		{
			Name:    "force-complete",
			Summary: "stop waiting for programs and auto-fill the missing ones",
			Phases:  programming,
			Run: func(g *game.Game, _ int, args []string) (string, error) {
				if err := argCount(args, 0, 0); err != nil {
					return "", err
				}
				if err := g.ForceComplete(); err != nil {
					return "", err
				}
				return "programming closed", nil
			},
		},
		{
			Name:    "reset-game",
			Summary: "return the game to its initial setup",
			Phases:  []game.Phase{game.PhaseSetup, game.PhaseFinished},
			Run: func(g *game.Game, _ int, args []string) (string, error) {
				if err := argCount(args, 0, 0); err != nil {
					return "", err
				}
				if err := g.Reset(); err != nil {
					return "", err
				}
				return "game reset", nil
			},
		},
		{
			Name:    "status",
			Summary: "show the round, phase and every robot",
			Run: func(g *game.Game, _ int, args []string) (string, error) {
				return Status(g.State()), nil
			},
		},
	}
}

func positionReply(g *game.Game, id int) string {
	ps := g.State().Player(id)
	if ps == nil || ps.Position == nil {
		return "robot is off the board"
	}
	return fmt.Sprintf("robot at %s facing %s", *ps.Position, ps.Orientation)
}

// Status renders a snapshot as a short multi-line report.
func Status(s *game.GameState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Round %d | %s", s.Round, s.Phase)
	if s.Register >= 0 {
		fmt.Fprintf(&sb, " | register %d", s.Register+1)
	}
	sb.WriteByte('\n')
	for _, p := range s.Players {
		pos := "off board"
		if p.Position != nil {
			pos = p.Position.String()
		}
		fmt.Fprintf(&sb, "  %-8s %-9s %-6s checkpoint %d/%d  energy %d", p.Name, pos, p.Orientation, p.Checkpoints, s.Checkpoints, p.Energy)
		if p.Rebooting {
			sb.WriteString("  rebooting")
		}
		if len(p.Upgrades) > 0 {
			names := make([]string, len(p.Upgrades))
			for i, c := range p.Upgrades {
				names[i] = c.Name
			}
			fmt.Fprintf(&sb, "  upgrades: %s", strings.Join(names, ", "))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  pools: spam %d, trojan %d, worm %d, virus %d, upgrades %d",
		s.Pools[game.PoolSpam], s.Pools[game.PoolTrojan], s.Pools[game.PoolWorm], s.Pools[game.PoolVirus], s.Pools[game.PoolUpgrade])
	if len(s.Winners) > 0 {
		fmt.Fprintf(&sb, "\n  winners: %v", s.Winners)
	}
	return sb.String()
}
