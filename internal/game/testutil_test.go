package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// ScriptedController is a PlayerController that follows a predefined script.
// Used in tests to deterministically drive the game. Once a script runs out
// it answers like an AutoController.
type ScriptedController struct {
	t    *testing.T
	name string

	mu          sync.Mutex
	startPoints []geom.Vector
	programs    [][]CardType
	options     []int
	cardChoices [][]int
	prompts     []string
	events      []log.GameEvent

	// block makes ChooseProgram wait for ctx instead of answering.
	block bool
}

func NewScriptedController(t *testing.T, name string) *ScriptedController {
	return &ScriptedController{t: t, name: name}
}

func (sc *ScriptedController) AddStartPoint(v geom.Vector) *ScriptedController {
	sc.startPoints = append(sc.startPoints, v)
	return sc
}

// AddProgram scripts the next round's registers by card type.
func (sc *ScriptedController) AddProgram(types ...CardType) *ScriptedController {
	sc.programs = append(sc.programs, types)
	return sc
}

func (sc *ScriptedController) AddOption(idx int) *ScriptedController {
	sc.options = append(sc.options, idx)
	return sc
}

func (sc *ScriptedController) AddCardChoice(idx ...int) *ScriptedController {
	sc.cardChoices = append(sc.cardChoices, idx)
	return sc
}

// Block makes every ChooseProgram call wait until its context ends.
func (sc *ScriptedController) Block() *ScriptedController {
	sc.block = true
	return sc
}

func (sc *ScriptedController) ChooseStartPoint(ctx context.Context, state *GameState, options []geom.Vector) (geom.Vector, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.startPoints) == 0 {
		return AutoController{}.ChooseStartPoint(ctx, state, options)
	}
	v := sc.startPoints[0]
	sc.startPoints = sc.startPoints[1:]
	return v, nil
}

func (sc *ScriptedController) ChooseProgram(ctx context.Context, state *GameState, hand []*Card, locked Program) (Program, error) {
	if sc.block {
		<-ctx.Done()
		return Program{}, ctx.Err()
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.programs) == 0 {
		return AutoProgram(hand, locked), nil
	}
	types := sc.programs[0]
	sc.programs = sc.programs[1:]
	var prog Program
	for i, ct := range types {
		if i < RegisterCount {
			prog[i] = CardFor(ct)
		}
	}
	return prog, nil
}

func (sc *ScriptedController) ChooseOption(ctx context.Context, state *GameState, prompt string, options []string) (int, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.prompts = append(sc.prompts, prompt)
	if len(sc.options) == 0 {
		return 0, nil
	}
	idx := sc.options[0]
	sc.options = sc.options[1:]
	return idx, nil
}

func (sc *ScriptedController) ChooseCards(ctx context.Context, state *GameState, prompt string, candidates []*Card, min, max int) ([]int, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.cardChoices) == 0 {
		return AutoController{}.ChooseCards(ctx, state, prompt, candidates, min, max)
	}
	idx := sc.cardChoices[0]
	sc.cardChoices = sc.cardChoices[1:]
	return idx, nil
}

func (sc *ScriptedController) Notify(ctx context.Context, event log.GameEvent) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.events = append(sc.events, event)
	return nil
}

// Rejections returns the refusal messages the controller was sent.
func (sc *ScriptedController) Rejections() []log.GameEvent {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	var out []log.GameEvent
	for _, e := range sc.events {
		if e.Type == log.EventRejected {
			out = append(out, e)
		}
	}
	return out
}

// --- Board helpers ---

// newTestBoard returns an open w×h board. The bottom row is a starting area
// with start points in its first four cells; the antenna sits at the bottom
// right corner and checkpoint 1 at the top right corner.
func newTestBoard(w, h int) *board.Board {
	b := board.New("test", w, h)
	for x := 0; x < w; x++ {
		b.MarkStarting(geom.Vector{X: x, Y: h - 1}, true)
	}
	for x := 0; x < 4 && x < w-1; x++ {
		b.Push(geom.Vector{X: x, Y: h - 1}, board.NewStartPoint())
	}
	b.Push(geom.Vector{X: w - 1, Y: h - 1}, board.NewAntenna(geom.Left))
	b.Push(geom.Vector{X: w - 1, Y: 0}, board.NewCheckpoint(1))
	return b
}

func testRules() *Rules {
	r := DefaultRules()
	r.UpgradePhase = false
	r.ProgrammingTimeout = 2 * time.Second
	r.MaxRounds = 20
	return &r
}

// newTestGame creates a deterministic game for n players (client ids 0..n-1)
// with scripted controllers, unshuffled decks and seating rank.
func newTestGame(t *testing.T, b *board.Board, rules *Rules, n int) (*Game, []*ScriptedController, *log.MemoryLogger) {
	t.Helper()
	if rules == nil {
		rules = testRules()
	}
	logger := log.NewMemoryLogger()
	ctrls := make([]*ScriptedController, n)
	controllers := make(map[int]PlayerController, n)
	var players []PlayerConfig
	for i := 0; i < n; i++ {
		ctrls[i] = NewScriptedController(t, playerLabel(i))
		controllers[i] = ctrls[i]
		players = append(players, PlayerConfig{ClientID: i, Name: playerLabel(i)})
	}
	g, err := NewGame(GameConfig{
		Board:     b,
		Rules:     rules,
		Players:   players,
		Logger:    logger,
		NoShuffle: true,
		Rank:      SeatingRank,
	}, controllers)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, ctrls, logger
}

func playerLabel(i int) string {
	return string(rune('A' + i))
}

// placeRobot puts a player's robot on the board outside of the setup phase.
func placeRobot(g *Game, clientID int, v geom.Vector, facing geom.Orientation) *Player {
	p := g.byID[clientID]
	p.Robot.Place(v)
	p.Robot.SetStart(v)
	p.Robot.SetOrientation(facing)
	p.StartPointSet = true
	return p
}

func posOf(t *testing.T, p *Player) geom.Vector {
	t.Helper()
	v, ok := p.Robot.Pos()
	if !ok {
		t.Fatalf("%s is not on the board", p.Name)
	}
	return v
}

// runGame runs a game to completion and returns the winners.
func runGame(t *testing.T, g *Game, logger *log.MemoryLogger) []int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	winners, err := g.Run(ctx)
	if err != nil {
		t.Logf("Event log:\n%s", log.FormatAll(logger.Events()))
		t.Fatalf("Run error: %v", err)
	}
	t.Logf("Game result: winners=%v after %d round(s)", winners, g.Round())
	return winners
}

// totalHeld counts the cards of type t held by every player.
func totalHeld(g *Game, t CardType) int {
	n := 0
	for _, p := range g.players {
		n += p.HeldCount(t)
	}
	return n
}
