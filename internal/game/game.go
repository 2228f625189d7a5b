package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// PlayerConfig describes one seat of a game.
type PlayerConfig struct {
	ClientID int
	Name     string
	AI       bool
}

// GameConfig holds configuration for creating a new game.
type GameConfig struct {
	Board       *board.Board
	Rules       *Rules // nil for DefaultRules
	Players     []PlayerConfig
	Logger      log.EventLogger
	Seed        int64            // RNG seed (0 for random)
	NoShuffle   bool             // keep decks in order (for deterministic tests)
	Rank        RankPolicy       // nil for AntennaRank
	StartFacing geom.Orientation // orientation of robots on their start point
}

// Game owns every piece of state of one match. All mutation happens with mu held.
type Game struct {
	ID     uuid.UUID
	Board  *board.Board
	Rules  Rules
	Shared *SharedDeck
	Logger log.EventLogger

	mu          sync.Mutex
	players     []*Player // sorted by client id
	byID        map[int]*Player
	controllers map[int]PlayerController
	rank        RankPolicy
	rng         *rand.Rand // nil when shuffling is disabled
	startFacing geom.Orientation

	ctx               context.Context
	cancelRun         context.CancelFunc
	cancelProgramming context.CancelFunc
	running           bool

	phase           Phase
	round           int
	register        int
	checkpointTotal int
	claimOrder      []int // clients that reached the last checkpoint, in order
	winners         []int
	fatal           error
}

// NewGame creates a game from the given config. Players without a controller
// are driven by an AutoController.
func NewGame(cfg GameConfig, controllers map[int]PlayerController) (*Game, error) {
	if cfg.Board == nil {
		return nil, fmt.Errorf("%w: no board", ErrInvalidOperation)
	}
	if len(cfg.Players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidOperation)
	}
	rules := DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if n := len(cfg.Board.StartPoints()); n < len(cfg.Players) {
		return nil, fmt.Errorf("%w: %d players but only %d start points", ErrInvalidOperation, len(cfg.Players), n)
	}
	checkpoints := cfg.Board.Checkpoints()
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: board has no checkpoints", ErrInvalidOperation)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	var rng *rand.Rand
	if !cfg.NoShuffle {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	rank := cfg.Rank
	if rank == nil {
		rank = AntennaRank
	}

	starting, err := rules.StartingCards()
	if err != nil {
		return nil, err
	}
	upgrades, err := rules.UpgradeCards()
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:              uuid.New(),
		Board:           cfg.Board,
		Rules:           rules,
		Shared:          NewSharedDeck(upgrades, rng),
		Logger:          logger,
		byID:            make(map[int]*Player),
		controllers:     make(map[int]PlayerController),
		rank:            rank,
		rng:             rng,
		startFacing:     cfg.StartFacing,
		ctx:             context.Background(),
		phase:           PhaseSetup,
		register:        -1,
		checkpointTotal: checkpoints[len(checkpoints)-1].Number,
	}

	for _, pc := range cfg.Players {
		if _, dup := g.byID[pc.ClientID]; dup {
			return nil, fmt.Errorf("%w: duplicate client id %d", ErrInvalidOperation, pc.ClientID)
		}
		p := NewPlayer(pc.ClientID, pc.Name, NewCardManager(starting, rng), rules.StartingEnergy)
		p.AI = pc.AI
		id := pc.ClientID
		p.Cards.OnReshuffle = func() { g.log(log.NewShuffleEvent(id)) }
		g.players = append(g.players, p)
		g.byID[id] = p

		ctrl := controllers[id]
		if ctrl == nil {
			ctrl = AutoController{}
		}
		g.controllers[id] = ctrl
	}
	sort.Slice(g.players, func(i, j int) bool { return g.players[i].ClientID() < g.players[j].ClientID() })
	return g, nil
}

// Run executes the game loop until a robot wins, the round limit is hit or ctx
// is cancelled. It returns the winners in the order they reached the last checkpoint.
func (g *Game) Run(ctx context.Context) ([]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return nil, fmt.Errorf("%w: game is already running", ErrInvalidOperation)
	}
	if g.phase != PhaseSetup {
		return nil, wrongPhase("run", g.phase)
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.ctx = runCtx
	g.cancelRun = cancel
	g.running = true
	defer func() {
		g.running = false
		g.cancelRun = nil
	}()

	if err := g.setupPhase(runCtx); err != nil {
		return g.stop(err)
	}

	for g.phase != PhaseFinished {
		if err := runCtx.Err(); err != nil {
			return g.stop(err)
		}
		if g.Rules.MaxRounds > 0 && g.round >= g.Rules.MaxRounds {
			g.finish(fmt.Sprintf("round limit reached (%d rounds)", g.Rules.MaxRounds))
			break
		}
		if err := g.runRound(runCtx); err != nil {
			return g.stop(err)
		}
	}
	return append([]int(nil), g.winners...), nil
}

// stop ends a run that failed or was cancelled.
func (g *Game) stop(err error) ([]int, error) {
	if g.fatal != nil {
		err = g.fatal
	}
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		g.abort("cancelled")
	case errors.Is(err, ErrSharedDeckExhausted):
		g.fatal = err
		g.abort(err.Error())
	}
	return append([]int(nil), g.winners...), err
}

// runRound executes one full round: upgrade shop, programming, five registers.
func (g *Game) runRound(ctx context.Context) error {
	g.round++
	g.log(log.NewRoundStartEvent(g.round))

	if g.Rules.UpgradePhase {
		if err := g.upgradePhase(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := g.programmingPhase(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := g.executionPhase(ctx); err != nil {
		return err
	}
	if g.phase == PhaseFinished {
		return nil
	}

	g.endRound()
	return nil
}

func (g *Game) setPhase(p Phase) {
	g.phase = p
	g.log(log.NewPhaseChangeEvent(g.round, p.String()))
}

// --- Setup ---

func (g *Game) setupPhase(ctx context.Context) error {
	g.setPhase(PhaseSetup)
	for _, p := range g.players {
		if p.StartPointSet {
			continue
		}
		free := g.freeStartPoints()
		if len(free) == 0 {
			return fmt.Errorf("%w: no free start point for %s", ErrInvalidOperation, p.Name)
		}

		placed := false
		for attempt := 0; attempt < 2 && !placed; attempt++ {
			var v geom.Vector
			var err error
			ctrl := g.controllers[p.ClientID()]
			state := g.snapshot()
			g.unlocked(func() { v, err = ctrl.ChooseStartPoint(ctx, state, free) })
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				break
			}
			if rerr := g.claimStartPoint(p, v); rerr != nil {
				g.notify(p, rerr.Error())
				free = g.freeStartPoints()
				continue
			}
			placed = true
		}
		if !placed {
			if err := g.claimStartPoint(p, g.freeStartPoints()[0]); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) freeStartPoints() []geom.Vector {
	var free []geom.Vector
	for _, v := range g.Board.StartPoints() {
		if g.robotAt(v) == nil {
			free = append(free, v)
		}
	}
	return free
}

// claimStartPoint places p's robot on a free start point.
func (g *Game) claimStartPoint(p *Player, v geom.Vector) error {
	if !g.Board.HasKind(v, board.KindStartPoint) {
		return reject("%s is not a start point", v)
	}
	if other := g.robotAt(v); other != nil && other != p {
		return reject("start point %s is already claimed by %s", v, other.Name)
	}
	p.Robot.Place(v)
	p.Robot.SetStart(v)
	p.Robot.SetOrientation(g.startFacing)
	p.StartPointSet = true
	g.log(log.NewStartPointEvent(p.ClientID(), v))
	return nil
}

// --- Programming ---

type programResult struct {
	clientID int
	prog     Program
	err      error
}

func (g *Game) programmingPhase(ctx context.Context) error {
	g.setPhase(PhaseProgramming)
	if g.Rules.RechargeEnergySpaces {
		g.Board.RechargeEnergySpaces()
	}

	var seats []*Player
	for _, p := range g.players {
		p.resetRoundFlags()
		if !p.Robot.Placed() {
			continue
		}
		if err := g.drawHand(p); err != nil {
			return err
		}
		seats = append(seats, p)
	}

	var pctx context.Context
	var cancel context.CancelFunc
	if g.Rules.ProgrammingTimeout > 0 {
		pctx, cancel = context.WithTimeout(ctx, g.Rules.ProgrammingTimeout)
	} else {
		pctx, cancel = context.WithCancel(ctx)
	}
	g.cancelProgramming = cancel
	defer func() {
		cancel()
		g.cancelProgramming = nil
	}()

	results := make(chan programResult, len(seats))
	state := g.snapshot()
	for _, p := range seats {
		ctrl := g.controllers[p.ClientID()]
		id := p.ClientID()
		hand := p.Cards.Hand().Cards()
		var locked Program
		for i := 0; i < RegisterCount; i++ {
			if p.Register.IsLocked(i) {
				locked[i], _ = p.Register.Get(i)
			}
		}
		go func() {
			prog, err := ctrl.ChooseProgram(pctx, state, hand, locked)
			results <- programResult{clientID: id, prog: prog, err: err}
		}()
	}

	collected := make(map[int]Program)
	g.unlocked(func() {
		for received := 0; received < len(seats); received++ {
			select {
			case r := <-results:
				if r.err == nil {
					collected[r.clientID] = r.prog
				}
			case <-pctx.Done():
				return
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, p := range seats {
		prog, ok := collected[p.ClientID()]
		auto := !ok
		if ok {
			if err := g.applyProgram(p, prog); err != nil {
				g.notify(p, err.Error())
				auto = true
			}
		}
		if auto {
			var locked Program
			for i := 0; i < RegisterCount; i++ {
				if p.Register.IsLocked(i) {
					locked[i], _ = p.Register.Get(i)
				}
			}
			_ = g.applyProgram(p, AutoProgram(p.Cards.Hand().Cards(), locked))
		}
		p.SelectionFinished = true
		g.log(log.NewProgramSubmittedEvent(p.ClientID(), auto))

		// Cards left in hand are discarded without effect.
		for _, c := range p.Cards.DiscardHand() {
			g.log(log.NewDiscardEvent(p.ClientID(), c.Name))
		}
	}
	return nil
}

// drawHand fills p's hand up to the hand size, as far as draw + discard allow.
func (g *Game) drawHand(p *Player) error {
	need := g.Rules.HandSize - p.Cards.Hand().Len()
	avail := p.Cards.DrawPile().Len() + p.Cards.DiscardPile().Len()
	if need > avail {
		need = avail
	}
	if need <= 0 {
		return nil
	}
	if _, err := p.Cards.DrawCards(need); err != nil {
		return err
	}
	g.log(log.NewDrawEvent(p.ClientID(), need))
	return nil
}

// applyProgram moves the chosen cards from p's hand into the free registers.
// Empty slots are filled from the remaining hand. An invalid program changes nothing.
func (g *Game) applyProgram(p *Player, prog Program) error {
	remaining := p.Cards.Hand().Cards()
	take := func(c *Card) bool {
		for i, h := range remaining {
			if h.Type == c.Type {
				remaining = append(remaining[:i], remaining[i+1:]...)
				return true
			}
		}
		return false
	}
	for i, c := range prog {
		if c == nil || p.Register.IsLocked(i) {
			continue
		}
		if !c.Programmable() {
			return reject("%s cannot be programmed", c.Name)
		}
		if i == 0 && c.RepeatsPrevious() {
			return reject("%s cannot go in the first register", c.Name)
		}
		if !take(c) {
			return reject("%s is not in %s's hand", c.Name, p.Name)
		}
	}

	var final Program
	for i, c := range prog {
		if p.Register.IsLocked(i) {
			continue
		}
		final[i] = c
	}
	// Fill empty slots from what is left of the hand.
	var locked Program
	for i := 0; i < RegisterCount; i++ {
		if p.Register.IsLocked(i) {
			locked[i], _ = p.Register.Get(i)
		} else if final[i] != nil {
			locked[i] = final[i]
		}
	}
	fill := AutoProgram(remaining, locked)
	for i := range final {
		if final[i] == nil && locked[i] == nil {
			final[i] = fill[i]
		}
	}

	for i, c := range final {
		if c == nil {
			continue
		}
		card, err := p.Cards.RetrieveCardFromHandByType(c.Type)
		if err != nil {
			return err
		}
		if err := p.Register.Set(i, card); err != nil {
			p.Cards.AddToHand(card)
			return err
		}
	}
	return nil
}

// --- Round end ---

// endRound discards the played registers (damage back to the pools) and resets flags.
func (g *Game) endRound() {
	for _, p := range g.players {
		for _, c := range p.Register.Drain() {
			g.discardPlayed(p, c)
		}
		p.resetRoundFlags()
	}
}

// discardPlayed sends a card leaving a register to its destination.
func (g *Game) discardPlayed(p *Player, c *Card) {
	if _, shared := PoolOf(c); shared {
		g.returnShared(p.ClientID(), c)
		return
	}
	p.Cards.Discard(c)
}

// returnShared puts c back into its shared pool. A refusal means the card
// counts went wrong somewhere, so it is logged against clientID.
func (g *Game) returnShared(clientID int, c *Card) {
	if err := g.Shared.ReturnCard(c); err != nil {
		g.log(log.NewRejectedEvent(clientID, fmt.Sprintf("cannot return %s: %v", c.Name, err)))
	}
}

// finish ends the game.
func (g *Game) finish(reason string) {
	if g.phase == PhaseFinished {
		return
	}
	g.setPhase(PhaseFinished)
	g.register = -1
	for _, id := range g.winners {
		g.log(log.NewWinEvent(id, reason))
	}
}

// abort stops the game, handing every register card back to its owner's hand.
func (g *Game) abort(reason string) {
	if g.phase == PhaseFinished {
		return
	}
	for _, p := range g.players {
		for _, c := range p.Register.Drain() {
			p.Cards.AddToHand(c)
		}
	}
	g.log(log.NewAbortEvent(reason))
	g.phase = PhaseFinished
	g.register = -1
}

// --- Helpers ---

// unlocked runs fn with the game lock released.
func (g *Game) unlocked(fn func()) {
	g.mu.Unlock()
	defer g.mu.Lock()
	fn()
}

// log stamps an event with the game clock, records it and notifies every controller.
func (g *Game) log(event log.GameEvent) {
	event.Round = g.round
	event.Register = g.register
	event.Phase = g.phase.String()
	g.Logger.Log(event)
	for _, p := range g.players {
		_ = g.controllers[p.ClientID()].Notify(g.ctx, event)
	}
}

// notify tells one player why an action of theirs was refused.
func (g *Game) notify(p *Player, msg string) {
	event := log.NewRejectedEvent(p.ClientID(), msg)
	event.Round = g.round
	event.Register = g.register
	event.Phase = g.phase.String()
	_ = g.controllers[p.ClientID()].Notify(g.ctx, event)
}

func (g *Game) ask(p *Player, fn func(ctrl PlayerController, state *GameState)) {
	ctrl := g.controllers[p.ClientID()]
	state := g.snapshot()
	g.unlocked(func() { fn(ctrl, state) })
}

func (g *Game) robotAt(v geom.Vector) *Player {
	for _, p := range g.players {
		if pos, ok := p.Robot.Pos(); ok && pos == v {
			return p
		}
	}
	return nil
}

func (g *Game) player(clientID int) (*Player, error) {
	p, ok := g.byID[clientID]
	if !ok {
		return nil, fmt.Errorf("%w: client %d", ErrNotFound, clientID)
	}
	return p, nil
}

// ranked returns the placed players in RankPolicy order.
func (g *Game) ranked() []*Player {
	var placed []*Player
	for _, p := range g.players {
		if p.Robot.Placed() {
			placed = append(placed, p)
		}
	}
	return g.rank(g.Board, placed)
}
