package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/command"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/log"
	rallynet "github.com/peterkuimelis/rallyx/internal/net"
)

// DecisionType identifies what kind of decision the game engine is waiting for.
type DecisionType string

const (
	DecisionChooseStart   DecisionType = "choose_start"
	DecisionChooseProgram DecisionType = "choose_program"
	DecisionChooseOption  DecisionType = "choose_option"
	DecisionChooseCards   DecisionType = "choose_cards"
)

// ErrNoDecision is returned when an answer arrives while nothing is pending.
var ErrNoDecision = errors.New("no pending decision")

// PendingDecision represents a decision the game engine is waiting for.
type PendingDecision struct {
	Type        DecisionType         `json:"type"`
	StartPoints []rallynet.PointView `json:"start_points,omitempty"`
	Hand        []rallynet.CardView  `json:"hand,omitempty"`
	Locked      []string             `json:"locked,omitempty"`
	Prompt      string               `json:"prompt,omitempty"`
	Options     []string             `json:"options,omitempty"`
	Candidates  []rallynet.CardView  `json:"candidates,omitempty"`
	Min         int                  `json:"min,omitempty"`
	Max         int                  `json:"max,omitempty"`
	State       *rallynet.StateView  `json:"-"`

	response chan any
	expired  chan struct{} // closed once the engine stopped waiting
}

func (d *PendingDecision) isExpired() bool {
	select {
	case <-d.expired:
		return true
	default:
		return false
	}
}

// Response types sent back from MCP tools to controllers.

type StartResponse struct {
	Index int
}

type ProgramResponse struct {
	Indices []int // hand index per register, -1 for automatic
}

type OptionResponse struct {
	Index int
}

type CardsResponse struct {
	Indices []int
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	GameID   string               `json:"game_id"`
	Events   []rallynet.EventView `json:"events"`
	State    *rallynet.StateView  `json:"state,omitempty"`
	Pending  *PendingDecision     `json:"pending,omitempty"`
	Reply    string               `json:"reply,omitempty"`
	GameOver bool                 `json:"game_over"`
	Winners  []int                `json:"winners,omitempty"`
	Result   string               `json:"result,omitempty"`
}

// SessionConfig describes the race an agent plays.
type SessionConfig struct {
	Course *board.Board
	Rules  game.Rules
	Name   string
	Bots   int
	Seed   int64
}

// GameSession holds the state of a single MCP game session. The agent plays
// client 0 against bot robots.
type GameSession struct {
	ID         uuid.UUID
	game       *game.Game
	ctrl       *MCPController
	dispatcher *command.Dispatcher
	cancel     context.CancelFunc

	pendingCh chan *PendingDecision
	finished  chan struct{}

	mu       sync.Mutex
	current  *PendingDecision
	events   []rallynet.EventView
	gameOver bool
	winners  []int
	result   string
}

const agentID = 0

// NewGameSession creates the game and starts running it.
func NewGameSession(cfg SessionConfig) (*GameSession, error) {
	if cfg.Bots < 0 {
		return nil, fmt.Errorf("bots must not be negative")
	}
	name := cfg.Name
	if name == "" {
		name = "Agent"
	}
	players := []game.PlayerConfig{{ClientID: agentID, Name: name}}
	for i := 1; i <= cfg.Bots; i++ {
		players = append(players, game.PlayerConfig{ClientID: i, Name: fmt.Sprintf("Bot%d", i), AI: true})
	}

	sess := &GameSession{
		pendingCh: make(chan *PendingDecision, 1),
		finished:  make(chan struct{}),
	}
	sess.ctrl = NewMCPController(agentID, sess)

	rules := cfg.Rules
	g, err := game.NewGame(game.GameConfig{
		Board:   cfg.Course,
		Rules:   &rules,
		Players: players,
		Logger:  log.NewMemoryLogger(),
		Seed:    cfg.Seed,
	}, map[int]game.PlayerController{agentID: sess.ctrl})
	if err != nil {
		return nil, err
	}
	sess.ID = g.ID
	sess.game = g
	sess.dispatcher = command.New(g)

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	go func() {
		winners, err := g.Run(ctx)
		result := describeResult(players, winners, err)

		sess.mu.Lock()
		sess.gameOver = true
		sess.winners = winners
		sess.result = result
		sess.mu.Unlock()
		close(sess.finished)
	}()

	return sess, nil
}

func describeResult(players []game.PlayerConfig, winners []int, err error) string {
	if err != nil {
		return fmt.Sprintf("Game aborted: %v", err)
	}
	if len(winners) == 0 {
		return "No robot reached the final checkpoint."
	}
	return fmt.Sprintf("%s wins the race.", players[winners[0]].Name)
}

// Close aborts the game if it is still running.
func (s *GameSession) Close() {
	s.cancel()
	<-s.finished
}

// appendEvent adds an event to the session's event log. Thread-safe.
func (s *GameSession) appendEvent(ev rallynet.EventView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// drainEvents returns all accumulated events and clears the buffer.
func (s *GameSession) drainEvents() []rallynet.EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	if events == nil {
		events = []rallynet.EventView{}
	}
	return events
}

// Pending returns the decision the agent has to make, or nil.
func (s *GameSession) Pending() *PendingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && (s.gameOver || s.current.isExpired()) {
		s.current = nil
	}
	return s.current
}

// answer hands resp to the pending decision of type t.
func (s *GameSession) answer(t DecisionType, resp any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.current
	if d == nil || s.gameOver || d.isExpired() {
		s.current = nil
		return ErrNoDecision
	}
	if d.Type != t {
		return fmt.Errorf("pending decision is %q, not %q", d.Type, t)
	}
	d.response <- resp
	s.current = nil
	return nil
}

// waitForPending blocks until the next decision arrives from the game engine
// or the game ends, then builds a ToolResponse with the accumulated events.
func (s *GameSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	for {
		select {
		case d := <-s.pendingCh:
			if d.isExpired() {
				continue
			}
			s.mu.Lock()
			s.current = d
			s.mu.Unlock()
			return s.snapshot(), nil
		case <-s.finished:
			return s.snapshot(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// snapshot builds a ToolResponse from the current session state.
func (s *GameSession) snapshot() *ToolResponse {
	resp := &ToolResponse{
		GameID: s.ID.String(),
		Events: s.drainEvents(),
	}
	if d := s.Pending(); d != nil {
		resp.Pending = d
		resp.State = d.State
	} else {
		resp.State = rallynet.BuildStateView(s.game.State(), agentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	resp.GameOver = s.gameOver
	resp.Winners = s.winners
	resp.Result = s.result
	return resp
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
