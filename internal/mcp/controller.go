package mcp

import (
	"context"

	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
	"github.com/peterkuimelis/rallyx/internal/net"
)

// MCPController implements game.PlayerController by sending decisions
// to the MCP session's pending channel and blocking on the decision's
// response channel.
type MCPController struct {
	player  int
	session *GameSession
}

// NewMCPController creates a controller for the given player.
func NewMCPController(player int, session *GameSession) *MCPController {
	return &MCPController{player: player, session: session}
}

// ask publishes d and waits for the agent's answer. When ctx ends first the
// decision is marked expired so a late answer is refused.
func (c *MCPController) ask(ctx context.Context, state *game.GameState, d *PendingDecision) (any, error) {
	d.State = net.BuildStateView(state, c.player)
	d.response = make(chan any, 1)
	d.expired = make(chan struct{})

	select {
	case c.session.pendingCh <- d:
	case <-ctx.Done():
		close(d.expired)
		return nil, ctx.Err()
	}
	select {
	case resp := <-d.response:
		return resp, nil
	case <-ctx.Done():
		close(d.expired)
		return nil, ctx.Err()
	}
}

// ChooseStartPoint implements game.PlayerController.
func (c *MCPController) ChooseStartPoint(ctx context.Context, state *game.GameState, options []geom.Vector) (geom.Vector, error) {
	views := make([]net.PointView, len(options))
	for i, v := range options {
		views[i] = net.PointView{X: v.X, Y: v.Y}
	}
	resp, err := c.ask(ctx, state, &PendingDecision{Type: DecisionChooseStart, StartPoints: views})
	if err != nil {
		return geom.Vector{}, err
	}
	idx := resp.(StartResponse).Index
	if idx < 0 || idx >= len(options) {
		return options[0], nil
	}
	return options[idx], nil
}

// ChooseProgram implements game.PlayerController.
func (c *MCPController) ChooseProgram(ctx context.Context, state *game.GameState, hand []*game.Card, locked game.Program) (game.Program, error) {
	lockedNames := make([]string, game.RegisterCount)
	for i, card := range locked {
		if card != nil {
			lockedNames[i] = card.Name
		}
	}
	hv := make([]net.CardView, len(hand))
	for i, card := range hand {
		hv[i] = net.CardView{Index: i, Name: card.Name, Priority: card.Priority, Text: card.Description}
	}

	resp, err := c.ask(ctx, state, &PendingDecision{Type: DecisionChooseProgram, Hand: hv, Locked: lockedNames})
	if err != nil {
		return game.Program{}, err
	}

	var prog game.Program
	for i, idx := range resp.(ProgramResponse).Indices {
		if i >= game.RegisterCount {
			break
		}
		if idx >= 0 && idx < len(hand) && locked[i] == nil {
			prog[i] = hand[idx]
		}
	}
	return prog, nil
}

// ChooseOption implements game.PlayerController.
func (c *MCPController) ChooseOption(ctx context.Context, state *game.GameState, prompt string, options []string) (int, error) {
	resp, err := c.ask(ctx, state, &PendingDecision{Type: DecisionChooseOption, Prompt: prompt, Options: options})
	if err != nil {
		return 0, err
	}
	idx := resp.(OptionResponse).Index
	if idx < 0 || idx >= len(options) {
		return 0, nil
	}
	return idx, nil
}

// ChooseCards implements game.PlayerController.
func (c *MCPController) ChooseCards(ctx context.Context, state *game.GameState, prompt string, candidates []*game.Card, min, max int) ([]int, error) {
	views := make([]net.CardView, len(candidates))
	for i, card := range candidates {
		views[i] = net.CardView{Index: i, Name: card.Name, Priority: card.Priority, Text: card.Description}
	}

	resp, err := c.ask(ctx, state, &PendingDecision{
		Type:       DecisionChooseCards,
		Prompt:     prompt,
		Candidates: views,
		Min:        min,
		Max:        max,
	})
	if err != nil {
		return nil, err
	}

	var result []int
	for _, idx := range resp.(CardsResponse).Indices {
		if idx >= 0 && idx < len(candidates) {
			result = append(result, idx)
		}
	}
	return result, nil
}

// Notify implements game.PlayerController.
func (c *MCPController) Notify(ctx context.Context, event log.GameEvent) error {
	c.session.appendEvent(net.EventView{
		Round:    event.Round,
		Register: event.Register,
		Phase:    event.Phase,
		Player:   event.Player,
		Type:     event.Type.String(),
		Card:     event.Card,
		Details:  event.Details,
	})
	return nil
}
