package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/peterkuimelis/rallyx/internal/command"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// ErrClosed is returned by prompts once the connection has gone away.
var ErrClosed = errors.New("connection closed")

// NetworkController implements game.PlayerController over a TCP connection.
// Serve must run for prompts to receive their answers.
type NetworkController struct {
	conn     net.Conn
	enc      *json.Encoder
	dec      *json.Decoder
	clientID int

	mu      sync.Mutex // guards enc
	askMu   sync.Mutex // one prompt at a time
	seq     int
	answers chan ClientMessage
	closed  chan struct{}
}

// NewNetworkController creates a new controller for the given connection.
func NewNetworkController(conn net.Conn, clientID int) *NetworkController {
	return &NetworkController{
		conn:     conn,
		enc:      json.NewEncoder(conn),
		dec:      json.NewDecoder(conn),
		clientID: clientID,
		answers:  make(chan ClientMessage, 4),
		closed:   make(chan struct{}),
	}
}

// ClientID returns the seat this controller plays.
func (nc *NetworkController) ClientID() int { return nc.clientID }

// Serve reads client messages until the connection fails. Command lines are
// run through d and answered with a command_result; everything else is an
// answer to the current prompt.
func (nc *NetworkController) Serve(d *command.Dispatcher) error {
	defer close(nc.closed)
	for {
		var msg ClientMessage
		if err := nc.dec.Decode(&msg); err != nil {
			return err
		}
		switch msg.Type {
		case "command":
			res := ServerMessage{Type: "command_result"}
			if d == nil {
				res.Error = "commands are not available"
			} else if reply, err := d.Dispatch(nc.clientID, msg.Line); err != nil {
				res.Error = err.Error()
			} else {
				res.Reply = reply
			}
			if err := nc.send(res); err != nil {
				return err
			}
		default:
			select {
			case nc.answers <- msg:
			default:
				// Nobody is waiting; the prompt has expired.
			}
		}
	}
}

// BuildStateView creates a StateView from the perspective of the given client.
// Hands and registers of other players are hidden.
func BuildStateView(state *game.GameState, clientID int) *StateView {
	sv := &StateView{
		Round:       state.Round,
		Register:    state.Register,
		Phase:       state.Phase.String(),
		Checkpoints: state.Checkpoints,
		You:         clientID,
		Pools:       make(map[string]int, len(state.Pools)),
	}
	for pool, n := range state.Pools {
		sv.Pools[pool.String()] = n
	}
	for _, p := range state.Players {
		rv := RobotView{
			ClientID:    p.ClientID,
			Name:        p.Name,
			Facing:      p.Orientation.String(),
			Checkpoints: p.Checkpoints,
			Energy:      p.Energy,
			Rebooting:   p.Rebooting,
		}
		if p.Position != nil {
			rv.Position = pointView(*p.Position)
		}
		for _, c := range p.Upgrades {
			rv.Upgrades = append(rv.Upgrades, c.Name)
		}
		sv.Robots = append(sv.Robots, rv)

		if p.ClientID == clientID {
			for _, c := range p.Hand {
				sv.Hand = append(sv.Hand, c.Name)
			}
			for _, c := range p.Registers {
				name := ""
				if c != nil {
					name = c.Name
				}
				sv.Registers = append(sv.Registers, name)
			}
		}
	}
	return sv
}

func pointView(v geom.Vector) *PointView {
	return &PointView{X: v.X, Y: v.Y}
}

func cardViews(cards []*game.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{Index: i, Name: c.Name, Priority: c.Priority, Text: c.Description}
	}
	return views
}

// send writes a server message to the client.
func (nc *NetworkController) send(msg ServerMessage) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.enc.Encode(msg)
}

// ask sends a prompt and waits for the answer carrying its sequence number.
func (nc *NetworkController) ask(ctx context.Context, msg ServerMessage) (ClientMessage, error) {
	nc.askMu.Lock()
	defer nc.askMu.Unlock()

	// Drop answers to earlier prompts.
	for len(nc.answers) > 0 {
		<-nc.answers
	}
	nc.seq++
	msg.Seq = nc.seq
	if err := nc.send(msg); err != nil {
		return ClientMessage{}, fmt.Errorf("send %s: %w", msg.Type, err)
	}
	for {
		select {
		case resp := <-nc.answers:
			if resp.Seq == msg.Seq {
				return resp, nil
			}
		case <-nc.closed:
			return ClientMessage{}, fmt.Errorf("recv %s: %w", msg.Type, ErrClosed)
		case <-ctx.Done():
			_ = nc.send(ServerMessage{Type: "cancel", Seq: msg.Seq})
			return ClientMessage{}, ctx.Err()
		}
	}
}

// ChooseStartPoint implements game.PlayerController.
func (nc *NetworkController) ChooseStartPoint(ctx context.Context, state *game.GameState, options []geom.Vector) (geom.Vector, error) {
	views := make([]PointView, len(options))
	for i, v := range options {
		views[i] = *pointView(v)
	}
	resp, err := nc.ask(ctx, ServerMessage{
		Type:        "choose_start",
		StartPoints: views,
		State:       BuildStateView(state, nc.clientID),
	})
	if err != nil {
		return geom.Vector{}, err
	}
	if resp.Index < 0 || resp.Index >= len(options) {
		return options[0], nil // fallback to the first free point
	}
	return options[resp.Index], nil
}

// ChooseProgram implements game.PlayerController.
func (nc *NetworkController) ChooseProgram(ctx context.Context, state *game.GameState, hand []*game.Card, locked game.Program) (game.Program, error) {
	lockedNames := make([]string, game.RegisterCount)
	for i, c := range locked {
		if c != nil {
			lockedNames[i] = c.Name
		}
	}
	resp, err := nc.ask(ctx, ServerMessage{
		Type:   "choose_program",
		Hand:   cardViews(hand),
		Locked: lockedNames,
		State:  BuildStateView(state, nc.clientID),
	})
	if err != nil {
		return game.Program{}, err
	}

	var prog game.Program
	for i, idx := range resp.Program {
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
func (nc *NetworkController) ChooseOption(ctx context.Context, state *game.GameState, prompt string, options []string) (int, error) {
	resp, err := nc.ask(ctx, ServerMessage{
		Type:    "choose_option",
		Prompt:  prompt,
		Options: options,
		State:   BuildStateView(state, nc.clientID),
	})
	if err != nil {
		return 0, err
	}
	if resp.Index < 0 || resp.Index >= len(options) {
		return 0, nil
	}
	return resp.Index, nil
}

// ChooseCards implements game.PlayerController.
func (nc *NetworkController) ChooseCards(ctx context.Context, state *game.GameState, prompt string, candidates []*game.Card, min, max int) ([]int, error) {
	resp, err := nc.ask(ctx, ServerMessage{
		Type:       "choose_cards",
		Prompt:     prompt,
		Candidates: cardViews(candidates),
		Min:        min,
		Max:        max,
		State:      BuildStateView(state, nc.clientID),
	})
	if err != nil {
		return nil, err
	}
	var result []int
	for _, idx := range resp.Indices {
		if idx >= 0 && idx < len(candidates) {
			result = append(result, idx)
		}
	}
	return result, nil
}

// Notify implements game.PlayerController.
func (nc *NetworkController) Notify(ctx context.Context, event log.GameEvent) error {
	return nc.send(ServerMessage{
		Type: "notify",
		Event: &EventView{
			Round:    event.Round,
			Register: event.Register,
			Phase:    event.Phase,
			Player:   event.Player,
			Type:     event.Type.String(),
			Card:     event.Card,
			Details:  event.Details,
		},
	})
}

// SendWelcome tells the client its seat and the game id.
func (nc *NetworkController) SendWelcome(gameID string) error {
	return nc.send(ServerMessage{Type: "welcome", ClientID: nc.clientID, GameID: gameID})
}

// SendGameOver sends a game_over message to the client.
func (nc *NetworkController) SendGameOver(winners []int, result string) error {
	return nc.send(ServerMessage{Type: "game_over", Winners: winners, Result: result})
}
