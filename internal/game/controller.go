package game

import (
	"context"

	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// Program is a robot's choice of cards for the five registers. Slots that are
// locked are ignored; nil slots are filled automatically.
type Program [RegisterCount]*Card

// PlayerController is the interface that network, AI (MCP) and bot players implement.
//
// Choose* calls are made without the game lock held. Notify is called while the
// game is locked, so implementations must not call back into the Game from it.
type PlayerController interface {
	// ChooseStartPoint asks the player to claim one of the free start points.
	ChooseStartPoint(ctx context.Context, state *GameState, options []geom.Vector) (geom.Vector, error)

	// ChooseProgram asks the player to fill the registers from their hand.
	// locked holds the cards already forced into registers (nil where free).
	ChooseProgram(ctx context.Context, state *GameState, hand []*Card, locked Program) (Program, error)

	// ChooseOption asks the player to pick one of several named options.
	ChooseOption(ctx context.Context, state *GameState, prompt string, options []string) (int, error)

	// ChooseCards asks the player to select between min and max cards; it returns indices.
	ChooseCards(ctx context.Context, state *GameState, prompt string, candidates []*Card, min, max int) ([]int, error)

	// Notify sends a game event notification (no response needed).
	Notify(ctx context.Context, event log.GameEvent) error
}

// AutoController answers every prompt with a default: the first free start
// point, the first playable cards of the hand and the first option. It drives
// bots and stands in for players that time out.
type AutoController struct{}

func (AutoController) ChooseStartPoint(_ context.Context, _ *GameState, options []geom.Vector) (geom.Vector, error) {
	if len(options) == 0 {
		return geom.Vector{}, ErrNotFound
	}
	return options[0], nil
}

func (AutoController) ChooseProgram(_ context.Context, _ *GameState, hand []*Card, locked Program) (Program, error) {
	return AutoProgram(hand, locked), nil
}

func (AutoController) ChooseOption(_ context.Context, _ *GameState, _ string, options []string) (int, error) {
	return 0, nil
}

func (AutoController) ChooseCards(_ context.Context, _ *GameState, _ string, candidates []*Card, min, _ int) ([]int, error) {
	n := min
	if n > len(candidates) {
		n = len(candidates)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx, nil
}

func (AutoController) Notify(context.Context, log.GameEvent) error { return nil }

// AutoProgram fills the free registers with the first programmable hand cards,
// in hand order. Again is never placed in the first register.
func AutoProgram(hand []*Card, locked Program) Program {
	var prog Program
	used := make([]bool, len(hand))
	for i := 0; i < RegisterCount; i++ {
		if locked[i] != nil {
			continue
		}
		for j, c := range hand {
			if used[j] || !c.Programmable() {
				continue
			}
			if i == 0 && c.RepeatsPrevious() {
				continue
			}
			prog[i] = c
			used[j] = true
			break
		}
	}
	return prog
}
