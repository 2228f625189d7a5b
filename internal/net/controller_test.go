package net

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/command"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

// remote is the client end of a pipe, speaking raw protocol messages.
type remote struct {
	enc *json.Encoder
	dec *json.Decoder
}

func (r *remote) next(t *testing.T) ServerMessage {
	t.Helper()
	var msg ServerMessage
	require.NoError(t, r.dec.Decode(&msg))
	return msg
}

func (r *remote) answer(t *testing.T, msg ClientMessage) {
	t.Helper()
	require.NoError(t, r.enc.Encode(msg))
}

func newPipe(t *testing.T, d *command.Dispatcher) (*NetworkController, *remote) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	nc := NewNetworkController(server, 1)
	go func() { _ = nc.Serve(d) }()
	return nc, &remote{enc: json.NewEncoder(client), dec: json.NewDecoder(client)}
}

func testState() *game.GameState {
	pos := geom.Vector{X: 2, Y: 3}
	return &game.GameState{
		Round:       1,
		Register:    -1,
		Phase:       game.PhaseProgramming,
		Checkpoints: 2,
		Pools:       map[game.Pool]int{game.PoolSpam: 38},
		Players: []game.PlayerState{
			{ClientID: 0, Name: "A", Hand: []*game.Card{game.CardFor(game.CardMoveI)}},
			{ClientID: 1, Name: "B", Position: &pos, Orientation: geom.Left, Hand: []*game.Card{game.CardFor(game.CardUTurn)}},
		},
	}
}

func TestBuildStateViewHidesOtherHands(t *testing.T) {
	sv := BuildStateView(testState(), 1)
	assert.Equal(t, []string{"U-Turn"}, sv.Hand)
	assert.Equal(t, 38, sv.Pools["Spam"])
	require.Len(t, sv.Robots, 2)
	assert.Nil(t, sv.Robots[0].Position)
	assert.Equal(t, &PointView{X: 2, Y: 3}, sv.Robots[1].Position)
	assert.Equal(t, "LEFT", sv.Robots[1].Facing)
}

func TestChooseProgramRoundTrip(t *testing.T) {
	nc, r := newPipe(t, nil)
	hand := []*game.Card{
		game.CardFor(game.CardMoveI),
		game.CardFor(game.CardTurnLeft),
		game.CardFor(game.CardMoveIII),
	}
	var locked game.Program
	locked[4] = game.CardFor(game.CardSpam)

	type result struct {
		prog game.Program
		err  error
	}
	done := make(chan result, 1)
	go func() {
		prog, err := nc.ChooseProgram(context.Background(), testState(), hand, locked)
		done <- result{prog, err}
	}()

	msg := r.next(t)
	require.Equal(t, "choose_program", msg.Type)
	assert.Len(t, msg.Hand, 3)
	assert.Equal(t, "Spam", msg.Locked[4])

	// An answer to an older prompt is ignored.
	r.answer(t, ClientMessage{Type: "program", Seq: msg.Seq - 1, Program: []int{0}})
	r.answer(t, ClientMessage{Type: "program", Seq: msg.Seq, Program: []int{2, -1, 0, 1, 1}})

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, game.CardMoveIII, res.prog[0].Type)
	assert.Nil(t, res.prog[1])
	assert.Equal(t, game.CardMoveI, res.prog[2].Type)
	assert.Equal(t, game.CardTurnLeft, res.prog[3].Type)
	assert.Nil(t, res.prog[4], "locked register is not overwritten")
}

func TestPromptExpires(t *testing.T) {
	nc, r := newPipe(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := nc.ChooseOption(ctx, testState(), "Buy an upgrade", []string{"Pass", "Recharge (0 energy)"})
		errc <- err
	}()

	prompt := r.next(t)
	require.Equal(t, "choose_option", prompt.Type)
	cancelMsg := r.next(t)
	assert.Equal(t, "cancel", cancelMsg.Type)
	assert.Equal(t, prompt.Seq, cancelMsg.Seq)
	assert.ErrorIs(t, <-errc, context.DeadlineExceeded)
}

func TestOutOfRangeAnswersFallBack(t *testing.T) {
	nc, r := newPipe(t, nil)
	options := []geom.Vector{{X: 0, Y: 5}, {X: 1, Y: 5}}

	done := make(chan geom.Vector, 1)
	go func() {
		v, _ := nc.ChooseStartPoint(context.Background(), testState(), options)
		done <- v
	}()
	msg := r.next(t)
	require.Equal(t, "choose_start", msg.Type)
	r.answer(t, ClientMessage{Type: "start", Seq: msg.Seq, Index: 7})
	assert.Equal(t, options[0], <-done)
}

func TestCommandsAreDispatched(t *testing.T) {
	b := board.New("net", 4, 4)
	b.Push(geom.Vector{X: 0, Y: 3}, board.NewStartPoint())
	b.Push(geom.Vector{X: 1, Y: 3}, board.NewStartPoint())
	b.Push(geom.Vector{X: 3, Y: 0}, board.NewCheckpoint(1))
	g, err := game.NewGame(game.GameConfig{
		Board:   b,
		Players: []game.PlayerConfig{{ClientID: 0}, {ClientID: 1}},
	}, nil)
	require.NoError(t, err)

	_, r := newPipe(t, command.New(g))

	r.answer(t, ClientMessage{Type: "command", Line: "status"})
	res := r.next(t)
	require.Equal(t, "command_result", res.Type)
	assert.Contains(t, res.Reply, "Setup")
	assert.Empty(t, res.Error)

	r.answer(t, ClientMessage{Type: "command", Line: "move up"})
	res = r.next(t)
	assert.Contains(t, res.Error, "wrong phase")
}

func TestParseAnswers(t *testing.T) {
	prog, err := parseProgram("3 0 1", 9, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, -1, 0}, prog)

	_, err = parseProgram("1 1", 9, 5)
	assert.Error(t, err, "duplicate card")
	_, err = parseProgram("1 2 3 4 5 6", 9, 5)
	assert.Error(t, err, "too many registers")
	_, err = parseProgram("10", 9, 5)
	assert.Error(t, err)

	idx, err := parseChoice(" 2 ", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	_, err = parseChoice("4", 3)
	assert.Error(t, err)

	cards, err := parseIndices("1 3", 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, cards)

	answer, err := parseAnswer(&ServerMessage{Type: "choose_option", Seq: 4, Options: []string{"a", "b"}}, "2")
	require.NoError(t, err)
	assert.Equal(t, ClientMessage{Type: "option", Seq: 4, Index: 1}, answer)
}
