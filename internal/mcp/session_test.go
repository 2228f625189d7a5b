package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

func testConfig() SessionConfig {
	b := board.New("mcp", 6, 6)
	for x := 0; x < 6; x++ {
		b.MarkStarting(geom.Vector{X: x, Y: 5}, true)
	}
	b.Push(geom.Vector{X: 0, Y: 5}, board.NewStartPoint())
	b.Push(geom.Vector{X: 2, Y: 5}, board.NewStartPoint())
	b.Push(geom.Vector{X: 5, Y: 5}, board.NewAntenna(geom.Top))
	b.Push(geom.Vector{X: 3, Y: 0}, board.NewCheckpoint(1))

	rules := game.DefaultRules()
	rules.MaxRounds = 1
	rules.ProgrammingTimeout = 0
	return SessionConfig{Course: b, Rules: rules}
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func decode(t *testing.T) func(res *mcp.CallToolResult, err error) *ToolResponse {
	return func(res *mcp.CallToolResult, err error) *ToolResponse {
		t.Helper()
		require.NoError(t, err)
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		require.False(t, res.IsError, text.Text)
		var resp ToolResponse
		require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
		return &resp
	}
}

func toolError(t *testing.T) func(res *mcp.CallToolResult, err error) string {
	return func(res *mcp.CallToolResult, err error) string {
		t.Helper()
		require.NoError(t, err)
		require.True(t, res.IsError)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		return text.Text
	}
}

func TestPlayRaceThroughTools(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t.Cleanup(func() {
		if sess := currentSession(); sess != nil {
			sess.Close()
			clearSession(sess)
		}
	})

	resp := decode(t)(startSession(ctx, testConfig(), call(map[string]any{"bots": 1, "name": "Twonky"})))
	require.NotNil(t, resp.Pending)
	assert.Equal(t, DecisionChooseStart, resp.Pending.Type)
	assert.Len(t, resp.Pending.StartPoints, 2)
	require.NotNil(t, resp.State)
	assert.Equal(t, "Twonky", resp.State.Robots[0].Name)

	msg := toolError(t)(startSession(ctx, testConfig(), call(nil)))
	assert.Contains(t, msg, "already running")
	msg = toolError(t)(handleChooseOption(ctx, call(map[string]any{"index": 0})))
	assert.Contains(t, msg, "Wrong tool")
	msg = toolError(t)(handleChooseStartPoint(ctx, call(map[string]any{"index": 5})))
	assert.Contains(t, msg, "Invalid index")

	resp = decode(t)(handleChooseStartPoint(ctx, call(map[string]any{"index": 1})))
	require.NotNil(t, resp.Pending)
	require.Equal(t, DecisionChooseOption, resp.Pending.Type, "upgrade shop")
	assert.Equal(t, "Pass", resp.Pending.Options[0])
	require.NotNil(t, resp.State.Robots[0].Position)
	assert.Equal(t, 2, resp.State.Robots[0].Position.X)

	resp = decode(t)(handleChooseOption(ctx, call(map[string]any{"index": 0})))
	require.NotNil(t, resp.Pending)
	require.Equal(t, DecisionChooseProgram, resp.Pending.Type)
	assert.Len(t, resp.Pending.Hand, 9)

	status := decode(t)(handleRunCommand(ctx, call(map[string]any{"line": "status"})))
	assert.Contains(t, status.Reply, "Programming")
	require.NotNil(t, status.Pending, "commands leave the decision pending")

	msg = toolError(t)(handleProgramRegisters(ctx, call(map[string]any{"cards": "0 0"})))
	assert.Contains(t, msg, "used twice")
	msg = toolError(t)(handleProgramRegisters(ctx, call(map[string]any{"cards": "0 1 2 3 4 5"})))
	assert.Contains(t, msg, "At most")

	resp = decode(t)(handleProgramRegisters(ctx, call(map[string]any{"cards": "0 1 -1 3"})))
	for !resp.GameOver {
		// Card effects may still ask for a choice.
		require.NotNil(t, resp.Pending)
		require.Equal(t, DecisionChooseOption, resp.Pending.Type)
		resp = decode(t)(handleChooseOption(ctx, call(map[string]any{"index": 0})))
	}
	assert.NotEmpty(t, resp.Events)
	assert.Nil(t, resp.Pending)
	assert.Nil(t, currentSession(), "finished session is released")
}

func TestEndGame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	decode(t)(startSession(ctx, testConfig(), call(map[string]any{"bots": 1})))
	resp := decode(t)(handleEndGame(ctx, call(nil)))
	assert.True(t, resp.GameOver)
	assert.Contains(t, resp.Result, "aborted")
	assert.Nil(t, currentSession())

	msg := toolError(t)(handleGetGameState(ctx, call(nil)))
	assert.Contains(t, msg, "No game is running")
}

func TestTooManyBots(t *testing.T) {
	msg := toolError(t)(startSession(context.Background(), testConfig(), call(map[string]any{"bots": 4})))
	assert.Contains(t, msg, "2 start points")
}

func TestExpiredDecisionIsRefused(t *testing.T) {
	sess := &GameSession{
		pendingCh: make(chan *PendingDecision, 1),
		finished:  make(chan struct{}),
	}
	ctrl := NewMCPController(agentID, sess)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := ctrl.ChooseOption(ctx, &game.GameState{}, "Buy an upgrade", []string{"Pass", "Recharge (0 energy)"})
		errc <- err
	}()

	d := <-sess.pendingCh
	sess.current = d
	assert.Same(t, d, sess.Pending())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.ErrorIs(t, sess.answer(DecisionChooseOption, OptionResponse{Index: 1}), ErrNoDecision)
	assert.Nil(t, sess.Pending())
}

func TestWrongDecisionType(t *testing.T) {
	sess := &GameSession{pendingCh: make(chan *PendingDecision, 1)}
	d := &PendingDecision{Type: DecisionChooseProgram, response: make(chan any, 1), expired: make(chan struct{})}
	sess.current = d
	err := sess.answer(DecisionChooseCards, CardsResponse{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "choose_program")

	require.NoError(t, sess.answer(DecisionChooseProgram, ProgramResponse{Indices: []int{2}}))
	assert.Equal(t, ProgramResponse{Indices: []int{2}}, <-d.response)
	assert.ErrorIs(t, sess.answer(DecisionChooseProgram, ProgramResponse{}), ErrNoDecision)
}
