package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/geom"
	rlog "github.com/peterkuimelis/rallyx/internal/log"
)

func testCourse() *board.Board {
	b := board.New("sprint", 6, 6)
	for x := 0; x < 6; x++ {
		b.MarkStarting(geom.Vector{X: x, Y: 5}, true)
	}
	b.Push(geom.Vector{X: 0, Y: 5}, board.NewStartPoint())
	b.Push(geom.Vector{X: 2, Y: 5}, board.NewStartPoint())
	b.Push(geom.Vector{X: 4, Y: 5}, board.NewStartPoint())
	b.Push(geom.Vector{X: 5, Y: 5}, board.NewAntenna(geom.Top))
	b.Push(geom.Vector{X: 2, Y: 2}, board.NewConveyor(board.SpeedDouble, geom.Right, geom.Left))
	b.Push(geom.Vector{X: 3, Y: 0}, board.NewCheckpoint(1))
	return b
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	rules := game.DefaultRules()
	rules.MaxRounds = 3
	s := newServer(testCourse(), rules)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp404, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp404.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp404.StatusCode)
}

func TestCardsCatalog(t *testing.T) {
	_, ts := newTestServer(t)
	var cards []CardInfo
	getJSON(t, ts.URL+"/api/cards", &cards)
	require.Len(t, cards, len(game.AllCards()))

	byName := make(map[string]CardInfo)
	for _, c := range cards {
		byName[c.Name] = c
	}
	assert.Equal(t, "Programming", byName["Move I"].Family)
	assert.Zero(t, byName["Move I"].Cost)
	assert.Positive(t, byName["Admin Privilege"].Cost)
	assert.Equal(t, "Damage", byName["Spam"].Family)
}

func TestCourseView(t *testing.T) {
	_, ts := newTestServer(t)
	var cv CourseView
	getJSON(t, ts.URL+"/api/course", &cv)
	assert.Equal(t, "sprint", cv.Name)
	assert.Equal(t, 6, cv.Width)
	assert.Equal(t, 1, cv.Checkpoints)

	var belt *CellView
	for i := range cv.Cells {
		if cv.Cells[i].X == 2 && cv.Cells[i].Y == 2 {
			belt = &cv.Cells[i]
		}
	}
	require.NotNil(t, belt)
	require.Len(t, belt.Stack, 1)
	assert.Equal(t, TileView{Kind: "ConveyorBelt", Orientations: []string{"RIGHT", "LEFT"}, Speed: 2}, belt.Stack[0])
	assert.False(t, belt.Starting)
}

func TestStartGameValidation(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/games?robots=zero", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/games/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSpectateGame(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/games?robots=8&seed=7", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info GameInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, 3, info.Robots, "capped by the start points")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?game=" + info.ID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var events []rlog.GameEvent
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var probe struct {
			Type string   `json:"type"`
			Game GameInfo `json:"game"`
		}
		require.NoError(t, json.Unmarshal(data, &probe))
		if probe.Type == "game_over" {
			assert.True(t, probe.Game.Finished)
			break
		}
		var ev rlog.GameEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		events = append(events, ev)
	}

	sg, ok := s.lookupGame(info.ID)
	require.True(t, ok)
	assert.Equal(t, sg.logger.Events(), events, "every event is streamed once, in order")
	assert.Equal(t, rlog.EventPhaseChange, events[0].Type)

	var final GameInfo
	getJSON(t, ts.URL+"/api/games/"+info.ID, &final)
	assert.True(t, final.Finished)
	assert.LessOrEqual(t, final.Round, 3)
}
