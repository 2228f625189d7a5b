package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/game"
)

var (
	sessionMu sync.Mutex
	// activeSession is the singleton game session (one per stdio process).
	activeSession *GameSession
)

// courseFile and rulesFile are set by main.
var (
	courseFile string
	rulesFile  string
)

// SetCourseFile sets the path to the course YAML file.
func SetCourseFile(path string) {
	courseFile = path
}

// SetRulesFile sets the path to the rules YAML file. Empty means default rules.
func SetRulesFile(path string) {
	rulesFile = path
}

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(startGameTool(), handleStartGame)
	s.AddTool(chooseStartPointTool(), handleChooseStartPoint)
	s.AddTool(programRegistersTool(), handleProgramRegisters)
	s.AddTool(chooseOptionTool(), handleChooseOption)
	s.AddTool(selectCardsTool(), handleSelectCards)
	s.AddTool(runCommandTool(), handleRunCommand)
	s.AddTool(getGameStateTool(), handleGetGameState)
	s.AddTool(endGameTool(), handleEndGame)
}

// --- Tool definitions ---

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start a new robot race. You play client 0 against bot robots. "+
			"Returns the initial game state and first pending decision."),
		mcp.WithNumber("bots", mcp.Description("Number of bot robots (default 3)")),
		mcp.WithNumber("seed", mcp.Description("Shuffle seed, 0 for random")),
		mcp.WithString("name", mcp.Description("Name of your robot")),
	)
}

func chooseStartPointTool() mcp.Tool {
	return mcp.NewTool("choose_start_point",
		mcp.WithDescription("Claim a start point. Use this when the pending decision type is 'choose_start'."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into start_points")),
	)
}

func programRegistersTool() mcp.Tool {
	return mcp.NewTool("program_registers",
		mcp.WithDescription("Program your five registers. Use this when the pending decision type is 'choose_program'. "+
			"Registers left out or given -1 are filled automatically; locked registers keep their card."),
		mcp.WithString("cards", mcp.Required(), mcp.Description("Space-separated 0-based hand indices in register order (e.g. '3 0 -1 5 2')")),
	)
}

func chooseOptionTool() mcp.Tool {
	return mcp.NewTool("choose_option",
		mcp.WithDescription("Pick one of the offered options. Use this when the pending decision type is 'choose_option'."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into options")),
	)
}

func selectCardsTool() mcp.Tool {
	return mcp.NewTool("select_cards",
		mcp.WithDescription("Select cards from the pending candidates list. Use this when the pending decision type is 'choose_cards'."),
		mcp.WithString("indices", mcp.Required(), mcp.Description("Space-separated 0-based indices of cards to select (e.g. '0 2 3'), or empty string for no selection")),
	)
}

func runCommandTool() mcp.Tool {
	return mcp.NewTool("run_command",
		mcp.WithDescription("Run a game command for your robot, e.g. 'status', 'use-upgrade Recharge' or 'help'. "+
			"Does not answer the pending decision."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Command line")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the current game state, accumulated events, and pending decision without submitting a response. Read-only."),
	)
}

func endGameTool() mcp.Tool {
	return mcp.NewTool("end_game",
		mcp.WithDescription("Abort the running game so a new one can be started."),
	)
}

// --- Tool handlers ---

func currentSession() *GameSession {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return activeSession
}

func clearSession(sess *GameSession) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if activeSession == sess {
		activeSession = nil
	}
}

func loadConfig() (SessionConfig, error) {
	course, err := board.LoadCourse(courseFile)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("load course: %w", err)
	}
	rules := game.DefaultRules()
	if rulesFile != "" {
		if rules, err = game.LoadRules(rulesFile); err != nil {
			return SessionConfig{}, fmt.Errorf("load rules: %w", err)
		}
	}
	// The agent takes as long as it needs.
	rules.ProgrammingTimeout = 0
	return SessionConfig{Course: course, Rules: rules}, nil
}

func handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	return startSession(ctx, cfg, request)
}

func startSession(ctx context.Context, cfg SessionConfig, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg.Bots = request.GetInt("bots", 3)
	cfg.Seed = int64(request.GetInt("seed", 0))
	cfg.Name = request.GetString("name", "")
	if seats := cfg.Bots + 1; seats > len(cfg.Course.StartPoints()) {
		return mcp.NewToolResultErrorf("The course has %d start points, %d robots requested.", len(cfg.Course.StartPoints()), seats), nil
	}

	sessionMu.Lock()
	if activeSession != nil {
		sessionMu.Unlock()
		return mcp.NewToolResultError("A game is already running. Use end_game first."), nil
	}
	sess, err := NewGameSession(cfg)
	if err != nil {
		sessionMu.Unlock()
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	activeSession = sess
	sessionMu.Unlock()

	return waitAndRespond(ctx, sess)
}

// waitAndRespond returns the next decision, releasing the session once the game is over.
func waitAndRespond(ctx context.Context, sess *GameSession) (*mcp.CallToolResult, error) {
	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for next decision: %v", err), nil
	}
	if resp.GameOver {
		clearSession(sess)
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

// answerAndWait hands an answer to the pending decision and waits for the next one.
func answerAndWait(ctx context.Context, t DecisionType, answer any) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	if err := sess.answer(t, answer); err != nil {
		return mcp.NewToolResultErrorf("Cannot answer: %v. Use get_game_state to see what is pending.", err), nil
	}
	return waitAndRespond(ctx, sess)
}

func pendingOf(t DecisionType) (*PendingDecision, *mcp.CallToolResult) {
	sess := currentSession()
	if sess == nil {
		return nil, mcp.NewToolResultError("No game is running. Use start_game first.")
	}
	d := sess.Pending()
	if d == nil {
		return nil, mcp.NewToolResultError("No pending decision.")
	}
	if d.Type != t {
		return nil, mcp.NewToolResultErrorf("Wrong tool: pending decision is '%s', not '%s'. Use the correct tool.", d.Type, t)
	}
	return d, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Fields(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid index '%s': must be an integer", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func handleChooseStartPoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := pendingOf(DecisionChooseStart)
	if errResult != nil {
		return errResult, nil
	}
	index := request.GetInt("index", -1)
	if index < 0 || index >= len(d.StartPoints) {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, len(d.StartPoints)-1), nil
	}
	return answerAndWait(ctx, DecisionChooseStart, StartResponse{Index: index})
}

func handleProgramRegisters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := pendingOf(DecisionChooseProgram)
	if errResult != nil {
		return errResult, nil
	}
	indices, err := parseInts(request.GetString("cards", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("%v.", err), nil
	}
	if len(indices) > game.RegisterCount {
		return mcp.NewToolResultErrorf("At most %d registers, got %d cards.", game.RegisterCount, len(indices)), nil
	}
	used := make(map[int]bool)
	for i, idx := range indices {
		if idx == -1 {
			continue
		}
		if idx < 0 || idx >= len(d.Hand) {
			return mcp.NewToolResultErrorf("Index %d out of range. Must be 0-%d or -1.", idx, len(d.Hand)-1), nil
		}
		if used[idx] {
			return mcp.NewToolResultErrorf("Card %d is used twice.", idx), nil
		}
		if d.Locked[i] != "" {
			return mcp.NewToolResultErrorf("Register %d is locked with %s; pass -1 for it.", i, d.Locked[i]), nil
		}
		used[idx] = true
	}
	return answerAndWait(ctx, DecisionChooseProgram, ProgramResponse{Indices: indices})
}

func handleChooseOption(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := pendingOf(DecisionChooseOption)
	if errResult != nil {
		return errResult, nil
	}
	index := request.GetInt("index", -1)
	if index < 0 || index >= len(d.Options) {
		return mcp.NewToolResultErrorf("Invalid index %d. Must be 0-%d.", index, len(d.Options)-1), nil
	}
	return answerAndWait(ctx, DecisionChooseOption, OptionResponse{Index: index})
}

func handleSelectCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, errResult := pendingOf(DecisionChooseCards)
	if errResult != nil {
		return errResult, nil
	}
	indices, err := parseInts(request.GetString("indices", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("%v.", err), nil
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(d.Candidates) {
			return mcp.NewToolResultErrorf("Index %d out of range. Must be 0-%d.", idx, len(d.Candidates)-1), nil
		}
	}
	if len(indices) < d.Min {
		return mcp.NewToolResultErrorf("Must select at least %d card(s), got %d.", d.Min, len(indices)), nil
	}
	if len(indices) > d.Max {
		return mcp.NewToolResultErrorf("Must select at most %d card(s), got %d.", d.Max, len(indices)), nil
	}
	return answerAndWait(ctx, DecisionChooseCards, CardsResponse{Indices: indices})
}

func handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	reply, err := sess.dispatcher.Dispatch(agentID, request.GetString("line", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("%v", err), nil
	}
	resp := sess.snapshot()
	resp.Reply = reply
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}
	resp := sess.snapshot()
	if resp.GameOver {
		clearSession(sess)
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func handleEndGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := currentSession()
	if sess == nil {
		return mcp.NewToolResultError("No game is running."), nil
	}
	sess.Close()
	clearSession(sess)
	resp := sess.snapshot()
	return mcp.NewToolResultText(respondJSON(resp)), nil
}
