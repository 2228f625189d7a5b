package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/game"
	rlog "github.com/peterkuimelis/rallyx/internal/log"
)

//go:embed static
var staticFiles embed.FS

// pollInterval is how often the event stream checks for new events.
const pollInterval = 100 * time.Millisecond

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Family      string `json:"family"`
	Priority    int    `json:"priority,omitempty"`
	Cost        int    `json:"cost,omitempty"`
	Permanent   bool   `json:"permanent,omitempty"`
}

// GameInfo describes a spectator game.
type GameInfo struct {
	ID       string `json:"id"`
	Robots   int    `json:"robots"`
	Phase    string `json:"phase"`
	Round    int    `json:"round"`
	Winners  []int  `json:"winners"`
	Finished bool   `json:"finished"`
}

// spectatorGame is a bot-only game whose events are streamed to browsers.
type spectatorGame struct {
	game   *game.Game
	logger *rlog.MemoryLogger
	done   chan struct{}
}

// Server is the rallyx web UI server.
type Server struct {
	course *board.Board
	rules  game.Rules
	mux    *http.ServeMux

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	games map[uuid.UUID]*spectatorGame
}

// NewServer creates a new web server for one course. An empty rulesFile uses
// the default rules.
func NewServer(courseFile, rulesFile string) (*Server, error) {
	course, err := board.LoadCourse(courseFile)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	rules := game.DefaultRules()
	if rulesFile != "" {
		if rules, err = game.LoadRules(rulesFile); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}
	return newServer(course, rules), nil
}

func newServer(course *board.Board, rules game.Rules) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		course: course,
		rules:  rules,
		mux:    http.NewServeMux(),
		ctx:    ctx,
		cancel: cancel,
		games:  make(map[uuid.UUID]*spectatorGame),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Embedded static files
	staticFS, _ := fs.Sub(staticFiles, "static")

	// Serve index.html at root
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f.(io.Reader))
	})

	// Static CSS/JS
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// API endpoints
	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/course", s.handleCourse)
	s.mux.HandleFunc("GET /api/rules", s.handleRules)
	s.mux.HandleFunc("POST /api/games", s.handleStartGame)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGame)

	// Event stream of a spectator game
	s.mux.HandleFunc("GET /ws", s.handleEvents)

	// WebSocket proxy to a TCP game server
	s.mux.HandleFunc("GET /play", s.handlePlay)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	var cards []CardInfo
	for _, c := range game.AllCards() {
		ci := CardInfo{
			Name:        c.Name,
			Description: c.Description,
			Family:      c.Family.String(),
			Priority:    c.Priority,
			Permanent:   c.Permanent,
		}
		if c.IsUpgrade() {
			ci.Cost = s.rules.Cost(c)
		}
		cards = append(cards, ci)
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CourseViewOf(s.course))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rules)
}

// handleStartGame starts a bot-only game on the course. The robot count comes
// from the "robots" query parameter (default 4, capped by the start points).
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	robots := 4
	if v := r.URL.Query().Get("robots"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "robots must be a positive number", http.StatusBadRequest)
			return
		}
		robots = n
	}
	robots = min(robots, len(s.course.StartPoints()))
	var seed int64
	if v := r.URL.Query().Get("seed"); v != "" {
		seed, _ = strconv.ParseInt(v, 10, 64)
	}

	sg, err := s.startGame(robots, seed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, sg.info())
}

func (s *Server) startGame(robots int, seed int64) (*spectatorGame, error) {
	players := make([]game.PlayerConfig, robots)
	for i := range players {
		players[i] = game.PlayerConfig{ClientID: i, Name: fmt.Sprintf("Bot%d", i+1), AI: true}
	}
	rules := s.rules
	// Nobody waits on bots.
	rules.ProgrammingTimeout = 0
	logger := rlog.NewMemoryLogger()
	g, err := game.NewGame(game.GameConfig{
		Board:   s.course.Clone(),
		Rules:   &rules,
		Players: players,
		Logger:  logger,
		Seed:    seed,
	}, nil)
	if err != nil {
		return nil, err
	}

	sg := &spectatorGame{game: g, logger: logger, done: make(chan struct{})}
	s.mu.Lock()
	s.games[g.ID] = sg
	s.mu.Unlock()

	go func() {
		defer close(sg.done)
		if _, err := g.Run(s.ctx); err != nil {
			log.Printf("game %s: %v", g.ID, err)
		}
	}()
	return sg, nil
}

func (sg *spectatorGame) info() GameInfo {
	state := sg.game.State()
	winners := state.Winners
	if winners == nil {
		winners = []int{}
	}
	return GameInfo{
		ID:       state.ID,
		Robots:   len(state.Players),
		Phase:    state.Phase.String(),
		Round:    state.Round,
		Winners:  winners,
		Finished: state.Phase == game.PhaseFinished,
	}
}

func (s *Server) lookupGame(id string) (*spectatorGame, bool) {
	gid, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.games[gid]
	return sg, ok
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.lookupGame(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, sg.info())
}

// handleEvents streams the events of a spectator game (?game=<id>) as JSON
// text messages, starting at ?since=<n>, and closes once the game is over.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.lookupGame(r.URL.Query().Get("game"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	cursor, _ := strconv.Atoi(r.URL.Query().Get("since"))

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	ctx := wsConn.CloseRead(r.Context())
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		// Read done before the events so the last batch is never missed.
		finished := false
		select {
		case <-sg.done:
			finished = true
		default:
		}
		events := sg.logger.Since(cursor)
		for _, e := range events {
			data, _ := json.Marshal(e)
			if err := wsConn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
		cursor += len(events)
		if finished {
			data, _ := json.Marshal(struct {
				Type string   `json:"type"`
				Game GameInfo `json:"game"`
			}{"game_over", sg.info()})
			_ = wsConn.Write(ctx, websocket.MessageText, data)
			wsConn.Close(websocket.StatusNormalClosure, "game ended")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// handlePlay bridges a browser to a TCP game server: the first message names
// the server address and the player, after which protocol messages are
// relayed in both directions.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()

	// Read initial connect message from browser
	_, connectData, err := wsConn.Read(ctx)
	if err != nil {
		log.Printf("WebSocket read connect: %v", err)
		return
	}

	var connectMsg struct {
		Type string `json:"type"`
		Addr string `json:"addr"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(connectData, &connectMsg); err != nil || connectMsg.Type != "connect" {
		wsConn.Close(websocket.StatusPolicyViolation, "expected connect message")
		return
	}

	// Open TCP connection to game server
	tcpConn, err := net.Dial("tcp", connectMsg.Addr)
	if err != nil {
		errMsg, _ := json.Marshal(map[string]string{
			"type":   "error",
			"result": fmt.Sprintf("Could not connect to game server at %s: %v", connectMsg.Addr, err),
		})
		wsConn.Write(ctx, websocket.MessageText, errMsg)
		wsConn.Close(websocket.StatusNormalClosure, "connection failed")
		return
	}
	defer tcpConn.Close()

	// Send join message over TCP
	joinMsg, _ := json.Marshal(map[string]any{
		"type": "join",
		"name": connectMsg.Name,
	})
	joinMsg = append(joinMsg, '\n')
	if _, err := tcpConn.Write(joinMsg); err != nil {
		log.Printf("TCP write join: %v", err)
		return
	}

	done := make(chan struct{})

	// TCP → WebSocket (server messages to browser)
	go func() {
		defer close(done)
		dec := json.NewDecoder(tcpConn)
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if err != io.EOF {
					log.Printf("TCP read error: %v", err)
				}
				return
			}
			if err := wsConn.Write(ctx, websocket.MessageText, msg); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		}
	}()

	// WebSocket → TCP (browser responses to server)
	go func() {
		for {
			_, data, err := wsConn.Read(ctx)
			if err != nil {
				return
			}
			data = append(data, '\n')
			if _, err := tcpConn.Write(data); err != nil {
				log.Printf("TCP write error: %v", err)
				return
			}
		}
	}()

	<-done
	wsConn.Close(websocket.StatusNormalClosure, "game ended")
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// Close stops every running spectator game.
func (s *Server) Close() {
	s.cancel()
}
