package net

// Message types for the JSON protocol over TCP. Every message is one JSON
// object per line.

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// Prompts carry a sequence number that the answer must echo.
	Seq int `json:"seq,omitempty"`

	// For "welcome"
	ClientID int    `json:"client_id,omitempty"`
	GameID   string `json:"game_id,omitempty"`

	// For "notify"
	Event *EventView `json:"event,omitempty"`

	State *StateView `json:"state,omitempty"`

	// For "choose_start"
	StartPoints []PointView `json:"start_points,omitempty"`

	// For "choose_program"
	Hand   []CardView `json:"hand,omitempty"`
	Locked []string   `json:"locked,omitempty"` // register card names, "" where free

	// For "choose_option" and "choose_cards"
	Prompt     string     `json:"prompt,omitempty"`
	Options    []string   `json:"options,omitempty"`
	Candidates []CardView `json:"candidates,omitempty"`
	Min        int        `json:"min,omitempty"`
	Max        int        `json:"max,omitempty"`

	// For "command_result"
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`

	// For "game_over"
	Winners []int  `json:"winners,omitempty"`
	Result  string `json:"result,omitempty"`
}

// EventView is a simplified game event for the client.
type EventView struct {
	Round    int    `json:"round"`
	Register int    `json:"register"`
	Phase    string `json:"phase"`
	Player   int    `json:"player"`
	Type     string `json:"type"`
	Card     string `json:"card,omitempty"`
	Details  string `json:"details"`
}

// PointView is a board cell.
type PointView struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CardView describes a card candidate for selection.
type CardView struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Priority int    `json:"priority,omitempty"`
	Text     string `json:"text,omitempty"`
}

// StateView is the game state from one player's perspective.
type StateView struct {
	Round       int            `json:"round"`
	Register    int            `json:"register"`
	Phase       string         `json:"phase"`
	Checkpoints int            `json:"checkpoints"`
	You         int            `json:"you"`
	Robots      []RobotView    `json:"robots"`
	Pools       map[string]int `json:"pools"`
	Hand        []string       `json:"hand,omitempty"`      // only your own
	Registers   []string       `json:"registers,omitempty"` // only your own
}

// RobotView shows one robot on the board.
type RobotView struct {
	ClientID    int        `json:"client_id"`
	Name        string     `json:"name"`
	Position    *PointView `json:"position,omitempty"`
	Facing      string     `json:"facing"`
	Checkpoints int        `json:"checkpoints"`
	Energy      int        `json:"energy"`
	Rebooting   bool       `json:"rebooting,omitempty"`
	Upgrades    []string   `json:"upgrades,omitempty"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// Answers echo the prompt's sequence number.
	Seq int `json:"seq,omitempty"`

	// For "join" (initial handshake)
	Name string `json:"name,omitempty"`

	// For "option" and "start"
	Index int `json:"index,omitempty"`

	// For "cards"
	Indices []int `json:"indices,omitempty"`

	// For "program": hand index per register, -1 to leave a register to the
	// automatic fill.
	Program []int `json:"program,omitempty"`

	// For "command"
	Line string `json:"line,omitempty"`
}
