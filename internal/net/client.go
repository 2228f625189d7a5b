package net

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
)

// Client connects to a game server and provides a terminal REPL. Lines that
// start with "/" are commands (see /help); any other line answers the
// current prompt.
type Client struct {
	conn net.Conn
	name string
	in   io.Reader
	out  io.Writer

	clientID int
	pending  *ServerMessage
}

// Connect connects to a server, sends the join handshake, and runs the REPL.
func Connect(ctx context.Context, addr, name string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := Join(conn, name); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Println("Connected! Waiting for game to start...")

	client := &Client{conn: conn, name: name, in: os.Stdin, out: os.Stdout}
	return client.RunREPL(ctx)
}

// RunREPL handles server messages and terminal input until the game is over.
func (c *Client) RunREPL(ctx context.Context) error {
	enc := json.NewEncoder(c.conn)

	msgs := make(chan ServerMessage)
	readErr := make(chan error, 1)
	go func() {
		dec := json.NewDecoder(c.conn)
		for {
			var msg ServerMessage
			if err := dec.Decode(&msg); err != nil {
				readErr <- err
				return
			}
			msgs <- msg
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("read message: %w", err)
		case msg := <-msgs:
			if c.handleMessage(msg) {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil // stdin closed; keep following the game
				continue
			}
			quit, err := c.handleLine(enc, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// handleMessage renders a server message. It reports whether the game is over.
func (c *Client) handleMessage(msg ServerMessage) bool {
	switch msg.Type {
	case "welcome":
		c.clientID = msg.ClientID
		c.printf("Seated as player %d in game %s. Type /help for commands.\n", msg.ClientID, msg.GameID)

	case "notify":
		c.renderEvent(msg.Event)

	case "choose_start":
		c.renderState(msg.State)
		c.printf("\nChoose a start point:\n")
		for i, p := range msg.StartPoints {
			c.printf("  %d) (%d,%d)\n", i+1, p.X, p.Y)
		}
		c.prompt(msg)

	case "choose_program":
		c.renderState(msg.State)
		c.printf("\nProgram your registers. Enter up to %d card numbers in register order (0 = fill automatically):\n", len(msg.Locked))
		for _, cv := range msg.Hand {
			c.printf("  %d) %-16s priority %d\n", cv.Index+1, cv.Name, cv.Priority)
		}
		for i, name := range msg.Locked {
			if name != "" {
				c.printf("  register %d is locked: %s\n", i+1, name)
			}
		}
		c.prompt(msg)

	case "choose_option":
		c.printf("\n%s\n", msg.Prompt)
		for i, opt := range msg.Options {
			c.printf("  %d) %s\n", i+1, opt)
		}
		c.prompt(msg)

	case "choose_cards":
		c.renderCardChoice(msg.Prompt, msg.Candidates, msg.Min, msg.Max)
		c.prompt(msg)

	case "cancel":
		if c.pending != nil && c.pending.Seq == msg.Seq {
			c.pending = nil
			c.printf("(time is up, the server decided for you)\n")
		}

	case "command_result":
		if msg.Error != "" {
			c.printf("error: %s\n", msg.Error)
		} else {
			c.printf("%s\n", msg.Reply)
		}

	case "game_over":
		c.printf("\n═══════════════════════════════════\n")
		c.printf("          GAME OVER\n")
		c.printf("═══════════════════════════════════\n")
		c.printf("%s\n", msg.Result)
		c.printf("═══════════════════════════════════\n")
		return true
	}
	return false
}

func (c *Client) prompt(msg ServerMessage) {
	c.pending = &msg
	c.printf("> ")
}

// handleLine sends a command or answers the pending prompt.
func (c *Client) handleLine(enc *json.Encoder, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		cmd := strings.TrimSpace(line[1:])
		if cmd == "quit" || cmd == "exit" {
			return true, nil
		}
		if err := enc.Encode(ClientMessage{Type: "command", Line: cmd}); err != nil {
			return false, fmt.Errorf("send command: %w", err)
		}
		return false, nil
	}
	if c.pending == nil {
		c.printf("Nothing to answer right now. Type /help for commands.\n")
		return false, nil
	}

	answer, perr := parseAnswer(c.pending, line)
	if perr != nil {
		c.printf("%v\n> ", perr)
		return false, nil
	}
	c.pending = nil
	if err := enc.Encode(answer); err != nil {
		return false, fmt.Errorf("send answer: %w", err)
	}
	return false, nil
}

// parseAnswer turns a typed line into the answer to prompt.
func parseAnswer(prompt *ServerMessage, line string) (ClientMessage, error) {
	answer := ClientMessage{Seq: prompt.Seq}
	switch prompt.Type {
	case "choose_start":
		idx, err := parseChoice(line, len(prompt.StartPoints))
		if err != nil {
			return answer, err
		}
		answer.Type, answer.Index = "start", idx
	case "choose_option":
		idx, err := parseChoice(line, len(prompt.Options))
		if err != nil {
			return answer, err
		}
		answer.Type, answer.Index = "option", idx
	case "choose_program":
		prog, err := parseProgram(line, len(prompt.Hand), len(prompt.Locked))
		if err != nil {
			return answer, err
		}
		answer.Type, answer.Program = "program", prog
	case "choose_cards":
		idx, err := parseIndices(line, len(prompt.Candidates), prompt.Min, prompt.Max)
		if err != nil {
			return answer, err
		}
		answer.Type, answer.Indices = "cards", idx
	default:
		return answer, fmt.Errorf("cannot answer %q", prompt.Type)
	}
	return answer, nil
}

// parseChoice reads a 1-based choice and returns it 0-based.
func parseChoice(line string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("enter a number between 1 and %d", count)
	}
	return n - 1, nil
}

// parseProgram reads up to registers 1-based hand numbers; 0 leaves a
// register to the automatic fill (-1 in the answer).
func parseProgram(line string, handSize, registers int) ([]int, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 || len(parts) > registers {
		return nil, fmt.Errorf("enter 1 to %d card numbers", registers)
	}
	prog := make([]int, 0, len(parts))
	used := make(map[int]bool)
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > handSize {
			return nil, fmt.Errorf("card numbers must be between 0 and %d", handSize)
		}
		if n > 0 && used[n] {
			return nil, errors.New("each card can only be used once")
		}
		used[n] = true
		prog = append(prog, n-1)
	}
	return prog, nil
}

func parseIndices(line string, count, min, max int) ([]int, error) {
	parts := strings.Fields(line)
	if len(parts) < min || len(parts) > max {
		return nil, fmt.Errorf("enter %d-%d numbers separated by spaces", min, max)
	}
	var indices []int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > count {
			return nil, fmt.Errorf("each number must be between 1 and %d", count)
		}
		indices = append(indices, n-1) // convert to 0-indexed
	}
	return indices, nil
}

func (c *Client) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Client) renderEvent(ev *EventView) {
	if ev == nil {
		return
	}
	// Format like the TextLogger
	phase := ev.Phase
	if ev.Register >= 0 && phase == "Execution" {
		phase = fmt.Sprintf("%s #%d", phase, ev.Register+1)
	}
	for len(phase) < 16 {
		phase += " "
	}
	c.printf("R%-2d %s| %s\n", ev.Round, phase, ev.Details)
}

func (c *Client) renderState(sv *StateView) {
	if sv == nil {
		return
	}

	c.printf("\n╔══════════════════════════════════════════════════════╗\n")
	c.printf("║  Round %d | %s | %d checkpoint(s)\n", sv.Round, sv.Phase, sv.Checkpoints)
	c.printf("║──────────────────────────────────────────────────────\n")
	for _, r := range sv.Robots {
		pos := "off board"
		if r.Position != nil {
			pos = fmt.Sprintf("(%d,%d)", r.Position.X, r.Position.Y)
		}
		marker := " "
		if r.ClientID == sv.You {
			marker = "*"
		}
		c.printf("║ %s %-10s %-9s %-6s cp %d/%d  energy %d", marker, r.Name, pos, r.Facing, r.Checkpoints, sv.Checkpoints, r.Energy)
		if r.Rebooting {
			c.printf("  [rebooting]")
		}
		if len(r.Upgrades) > 0 {
			c.printf("  %s", strings.Join(r.Upgrades, ", "))
		}
		c.printf("\n")
	}
	c.printf("║──────────────────────────────────────────────────────\n")
	c.printf("║  Pools: Spam %d  Trojan %d  Worm %d  Virus %d  Upgrade %d\n",
		sv.Pools["Spam"], sv.Pools["Trojan"], sv.Pools["Worm"], sv.Pools["Virus"], sv.Pools["Upgrade"])
	c.printf("╚══════════════════════════════════════════════════════╝\n")
}

func (c *Client) renderCardChoice(prompt string, candidates []CardView, min, max int) {
	c.printf("\n%s (select %d", prompt, min)
	if max != min {
		c.printf("-%d", max)
	}
	c.printf(")\n")
	for _, cv := range candidates {
		c.printf("  %d) %s\n", cv.Index+1, cv.Name)
	}
}
