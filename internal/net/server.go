package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/command"
	"github.com/peterkuimelis/rallyx/internal/game"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// Server hosts a race between the host, remote TCP players and bots.
type Server struct {
	Port       string
	CourseFile string
	RulesFile  string // empty for the default rules
	HostName   string
	Players    int    // human seats, the host included
	Bots       int    // extra seats played by the AutoController
	EventsFile string // optional zstd event archive
	Seed       int64
}

// Run waits for every remote player to join, then runs the game with the
// host playing through a local REPL.
func (s *Server) Run(ctx context.Context) error {
	course, err := board.LoadCourse(s.CourseFile)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	rules := game.DefaultRules()
	if s.RulesFile != "" {
		if rules, err = game.LoadRules(s.RulesFile); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}
	humans := max(s.Players, 1)
	if seats := humans + s.Bots; seats > len(course.StartPoints()) {
		return fmt.Errorf("course %q has %d start points for %d robots", course.Name, len(course.StartPoints()), seats)
	}

	ln, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	players := []game.PlayerConfig{{ClientID: 0, Name: nameOr(s.HostName, "Host")}}
	var remotes []*NetworkController
	for id := 1; id < humans; id++ {
		fmt.Printf("Waiting for player %d of %d on port %s...\n", id+1, humans, s.Port)
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		defer conn.Close()

		nc := NewNetworkController(conn, id)
		var join ClientMessage
		if err := nc.dec.Decode(&join); err != nil {
			return fmt.Errorf("read join message: %w", err)
		}
		name := nameOr(join.Name, fmt.Sprintf("P%d", id+1))
		fmt.Printf("%s connected from %s\n", name, conn.RemoteAddr())
		players = append(players, game.PlayerConfig{ClientID: id, Name: name})
		remotes = append(remotes, nc)
	}
	for i := 0; i < s.Bots; i++ {
		id := humans + i
		players = append(players, game.PlayerConfig{ClientID: id, Name: fmt.Sprintf("Bot%d", i+1), AI: true})
	}

	// The host plays over an in-memory pipe like any remote player.
	hostConn, hostServerConn := net.Pipe()
	defer hostConn.Close()
	defer hostServerConn.Close()
	hostCtrl := NewNetworkController(hostServerConn, 0)
	all := append([]*NetworkController{hostCtrl}, remotes...)

	controllers := make(map[int]game.PlayerController, len(all))
	for _, nc := range all {
		controllers[nc.ClientID()] = nc
	}

	// The host sees events through its REPL, so the log only needs to be kept.
	var logger log.EventLogger = log.NewMemoryLogger()
	if s.EventsFile != "" {
		archive, err := log.NewZstdLogger(s.EventsFile)
		if err != nil {
			return fmt.Errorf("open event archive: %w", err)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "event archive: %v\n", err)
			}
		}()
		logger = archive
	}

	g, err := game.NewGame(game.GameConfig{
		Board:   course,
		Rules:   &rules,
		Players: players,
		Logger:  logger,
		Seed:    s.Seed,
	}, controllers)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	dispatcher := command.New(g)

	// Run the host's local REPL in a goroutine
	replDone := make(chan error, 1)
	go func() {
		client := &Client{conn: hostConn, name: players[0].Name, in: os.Stdin, out: os.Stdout}
		replDone <- client.RunREPL(ctx)
	}()

	for _, nc := range all {
		go func(nc *NetworkController) { _ = nc.Serve(dispatcher) }(nc)
		if err := nc.SendWelcome(g.ID.String()); err != nil {
			return fmt.Errorf("welcome client %d: %w", nc.ClientID(), err)
		}
	}

	gameDone := make(chan error, 1)
	go func() {
		winners, err := g.Run(ctx)
		result := describeResult(players, winners, err)
		for _, nc := range all {
			_ = nc.SendGameOver(winners, result)
		}
		gameDone <- err
	}()

	// Wait for either the game or the host REPL to finish
	select {
	case err := <-gameDone:
		<-replDone
		return err
	case err := <-replDone:
		// Nobody reads the pipe any more.
		hostConn.Close()
		g.Abort()
		<-gameDone
		return err
	}
}

// Join sends the handshake of a remote player.
func Join(conn net.Conn, name string) error {
	return json.NewEncoder(conn).Encode(ClientMessage{Type: "join", Name: name})
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func describeResult(players []game.PlayerConfig, winners []int, err error) string {
	if err != nil {
		return fmt.Sprintf("Game aborted: %v", err)
	}
	if len(winners) == 0 {
		return "No robot reached the final checkpoint."
	}
	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.ClientID] = p.Name
	}
	var out []string
	for i, id := range winners {
		out = append(out, fmt.Sprintf("%d. %s", i+1, names[id]))
	}
	return "Winners: " + strings.Join(out, ", ")
}
