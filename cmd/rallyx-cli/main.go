package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/peterkuimelis/rallyx/internal/log"
	rallynet "github.com/peterkuimelis/rallyx/internal/net"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := os.Args[1]
	switch cmd {
	case "host":
		runHost(ctx, os.Args[2:])
	case "join":
		runJoin(ctx, os.Args[2:])
	case "replay":
		runReplay(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  rallyx host [--course FILE] [--rules FILE] [--players N] [--bots N] [--port P] [--events FILE]")
	fmt.Println("  rallyx join [--addr ADDR] [--name NAME]")
	fmt.Println("  rallyx replay FILE")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Start a game server and play the first robot")
	fmt.Println("  join    Connect to a game server and play a robot")
	fmt.Println("  replay  Print the events of a recorded game")
}

func runHost(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	course := fs.String("course", "courses/dizzy-highway.yaml", "path to course file")
	rules := fs.String("rules", "", "path to rules file (default rules if empty)")
	players := fs.Int("players", 2, "human players, the host included")
	bots := fs.Int("bots", 0, "robots played by the computer")
	port := fs.String("port", "9000", "TCP port to listen on")
	name := fs.String("name", "Host", "your robot's name")
	events := fs.String("events", "", "record the game to this zstd event file")
	seed := fs.Int64("seed", 0, "shuffle seed (0 for random)")
	fs.Parse(args)

	srv := &rallynet.Server{
		Port:       *port,
		CourseFile: *course,
		RulesFile:  *rules,
		HostName:   *name,
		Players:    *players,
		Bots:       *bots,
		EventsFile: *events,
		Seed:       *seed,
	}

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runJoin(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	addr := fs.String("addr", "localhost:9000", "server address to connect to")
	name := fs.String("name", "", "your robot's name")
	fs.Parse(args)

	if err := rallynet.Connect(ctx, *addr, *name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	events, err := log.ReadEventsFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(log.FormatAll(events))
}
