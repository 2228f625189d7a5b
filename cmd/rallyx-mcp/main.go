package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	rallymcp "github.com/peterkuimelis/rallyx/internal/mcp"
)

func main() {
	course := flag.String("course", "courses/dizzy-highway.yaml", "path to course YAML file")
	rules := flag.String("rules", "", "path to rules YAML file (default rules if empty)")
	flag.Parse()

	rallymcp.SetCourseFile(*course)
	rallymcp.SetRulesFile(*rules)

	s := server.NewMCPServer("rallyx", "1.0.0")
	rallymcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
