package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/peterkuimelis/rallyx/internal/web"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	courseFile := flag.String("course", "courses/dizzy-highway.yaml", "path to course YAML file")
	rulesFile := flag.String("rules", "", "path to rules YAML file (default rules if empty)")
	flag.Parse()

	srv, err := web.NewServer(*courseFile, *rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("rallyx web UI listening on http://localhost:%d", *port)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
