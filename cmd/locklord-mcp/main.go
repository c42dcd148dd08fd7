package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rmax-ai/locklord/pkg/mcp"
)

func main() {
	apiURL := flag.String("api", "http://127.0.0.1:8090", "Base URL of locklord-d API")
	flag.Parse()

	s := mcp.NewServer(*apiURL)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server failed: %v\n", err)
		os.Exit(1)
	}
}
