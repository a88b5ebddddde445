package main

import (
	"context"
	"fmt"
	"os"

	"github.com/elC0mpa/cloud-steward/cmd/mcp/tools"
	"github.com/mark3labs/mcp-go/server"
)

const version = "1.0.0"

func main() {
	rt, err := loadRuntime(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"cloud-steward-mcp",
		version,
		server.WithToolCapabilities(true),
	)

	tools.Register(s, rt)

	serveErr := server.ServeStdio(s)
	if err := rt.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
